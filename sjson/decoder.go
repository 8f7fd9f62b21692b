package sjson

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DecodeDone is returned by DecodeElementIndex when the scope has ended.
const DecodeDone = -1

type decodeScope struct {
	mode   scopeMode
	count  int  // Elements (keys and values for maps) consumed so far
	closed bool // Closing token already consumed
}

// Decoder drives codecs through a token stream. A Decoder is created per
// call and must not be shared.
type Decoder struct {
	lex        *Lexer
	cfg        Config
	logger     *zap.Logger
	scopes     []decodeScope
	keyPending bool // Next scalar is read as a map key
}

func newDecoder(input string, cfg Config, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	lex := NewLexer(input)
	lex.relaxed = cfg.Unquoted
	return &Decoder{lex: lex, cfg: cfg, logger: logger}
}

// Config returns the configuration of the current call.
func (d *Decoder) Config() Config { return d.cfg }

// Position returns the position of the next unread token.
func (d *Decoder) Position() Position { return d.lex.Position() }

// Fail builds a decoding error at pos. Custom codecs use it to report
// values they cannot accept.
func (d *Decoder) Fail(kind error, pos Position, format string, args ...any) error {
	return d.lex.fail(kind, pos, format, args...)
}

// next consumes a token, converting EOF inside a value into an error.
func (d *Decoder) next(expected string) (Token, error) {
	tok, err := d.lex.Next()
	if err != nil {
		return tok, err
	}
	if tok.Type == TokenEOF {
		return tok, d.lex.fail(ErrUnexpectedEnd, tok.Pos, "expected %s, but had 'EOF' instead", expected)
	}
	return tok, nil
}

func (d *Decoder) expect(typ TokenType) (Token, error) {
	tok, err := d.next("'" + typ.String() + "'")
	if err != nil {
		return tok, err
	}
	if tok.Type != typ {
		return tok, d.unexpected(tok, "'"+typ.String()+"'")
	}
	return tok, nil
}

func (d *Decoder) unexpected(tok Token, expected string) error {
	if tok.Type == TokenEOF {
		return d.lex.fail(ErrUnexpectedEnd, tok.Pos, "expected %s, but had 'EOF' instead", expected)
	}
	if tok.IsNull() {
		return d.lex.fail(ErrTypeMismatch, tok.Pos, "expected %s, but had 'null' instead", expected)
	}
	return d.lex.fail(ErrUnexpectedToken, tok.Pos, "expected %s, but had '%s' instead", expected, tok.Value)
}

// finish checks that nothing but whitespace follows the root value.
func (d *Decoder) finish() error {
	tok, err := d.lex.Next()
	if err != nil {
		return err
	}
	if tok.Type != TokenEOF {
		return d.lex.fail(ErrTrailingData, tok.Pos, "expected EOF after parsing, but had '%s' instead", tok.Value)
	}
	return nil
}

// ============================================================
// Structural scopes
// ============================================================

// BeginStructure consumes the opening token for desc.
func (d *Decoder) BeginStructure(desc *Descriptor) error {
	if d.keyPending {
		pos := d.lex.Position()
		return d.lex.fail(ErrInvalidKeyKind, pos, "value of type '%s' can't be used as a key in the map", desc.Name())
	}
	var mode scopeMode
	switch desc.Kind() {
	case KindStructure:
		mode = modeObject
	case KindList:
		mode = modeList
	case KindMap:
		key := desc.ElementDescriptor(0)
		switch {
		case isValidMapKey(key):
			mode = modeMap
		case d.cfg.AllowStructuredMapKeys:
			mode = modeFlatMap
		default:
			pos := d.lex.Position()
			return d.lex.fail(ErrInvalidKeyKind, pos, "%s", invalidKeyKindError(key).Reason)
		}
	default:
		return fmt.Errorf("sjson: cannot begin structure for %s kind %s", desc.Name(), desc.Kind())
	}

	begin := TokenBeginObject
	if mode.begin() == '[' {
		begin = TokenBeginArray
	}
	tok, err := d.next("'" + begin.String() + "'")
	if err != nil {
		return err
	}
	if tok.Type != begin {
		return d.unexpected(tok, fmt.Sprintf("'%s' for the start of %s %s", begin, desc.Kind(), desc.Name()))
	}
	d.scopes = append(d.scopes, decodeScope{mode: mode})
	return nil
}

// DecodeElementIndex returns the index of the next element of desc, or
// DecodeDone when the closing token has been reached. Inside objects the
// key and colon are consumed; the caller then decodes the value.
func (d *Decoder) DecodeElementIndex(desc *Descriptor) (int, error) {
	if len(d.scopes) == 0 {
		return DecodeDone, fmt.Errorf("sjson: DecodeElementIndex outside of a structure")
	}
	s := &d.scopes[len(d.scopes)-1]
	if s.closed {
		return DecodeDone, nil
	}

	switch s.mode {
	case modeList, modeFlatMap:
		done, err := d.separator(s, TokenEndArray)
		if err != nil || done {
			return DecodeDone, err
		}
		idx := s.count
		s.count++
		return idx, nil

	case modeMap:
		if s.count%2 == 1 {
			idx := s.count
			s.count++
			return idx, nil
		}
		done, err := d.separator(s, TokenEndObject)
		if err != nil || done {
			return DecodeDone, err
		}
		d.keyPending = true
		idx := s.count
		s.count++
		return idx, nil

	default:
		for {
			done, err := d.separator(s, TokenEndObject)
			if err != nil || done {
				return DecodeDone, err
			}
			keyTok, err := d.readKey()
			if err != nil {
				return DecodeDone, err
			}
			s.count++
			if idx := desc.ElementIndex(keyTok.Value); idx >= 0 {
				return idx, nil
			}
			if !d.cfg.IgnoreUnknownKeys {
				return DecodeDone, d.lex.fail(ErrUnknownKey, keyTok.Pos,
					"Encountered an unknown key '%s'. You can enable 'IgnoreUnknownKeys' property to ignore unknown keys", keyTok.Value)
			}
			d.logger.Debug("skipping unknown key",
				zap.String("key", keyTok.Value),
				zap.Int("offset", keyTok.Pos.Offset),
				zap.String("type", desc.Name()))
			if err := d.SkipValue(); err != nil {
				return DecodeDone, err
			}
		}
	}
}

// separator handles the EXPECT_COMMA_OR_END / EXPECT_KEY_OR_END states.
// It reports done when the closing token was consumed.
func (d *Decoder) separator(s *decodeScope, end TokenType) (bool, error) {
	tok, err := d.lex.Peek()
	if err != nil {
		return false, err
	}
	if tok.Type == end {
		d.lex.Next()
		s.closed = true
		return true, nil
	}
	if s.count == 0 {
		if tok.Type == TokenEOF {
			return false, d.unexpected(tok, "'"+end.String()+"'")
		}
		return false, nil
	}
	if tok.Type != TokenComma {
		return false, d.unexpected(tok, "',' or '"+end.String()+"'")
	}
	d.lex.Next()
	tok, err = d.lex.Peek()
	if err != nil {
		return false, err
	}
	if tok.Type == end {
		return false, d.lex.fail(ErrUnexpectedToken, tok.Pos, "unexpected trailing comma")
	}
	return false, nil
}

// readKey consumes an object key and the following colon.
func (d *Decoder) readKey() (Token, error) {
	tok, err := d.next("a key")
	if err != nil {
		return tok, err
	}
	switch tok.Type {
	case TokenString:
	case TokenNumber, TokenLiteral:
		if !d.cfg.Unquoted {
			return tok, d.lex.fail(ErrUnexpectedToken, tok.Pos,
				"expected quoted key, but had '%s' instead. Use 'Unquoted' mode to accept unquoted keys", tok.Value)
		}
	default:
		return tok, d.unexpected(tok, "a key")
	}
	if _, err := d.expect(TokenColon); err != nil {
		return tok, err
	}
	return tok, nil
}

// EndStructure consumes the closing token if DecodeElementIndex has not.
func (d *Decoder) EndStructure(desc *Descriptor) error {
	if len(d.scopes) == 0 {
		return fmt.Errorf("sjson: EndStructure for %s without open scope", desc.Name())
	}
	s := d.scopes[len(d.scopes)-1]
	d.scopes = d.scopes[:len(d.scopes)-1]
	if s.closed {
		return nil
	}
	end := TokenEndObject
	if s.mode.end() == ']' {
		end = TokenEndArray
	}
	tok, err := d.next("'" + end.String() + "'")
	if err != nil {
		return err
	}
	if tok.Type != end {
		return d.unexpected(tok, fmt.Sprintf("'%s' for the end of %s", end, desc.Name()))
	}
	return nil
}

// ============================================================
// Scalars
// ============================================================

// scalar consumes one scalar token. In key position the token is the
// object key and the colon after it is consumed too.
func (d *Decoder) scalar(expected string) (tok Token, isKey bool, err error) {
	if d.keyPending {
		d.keyPending = false
		tok, err = d.readKey()
		return tok, true, err
	}
	tok, err = d.next(expected)
	if err != nil {
		return tok, false, err
	}
	if !tok.isScalar() {
		return tok, false, d.lex.fail(ErrTypeMismatch, tok.Pos, "expected %s, but had '%s' instead", expected, tok.Value)
	}
	if tok.IsNull() {
		return tok, false, d.lex.fail(ErrTypeMismatch, tok.Pos,
			"expected %s, but had 'null' instead. Use a nullable type to accept null", expected)
	}
	return tok, false, nil
}

// numberText returns the unevaluated text of a numeric token.
func (d *Decoder) numberText(kind string) (Token, error) {
	tok, isKey, err := d.scalar(kind)
	if err != nil {
		return tok, err
	}
	if tok.Type == TokenNumber || isKey {
		return tok, nil
	}
	if tok.Type == TokenLiteral && tok.Value != "" && (isDigit(tok.Value[0]) || tok.Value[0] == '-') {
		return tok, d.lex.fail(ErrMalformedNumber, tok.Pos, "failed to parse '%s' as %s", tok.Value, kind)
	}
	return tok, d.lex.fail(ErrTypeMismatch, tok.Pos, "expected %s, but had '%s' instead", kind, tok.Value)
}

func (d *Decoder) parseInt(kind string, bits int) (int64, error) {
	tok, err := d.numberText(kind)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(tok.Value, 10, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, d.lex.fail(ErrMalformedNumber, tok.Pos, "numeric value '%s' is out of range for %s", tok.Value, kind)
		}
		return 0, d.lex.fail(ErrMalformedNumber, tok.Pos, "failed to parse '%s' as %s", tok.Value, kind)
	}
	return v, nil
}

func (d *Decoder) parseFloat(kind string, bits int) (float64, error) {
	tok, err := d.numberText(kind)
	if err != nil {
		var de *DecodingError
		if !errors.As(err, &de) || tok.Type != TokenLiteral {
			return 0, err
		}
		special, ok := parseSpecialFloat(tok.Value)
		if !ok {
			return 0, err
		}
		if !d.cfg.SerializeSpecialFloatingPointValues {
			return 0, d.lex.fail(ErrTypeMismatch, tok.Pos,
				"unexpected special floating-point value %s. You can enable 'SerializeSpecialFloatingPointValues' property to accept such values", tok.Value)
		}
		return special, nil
	}
	if special, ok := parseSpecialFloat(tok.Value); ok {
		if !d.cfg.SerializeSpecialFloatingPointValues {
			return 0, d.lex.fail(ErrTypeMismatch, tok.Pos,
				"unexpected special floating-point value %s. You can enable 'SerializeSpecialFloatingPointValues' property to accept such values", tok.Value)
		}
		return special, nil
	}
	v, err := strconv.ParseFloat(tok.Value, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && (math.IsInf(v, 0) || v == 0) {
			return 0, d.lex.fail(ErrMalformedNumber, tok.Pos, "numeric value '%s' is out of range for %s", tok.Value, kind)
		}
		return 0, d.lex.fail(ErrMalformedNumber, tok.Pos, "failed to parse '%s' as %s", tok.Value, kind)
	}
	return v, nil
}

func parseSpecialFloat(s string) (float64, bool) {
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	return 0, false
}

// DecodeNotNullMark reports whether the next value is not null.
func (d *Decoder) DecodeNotNullMark() (bool, error) {
	if d.keyPending {
		return true, nil
	}
	tok, err := d.lex.Peek()
	if err != nil {
		return false, err
	}
	return !tok.IsNull(), nil
}

// DecodeNull consumes the null literal.
func (d *Decoder) DecodeNull() error {
	tok, err := d.next("'null'")
	if err != nil {
		return err
	}
	if !tok.IsNull() {
		return d.lex.fail(ErrTypeMismatch, tok.Pos, "expected 'null' literal, but had '%s' instead", tok.Value)
	}
	return nil
}

// DecodeBool reads true or false.
func (d *Decoder) DecodeBool() (bool, error) {
	tok, isKey, err := d.scalar("boolean")
	if err != nil {
		return false, err
	}
	if tok.Type == TokenLiteral || isKey {
		switch tok.Value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, d.lex.fail(ErrTypeMismatch, tok.Pos, "expected boolean literal, but had '%s' instead", tok.Value)
}

// DecodeByte reads an 8-bit integer.
func (d *Decoder) DecodeByte() (int8, error) {
	v, err := d.parseInt("BYTE", 8)
	return int8(v), err
}

// DecodeShort reads a 16-bit integer.
func (d *Decoder) DecodeShort() (int16, error) {
	v, err := d.parseInt("SHORT", 16)
	return int16(v), err
}

// DecodeInt reads a 32-bit integer.
func (d *Decoder) DecodeInt() (int32, error) {
	v, err := d.parseInt("INT", 32)
	return int32(v), err
}

// DecodeLong reads a 64-bit integer.
func (d *Decoder) DecodeLong() (int64, error) {
	return d.parseInt("LONG", 64)
}

// DecodeFloat reads a 32-bit float.
func (d *Decoder) DecodeFloat() (float32, error) {
	v, err := d.parseFloat("FLOAT", 32)
	return float32(v), err
}

// DecodeDouble reads a 64-bit float.
func (d *Decoder) DecodeDouble() (float64, error) {
	return d.parseFloat("DOUBLE", 64)
}

// DecodeString reads a string. Bare tokens are accepted in Unquoted mode.
func (d *Decoder) DecodeString() (string, error) {
	tok, isKey, err := d.scalar("string literal")
	if err != nil {
		return "", err
	}
	if tok.Type == TokenString || isKey || d.cfg.Unquoted {
		return tok.Value, nil
	}
	return "", d.lex.fail(ErrTypeMismatch, tok.Pos,
		"expected string literal, but had '%s' instead. Use 'Unquoted' mode to accept unquoted strings", tok.Value)
}

// DecodeChar reads a one-character string.
func (d *Decoder) DecodeChar() (rune, error) {
	pos := d.lex.Position()
	s, err := d.DecodeString()
	if err != nil {
		return 0, err
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, d.lex.fail(ErrTypeMismatch, pos, "expected single char, but had '%s' instead", s)
	}
	return r, nil
}

// DecodeUnit reads the unit value, an empty object.
func (d *Decoder) DecodeUnit() error {
	if d.keyPending {
		_, _, err := d.scalar("unit")
		return err
	}
	if _, err := d.expect(TokenBeginObject); err != nil {
		return err
	}
	_, err := d.expect(TokenEndObject)
	return err
}

// DecodeEnum reads an entry name of desc and returns its index.
func (d *Decoder) DecodeEnum(desc *Descriptor) (int, error) {
	pos := d.lex.Position()
	name, err := d.DecodeString()
	if err != nil {
		return 0, err
	}
	idx := desc.ElementIndex(name)
	if idx < 0 {
		return 0, d.lex.fail(ErrTypeMismatch, pos, "'%s' is not among valid %s enum entries", name, desc.Name())
	}
	return idx, nil
}

// DecodeSerializableElement reads the current element value through codec.
func DecodeSerializableElement[T any](d *Decoder, codec Codec[T]) (T, error) {
	return codec.Decode(d)
}

// ============================================================
// Schema-free values
// ============================================================

// SkipValue consumes one complete value without storing it.
func (d *Decoder) SkipValue() error {
	_, err := d.DecodeDynamic()
	return err
}

// DecodeDynamic reads one complete value into an element tree.
func (d *Decoder) DecodeDynamic() (Value, error) {
	if d.keyPending {
		tok, _, err := d.scalar("a key")
		return StringValue(tok.Value), err
	}
	tok, err := d.next("a value")
	if err != nil {
		return Value{}, err
	}
	return d.dynamic(tok)
}

func (d *Decoder) dynamic(tok Token) (Value, error) {
	switch tok.Type {
	case TokenString:
		return StringValue(tok.Value), nil
	case TokenNumber:
		return NumberValue(tok.Value), nil
	case TokenLiteral:
		switch tok.Value {
		case "null":
			return NullValue(), nil
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		if _, ok := parseSpecialFloat(tok.Value); ok && d.cfg.SerializeSpecialFloatingPointValues {
			return NumberValue(tok.Value), nil
		}
		if d.cfg.Unquoted {
			return StringValue(tok.Value), nil
		}
		return Value{}, d.lex.fail(ErrUnexpectedToken, tok.Pos, "unexpected literal '%s'", tok.Value)
	case TokenBeginArray:
		return d.dynamicArray()
	case TokenBeginObject:
		return d.dynamicObject()
	default:
		return Value{}, d.unexpected(tok, "a value")
	}
}

func (d *Decoder) dynamicArray() (Value, error) {
	s := decodeScope{mode: modeList}
	var items []Value
	for {
		done, err := d.separator(&s, TokenEndArray)
		if err != nil {
			return Value{}, err
		}
		if done {
			return ArrayValue(items...), nil
		}
		s.count++
		tok, err := d.next("a value")
		if err != nil {
			return Value{}, err
		}
		item, err := d.dynamic(tok)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
}

func (d *Decoder) dynamicObject() (Value, error) {
	s := decodeScope{mode: modeObject}
	var members []Member
	for {
		done, err := d.separator(&s, TokenEndObject)
		if err != nil {
			return Value{}, err
		}
		if done {
			return ObjectValue(members...), nil
		}
		s.count++
		keyTok, err := d.readKey()
		if err != nil {
			return Value{}, err
		}
		tok, err := d.next("a value")
		if err != nil {
			return Value{}, err
		}
		value, err := d.dynamic(tok)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: keyTok.Value, Value: value})
	}
}
