package sjson

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// scopeMode is the shape of an open structural scope.
type scopeMode uint8

const (
	modeObject  scopeMode = iota // {"name": value, ...}
	modeList                     // [value, ...]
	modeMap                      // {key: value, ...}
	modeFlatMap                  // [key, value, key, value, ...]
)

func (m scopeMode) begin() byte {
	if m == modeObject || m == modeMap {
		return '{'
	}
	return '['
}

func (m scopeMode) end() byte {
	if m == modeObject || m == modeMap {
		return '}'
	}
	return ']'
}

type encodeScope struct {
	mode  scopeMode
	count int    // Elements (or map entries) written so far
	key   string // Name of the element being written, for error messages
}

// Encoder drives codecs to emit text into an in-memory buffer. An Encoder
// is created per call and must not be shared.
type Encoder struct {
	sb         strings.Builder
	cfg        Config
	scopes     []encodeScope
	keyPending bool // Next scalar is written as a map key
}

func newEncoder(cfg Config) *Encoder {
	return &Encoder{cfg: cfg}
}

// Config returns the configuration of the current call.
func (e *Encoder) Config() Config { return e.cfg }

// String returns the output produced so far.
func (e *Encoder) String() string { return e.sb.String() }

// ============================================================
// Structural scopes
// ============================================================

// BeginStructure opens a scope for desc: an object for structures, an
// array for lists, and an object or flattened array for maps depending on
// the key kind and AllowStructuredMapKeys.
func (e *Encoder) BeginStructure(desc *Descriptor) error {
	if e.keyPending {
		return &EncodingError{
			Kind:   ErrInvalidKeyKind,
			Reason: fmt.Sprintf("Value of type '%s' can't be used in JSON as a key in the map", desc.Name()),
			Output: e.sb.String(),
		}
	}
	switch desc.Kind() {
	case KindStructure:
		e.beginScope(modeObject)
	case KindList:
		e.beginScope(modeList)
	case KindMap:
		key := desc.ElementDescriptor(0)
		switch {
		case isValidMapKey(key):
			e.beginScope(modeMap)
		case e.cfg.AllowStructuredMapKeys:
			e.beginScope(modeFlatMap)
		default:
			err := invalidKeyKindError(key)
			err.Output = e.sb.String()
			return err
		}
	default:
		return fmt.Errorf("sjson: cannot begin structure for %s kind %s", desc.Name(), desc.Kind())
	}
	return nil
}

// BeginCollection opens a list or map scope. The size is advisory; the
// closing bracket does not depend on it.
func (e *Encoder) BeginCollection(desc *Descriptor, size int) error {
	return e.BeginStructure(desc)
}

// EncodeElement prepares the output for element index of desc: writes the
// separator and, inside objects, the key and colon. The caller then encodes
// the element value.
func (e *Encoder) EncodeElement(desc *Descriptor, index int) error {
	if len(e.scopes) == 0 {
		return fmt.Errorf("sjson: EncodeElement outside of a structure")
	}
	s := &e.scopes[len(e.scopes)-1]
	switch s.mode {
	case modeObject:
		e.nextElement()
		name := desc.ElementName(index)
		s.key = name
		e.writeKey(name)
	case modeMap:
		// Even indices are keys, odd indices the values that follow them.
		if index%2 == 0 {
			e.nextElement()
			e.keyPending = true
		}
	default:
		e.nextElement()
	}
	return nil
}

// EndStructure closes the innermost scope.
func (e *Encoder) EndStructure(desc *Descriptor) error {
	if len(e.scopes) == 0 {
		return fmt.Errorf("sjson: EndStructure for %s without open scope", desc.Name())
	}
	e.endScope()
	return nil
}

// ShouldEncodeElementDefault reports whether an element equal to its
// declared default must still be written.
func (e *Encoder) ShouldEncodeElementDefault(desc *Descriptor, index int) bool {
	return e.cfg.EncodeDefaults
}

func (e *Encoder) beginScope(mode scopeMode) {
	e.sb.WriteByte(mode.begin())
	e.scopes = append(e.scopes, encodeScope{mode: mode})
}

// nextElement writes the comma (if not first) and pretty-print indentation.
func (e *Encoder) nextElement() {
	s := &e.scopes[len(e.scopes)-1]
	if s.count > 0 {
		e.sb.WriteByte(',')
	}
	s.count++
	if e.cfg.PrettyPrint {
		e.sb.WriteByte('\n')
		e.writeIndent(len(e.scopes))
	}
}

func (e *Encoder) endScope() {
	s := e.scopes[len(e.scopes)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]
	if e.cfg.PrettyPrint && s.count > 0 {
		e.sb.WriteByte('\n')
		e.writeIndent(len(e.scopes))
	}
	e.sb.WriteByte(s.mode.end())
}

func (e *Encoder) writeIndent(depth int) {
	indent := e.cfg.indent()
	for i := 0; i < depth; i++ {
		e.sb.WriteString(indent)
	}
}

// writeKey writes an object key and the colon.
func (e *Encoder) writeKey(name string) {
	e.writeString(name)
	if e.cfg.PrettyPrint {
		e.sb.WriteString(": ")
	} else {
		e.sb.WriteByte(':')
	}
}

func (e *Encoder) currentKey() string {
	if len(e.scopes) == 0 {
		return ""
	}
	return e.scopes[len(e.scopes)-1].key
}

// ============================================================
// Scalars
// ============================================================

// writeScalar writes a non-string scalar. In key position it becomes the
// object key instead.
func (e *Encoder) writeScalar(text string) {
	if e.keyPending {
		e.keyPending = false
		e.writeKey(text)
		return
	}
	e.sb.WriteString(text)
}

// EncodeNull writes the null literal.
func (e *Encoder) EncodeNull() error {
	e.writeScalar("null")
	return nil
}

// EncodeBool writes true or false.
func (e *Encoder) EncodeBool(v bool) error {
	e.writeScalar(strconv.FormatBool(v))
	return nil
}

// EncodeByte writes an 8-bit integer.
func (e *Encoder) EncodeByte(v int8) error {
	e.writeScalar(strconv.FormatInt(int64(v), 10))
	return nil
}

// EncodeShort writes a 16-bit integer.
func (e *Encoder) EncodeShort(v int16) error {
	e.writeScalar(strconv.FormatInt(int64(v), 10))
	return nil
}

// EncodeInt writes a 32-bit integer.
func (e *Encoder) EncodeInt(v int32) error {
	e.writeScalar(strconv.FormatInt(int64(v), 10))
	return nil
}

// EncodeLong writes a 64-bit integer.
func (e *Encoder) EncodeLong(v int64) error {
	e.writeScalar(strconv.FormatInt(v, 10))
	return nil
}

// EncodeFloat writes a 32-bit float. Non-finite values fail unless
// SerializeSpecialFloatingPointValues is set.
func (e *Encoder) EncodeFloat(v float32) error {
	return e.encodeFloating(float64(v), 32, "float")
}

// EncodeDouble writes a 64-bit float. Non-finite values fail unless
// SerializeSpecialFloatingPointValues is set.
func (e *Encoder) EncodeDouble(v float64) error {
	return e.encodeFloating(v, 64, "double")
}

func (e *Encoder) encodeFloating(v float64, bits int, typ string) error {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0):
		if !e.cfg.SerializeSpecialFloatingPointValues {
			return invalidFloatError(v, e.currentKey(), typ, e.sb.String())
		}
		e.writeScalar(specialFloatText(v))
	default:
		e.writeScalar(strconv.FormatFloat(v, 'g', -1, bits))
	}
	return nil
}

func specialFloatText(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	default:
		return "-Infinity"
	}
}

// EncodeChar writes a single-character string.
func (e *Encoder) EncodeChar(v rune) error {
	return e.EncodeString(string(v))
}

// EncodeString writes a string, unquoted when Unquoted is set and the
// value is identifier-like.
func (e *Encoder) EncodeString(v string) error {
	if e.keyPending {
		e.keyPending = false
		e.writeKey(v)
		return nil
	}
	e.writeString(v)
	return nil
}

// EncodeUnit writes the unit value as an empty object.
func (e *Encoder) EncodeUnit() error {
	e.writeScalar("{}")
	return nil
}

// EncodeEnum writes the name of entry index of desc.
func (e *Encoder) EncodeEnum(desc *Descriptor, index int) error {
	if index < 0 || index >= desc.ElementsCount() {
		return fmt.Errorf("sjson: %d is not a valid entry index for enum %s", index, desc.Name())
	}
	return e.EncodeString(desc.ElementName(index))
}

// EncodeIntElement writes element index of desc as a 32-bit integer.
func (e *Encoder) EncodeIntElement(desc *Descriptor, index int, v int32) error {
	if err := e.EncodeElement(desc, index); err != nil {
		return err
	}
	return e.EncodeInt(v)
}

// EncodeLongElement writes element index of desc as a 64-bit integer.
func (e *Encoder) EncodeLongElement(desc *Descriptor, index int, v int64) error {
	if err := e.EncodeElement(desc, index); err != nil {
		return err
	}
	return e.EncodeLong(v)
}

// EncodeDoubleElement writes element index of desc as a 64-bit float.
func (e *Encoder) EncodeDoubleElement(desc *Descriptor, index int, v float64) error {
	if err := e.EncodeElement(desc, index); err != nil {
		return err
	}
	return e.EncodeDouble(v)
}

// EncodeBoolElement writes element index of desc as a boolean.
func (e *Encoder) EncodeBoolElement(desc *Descriptor, index int, v bool) error {
	if err := e.EncodeElement(desc, index); err != nil {
		return err
	}
	return e.EncodeBool(v)
}

// EncodeStringElement writes element index of desc as a string.
func (e *Encoder) EncodeStringElement(desc *Descriptor, index int, v string) error {
	if err := e.EncodeElement(desc, index); err != nil {
		return err
	}
	return e.EncodeString(v)
}

// EncodeSerializableElement writes element index of desc through codec.
func EncodeSerializableElement[T any](e *Encoder, desc *Descriptor, index int, codec Codec[T], v T) error {
	if err := e.EncodeElement(desc, index); err != nil {
		return err
	}
	return codec.Encode(e, v)
}

// writeString writes s applying the quoting policy.
func (e *Encoder) writeString(s string) {
	if e.cfg.Unquoted && isUnquotedSafe(s) {
		e.sb.WriteString(s)
		return
	}
	e.sb.WriteByte('"')
	writeEscaped(&e.sb, s)
	e.sb.WriteByte('"')
}

const hexDigits = "0123456789abcdef"

// writeEscaped writes s with JSON escapes for quotes, backslashes and
// control characters.
func writeEscaped(sb *strings.Builder, s string) {
	start := 0
	for i := 0; i < len(s); {
		ch := s[i]
		if ch >= 0x20 && ch != '"' && ch != '\\' {
			if ch < utf8.RuneSelf {
				i++
				continue
			}
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			continue
		}
		sb.WriteString(s[start:i])
		switch ch {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteString(`\u00`)
			sb.WriteByte(hexDigits[ch>>4])
			sb.WriteByte(hexDigits[ch&0xF])
		}
		i++
		start = i
	}
	sb.WriteString(s[start:])
}
