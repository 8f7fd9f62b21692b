package sjson

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota

	TokenString  // "quoted string"
	TokenNumber  // -12.5e3, kept as text
	TokenLiteral // true, false, null, NaN, Infinity, bare_identifier

	TokenBeginObject // {
	TokenEndObject   // }
	TokenBeginArray  // [
	TokenEndArray    // ]
	TokenColon       // :
	TokenComma       // ,
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenString:
		return "STRING"
	case TokenNumber:
		return "NUMBER"
	case TokenLiteral:
		return "LITERAL"
	case TokenBeginObject:
		return "{"
	case TokenEndObject:
		return "}"
	case TokenBeginArray:
		return "["
	case TokenEndArray:
		return "]"
	case TokenColon:
		return ":"
	case TokenComma:
		return ","
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexer token. Value holds the decoded string for
// TokenString and the raw text for every other type.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Type {
	case TokenString:
		return fmt.Sprintf("%s(%q)", t.Type, t.Value)
	case TokenNumber, TokenLiteral:
		return fmt.Sprintf("%s(%s)", t.Type, t.Value)
	default:
		return t.Type.String()
	}
}

// IsNull reports whether the token is the null literal.
func (t Token) IsNull() bool {
	return t.Type == TokenLiteral && t.Value == "null"
}

// isScalar reports whether the token can stand for a key or primitive value.
func (t Token) isScalar() bool {
	return t.Type == TokenString || t.Type == TokenNumber || t.Type == TokenLiteral
}

// Lexer is a single-pass scanner with one token of lookahead.
type Lexer struct {
	input string
	pos   int // Current byte offset
	line  int // 1-based
	col   int // 1-based

	peeked  Token
	hasPeek bool

	relaxed bool // Accept raw control characters inside strings
}

// NewLexer creates a lexer over a fully materialized input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if l.hasPeek {
		return l.peeked, nil
	}
	tok, err := l.scan()
	if err != nil {
		return tok, err
	}
	l.peeked = tok
	l.hasPeek = true
	return tok, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.hasPeek {
		l.hasPeek = false
		return l.peeked, nil
	}
	return l.scan()
}

// Tokenize returns all remaining tokens, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Position returns the position of the next unread byte.
func (l *Lexer) Position() Position {
	if l.hasPeek {
		return l.peeked.Pos
	}
	return l.currentPos()
}

// fail builds a decoding error at pos.
func (l *Lexer) fail(kind error, pos Position, format string, args ...any) *DecodingError {
	return &DecodingError{
		Kind:    kind,
		Pos:     pos,
		Reason:  fmt.Sprintf(format, args...),
		Snippet: snippet(l.input, pos.Offset),
	}
}

func (l *Lexer) scan() (Token, error) {
	l.skipWhitespace()

	startPos := l.currentPos()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: startPos}, nil
	}

	ch := l.peek()
	switch ch {
	case '{':
		l.advance()
		return Token{Type: TokenBeginObject, Value: "{", Pos: startPos}, nil
	case '}':
		l.advance()
		return Token{Type: TokenEndObject, Value: "}", Pos: startPos}, nil
	case '[':
		l.advance()
		return Token{Type: TokenBeginArray, Value: "[", Pos: startPos}, nil
	case ']':
		l.advance()
		return Token{Type: TokenEndArray, Value: "]", Pos: startPos}, nil
	case ':':
		l.advance()
		return Token{Type: TokenColon, Value: ":", Pos: startPos}, nil
	case ',':
		l.advance()
		return Token{Type: TokenComma, Value: ",", Pos: startPos}, nil
	case '"':
		return l.scanString()
	}

	if isBareStart(ch) {
		return l.scanBare(), nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, l.fail(ErrUnexpectedToken, startPos, "unexpected character %q", r)
}

// scanString scans a quoted string, decoding escape sequences.
func (l *Lexer) scanString() (Token, error) {
	startPos := l.currentPos()
	l.advance() // consume opening "

	// Fast path: no escapes.
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '"' {
			value := l.input[start:l.pos]
			l.advance()
			return Token{Type: TokenString, Value: value, Pos: startPos}, nil
		}
		if ch == '\\' {
			break
		}
		if ch < 0x20 && !l.relaxed {
			return Token{}, l.controlChar(ch)
		}
		l.advance()
	}

	var sb strings.Builder
	sb.WriteString(l.input[start:l.pos])
	for {
		if l.pos >= len(l.input) {
			return Token{}, l.fail(ErrUnexpectedEnd, startPos, "unterminated string")
		}

		ch := l.peek()
		if ch == '"' {
			l.advance()
			return Token{Type: TokenString, Value: sb.String(), Pos: startPos}, nil
		}
		if ch != '\\' {
			if ch < 0x20 && !l.relaxed {
				return Token{}, l.controlChar(ch)
			}
			sb.WriteByte(ch)
			l.advance()
			continue
		}

		escPos := l.currentPos()
		l.advance()
		if l.pos >= len(l.input) {
			return Token{}, l.fail(ErrUnexpectedEnd, escPos, "unterminated escape sequence")
		}
		escaped := l.peek()
		l.advance()
		switch escaped {
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case '/':
			sb.WriteByte('/')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'u':
			r, err := l.scanUnicodeEscape(escPos)
			if err != nil {
				return Token{}, err
			}
			sb.WriteRune(r)
		default:
			return Token{}, l.fail(ErrInvalidEscape, escPos, "invalid escaped char '%c'", escaped)
		}
	}
}

// scanUnicodeEscape reads the XXXX of \uXXXX, combining surrogate pairs.
func (l *Lexer) scanUnicodeEscape(escPos Position) (rune, error) {
	r1, err := l.scanHex4(escPos)
	if err != nil {
		return 0, err
	}
	if !utf16.IsSurrogate(r1) {
		return r1, nil
	}
	if strings.HasPrefix(l.input[l.pos:], `\u`) {
		save := *l
		l.advance()
		l.advance()
		r2, err := l.scanHex4(escPos)
		if err == nil {
			if r := utf16.DecodeRune(r1, r2); r != utf8.RuneError {
				return r, nil
			}
		}
		*l = save
	}
	return 0, l.fail(ErrInvalidEscape, escPos, "unpaired surrogate '\\u%04X'", r1)
}

// controlChar reports an unescaped control character at the current
// position.
func (l *Lexer) controlChar(ch byte) *DecodingError {
	return l.fail(ErrUnexpectedToken, l.currentPos(), "unescaped control character %q in string", ch)
}

func (l *Lexer) scanHex4(escPos Position) (rune, error) {
	if l.pos+4 > len(l.input) {
		return 0, l.fail(ErrUnexpectedEnd, escPos, "unexpected EOF during unicode escape")
	}
	var r rune
	for i := 0; i < 4; i++ {
		ch := l.peek()
		var v byte
		switch {
		case ch >= '0' && ch <= '9':
			v = ch - '0'
		case ch >= 'a' && ch <= 'f':
			v = ch - 'a' + 10
		case ch >= 'A' && ch <= 'F':
			v = ch - 'A' + 10
		default:
			return 0, l.fail(ErrInvalidEscape, escPos, "invalid hex digit '%c' in unicode escape", ch)
		}
		r = r<<4 | rune(v)
		l.advance()
	}
	return r, nil
}

// scanBare scans an unquoted run: a number, a keyword literal, or a bare
// identifier. Numbers are left unevaluated.
func (l *Lexer) scanBare() Token {
	startPos := l.currentPos()
	start := l.pos
	for l.pos < len(l.input) && isBareChar(l.peek()) {
		l.advance()
	}
	value := l.input[start:l.pos]
	if isNumberText(value) {
		return Token{Type: TokenNumber, Value: value, Pos: startPos}
	}
	return Token{Type: TokenLiteral, Value: value, Pos: startPos}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

// Helper methods

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// Character classification

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isBareStart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '-'
}

func isBareChar(ch byte) bool {
	return isBareStart(ch) || ch == '.' || ch == '+'
}

// isNumberText checks the JSON number grammar:
// -? (0 | [1-9] digits*) (. digits)? ([eE] [+-]? digits)?
func isNumberText(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i+1 < len(s) && s[i] == '0' && isDigit(s[i+1]) {
		return false
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		digits = 0
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
		if digits == 0 {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		digits = 0
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
		if digits == 0 {
			return false
		}
	}
	return i == len(s)
}

// isUnquotedSafe reports whether s can be written without quotes in
// unquoted mode and still read back as the same string.
func isUnquotedSafe(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !isLetter(ch) && !isDigit(ch) && ch != '_' {
			return false
		}
	}
	switch s {
	case "null", "true", "false", "NaN", "Infinity":
		return false
	}
	return true
}
