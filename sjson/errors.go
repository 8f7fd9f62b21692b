package sjson

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every *DecodingError and *EncodingError unwraps to one
// of these, so callers can test with errors.Is.
var (
	ErrUnexpectedToken      = errors.New("unexpected token")
	ErrUnexpectedEnd        = errors.New("unexpected end of input")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrUnknownKey           = errors.New("unknown key")
	ErrInvalidEscape        = errors.New("invalid escape sequence")
	ErrMalformedNumber      = errors.New("malformed number")
	ErrMissingField         = errors.New("missing field")
	ErrTrailingData         = errors.New("trailing data")
	ErrInvalidKeyKind       = errors.New("invalid map key kind")
	ErrInvalidFloatingPoint = errors.New("invalid floating point value")
)

// Position is a location in the input text.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, in bytes
	Offset int // 0-based byte offset
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// DecodingError reports malformed input. Kind is one of the sentinel errors.
type DecodingError struct {
	Kind    error
	Pos     Position
	Reason  string
	Snippet string // Input around Pos
}

// Offset returns the byte offset of the failure.
func (e *DecodingError) Offset() int { return e.Pos.Offset }

func (e *DecodingError) Error() string {
	return fmt.Sprintf("Unexpected JSON token at offset %d: %s.\n JSON input: %s", e.Pos.Offset, e.Reason, e.Snippet)
}

func (e *DecodingError) Unwrap() error { return e.Kind }

// EncodingError reports a value that cannot be represented under the
// current configuration. Kind is one of the sentinel errors.
type EncodingError struct {
	Kind   error
	Reason string
	Output string // Output produced before the failure
}

func (e *EncodingError) Error() string {
	if e.Output == "" {
		return e.Reason
	}
	return e.Reason + "\nCurrent output: " + e.Output
}

func (e *EncodingError) Unwrap() error { return e.Kind }

const snippetRadius = 32

// snippet returns the input around offset, marking elisions with "....."
func snippet(input string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(input) {
		offset = len(input)
	}
	start := offset - snippetRadius
	end := offset + snippetRadius
	var sb strings.Builder
	if start > 0 {
		sb.WriteString(".....")
	} else {
		start = 0
	}
	if end >= len(input) {
		end = len(input)
	}
	sb.WriteString(input[start:end])
	if end < len(input) {
		sb.WriteString(".....")
	}
	return sb.String()
}

func invalidFloatError(value any, key, typ, output string) *EncodingError {
	var reason string
	if key == "" {
		reason = fmt.Sprintf("'%v' is not a valid '%s' as per JSON specification. "+
			"You can enable 'SerializeSpecialFloatingPointValues' property to serialize such values", value, typ)
	} else {
		reason = fmt.Sprintf("'%v' with key '%s' is not a valid %s as per JSON specification. "+
			"You can enable 'SerializeSpecialFloatingPointValues' property to serialize such values", value, key, typ)
	}
	return &EncodingError{Kind: ErrInvalidFloatingPoint, Reason: reason, Output: output}
}

func invalidKeyKindError(key *Descriptor) *EncodingError {
	return &EncodingError{
		Kind: ErrInvalidKeyKind,
		Reason: fmt.Sprintf("Value of type '%s' can't be used in JSON as a key in the map. "+
			"It should have either primitive or enum kind, but its kind is '%s'.\n"+
			"You can convert such maps to arrays [key1, value1, key2, value2,...] using 'AllowStructuredMapKeys' property",
			key.Name(), key.Kind()),
	}
}
