package sjson

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 2))
	assert.Equal(t, "", snippet("", 0))

	long := strings.Repeat("a", 40) + "X" + strings.Repeat("b", 40)
	got := snippet(long, 40)
	assert.True(t, strings.HasPrefix(got, "....."))
	assert.True(t, strings.HasSuffix(got, "....."))
	assert.Contains(t, got, "X")
	assert.Len(t, got, 5+64+5)

	assert.Equal(t, "abc", snippet("abc", 99))
}

func TestDecodingError_Format(t *testing.T) {
	input := `{"a":` + strings.Repeat(" ", 50) + `}`
	_, err := Decode(Default, pairCodec, input)
	require.Error(t, err)

	var de *DecodingError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, len(input)-1, de.Offset())
	assert.Equal(t, 1, de.Pos.Line)
	assert.Equal(t, len(input), de.Pos.Column)
	assert.True(t, strings.HasPrefix(de.Snippet, "....."))
	assert.Equal(t, "1:56", de.Pos.String())
}

func TestDecodingError_MultiLinePosition(t *testing.T) {
	_, err := Decode(Default, ListOf(Int), "[\n  1,\n  true\n]")
	var de *DecodingError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, Position{Line: 3, Column: 3, Offset: 9}, de.Pos)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestEncodingError_Format(t *testing.T) {
	err := &EncodingError{Kind: ErrInvalidKeyKind, Reason: "bad key"}
	assert.Equal(t, "bad key", err.Error())
	err.Output = "{"
	assert.Equal(t, "bad key\nCurrent output: {", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidKeyKind))

	ke := invalidKeyKindError(Structure("Point"))
	assert.Contains(t, ke.Error(), "Value of type 'Point' can't be used in JSON as a key in the map")
	assert.Contains(t, ke.Error(), "its kind is 'STRUCTURE'")
}
