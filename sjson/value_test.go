package sjson

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	input := `{"a":[1,true,null,"x",-2.5e3],"b":{},"c":"é"}`
	v, err := ParseValue(Default, input)
	require.NoError(t, err)

	assert.Equal(t, TypeObject, v.Type())
	assert.Equal(t, 3, v.Len())

	a, ok := v.Get("a")
	require.True(t, ok)
	items, err := a.Items()
	require.NoError(t, err)
	require.Len(t, items, 5)

	n, err := items[0].AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	b, err := items[1].AsBool()
	require.NoError(t, err)
	assert.True(t, b)
	assert.True(t, items[2].IsNull())

	text, err := items[4].NumberText()
	require.NoError(t, err)
	assert.Equal(t, "-2.5e3", text)

	c, ok := v.Get("c")
	require.True(t, ok)
	s, err := c.AsString()
	require.NoError(t, err)
	assert.Equal(t, "é", s)

	_, ok = v.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, `{"a":[1,true,null,"x",-2.5e3],"b":{},"c":"é"}`, v.String())
}

func TestValue_BuildAndEncode(t *testing.T) {
	v := ObjectValue(
		Member{Key: "name", Value: StringValue("x")},
		Member{Key: "n", Value: IntValue(-3)},
		Member{Key: "f", Value: FloatValue(0.25)},
		Member{Key: "list", Value: ArrayValue(BoolValue(false), NullValue())},
		Member{Key: "empty", Value: ArrayValue()},
	)

	text, err := Encode(Default, ValueCodec, v)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"x","n":-3,"f":0.25,"list":[false,null],"empty":[]}`, text)

	text, err = Encode(unquotedFormat(), ValueCodec, v)
	require.NoError(t, err)
	assert.Equal(t, `{name:x,n:-3,f:0.25,list:[false,null],empty:[]}`, text)

	back, err := ParseValue(Default, `{"name":"x","n":-3,"f":0.25,"list":[false,null],"empty":[]}`)
	require.NoError(t, err)
	assert.True(t, v.Equal(back))
	if diff := cmp.Diff(v, back); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_SpecialNumbers(t *testing.T) {
	v := ArrayValue(FloatValue(math.NaN()), FloatValue(math.Inf(-1)))

	_, err := Encode(Default, ValueCodec, v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFloatingPoint))

	f := formatWith(func(c *Config) { c.SerializeSpecialFloatingPointValues = true })
	text, err := Encode(f, ValueCodec, v)
	require.NoError(t, err)
	assert.Equal(t, "[NaN,-Infinity]", text)

	back, err := ParseValue(f, text)
	require.NoError(t, err)
	assert.True(t, v.Equal(back))

	first, err := back.Index(0)
	require.NoError(t, err)
	nan, err := first.AsFloat()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(nan))

	_, err = ParseValue(Default, "[NaN]")
	assert.True(t, errors.Is(err, ErrUnexpectedToken))
}

func TestValue_InvalidNumberText(t *testing.T) {
	for _, text := range []string{"", "1,\"x\":{", "007", "1.", "abc", "+1", "nan"} {
		t.Run(text, func(t *testing.T) {
			out, err := Encode(Default, ValueCodec, ArrayValue(IntValue(1), NumberValue(text)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedNumber), "got %v", err)
			assert.Empty(t, out)

			var ee *EncodingError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, "[1,", ee.Output)
		})
	}

	for _, text := range []string{"0", "-0", "1e400", "0.10", "-2.5E+3"} {
		out, err := Encode(Default, ValueCodec, NumberValue(text))
		require.NoError(t, err)
		assert.Equal(t, text, out)
	}
}

func TestValue_UnquotedParse(t *testing.T) {
	v, err := ParseValue(unquotedFormat(), `{key:value,"q":[bare,1]}`)
	require.NoError(t, err)

	want := ObjectValue(
		Member{Key: "key", Value: StringValue("value")},
		Member{Key: "q", Value: ArrayValue(StringValue("bare"), IntValue(1))},
	)
	assert.True(t, want.Equal(v), "got %s", v)
}

func TestValue_Accessors(t *testing.T) {
	_, err := StringValue("x").AsInt()
	assert.Error(t, err)
	_, err = IntValue(1).AsString()
	assert.Error(t, err)
	_, err = NullValue().Items()
	assert.Error(t, err)
	_, err = ArrayValue().Members()
	assert.Error(t, err)

	_, err = ArrayValue(IntValue(1)).Index(1)
	assert.Error(t, err)

	dup := ObjectValue(Member{Key: "k", Value: IntValue(1)}, Member{Key: "k", Value: IntValue(2)})
	last, ok := dup.Get("k")
	require.True(t, ok)
	assert.True(t, last.Equal(IntValue(2)))

	assert.Equal(t, 0, StringValue("abc").Len())
	assert.True(t, Value{}.IsNull())
}

func TestValue_InterfaceRoundTrip(t *testing.T) {
	native := map[string]any{
		"b": []any{int64(1), 2.5, "s", nil, true},
		"a": map[string]any{"nested": false},
	}

	v, err := FromInterface(native)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"nested":false},"b":[1,2.5,"s",null,true]}`, v.String())

	if diff := cmp.Diff(native, v.Interface()); diff != "" {
		t.Errorf("interface mismatch (-want +got):\n%s", diff)
	}

	keyed, err := FromInterface(map[any]any{uint64(7): "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"7":"x"}`, keyed.String())

	_, err = FromInterface(struct{}{})
	assert.Error(t, err)
}

func TestToValueAndFromValue(t *testing.T) {
	v, err := ToValue(Default, pairCodec, pair{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":1}`, v.String())

	got, err := FromValue(Default, pairCodec, ObjectValue(Member{Key: "a", Value: IntValue(5)}))
	require.NoError(t, err)
	assert.Equal(t, pair{A: 5, B: 42}, got)

	_, err = FromValue(Default, pairCodec, ObjectValue(Member{Key: "a", Value: StringValue("5")}))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestToValue_UnquotedKeepsStrings(t *testing.T) {
	f := unquotedFormat()
	strs := []string{"123", "1e5", "true1", "true", "-4", "x"}

	v, err := ToValue(f, ListOf(String), strs)
	require.NoError(t, err)
	items, err := v.Items()
	require.NoError(t, err)
	require.Len(t, items, len(strs))
	for i, item := range items {
		assert.Equal(t, TypeString, item.Type(), "item %d", i)
		s, err := item.AsString()
		require.NoError(t, err)
		assert.Equal(t, strs[i], s)
	}

	m, err := ToValue(f, MapOf(String, Int), map[string]int32{"007": 7})
	require.NoError(t, err)
	assert.Equal(t, `{"007":7}`, m.String())

	back, err := FromValue(f, ListOf(String), v)
	require.NoError(t, err)
	assert.Equal(t, strs, back)

	// The format's own output stays unquoted.
	text, err := Encode(f, ListOf(String), strs)
	require.NoError(t, err)
	assert.Equal(t, `[123,1e5,true1,"true","-4",x]`, text)
}

func TestValue_AsMapKeyRejected(t *testing.T) {
	codec := EntriesOf(ValueCodec, Int)
	_, err := Encode(Default, codec, []Entry[Value, int32]{{Key: ArrayValue(), Value: 1}})
	assert.Error(t, err)
}
