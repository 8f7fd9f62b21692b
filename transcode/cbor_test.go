package transcode

import (
	"bytes"
	"io"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/sjson/sjson"
)

func mustParse(t *testing.T, text string) sjson.Value {
	t.Helper()
	v, err := sjson.ParseValue(sjson.Default, text)
	require.NoError(t, err)
	return v
}

func TestRoundTrip(t *testing.T) {
	tests := []string{
		`null`,
		`true`,
		`"text"`,
		`0`,
		`-42`,
		`18446744073709551615`,
		`123456789012345678901234567890`,
		`1.5`,
		`2.0`,
		`[]`,
		`{}`,
		`[1,-2,1.5,true,null,"x"]`,
		`{"a":[1,{"b":"c"}],"z":null}`,
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			v := mustParse(t, text)
			data, err := ToCBOR(v)
			require.NoError(t, err)

			got, err := FromCBOR(data)
			require.NoError(t, err)
			assert.True(t, v.Equal(got), "got %s, want %s", got, v)
		})
	}
}

func TestToCBOR_Deterministic(t *testing.T) {
	a, err := ToCBOR(mustParse(t, `{"b":1,"a":2}`))
	require.NoError(t, err)
	b, err := ToCBOR(mustParse(t, `{"a":2,"b":1}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	diag, err := Diagnose(a)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 2, "b": 1}`, diag)
}

func TestFromCBOR_SortsMembers(t *testing.T) {
	v := mustParse(t, `{"z":1,"a":2}`)
	data, err := ToCBOR(v)
	require.NoError(t, err)

	got, err := FromCBOR(data)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"z":1}`, got.String())
}

func TestFromCBOR_ByteString(t *testing.T) {
	data, err := cbor.Marshal([]byte{0x01, 0x02, 0xff})
	require.NoError(t, err)

	got, err := FromCBOR(data)
	require.NoError(t, err)
	s, err := got.AsString()
	require.NoError(t, err)
	assert.Equal(t, "AQL/", s)
}

func TestFromCBOR_Errors(t *testing.T) {
	_, err := FromCBOR([]byte{0xff})
	assert.Error(t, err)

	tagged, err := cbor.Marshal(cbor.Tag{Number: 1000, Content: "x"})
	require.NoError(t, err)
	_, err = FromCBOR(tagged)
	assert.ErrorContains(t, err, "unsupported CBOR tag 1000")
}

func TestFromCBOR_SpecialFloats(t *testing.T) {
	f := sjson.New(sjson.Config{SerializeSpecialFloatingPointValues: true})
	tree, err := sjson.ParseValue(f, `[NaN,Infinity,-Infinity]`)
	require.NoError(t, err)

	data, err := ToCBOR(tree)
	require.NoError(t, err)
	got, err := FromCBOR(data)
	require.NoError(t, err)
	assert.Equal(t, `[NaN,Infinity,-Infinity]`, got.String())
}

type sample struct {
	Name  string
	Items []int64
}

var sampleCodec sjson.Codec[sample] = sjson.StructOf("Sample",
	sjson.FieldOf("name", sjson.String, func(s *sample) string { return s.Name }, func(s *sample, v string) { s.Name = v }),
	sjson.FieldOf("items", sjson.ListOf(sjson.Long), func(s *sample) []int64 { return s.Items }, func(s *sample, v []int64) { s.Items = v }),
)

func TestTypedRoundTrip(t *testing.T) {
	in := sample{Name: "widget", Items: []int64{3, 1, 2}}
	data, err := EncodeCBOR(sjson.Default, sampleCodec, in)
	require.NoError(t, err)

	out, err := DecodeCBOR(sjson.Default, sampleCodec, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTypedRoundTrip_UnquotedFormat(t *testing.T) {
	unq := sjson.New(sjson.UnquotedConfig())
	for _, s := range []string{"123", "1e5", "true1"} {
		data, err := EncodeCBOR(unq, sjson.String, s)
		require.NoError(t, err)

		diag, err := Diagnose(data)
		require.NoError(t, err)
		assert.Equal(t, `"`+s+`"`, diag)

		out, err := DecodeCBOR(sjson.Default, sjson.String, data)
		require.NoError(t, err)
		assert.Equal(t, s, out)
	}

	in := sample{Name: "42", Items: []int64{7}}
	data, err := EncodeCBOR(unq, sampleCodec, in)
	require.NoError(t, err)
	out, err := DecodeCBOR(unq, sampleCodec, data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSequence(t *testing.T) {
	var buf bytes.Buffer
	w := NewSequenceWriter(&buf)
	inputs := []string{`1`, `"two"`, `[3]`}
	for _, text := range inputs {
		require.NoError(t, w.Write(mustParse(t, text)))
	}

	r := NewSequenceReader(&buf)
	var got []string
	for {
		v, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v.String())
	}
	assert.Equal(t, inputs, got)
}
