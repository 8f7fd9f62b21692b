// Package transcode converts between sjson element trees and CBOR.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): the same tree
// always produces identical bytes. Object members are therefore written in
// sorted key order, and decoded objects come back sorted.
package transcode

import (
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/Neumenon/sjson/sjson"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("transcode: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		BigIntDec:      cbor.BigIntDecodePointer,
	}.DecMode()
	if err != nil {
		panic("transcode: CBOR decoder initialization failed: " + err.Error())
	}
}

// ToCBOR encodes a tree as a single CBOR data item.
func ToCBOR(v sjson.Value) ([]byte, error) {
	native, err := toNative(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(native)
}

// FromCBOR decodes a single CBOR data item into a tree. Byte strings
// become base64 strings; integers outside the int64 and uint64 ranges keep
// their full decimal text.
func FromCBOR(data []byte) (sjson.Value, error) {
	var native any
	if err := decMode.Unmarshal(data, &native); err != nil {
		return sjson.Value{}, fmt.Errorf("transcode: %w", err)
	}
	return fromNative(native)
}

// EncodeCBOR encodes v through codec and then to CBOR.
func EncodeCBOR[T any](f *sjson.Format, codec sjson.Codec[T], v T) ([]byte, error) {
	tree, err := sjson.ToValue(f, codec, v)
	if err != nil {
		return nil, err
	}
	return ToCBOR(tree)
}

// DecodeCBOR decodes CBOR data and then decodes the result through codec.
func DecodeCBOR[T any](f *sjson.Format, codec sjson.Codec[T], data []byte) (T, error) {
	tree, err := FromCBOR(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return sjson.FromValue(f, codec, tree)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

// SequenceReader reads a CBOR sequence (RFC 8742) one tree at a time.
type SequenceReader struct {
	dec *cbor.Decoder
}

// NewSequenceReader creates a reader over concatenated CBOR data items.
func NewSequenceReader(r io.Reader) *SequenceReader {
	return &SequenceReader{dec: decMode.NewDecoder(r)}
}

// Next returns the next tree, or io.EOF when the sequence is exhausted.
func (s *SequenceReader) Next() (sjson.Value, error) {
	var native any
	if err := s.dec.Decode(&native); err != nil {
		if err == io.EOF {
			return sjson.Value{}, io.EOF
		}
		return sjson.Value{}, fmt.Errorf("transcode: %w", err)
	}
	return fromNative(native)
}

// SequenceWriter writes trees as a CBOR sequence.
type SequenceWriter struct {
	enc *cbor.Encoder
}

// NewSequenceWriter creates a writer emitting concatenated CBOR data items.
func NewSequenceWriter(w io.Writer) *SequenceWriter {
	return &SequenceWriter{enc: encMode.NewEncoder(w)}
}

// Write encodes one tree.
func (s *SequenceWriter) Write(v sjson.Value) error {
	native, err := toNative(v)
	if err != nil {
		return err
	}
	return s.enc.Encode(native)
}

func toNative(v sjson.Value) (any, error) {
	switch v.Type() {
	case sjson.TypeNull:
		return nil, nil
	case sjson.TypeBool:
		b, _ := v.AsBool()
		return b, nil
	case sjson.TypeNumber:
		return numberToNative(v)
	case sjson.TypeString:
		s, _ := v.AsString()
		return s, nil
	case sjson.TypeArray:
		items, _ := v.Items()
		out := make([]any, len(items))
		for i, item := range items {
			n, err := toNative(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case sjson.TypeObject:
		members, _ := v.Members()
		out := make(map[string]any, len(members))
		for _, m := range members {
			n, err := toNative(m.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.Key, err)
			}
			out[m.Key] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("transcode: unknown value type %s", v.Type())
}

func numberToNative(v sjson.Value) (any, error) {
	text, _ := v.NumberText()
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(text, 10, 64); err == nil {
		return u, nil
	}
	if b, ok := new(big.Int).SetString(text, 10); ok {
		return b, nil
	}
	f, err := v.AsFloat()
	if err != nil {
		return nil, fmt.Errorf("transcode: malformed number %q", text)
	}
	return f, nil
}

func fromNative(x any) (sjson.Value, error) {
	switch t := x.(type) {
	case nil:
		return sjson.NullValue(), nil
	case bool:
		return sjson.BoolValue(t), nil
	case int64:
		return sjson.IntValue(t), nil
	case uint64:
		return sjson.NumberValue(strconv.FormatUint(t, 10)), nil
	case *big.Int:
		return sjson.NumberValue(t.String()), nil
	case float32:
		return floatValue(float64(t)), nil
	case float64:
		return floatValue(t), nil
	case string:
		return sjson.StringValue(t), nil
	case []byte:
		return sjson.StringValue(base64.StdEncoding.EncodeToString(t)), nil
	case []any:
		items := make([]sjson.Value, len(t))
		for i, item := range t {
			v, err := fromNative(item)
			if err != nil {
				return sjson.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return sjson.ArrayValue(items...), nil
	case map[string]any:
		// Route through FromInterface for sorted member order, converting
		// children first so nested CBOR-only types are handled here.
		conv := make(map[string]any, len(t))
		for k, item := range t {
			v, err := fromNative(item)
			if err != nil {
				return sjson.Value{}, fmt.Errorf("%s: %w", k, err)
			}
			conv[k] = v
		}
		return sjson.FromInterface(conv)
	case cbor.Tag:
		return sjson.Value{}, fmt.Errorf("transcode: unsupported CBOR tag %d", t.Number)
	default:
		return sjson.Value{}, fmt.Errorf("transcode: unsupported CBOR value %T", x)
	}
}

// floatValue keeps integral floats distinguishable from integers.
func floatValue(f float64) sjson.Value {
	if !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return sjson.NumberValue(strconv.FormatFloat(f, 'f', 1, 64))
	}
	return sjson.FloatValue(f)
}
