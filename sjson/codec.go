package sjson

// Codec is the encode/decode logic for one type, bound to its descriptor.
// Codecs call back into the Encoder and Decoder for nested values; they hold
// no per-call state and are safe for concurrent use.
type Codec[T any] interface {
	Descriptor() *Descriptor
	Encode(e *Encoder, v T) error
	Decode(d *Decoder) (T, error)
}

type funcCodec[T any] struct {
	desc *Descriptor
	enc  func(*Encoder, T) error
	dec  func(*Decoder) (T, error)
}

func (c funcCodec[T]) Descriptor() *Descriptor { return c.desc }

func (c funcCodec[T]) Encode(e *Encoder, v T) error { return c.enc(e, v) }

func (c funcCodec[T]) Decode(d *Decoder) (T, error) { return c.dec(d) }

// NewCodec creates a codec from a descriptor and a pair of functions.
func NewCodec[T any](desc *Descriptor, enc func(*Encoder, T) error, dec func(*Decoder) (T, error)) Codec[T] {
	return funcCodec[T]{desc: desc, enc: enc, dec: dec}
}

// Builtin primitive codecs.
var (
	Int    Codec[int32]   = NewCodec(Primitive("int", PrimitiveInt), (*Encoder).EncodeInt, (*Decoder).DecodeInt)
	Long   Codec[int64]   = NewCodec(Primitive("long", PrimitiveLong), (*Encoder).EncodeLong, (*Decoder).DecodeLong)
	Float  Codec[float32] = NewCodec(Primitive("float", PrimitiveFloat), (*Encoder).EncodeFloat, (*Decoder).DecodeFloat)
	Double Codec[float64] = NewCodec(Primitive("double", PrimitiveDouble), (*Encoder).EncodeDouble, (*Decoder).DecodeDouble)
	Bool   Codec[bool]    = NewCodec(Primitive("boolean", PrimitiveBoolean), (*Encoder).EncodeBool, (*Decoder).DecodeBool)
	String Codec[string]  = NewCodec(Primitive("string", PrimitiveString), (*Encoder).EncodeString, (*Decoder).DecodeString)
	Char   Codec[rune]    = NewCodec(Primitive("char", PrimitiveChar), (*Encoder).EncodeChar, (*Decoder).DecodeChar)
	Byte   Codec[int8]    = NewCodec(Primitive("byte", PrimitiveByte), (*Encoder).EncodeByte, (*Decoder).DecodeByte)
	Short  Codec[int16]   = NewCodec(Primitive("short", PrimitiveShort), (*Encoder).EncodeShort, (*Decoder).DecodeShort)

	Unit Codec[struct{}] = NewCodec(Primitive("unit", PrimitiveUnit),
		func(e *Encoder, _ struct{}) error { return e.EncodeUnit() },
		func(d *Decoder) (struct{}, error) { return struct{}{}, d.DecodeUnit() })
)

// Convert adapts a codec for U into a codec for T. The wire form and the
// descriptor are those of c.
func Convert[T, U any](c Codec[U], to func(T) U, from func(U) (T, error)) Codec[T] {
	return convertCodec[T, U]{inner: c, to: to, from: from}
}

type convertCodec[T, U any] struct {
	inner Codec[U]
	to    func(T) U
	from  func(U) (T, error)
}

func (c convertCodec[T, U]) Descriptor() *Descriptor { return c.inner.Descriptor() }

func (c convertCodec[T, U]) Encode(e *Encoder, v T) error {
	return c.inner.Encode(e, c.to(v))
}

func (c convertCodec[T, U]) Decode(d *Decoder) (T, error) {
	pos := d.Position()
	u, err := c.inner.Decode(d)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := c.from(u)
	if err != nil {
		return v, d.Fail(ErrTypeMismatch, pos, "%v", err)
	}
	return v, nil
}
