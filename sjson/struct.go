package sjson

import "strings"

// Field binds one element of a structure to an accessor pair on T.
// Create fields with FieldOf.
type Field[T any] interface {
	element() Element
	encode(e *Encoder, desc *Descriptor, index int, v *T) error
	decode(d *Decoder, v *T) error
	// applyDefault stores the declared default, reporting false when the
	// field has none.
	applyDefault(v *T) bool
}

// FieldOption configures a field.
type FieldOption[F any] func(*fieldConfig[F])

type fieldConfig[F any] struct {
	def   func() F
	equal func(a, b F) bool
}

// DefaultValue declares v as the field's default. A field with a default may be
// absent on decode and is omitted on encode when equal to it.
func DefaultValue[F comparable](v F) FieldOption[F] {
	return func(c *fieldConfig[F]) {
		c.def = func() F { return v }
		c.equal = func(a, b F) bool { return a == b }
	}
}

// DefaultFunc declares a computed default for types that are not
// comparable, such as slices.
func DefaultFunc[F any](def func() F, equal func(a, b F) bool) FieldOption[F] {
	return func(c *fieldConfig[F]) {
		c.def = def
		c.equal = equal
	}
}

type field[T, F any] struct {
	name  string
	codec Codec[F]
	get   func(*T) F
	set   func(*T, F)
	cfg   fieldConfig[F]
}

// FieldOf declares a structure element named name, read with get and
// written with set.
func FieldOf[T, F any](name string, codec Codec[F], get func(*T) F, set func(*T, F), opts ...FieldOption[F]) Field[T] {
	f := &field[T, F]{name: name, codec: codec, get: get, set: set}
	for _, opt := range opts {
		opt(&f.cfg)
	}
	return f
}

func (f *field[T, F]) element() Element {
	el := LazyElement(f.name, f.codec.Descriptor)
	if f.cfg.def != nil {
		el = el.AsOptional()
	}
	return el
}

func (f *field[T, F]) encode(e *Encoder, desc *Descriptor, index int, v *T) error {
	val := f.get(v)
	if f.cfg.def != nil && !e.ShouldEncodeElementDefault(desc, index) && f.cfg.equal(val, f.cfg.def()) {
		return nil
	}
	return EncodeSerializableElement(e, desc, index, f.codec, val)
}

func (f *field[T, F]) decode(d *Decoder, v *T) error {
	val, err := DecodeSerializableElement(d, f.codec)
	if err != nil {
		return err
	}
	f.set(v, val)
	return nil
}

func (f *field[T, F]) applyDefault(v *T) bool {
	if f.cfg.def == nil {
		return false
	}
	f.set(v, f.cfg.def())
	return true
}

// StructCodec encodes T as an object whose keys are the declared fields.
// Fields are written in declaration order and may be read in any order.
type StructCodec[T any] struct {
	desc   *Descriptor
	fields []Field[T]
}

// StructOf creates a structure codec. It panics if two fields share a name.
func StructOf[T any](name string, fields ...Field[T]) *StructCodec[T] {
	elements := make([]Element, len(fields))
	for i, f := range fields {
		elements[i] = f.element()
	}
	return &StructCodec[T]{desc: Structure(name, elements...), fields: fields}
}

func (c *StructCodec[T]) Descriptor() *Descriptor { return c.desc }

func (c *StructCodec[T]) Encode(e *Encoder, v T) error {
	if err := e.BeginStructure(c.desc); err != nil {
		return err
	}
	for i, f := range c.fields {
		if err := f.encode(e, c.desc, i, &v); err != nil {
			return err
		}
	}
	return e.EndStructure(c.desc)
}

func (c *StructCodec[T]) Decode(d *Decoder) (T, error) {
	var v T
	if err := d.BeginStructure(c.desc); err != nil {
		return v, err
	}
	seen := make([]bool, len(c.fields))
	for {
		idx, err := d.DecodeElementIndex(c.desc)
		if err != nil {
			return v, err
		}
		if idx == DecodeDone {
			break
		}
		if err := c.fields[idx].decode(d, &v); err != nil {
			return v, err
		}
		seen[idx] = true
	}
	end := d.Position()
	if err := d.EndStructure(c.desc); err != nil {
		return v, err
	}

	var missing []string
	for i, f := range c.fields {
		if seen[i] || f.applyDefault(&v) {
			continue
		}
		missing = append(missing, c.desc.ElementName(i))
	}
	switch len(missing) {
	case 0:
		return v, nil
	case 1:
		return v, d.Fail(ErrMissingField, end,
			"Field '%s' is required for type with serial name '%s', but it was missing", missing[0], c.desc.Name())
	default:
		return v, d.Fail(ErrMissingField, end,
			"Fields [%s] are required for type with serial name '%s', but they were missing", strings.Join(missing, ", "), c.desc.Name())
	}
}
