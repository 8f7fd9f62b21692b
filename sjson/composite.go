package sjson

import (
	"cmp"
	"slices"
	"sync"
)

// ============================================================
// Lists
// ============================================================

type listCodec[E any] struct {
	elem Codec[E]
	desc *Descriptor
}

// ListOf creates a codec for slices of elem. Decoding an empty array
// yields an empty, non-nil slice.
func ListOf[E any](elem Codec[E]) Codec[[]E] {
	return &listCodec[E]{elem: elem, desc: List(elem.Descriptor)}
}

func (c *listCodec[E]) Descriptor() *Descriptor { return c.desc }

func (c *listCodec[E]) Encode(e *Encoder, v []E) error {
	if err := e.BeginCollection(c.desc, len(v)); err != nil {
		return err
	}
	for i, item := range v {
		if err := EncodeSerializableElement(e, c.desc, i, c.elem, item); err != nil {
			return err
		}
	}
	return e.EndStructure(c.desc)
}

func (c *listCodec[E]) Decode(d *Decoder) ([]E, error) {
	if err := d.BeginStructure(c.desc); err != nil {
		return nil, err
	}
	out := []E{}
	for {
		idx, err := d.DecodeElementIndex(c.desc)
		if err != nil {
			return nil, err
		}
		if idx == DecodeDone {
			break
		}
		item, err := DecodeSerializableElement(d, c.elem)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := d.EndStructure(c.desc); err != nil {
		return nil, err
	}
	return out, nil
}

// ============================================================
// Maps
// ============================================================

// decodeEntries reads key/value pairs of a map scope and hands each to add.
func decodeEntries[K, V any](d *Decoder, desc *Descriptor, key Codec[K], value Codec[V], add func(K, V)) error {
	if err := d.BeginStructure(desc); err != nil {
		return err
	}
	for {
		idx, err := d.DecodeElementIndex(desc)
		if err != nil {
			return err
		}
		if idx == DecodeDone {
			break
		}
		k, err := DecodeSerializableElement(d, key)
		if err != nil {
			return err
		}
		idx, err = d.DecodeElementIndex(desc)
		if err != nil {
			return err
		}
		if idx == DecodeDone {
			return d.Fail(ErrUnexpectedToken, d.Position(), "map key without a value")
		}
		v, err := DecodeSerializableElement(d, value)
		if err != nil {
			return err
		}
		add(k, v)
	}
	return d.EndStructure(desc)
}

func encodeEntry[K, V any](e *Encoder, desc *Descriptor, i int, key Codec[K], value Codec[V], k K, v V) error {
	if err := EncodeSerializableElement(e, desc, 2*i, key, k); err != nil {
		return err
	}
	return EncodeSerializableElement(e, desc, 2*i+1, value, v)
}

type mapCodec[K cmp.Ordered, V any] struct {
	key   Codec[K]
	value Codec[V]
	desc  *Descriptor
}

// MapOf creates a codec for Go maps. Entries are written in ascending key
// order. Duplicate keys on decode keep the last value.
func MapOf[K cmp.Ordered, V any](key Codec[K], value Codec[V]) Codec[map[K]V] {
	return &mapCodec[K, V]{key: key, value: value, desc: Map(key.Descriptor, value.Descriptor)}
}

func (c *mapCodec[K, V]) Descriptor() *Descriptor { return c.desc }

func (c *mapCodec[K, V]) Encode(e *Encoder, m map[K]V) error {
	if err := e.BeginCollection(c.desc, len(m)); err != nil {
		return err
	}
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for i, k := range keys {
		if err := encodeEntry(e, c.desc, i, c.key, c.value, k, m[k]); err != nil {
			return err
		}
	}
	return e.EndStructure(c.desc)
}

func (c *mapCodec[K, V]) Decode(d *Decoder) (map[K]V, error) {
	out := make(map[K]V)
	err := decodeEntries(d, c.desc, c.key, c.value, func(k K, v V) { out[k] = v })
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Entry is one key/value pair of an ordered map.
type Entry[K, V any] struct {
	Key   K
	Value V
}

type entriesCodec[K, V any] struct {
	key   Codec[K]
	value Codec[V]
	desc  *Descriptor
}

// EntriesOf creates a map codec over an ordered entry slice. Unlike MapOf
// the key may be any type, including structures when AllowStructuredMapKeys
// is set.
func EntriesOf[K, V any](key Codec[K], value Codec[V]) Codec[[]Entry[K, V]] {
	return &entriesCodec[K, V]{key: key, value: value, desc: Map(key.Descriptor, value.Descriptor)}
}

func (c *entriesCodec[K, V]) Descriptor() *Descriptor { return c.desc }

func (c *entriesCodec[K, V]) Encode(e *Encoder, entries []Entry[K, V]) error {
	if err := e.BeginCollection(c.desc, len(entries)); err != nil {
		return err
	}
	for i, entry := range entries {
		if err := encodeEntry(e, c.desc, i, c.key, c.value, entry.Key, entry.Value); err != nil {
			return err
		}
	}
	return e.EndStructure(c.desc)
}

func (c *entriesCodec[K, V]) Decode(d *Decoder) ([]Entry[K, V], error) {
	out := []Entry[K, V]{}
	err := decodeEntries(d, c.desc, c.key, c.value, func(k K, v V) {
		out = append(out, Entry[K, V]{Key: k, Value: v})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ============================================================
// Enums
// ============================================================

type enumCodec[E ~int] struct{ desc *Descriptor }

// EnumOf creates a codec for an integer enumeration whose values are the
// indices of entries. Values are written by entry name.
func EnumOf[E ~int](name string, entries ...string) Codec[E] {
	return enumCodec[E]{desc: Enum(name, entries...)}
}

func (c enumCodec[E]) Descriptor() *Descriptor { return c.desc }

func (c enumCodec[E]) Encode(e *Encoder, v E) error { return e.EncodeEnum(c.desc, int(v)) }

func (c enumCodec[E]) Decode(d *Decoder) (E, error) {
	idx, err := d.DecodeEnum(c.desc)
	return E(idx), err
}

// ============================================================
// Nullable and lazy codecs
// ============================================================

type nullableCodec[T any] struct {
	inner Codec[T]
	once  sync.Once
	desc  *Descriptor
}

// Nullable wraps c so that nil pointers encode as null and null decodes to
// nil.
func Nullable[T any](c Codec[T]) Codec[*T] {
	return &nullableCodec[T]{inner: c}
}

func (c *nullableCodec[T]) Descriptor() *Descriptor {
	c.once.Do(func() { c.desc = c.inner.Descriptor().AsNullable() })
	return c.desc
}

func (c *nullableCodec[T]) Encode(e *Encoder, v *T) error {
	if v == nil {
		return e.EncodeNull()
	}
	return c.inner.Encode(e, *v)
}

func (c *nullableCodec[T]) Decode(d *Decoder) (*T, error) {
	notNull, err := d.DecodeNotNullMark()
	if err != nil {
		return nil, err
	}
	if !notNull {
		return nil, d.DecodeNull()
	}
	v, err := c.inner.Decode(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type lazyCodec[T any] struct {
	resolve func() Codec[T]
	once    sync.Once
	codec   Codec[T]
}

// Lazy defers codec resolution to first use, closing cycles in recursive
// types.
func Lazy[T any](resolve func() Codec[T]) Codec[T] {
	return &lazyCodec[T]{resolve: resolve}
}

func (c *lazyCodec[T]) get() Codec[T] {
	c.once.Do(func() { c.codec = c.resolve() })
	return c.codec
}

func (c *lazyCodec[T]) Descriptor() *Descriptor { return c.get().Descriptor() }

func (c *lazyCodec[T]) Encode(e *Encoder, v T) error { return c.get().Encode(e, v) }

func (c *lazyCodec[T]) Decode(d *Decoder) (T, error) { return c.get().Decode(d) }
