package sjson

import (
	"fmt"
	"strings"
)

// Kind is the structural kind of a descriptor.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindStructure
	KindList
	KindMap
	KindEnum
	KindDynamic // Any JSON value (element tree)
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "PRIMITIVE"
	case KindStructure:
		return "STRUCTURE"
	case KindList:
		return "LIST"
	case KindMap:
		return "MAP"
	case KindEnum:
		return "ENUM"
	case KindDynamic:
		return "DYNAMIC"
	default:
		return "UNKNOWN"
	}
}

// PrimitiveKind is the scalar subkind of a primitive descriptor.
type PrimitiveKind uint8

const (
	PrimitiveInt PrimitiveKind = iota
	PrimitiveLong
	PrimitiveFloat
	PrimitiveDouble
	PrimitiveBoolean
	PrimitiveString
	PrimitiveChar
	PrimitiveByte
	PrimitiveShort
	PrimitiveUnit
)

// String returns the subkind name.
func (p PrimitiveKind) String() string {
	switch p {
	case PrimitiveInt:
		return "INT"
	case PrimitiveLong:
		return "LONG"
	case PrimitiveFloat:
		return "FLOAT"
	case PrimitiveDouble:
		return "DOUBLE"
	case PrimitiveBoolean:
		return "BOOLEAN"
	case PrimitiveString:
		return "STRING"
	case PrimitiveChar:
		return "CHAR"
	case PrimitiveByte:
		return "BYTE"
	case PrimitiveShort:
		return "SHORT"
	case PrimitiveUnit:
		return "UNIT"
	default:
		return "UNKNOWN"
	}
}

// Element describes one named child of a structure, enum, list or map
// descriptor. The child descriptor is resolved lazily so that recursive
// types can refer to themselves.
type Element struct {
	Name     string
	Optional bool // Has a declared default; may be absent on decode

	resolve func() *Descriptor
}

// Descriptor returns the element's descriptor, or nil for enum entries.
func (e Element) Descriptor() *Descriptor {
	if e.resolve == nil {
		return nil
	}
	return e.resolve()
}

// Nullable reports whether the element accepts null.
func (e Element) Nullable() bool {
	d := e.Descriptor()
	return d != nil && d.nullable
}

// ElementOf creates a structure element with a fixed child descriptor.
func ElementOf(name string, d *Descriptor) Element {
	return Element{Name: name, resolve: func() *Descriptor { return d }}
}

// LazyElement creates a structure element whose descriptor is resolved on
// first use.
func LazyElement(name string, resolve func() *Descriptor) Element {
	return Element{Name: name, resolve: resolve}
}

// AsOptional marks the element as having a declared default.
func (e Element) AsOptional() Element {
	e.Optional = true
	return e
}

// Descriptor is immutable schema metadata for a type. Descriptors are built
// once and shared read-only across calls.
type Descriptor struct {
	name      string
	kind      Kind
	primitive PrimitiveKind
	nullable  bool
	elements  []Element
	index     map[string]int
	base      *Descriptor // Set on nullable copies
}

// Primitive creates a descriptor for a scalar type.
func Primitive(name string, kind PrimitiveKind) *Descriptor {
	return &Descriptor{name: name, kind: KindPrimitive, primitive: kind}
}

// Structure creates a descriptor for a type with named elements. Element
// order defines the default encode order. Panics on duplicate names.
func Structure(name string, elements ...Element) *Descriptor {
	return withElements(&Descriptor{name: name, kind: KindStructure}, elements)
}

// Enum creates a descriptor for an enumeration with the given entry names.
func Enum(name string, entries ...string) *Descriptor {
	elements := make([]Element, len(entries))
	for i, entry := range entries {
		elements[i] = Element{Name: entry}
	}
	return withElements(&Descriptor{name: name, kind: KindEnum}, elements)
}

// List creates a descriptor for an ordered collection of elem.
func List(elem func() *Descriptor) *Descriptor {
	return &Descriptor{
		name:     "list",
		kind:     KindList,
		elements: []Element{{Name: "0", resolve: elem}},
	}
}

// Map creates a descriptor for a key/value collection.
func Map(key, value func() *Descriptor) *Descriptor {
	return &Descriptor{
		name: "map",
		kind: KindMap,
		elements: []Element{
			{Name: "key", resolve: key},
			{Name: "value", resolve: value},
		},
	}
}

// Dynamic creates a descriptor for schema-free values.
func Dynamic(name string) *Descriptor {
	return &Descriptor{name: name, kind: KindDynamic}
}

func withElements(d *Descriptor, elements []Element) *Descriptor {
	d.elements = elements
	d.index = make(map[string]int, len(elements))
	for i, el := range elements {
		if _, dup := d.index[el.Name]; dup {
			panic(fmt.Sprintf("sjson: duplicate element name %q in %s", el.Name, d.name))
		}
		d.index[el.Name] = i
	}
	return d
}

// Name returns the serial name of the type.
func (d *Descriptor) Name() string { return d.name }

// Kind returns the structural kind.
func (d *Descriptor) Kind() Kind { return d.kind }

// PrimitiveKind returns the scalar subkind. Only meaningful for KindPrimitive.
func (d *Descriptor) PrimitiveKind() PrimitiveKind { return d.primitive }

// IsNullable reports whether the type accepts null.
func (d *Descriptor) IsNullable() bool { return d.nullable }

// ElementsCount returns the number of child elements.
func (d *Descriptor) ElementsCount() int { return len(d.elements) }

// Element returns the i-th child element.
func (d *Descriptor) Element(i int) Element { return d.elements[i] }

// ElementName returns the name of the i-th child element.
func (d *Descriptor) ElementName(i int) string { return d.elements[i].Name }

// ElementDescriptor returns the descriptor of the i-th child element.
func (d *Descriptor) ElementDescriptor(i int) *Descriptor { return d.elements[i].Descriptor() }

// ElementIndex returns the index of the element with the given name, or -1.
func (d *Descriptor) ElementIndex(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return -1
}

// AsNullable returns a copy of d that accepts null.
func (d *Descriptor) AsNullable() *Descriptor {
	if d.nullable {
		return d
	}
	cp := *d
	cp.nullable = true
	cp.base = d
	return &cp
}

// NonNullable returns the descriptor d was made nullable from, or d itself.
// Two descriptors describe the same type when their NonNullable results
// are the same pointer.
func (d *Descriptor) NonNullable() *Descriptor {
	if d.base != nil {
		return d.base
	}
	return d
}

// String returns a compact description, e.g. "C(a, b)".
func (d *Descriptor) String() string {
	var sb strings.Builder
	sb.WriteString(d.name)
	if d.nullable {
		sb.WriteString("?")
	}
	switch d.kind {
	case KindPrimitive:
		sb.WriteString(" ")
		sb.WriteString(d.primitive.String())
	case KindStructure, KindEnum:
		sb.WriteString("(")
		for i, el := range d.elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(el.Name)
		}
		sb.WriteString(")")
	default:
		sb.WriteString(" ")
		sb.WriteString(d.kind.String())
	}
	return sb.String()
}

// isValidMapKey reports whether a descriptor can be used as an object key.
func isValidMapKey(d *Descriptor) bool {
	return d.kind == KindPrimitive || d.kind == KindEnum
}
