// Package jschema exports sjson descriptors as JSON Schema (draft 2020-12).
//
// Structures become named definitions under $defs and are referenced with
// $ref, which also covers recursive types. Distinct structures sharing a
// serial name get numbered definitions (Item, Item.2, ...). Nullable types
// become an anyOf
// with the null type. Elements without a declared default are required.
package jschema

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/invopop/jsonschema"

	"github.com/Neumenon/sjson/sjson"
)

// Options tune the generated schema.
type Options struct {
	// AllowAdditional permits unknown object members, matching a decoder
	// configured with IgnoreUnknownKeys.
	AllowAdditional bool
	// SpecialFloats admits the NaN, Infinity and -Infinity literals for
	// floating-point values. They are described as strings since JSON
	// Schema has no vocabulary for bare literals.
	SpecialFloats bool
}

// OptionsFor derives schema options from a codec configuration.
func OptionsFor(cfg sjson.Config) Options {
	return Options{
		AllowAdditional: cfg.IgnoreUnknownKeys,
		SpecialFloats:   cfg.SerializeSpecialFloatingPointValues,
	}
}

// FromDescriptor builds a root schema for d.
func FromDescriptor(d *sjson.Descriptor, opts Options) *jsonschema.Schema {
	g := &generator{opts: opts, defs: jsonschema.Definitions{}, names: map[*sjson.Descriptor]string{}}
	root := g.schema(d)
	root.Version = jsonschema.Version
	if len(g.defs) > 0 {
		root.Definitions = g.defs
	}
	return root
}

// For builds a root schema for a codec's descriptor.
func For[T any](codec sjson.Codec[T], opts Options) *jsonschema.Schema {
	return FromDescriptor(codec.Descriptor(), opts)
}

type generator struct {
	opts  Options
	defs  jsonschema.Definitions
	names map[*sjson.Descriptor]string // Definition name per structure
}

func (g *generator) schema(d *sjson.Descriptor) *jsonschema.Schema {
	s := g.nonNull(d)
	if d.IsNullable() {
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{s, {Type: "null"}}}
	}
	return s
}

func (g *generator) nonNull(d *sjson.Descriptor) *jsonschema.Schema {
	switch d.Kind() {
	case sjson.KindPrimitive:
		return g.primitive(d.PrimitiveKind())
	case sjson.KindEnum:
		return &jsonschema.Schema{Type: "string", Title: d.Name(), Enum: enumEntries(d)}
	case sjson.KindList:
		return &jsonschema.Schema{Type: "array", Items: g.schema(d.ElementDescriptor(0))}
	case sjson.KindMap:
		return g.mapSchema(d)
	case sjson.KindStructure:
		return g.structure(d)
	default:
		return &jsonschema.Schema{}
	}
}

func (g *generator) primitive(kind sjson.PrimitiveKind) *jsonschema.Schema {
	switch kind {
	case sjson.PrimitiveByte:
		return integer(math.MinInt8, math.MaxInt8)
	case sjson.PrimitiveShort:
		return integer(math.MinInt16, math.MaxInt16)
	case sjson.PrimitiveInt:
		return integer(math.MinInt32, math.MaxInt32)
	case sjson.PrimitiveLong:
		return integer(math.MinInt64, math.MaxInt64)
	case sjson.PrimitiveFloat, sjson.PrimitiveDouble:
		if g.opts.SpecialFloats {
			return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
				{Type: "number"},
				{Type: "string", Enum: []any{"NaN", "Infinity", "-Infinity"}},
			}}
		}
		return &jsonschema.Schema{Type: "number"}
	case sjson.PrimitiveBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case sjson.PrimitiveChar:
		one := uint64(1)
		return &jsonschema.Schema{Type: "string", MinLength: &one, MaxLength: &one}
	case sjson.PrimitiveUnit:
		return &jsonschema.Schema{Type: "object", AdditionalProperties: jsonschema.FalseSchema}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

func integer(lo, hi int64) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:    "integer",
		Minimum: json.Number(strconv.FormatInt(lo, 10)),
		Maximum: json.Number(strconv.FormatInt(hi, 10)),
	}
}

func enumEntries(d *sjson.Descriptor) []any {
	out := make([]any, d.ElementsCount())
	for i := range out {
		out[i] = d.ElementName(i)
	}
	return out
}

// mapSchema describes primitive and enum keyed maps as objects and every
// other map as the flat [k1, v1, k2, v2, ...] array.
func (g *generator) mapSchema(d *sjson.Descriptor) *jsonschema.Schema {
	key := d.ElementDescriptor(0)
	value := g.schema(d.ElementDescriptor(1))
	switch key.Kind() {
	case sjson.KindEnum:
		return &jsonschema.Schema{
			Type:                 "object",
			PropertyNames:        &jsonschema.Schema{Enum: enumEntries(key)},
			AdditionalProperties: value,
		}
	case sjson.KindPrimitive:
		return &jsonschema.Schema{Type: "object", AdditionalProperties: value}
	default:
		return &jsonschema.Schema{
			Type:        "array",
			Description: "flattened entries: key, value, key, value, ...",
			Items: &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
				g.schema(key),
				value,
			}},
		}
	}
}

func (g *generator) structure(d *sjson.Descriptor) *jsonschema.Schema {
	if name, seen := g.names[d.NonNullable()]; seen {
		return &jsonschema.Schema{Ref: "#/$defs/" + name}
	}
	name := g.defName(d.Name())
	def := &jsonschema.Schema{Type: "object", Title: d.Name(), Properties: jsonschema.NewProperties()}
	// Registered before children so recursive references terminate.
	g.names[d.NonNullable()] = name
	g.defs[name] = def
	for i := 0; i < d.ElementsCount(); i++ {
		el := d.Element(i)
		def.Properties.Set(el.Name, g.schema(el.Descriptor()))
		if !el.Optional {
			def.Required = append(def.Required, el.Name)
		}
	}
	if !g.opts.AllowAdditional {
		def.AdditionalProperties = jsonschema.FalseSchema
	}
	return &jsonschema.Schema{Ref: "#/$defs/" + name}
}

// defName returns name, or name.N for the first N >= 2 not yet taken.
func (g *generator) defName(name string) string {
	if _, taken := g.defs[name]; !taken {
		return name
	}
	for n := 2; ; n++ {
		candidate := name + "." + strconv.Itoa(n)
		if _, taken := g.defs[candidate]; !taken {
			return candidate
		}
	}
}
