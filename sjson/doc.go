// Package sjson implements a descriptor-driven JSON codec engine.
//
// Every type is handled by a Codec bound to a Descriptor. The engine walks
// the descriptor and calls the codec at each structural boundary; the codec
// calls the engine back for nested values. Encoders and Decoders are per
// call, while Descriptors, Codecs and Formats are shared read-only.
//
// # Data Model
//
// Primitive: int, long, float, double, boolean, string, char, byte, short, unit
// Composite: structure (named elements), list, map, enum
// Dynamic:   schema-free Value trees
//
// # Text Grammar
//
// Standard JSON, plus two relaxations:
//   - Unquoted: identifier-like keys and strings without quotes
//   - SerializeSpecialFloatingPointValues: bare NaN, Infinity and -Infinity
//
// Maps whose key is primitive or enum are written as objects. Other keys
// need AllowStructuredMapKeys, which writes the map as [k1, v1, k2, v2].
//
// # Example
//
//	type Point struct{ X, Y int32 }
//
//	var PointCodec = sjson.StructOf("Point",
//	    sjson.FieldOf("x", sjson.Int, func(p *Point) int32 { return p.X }, func(p *Point, v int32) { p.X = v }),
//	    sjson.FieldOf("y", sjson.Int, func(p *Point) int32 { return p.Y }, func(p *Point, v int32) { p.Y = v },
//	        sjson.DefaultValue[int32](0)),
//	)
//
//	text, err := sjson.Encode(sjson.Default, PointCodec, Point{X: 1})
//	// {"x":1}
//
// # Errors
//
// Failures are *DecodingError or *EncodingError values wrapping a sentinel
// such as ErrUnknownKey or ErrInvalidFloatingPoint:
//
//	if errors.Is(err, sjson.ErrUnknownKey) { ... }
package sjson
