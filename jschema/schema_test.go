package jschema

import (
	"encoding/json"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/sjson/sjson"
)

type item struct {
	ID    int64
	Name  string
	Score *float64
}

var itemCodec sjson.Codec[item] = sjson.StructOf("Item",
	sjson.FieldOf("id", sjson.Long, func(v *item) int64 { return v.ID }, func(v *item, x int64) { v.ID = x }),
	sjson.FieldOf("name", sjson.String, func(v *item) string { return v.Name }, func(v *item, x string) { v.Name = x },
		sjson.DefaultValue("")),
	sjson.FieldOf("score", sjson.Nullable(sjson.Double), func(v *item) *float64 { return v.Score }, func(v *item, x *float64) { v.Score = x }),
)

type tree struct {
	Label    string
	Children []tree
}

var treeCodec sjson.Codec[tree]

func init() {
	treeCodec = sjson.StructOf("Tree",
		sjson.FieldOf("label", sjson.String, func(v *tree) string { return v.Label }, func(v *tree, x string) { v.Label = x }),
		sjson.FieldOf("children", sjson.ListOf(sjson.Lazy(func() sjson.Codec[tree] { return treeCodec })),
			func(v *tree) []tree { return v.Children }, func(v *tree, x []tree) { v.Children = x }),
	)
}

type level int

var levelCodec sjson.Codec[level] = sjson.EnumOf[level]("Level", "LOW", "HIGH")

func marshal(t *testing.T, s *jsonschema.Schema) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}

func TestFromDescriptor_Structure(t *testing.T) {
	s := For(itemCodec, Options{})
	assert.Equal(t, jsonschema.Version, s.Version)
	assert.Equal(t, "#/$defs/Item", s.Ref)

	def := s.Definitions["Item"]
	require.NotNil(t, def)
	assert.Equal(t, "object", def.Type)
	assert.Equal(t, []string{"id", "score"}, def.Required)
	assert.Equal(t, jsonschema.FalseSchema, def.AdditionalProperties)

	id, ok := def.Properties.Get("id")
	require.True(t, ok)
	assert.Equal(t, "integer", id.Type)
	assert.Equal(t, json.Number("9223372036854775807"), id.Maximum)

	score, ok := def.Properties.Get("score")
	require.True(t, ok)
	require.Len(t, score.AnyOf, 2)
	assert.Equal(t, "number", score.AnyOf[0].Type)
	assert.Equal(t, "null", score.AnyOf[1].Type)
}

func TestFromDescriptor_PropertyOrder(t *testing.T) {
	def := For(itemCodec, Options{}).Definitions["Item"]
	var keys []string
	for el := def.Properties.Oldest(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	assert.Equal(t, []string{"id", "name", "score"}, keys)
}

func TestFromDescriptor_AllowAdditional(t *testing.T) {
	s := For(itemCodec, OptionsFor(sjson.Config{IgnoreUnknownKeys: true}))
	assert.Nil(t, s.Definitions["Item"].AdditionalProperties)
}

func TestFromDescriptor_Recursive(t *testing.T) {
	s := For(treeCodec, Options{})
	require.Len(t, s.Definitions, 1)

	children, ok := s.Definitions["Tree"].Properties.Get("children")
	require.True(t, ok)
	assert.Equal(t, "array", children.Type)
	assert.Equal(t, "#/$defs/Tree", children.Items.Ref)
}

type legacyItem struct{ Code string }

var legacyItemCodec sjson.Codec[legacyItem] = sjson.StructOf("Item",
	sjson.FieldOf("code", sjson.String, func(v *legacyItem) string { return v.Code }, func(v *legacyItem, x string) { v.Code = x }),
)

type order struct {
	Main   item
	Backup *item
	Legacy legacyItem
}

var orderCodec sjson.Codec[order] = sjson.StructOf("Order",
	sjson.FieldOf("main", itemCodec, func(v *order) item { return v.Main }, func(v *order, x item) { v.Main = x }),
	sjson.FieldOf("backup", sjson.Nullable(itemCodec), func(v *order) *item { return v.Backup }, func(v *order, x *item) { v.Backup = x }),
	sjson.FieldOf("legacy", legacyItemCodec, func(v *order) legacyItem { return v.Legacy }, func(v *order, x legacyItem) { v.Legacy = x }),
)

func TestFromDescriptor_SameNameDistinctStructures(t *testing.T) {
	s := For(orderCodec, Options{})
	require.Len(t, s.Definitions, 3)
	assert.Contains(t, s.Definitions, "Order")
	assert.Contains(t, s.Definitions, "Item")
	assert.Contains(t, s.Definitions, "Item.2")

	props := s.Definitions["Order"].Properties
	main, ok := props.Get("main")
	require.True(t, ok)
	assert.Equal(t, "#/$defs/Item", main.Ref)

	backup, ok := props.Get("backup")
	require.True(t, ok)
	require.Len(t, backup.AnyOf, 2)
	assert.Equal(t, "#/$defs/Item", backup.AnyOf[0].Ref)

	legacy, ok := props.Get("legacy")
	require.True(t, ok)
	assert.Equal(t, "#/$defs/Item.2", legacy.Ref)

	def := s.Definitions["Item.2"]
	assert.Equal(t, "Item", def.Title)
	_, ok = def.Properties.Get("code")
	assert.True(t, ok)
	_, ok = s.Definitions["Item"].Properties.Get("code")
	assert.False(t, ok)
}

func TestFromDescriptor_List(t *testing.T) {
	s := For(sjson.ListOf(sjson.Bool), Options{})
	assert.JSONEq(t,
		`{"$schema":"https://json-schema.org/draft/2020-12/schema","type":"array","items":{"type":"boolean"}}`,
		marshal(t, s))
}

func TestFromDescriptor_Enum(t *testing.T) {
	s := For(levelCodec, Options{})
	assert.Equal(t, "string", s.Type)
	assert.Equal(t, []any{"LOW", "HIGH"}, s.Enum)
}

func TestFromDescriptor_Maps(t *testing.T) {
	s := For(sjson.MapOf(sjson.String, sjson.Int), Options{})
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, "integer", s.AdditionalProperties.Type)

	byLevel := For(sjson.EntriesOf(levelCodec, sjson.Bool), Options{})
	assert.Equal(t, "object", byLevel.Type)
	assert.Equal(t, []any{"LOW", "HIGH"}, byLevel.PropertyNames.Enum)

	structured := For(sjson.EntriesOf(itemCodec, sjson.Int), Options{})
	assert.Equal(t, "array", structured.Type)
	require.Len(t, structured.Items.AnyOf, 2)
	assert.Equal(t, "#/$defs/Item", structured.Items.AnyOf[0].Ref)
	assert.Contains(t, structured.Definitions, "Item")
}

func TestFromDescriptor_Primitives(t *testing.T) {
	char := For(sjson.Char, Options{})
	assert.Equal(t, "string", char.Type)
	require.NotNil(t, char.MaxLength)
	assert.Equal(t, uint64(1), *char.MaxLength)

	b := For(sjson.Byte, Options{})
	assert.Equal(t, json.Number("-128"), b.Minimum)
	assert.Equal(t, json.Number("127"), b.Maximum)

	plain := For(sjson.Double, Options{})
	assert.Equal(t, "number", plain.Type)

	special := For(sjson.Double, Options{SpecialFloats: true})
	require.Len(t, special.AnyOf, 2)
	assert.Equal(t, []any{"NaN", "Infinity", "-Infinity"}, special.AnyOf[1].Enum)

	dynamic := For(sjson.ValueCodec, Options{})
	assert.Empty(t, dynamic.Type)
}
