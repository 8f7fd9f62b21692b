package sjson

// Test fixtures shared by the engine tests.

// pair has defaults on both fields and declares b before a.
type pair struct {
	A int32
	B int32
}

var pairCodec Codec[pair] = StructOf("C",
	FieldOf("b", Int, func(p *pair) int32 { return p.B }, func(p *pair, v int32) { p.B = v }, DefaultValue[int32](42)),
	FieldOf("a", Int, func(p *pair) int32 { return p.A }, func(p *pair, v int32) { p.A = v }, DefaultValue[int32](31)),
)

type single struct{ A int32 }

var singleCodec Codec[single] = StructOf("A",
	FieldOf("a", Int, func(s *single) int32 { return s.A }, func(s *single, v int32) { s.A = v }),
)

type record struct {
	ID    int64
	Name  string
	Tags  []string
	Score *float64
}

var recordCodec Codec[record] = StructOf("Record",
	FieldOf("id", Long, func(r *record) int64 { return r.ID }, func(r *record, v int64) { r.ID = v }),
	FieldOf("name", String, func(r *record) string { return r.Name }, func(r *record, v string) { r.Name = v },
		DefaultValue("")),
	FieldOf("tags", ListOf(String), func(r *record) []string { return r.Tags }, func(r *record, v []string) { r.Tags = v },
		DefaultFunc(func() []string { return nil }, func(a, b []string) bool { return len(a) == 0 && len(b) == 0 })),
	FieldOf("score", Nullable(Double), func(r *record) *float64 { return r.Score }, func(r *record, v *float64) { r.Score = v },
		DefaultFunc(func() *float64 { return nil }, func(a, b *float64) bool { return a == nil && b == nil })),
)

type color int

const (
	red color = iota
	green
	blue
)

var colorCodec = EnumOf[color]("Color", "RED", "GREEN", "BLUE")

type node struct {
	Value    int32
	Children []node
}

var nodeCodec Codec[node]

func init() {
	nodeCodec = StructOf("Node",
		FieldOf("value", Int, func(n *node) int32 { return n.Value }, func(n *node, v int32) { n.Value = v }),
		FieldOf("children", ListOf(Lazy(func() Codec[node] { return nodeCodec })),
			func(n *node) []node { return n.Children }, func(n *node, v []node) { n.Children = v },
			DefaultFunc(func() []node { return nil }, func(a, b []node) bool { return len(a) == 0 && len(b) == 0 })),
	)
}

func ptr[T any](v T) *T { return &v }

func strictFormat() *Format { return New(DefaultConfig()) }

func unquotedFormat() *Format { return New(UnquotedConfig()) }

func formatWith(mutate func(*Config)) *Format {
	cfg := DefaultConfig()
	mutate(&cfg)
	return New(cfg)
}
