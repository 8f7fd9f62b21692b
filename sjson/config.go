package sjson

// Config holds the format-behavior switches consumed by both engines.
// A Config is copied into a Format and never changes afterwards.
type Config struct {
	// Unquoted emits and accepts unquoted keys and identifier-like string values.
	Unquoted bool `yaml:"unquoted" env:"SJSON_UNQUOTED"`

	// IgnoreUnknownKeys skips object keys the descriptor does not declare.
	IgnoreUnknownKeys bool `yaml:"ignore_unknown_keys" env:"SJSON_IGNORE_UNKNOWN_KEYS"`

	// AllowStructuredMapKeys encodes maps with non-primitive keys as
	// flattened arrays [k1, v1, k2, v2, ...].
	AllowStructuredMapKeys bool `yaml:"allow_structured_map_keys" env:"SJSON_ALLOW_STRUCTURED_MAP_KEYS"`

	// SerializeSpecialFloatingPointValues emits NaN, Infinity and -Infinity
	// as bare literals instead of failing.
	SerializeSpecialFloatingPointValues bool `yaml:"serialize_special_floating_point_values" env:"SJSON_SPECIAL_FLOATS"`

	// EncodeDefaults writes elements even when they equal their declared default.
	EncodeDefaults bool `yaml:"encode_defaults" env:"SJSON_ENCODE_DEFAULTS"`

	// PrettyPrint adds newlines and indentation. Cosmetic only.
	PrettyPrint bool `yaml:"pretty_print" env:"SJSON_PRETTY_PRINT"`

	// Indent is the per-level indentation for PrettyPrint (default four spaces).
	Indent string `yaml:"indent" env:"SJSON_INDENT"`

	// AllowComments strips // and /* */ comments and trailing commas before decoding.
	AllowComments bool `yaml:"allow_comments" env:"SJSON_ALLOW_COMMENTS"`
}

const defaultIndent = "    "

// DefaultConfig returns the strict JSON configuration.
func DefaultConfig() Config {
	return Config{Indent: defaultIndent}
}

// UnquotedConfig returns the relaxed configuration with unquoted keys and strings.
func UnquotedConfig() Config {
	cfg := DefaultConfig()
	cfg.Unquoted = true
	return cfg
}

func (c Config) indent() string {
	if c.Indent == "" {
		return defaultIndent
	}
	return c.Indent
}
