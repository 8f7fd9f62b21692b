package sjson

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// ValueType is the type of a schema-free value.
type ValueType uint8

const (
	TypeNull ValueType = iota
	TypeBool
	TypeNumber // Kept as text; may be NaN, Infinity or -Infinity
	TypeString
	TypeArray
	TypeObject
)

// String returns the type name.
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Member is one key/value pair of an object. Objects keep member order.
type Member struct {
	Key   string
	Value Value
}

// Value is a schema-free value tree. The zero Value is null.
type Value struct {
	typ     ValueType
	boolVal bool
	text    string // Number text or string value
	items   []Value
	members []Member
}

// ============================================================
// Constructors
// ============================================================

// NullValue creates a null value.
func NullValue() Value { return Value{} }

// BoolValue creates a boolean value.
func BoolValue(v bool) Value { return Value{typ: TypeBool, boolVal: v} }

// NumberValue creates a number from its textual form. The text is checked
// when encoded: anything but a JSON number or a special float literal fails
// with ErrMalformedNumber.
func NumberValue(text string) Value { return Value{typ: TypeNumber, text: text} }

// IntValue creates an integer number.
func IntValue(v int64) Value { return NumberValue(strconv.FormatInt(v, 10)) }

// FloatValue creates a floating-point number. Non-finite values use the
// NaN, Infinity and -Infinity literals.
func FloatValue(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NumberValue(specialFloatText(v))
	}
	return NumberValue(strconv.FormatFloat(v, 'g', -1, 64))
}

// StringValue creates a string value.
func StringValue(v string) Value { return Value{typ: TypeString, text: v} }

// ArrayValue creates an array value.
func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{typ: TypeArray, items: items}
}

// ObjectValue creates an object value with members in the given order.
func ObjectValue(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{typ: TypeObject, members: members}
}

// ============================================================
// Accessors
// ============================================================

// Type returns the value type.
func (v Value) Type() ValueType { return v.typ }

// IsNull returns true if this is a null value.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// AsBool returns the boolean value.
func (v Value) AsBool() (bool, error) {
	if v.typ != TypeBool {
		return false, fmt.Errorf("sjson: expected bool, got %s", v.typ)
	}
	return v.boolVal, nil
}

// AsInt parses the number as a 64-bit integer.
func (v Value) AsInt() (int64, error) {
	if v.typ != TypeNumber {
		return 0, fmt.Errorf("sjson: expected number, got %s", v.typ)
	}
	return strconv.ParseInt(v.text, 10, 64)
}

// AsFloat parses the number as a 64-bit float.
func (v Value) AsFloat() (float64, error) {
	if v.typ != TypeNumber {
		return 0, fmt.Errorf("sjson: expected number, got %s", v.typ)
	}
	if f, ok := parseSpecialFloat(v.text); ok {
		return f, nil
	}
	return strconv.ParseFloat(v.text, 64)
}

// NumberText returns the unevaluated text of a number.
func (v Value) NumberText() (string, error) {
	if v.typ != TypeNumber {
		return "", fmt.Errorf("sjson: expected number, got %s", v.typ)
	}
	return v.text, nil
}

// AsString returns the string value.
func (v Value) AsString() (string, error) {
	if v.typ != TypeString {
		return "", fmt.Errorf("sjson: expected string, got %s", v.typ)
	}
	return v.text, nil
}

// Items returns the elements of an array.
func (v Value) Items() ([]Value, error) {
	if v.typ != TypeArray {
		return nil, fmt.Errorf("sjson: expected array, got %s", v.typ)
	}
	return v.items, nil
}

// Members returns the members of an object in input order.
func (v Value) Members() ([]Member, error) {
	if v.typ != TypeObject {
		return nil, fmt.Errorf("sjson: expected object, got %s", v.typ)
	}
	return v.members, nil
}

// Len returns the length of an array or object.
func (v Value) Len() int {
	switch v.typ {
	case TypeArray:
		return len(v.items)
	case TypeObject:
		return len(v.members)
	default:
		return 0
	}
}

// Get returns the last member of an object with the given key.
func (v Value) Get(key string) (Value, bool) {
	if v.typ != TypeObject {
		return Value{}, false
	}
	for i := len(v.members) - 1; i >= 0; i-- {
		if v.members[i].Key == key {
			return v.members[i].Value, true
		}
	}
	return Value{}, false
}

// Index returns the i-th element of an array.
func (v Value) Index(i int) (Value, error) {
	if v.typ != TypeArray {
		return Value{}, fmt.Errorf("sjson: not an array")
	}
	if i < 0 || i >= len(v.items) {
		return Value{}, fmt.Errorf("sjson: index %d out of bounds (len=%d)", i, len(v.items))
	}
	return v.items[i], nil
}

// Equal reports whether two trees are identical. Numbers compare by text,
// objects by member order.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeNull:
		return true
	case TypeBool:
		return v.boolVal == o.boolVal
	case TypeNumber, TypeString:
		return v.text == o.text
	case TypeArray:
		return slices.EqualFunc(v.items, o.items, Value.Equal)
	case TypeObject:
		return slices.EqualFunc(v.members, o.members, func(a, b Member) bool {
			return a.Key == b.Key && a.Value.Equal(b.Value)
		})
	}
	return false
}

// String returns the compact text form.
func (v Value) String() string {
	cfg := DefaultConfig()
	cfg.SerializeSpecialFloatingPointValues = true
	s, err := EncodeToText(v, ValueCodec, cfg)
	if err != nil {
		return fmt.Sprintf("<invalid value: %v>", err)
	}
	return s
}

// ============================================================
// Native Go conversion
// ============================================================

// Interface converts v to plain Go values: nil, bool, int64 or float64,
// string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.typ {
	case TypeBool:
		return v.boolVal
	case TypeNumber:
		if i, err := strconv.ParseInt(v.text, 10, 64); err == nil {
			return i
		}
		f, _ := v.AsFloat()
		return f
	case TypeString:
		return v.text
	case TypeArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case TypeObject:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface builds a tree from plain Go values. Map keys are sorted so
// the result is deterministic.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return NumberValue(strconv.FormatUint(uint64(t), 10)), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		return NumberValue(strconv.FormatUint(t, 10)), nil
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case string:
		return StringValue(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return ArrayValue(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		members := make([]Member, len(keys))
		for i, k := range keys {
			v, err := FromInterface(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			members[i] = Member{Key: k, Value: v}
		}
		return ObjectValue(members...), nil
	case map[any]any:
		conv := make(map[string]any, len(t))
		for k, item := range t {
			conv[fmt.Sprint(k)] = item
		}
		return FromInterface(conv)
	default:
		return Value{}, fmt.Errorf("sjson: unsupported type %T", x)
	}
}

// ============================================================
// Codec
// ============================================================

// ValueCodec encodes and decodes schema-free value trees.
var ValueCodec Codec[Value] = valueCodec{desc: Dynamic("sjson.Value")}

type valueCodec struct{ desc *Descriptor }

func (c valueCodec) Descriptor() *Descriptor { return c.desc }

func (c valueCodec) Encode(e *Encoder, v Value) error { return e.EncodeValue(v) }

func (c valueCodec) Decode(d *Decoder) (Value, error) { return d.DecodeDynamic() }

// EncodeValue writes a schema-free tree at the current position.
func (e *Encoder) EncodeValue(v Value) error {
	switch v.typ {
	case TypeNull:
		return e.EncodeNull()
	case TypeBool:
		return e.EncodeBool(v.boolVal)
	case TypeNumber:
		special, ok := parseSpecialFloat(v.text)
		if ok && !e.cfg.SerializeSpecialFloatingPointValues {
			return invalidFloatError(special, e.currentKey(), "number", e.sb.String())
		}
		if !ok && !isNumberText(v.text) {
			return &EncodingError{
				Kind:   ErrMalformedNumber,
				Reason: fmt.Sprintf("'%s' is not a valid JSON number", v.text),
				Output: e.sb.String(),
			}
		}
		e.writeScalar(v.text)
		return nil
	case TypeString:
		return e.EncodeString(v.text)
	case TypeArray:
		if e.keyPending {
			return &EncodingError{Kind: ErrInvalidKeyKind, Reason: "array can't be used in JSON as a key in the map", Output: e.sb.String()}
		}
		e.beginScope(modeList)
		for _, item := range v.items {
			e.nextElement()
			if err := e.EncodeValue(item); err != nil {
				return err
			}
		}
		e.endScope()
		return nil
	case TypeObject:
		if e.keyPending {
			return &EncodingError{Kind: ErrInvalidKeyKind, Reason: "object can't be used in JSON as a key in the map", Output: e.sb.String()}
		}
		e.beginScope(modeObject)
		for _, m := range v.members {
			e.nextElement()
			e.scopes[len(e.scopes)-1].key = m.Key
			e.writeKey(m.Key)
			if err := e.EncodeValue(m.Value); err != nil {
				return err
			}
		}
		e.endScope()
		return nil
	}
	return fmt.Errorf("sjson: unknown value type %s", v.typ)
}

// ============================================================
// Tree conversion
// ============================================================

// ParseValue decodes text into a schema-free tree under f's configuration.
func ParseValue(f *Format, text string) (Value, error) {
	return Decode(f, ValueCodec, text)
}

// ToValue converts a typed value into a tree through its codec. Strings
// stay strings whatever f's quoting mode.
func ToValue[T any](f *Format, codec Codec[T], v T) (Value, error) {
	f = f.treeFormat()
	text, err := Encode(f, codec, v)
	if err != nil {
		return Value{}, err
	}
	return ParseValue(f, text)
}

// FromValue converts a tree into a typed value through its codec.
func FromValue[T any](f *Format, codec Codec[T], v Value) (T, error) {
	f = f.treeFormat()
	text, err := Encode(f, ValueCodec, v)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode(f, codec, text)
}
