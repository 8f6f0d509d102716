package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind enumerates the shapes a frontmatter value can take.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindSequence
	KindMapping
)

// Value is a decoded frontmatter value: null, string, number, bool,
// sequence or mapping. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	seq  []Value
	m    Metadata
}

// Metadata maps frontmatter keys to their values.
type Metadata map[string]Value

// Text returns the string stored under key, or "" when absent or not a string.
func (m Metadata) Text(key string) string {
	s, _ := m[key].AsString()
	return s
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func SequenceValue(v []Value) Value { return Value{kind: KindSequence, seq: v} }
func MappingValue(m Metadata) Value { return Value{kind: KindMapping, m: m} }

// ValueOf converts a decoder-produced Go value (YAML or TOML) into a Value.
// Anything that is not a recognised scalar or container becomes its string form.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case int:
		return NumberValue(float64(x))
	case int32:
		return NumberValue(float64(x))
	case int64:
		return NumberValue(float64(x))
	case uint:
		return NumberValue(float64(x))
	case uint32:
		return NumberValue(float64(x))
	case uint64:
		return NumberValue(float64(x))
	case float32:
		return NumberValue(float64(x))
	case float64:
		return NumberValue(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return StringValue(x.Format(time.DateOnly))
		}
		return StringValue(x.Format(time.RFC3339))
	case []any:
		seq := make([]Value, len(x))
		for i, item := range x {
			seq[i] = ValueOf(item)
		}
		return SequenceValue(seq)
	case []map[string]any:
		seq := make([]Value, len(x))
		for i, item := range x {
			seq[i] = ValueOf(item)
		}
		return SequenceValue(seq)
	case map[string]any:
		return MappingValue(MetadataOf(x))
	case map[any]any:
		m := make(Metadata, len(x))
		for k, item := range x {
			m[fmt.Sprint(k)] = ValueOf(item)
		}
		return MappingValue(m)
	default:
		return StringValue(fmt.Sprint(x))
	}
}

// MetadataOf converts a decoded mapping into Metadata. A nil map yields an empty one.
func MetadataOf(raw map[string]any) Metadata {
	m := make(Metadata, len(raw))
	for k, v := range raw {
		m[k] = ValueOf(v)
	}
	return m
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Items returns the elements of a sequence, or nil for other kinds.
func (v Value) Items() []Value { return v.seq }

// Fields returns the entries of a mapping, or nil for other kinds.
func (v Value) Fields() Metadata { return v.m }

// Interface converts v back to plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindSequence:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}
