package metadata

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"unique"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid is the zero Kind; it marks an absent value.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindArray represents an array value.
	KindArray
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a small typed value used for metadata documents and filters.
//
// NOTE: This is also used for persistence; keep it stable.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	s    unique.Handle[string]
	B    bool
	A    []Value
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Array returns an array Value.
func Array(v []Value) Value { return Value{Kind: KindArray, A: v} }

// IsAbsent reports whether v is the zero Value.
func (v Value) IsAbsent() bool { return v.Kind == KindInvalid }

// IsNull reports whether v is an explicit null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// StringValue returns the string value if Kind is KindString, otherwise empty string.
func (v Value) StringValue() string {
	if v.Kind == KindString {
		return v.s.Value()
	}
	return ""
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the numeric value as float64 for KindInt and KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F64, true
	case KindInt:
		return float64(v.I64), true
	default:
		return 0, false
	}
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsArray returns the array value if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.A, true
}

// Interface returns the plain Go representation of v
// (nil, int64, float64, string, bool or []any).
func (v Value) Interface() any {
	switch v.Kind {
	case KindInt:
		return v.I64
	case KindFloat:
		return v.F64
	case KindString:
		return v.s.Value()
	case KindBool:
		return v.B
	case KindArray:
		out := make([]any, len(v.A))
		for i := range v.A {
			out[i] = v.A[i].Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes v as its natural JSON form. Integral floats keep a
// fractional part ("2.0") so they decode back as floats.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindFloat:
		if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) {
			return []byte("null"), nil
		}
		b := strconv.AppendFloat(nil, v.F64, 'g', -1, 64)
		if !strings.ContainsAny(string(b), ".e") {
			b = append(b, ".0"...)
		}
		return b, nil
	case KindArray:
		b := []byte{'['}
		for i := range v.A {
			if i > 0 {
				b = append(b, ',')
			}
			elem, err := v.A[i].MarshalJSON()
			if err != nil {
				return nil, err
			}
			b = append(b, elem...)
		}
		return append(b, ']'), nil
	default:
		return json.Marshal(v.Interface())
	}
}

// String returns a human-readable rendering of v.
func (v Value) String() string {
	switch v.Kind {
	case KindInvalid:
		return "<absent>"
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s.Value())
	case KindBool:
		return strconv.FormatBool(v.B)
	case KindArray:
		parts := make([]string, len(v.A))
		for i := range v.A {
			parts[i] = v.A[i].String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<" + v.Kind.String() + ">"
	}
}

// Equal reports structural equality. Floats compare by bit pattern so that
// a persisted NaN equals itself after a round trip.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.I64 == o.I64
	case KindFloat:
		return math.Float64bits(v.F64) == math.Float64bits(o.F64)
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.B == o.B
	case KindArray:
		return slices.EqualFunc(v.A, o.A, Value.Equal)
	default:
		return true
	}
}

// clone creates a deep copy of a Value, including nested arrays.
func (v Value) clone() Value {
	if v.Kind != KindArray || len(v.A) == 0 {
		return v
	}
	arrayCopy := make([]Value, len(v.A))
	for i := range v.A {
		arrayCopy[i] = v.A[i].clone()
	}
	v.A = arrayCopy
	return v
}

// Document is a typed metadata document.
type Document map[string]Value

// Clone creates a deep copy of the metadata document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	clone := make(Document, len(d))
	for k, v := range d {
		clone[k] = v.clone()
	}
	return clone
}

// Equal reports whether both documents hold the same fields and values.
// A nil document equals an empty one.
func (d Document) Equal(o Document) bool {
	if len(d) != len(o) {
		return false
	}
	for k, v := range d {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Keys returns the field names in ascending order.
func (d Document) Keys() []string {
	return slices.Sorted(maps.Keys(d))
}

// Get returns the value for field. The zero Value (IsAbsent) is returned when
// the field is missing.
func (d Document) Get(field string) (Value, bool) {
	v, ok := d[field]
	return v, ok
}
