package metadata

import (
	"fmt"
	"math"
	"strconv"
)

// number is satisfied by encoding/json.Number and decoders that alias it.
type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

// FromAny converts a Go value into a typed Value.
//
// This exists as an adapter layer for decoded JSON and other untyped input.
// Nested objects are rejected: metadata fields are scalars or arrays of scalars.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case float64:
		return Float(x), nil
	case float32:
		return Float(float64(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint64(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint64(x)
	case number:
		return fromNumber(x)
	case []Value:
		return Array(x), nil
	case []any:
		arr := make([]Value, len(x))
		for i := range x {
			vv, err := FromAny(x[i])
			if err != nil {
				return Value{}, err
			}
			arr[i] = vv
		}
		return Array(arr), nil
	case []string:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = String(x[i])
		}
		return Array(arr), nil
	case []int:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = Int(int64(x[i]))
		}
		return Array(arr), nil
	case []float64:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = Float(x[i])
		}
		return Array(arr), nil
	default:
		return Value{}, fmt.Errorf("unsupported metadata value type %T", v)
	}
}

func fromUint64(x uint64) (Value, error) {
	if x > math.MaxInt64 {
		// Avoid silently wrapping large values.
		return Value{}, fmt.Errorf("metadata uint64 out of range: %d", x)
	}
	return Int(int64(x)), nil
}

// fromNumber keeps integral JSON numbers as KindInt.
func fromNumber(n number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, fmt.Errorf("invalid metadata number %q: %w", n.String(), err)
	}
	return Float(f), nil
}

// ParseString infers a Value from its textual form: empty is null, then
// integer, float and bool are tried before falling back to string.
//
// It is meant for tabular sources (CSV) where every cell is text.
func ParseString(s string) Value {
	if s == "" {
		return Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return Float(f)
	}
	switch s {
	case "True", "true", "TRUE":
		return Bool(true)
	case "False", "false", "FALSE":
		return Bool(false)
	}
	return String(s)
}

// DocumentFromAny converts a decoded map[string]any document to a typed Document.
func DocumentFromAny(m map[string]any) (Document, error) {
	d := make(Document, len(m))
	for k, v := range m {
		vv, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		d[k] = vv
	}
	return d, nil
}
