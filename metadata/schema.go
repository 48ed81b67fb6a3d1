package metadata

import (
	"fmt"
	"maps"
	"slices"
)

// FieldType defines the data type of a metadata field.
type FieldType uint8

const (
	FieldTypeAny FieldType = iota
	FieldTypeInt
	FieldTypeFloat
	FieldTypeString
	FieldTypeBool
	FieldTypeArray
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	switch t {
	case FieldTypeAny:
		return "Any"
	case FieldTypeInt:
		return "Int"
	case FieldTypeFloat:
		return "Float"
	case FieldTypeString:
		return "String"
	case FieldTypeBool:
		return "Bool"
	case FieldTypeArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// Schema declares the expected type of known metadata fields.
// Fields not named in the schema are accepted as-is.
type Schema map[string]FieldType

// FieldError reports a metadata field whose value does not match its schema type.
type FieldError struct {
	Field    string
	Got      Kind
	Expected FieldType
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q has invalid type %s, expected %s", e.Field, e.Got, e.Expected)
}

// Fields returns the declared field names in ascending order.
func (s Schema) Fields() []string {
	return slices.Sorted(maps.Keys(s))
}

// Validate checks if the given metadata document conforms to the schema.
// Fields are checked in ascending key order so the reported field is stable.
func (s Schema) Validate(doc Document) error {
	if s == nil {
		return nil
	}
	for _, k := range doc.Keys() {
		expectedType, ok := s[k]
		if !ok {
			continue
		}

		v := doc[k]
		if !checkKind(v.Kind, expectedType) {
			return &FieldError{Field: k, Got: v.Kind, Expected: expectedType}
		}
	}
	return nil
}

func checkKind(k Kind, expected FieldType) bool {
	if k == KindNull {
		return true
	}
	switch expected {
	case FieldTypeAny:
		return true
	case FieldTypeInt:
		return k == KindInt
	case FieldTypeFloat:
		return k == KindFloat || k == KindInt // Allow upgrading Int to Float
	case FieldTypeString:
		return k == KindString
	case FieldTypeBool:
		return k == KindBool
	case FieldTypeArray:
		return k == KindArray
	}
	return false
}
