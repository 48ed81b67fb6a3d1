package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTypeString(t *testing.T) {
	tests := []struct {
		ft       FieldType
		expected string
	}{
		{FieldTypeAny, "Any"},
		{FieldTypeInt, "Int"},
		{FieldTypeFloat, "Float"},
		{FieldTypeString, "String"},
		{FieldTypeBool, "Bool"},
		{FieldTypeArray, "Array"},
		{FieldType(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ft.String())
	}
}

func TestSchemaValidate(t *testing.T) {
	s := Schema{
		"s": FieldTypeString,
		"i": FieldTypeInt,
		"f": FieldTypeFloat,
		"a": FieldTypeAny,
	}

	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{
			"Valid",
			Document{
				"s": String("val"),
				"i": Int(10),
				"f": Float(3.5),
				"a": Bool(true),
			},
			false,
		},
		{"Valid_IntAsFloat", Document{"f": Int(10)}, false},
		{"Valid_UnknownField", Document{"unknown": Int(1)}, false},
		{"Valid_Null", Document{"s": Null()}, false},
		{"Invalid_Type", Document{"s": Int(1)}, true},
		{"Invalid_IntAsBool", Document{"i": Bool(true)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchemaValidateReportsField(t *testing.T) {
	s := Schema{"b": FieldTypeInt, "a": FieldTypeInt}
	err := s.Validate(Document{"a": String("x"), "b": String("y")})

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "a", fe.Field)
	assert.Equal(t, KindString, fe.Got)
	assert.Equal(t, FieldTypeInt, fe.Expected)
}

func TestSchemaFieldsAndNil(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Schema{"b": FieldTypeAny, "a": FieldTypeAny}.Fields())
	assert.NoError(t, Schema(nil).Validate(Document{"x": Int(1)}))
}
