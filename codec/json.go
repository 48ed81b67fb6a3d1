package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// MarshalIndent encodes the value to indented JSON.
func (JSON) MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
var Default Codec = GoJSON{}

// Indenter is implemented by codecs that can pretty-print.
type Indenter interface {
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
}
