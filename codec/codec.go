// Package codec centralizes JSON encoding of the structured dataset format.
//
// Decoders must honour json.Unmarshaler so RawMessage can defer decoding of
// nested values.
package codec

import (
	"bytes"
	"encoding/json"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// RawMessage is a raw encoded JSON value.
type RawMessage = json.RawMessage

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// IsNull reports whether raw is the JSON literal null.
func IsNull(raw RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
