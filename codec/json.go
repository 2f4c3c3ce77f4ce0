package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Schemas written by other tools decode identically with either codec;
// JSON exists so callers can pin the portable implementation.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used for newly written index maps and JSON manifests.
var Default Codec = GoJSON{}
