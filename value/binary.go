package value

import (
	"encoding/binary"
	"errors"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// AppendTagged appends a self-describing encoding of v: the type byte, a
// uvarint payload length, then the Encode payload. The zero Value encodes
// as a single TypeUnknown byte.
func AppendTagged(dst []byte, v Value) ([]byte, error) {
	dst = append(dst, byte(v.typ))
	if v.IsZero() {
		return dst, nil
	}
	payload, err := Encode(v)
	if err != nil {
		return dst, err
	}
	dst = binary.AppendUvarint(dst, uint64(len(payload)))
	return append(dst, payload...), nil
}

// ParseTagged decodes one value written by AppendTagged and returns the
// remaining bytes.
func ParseTagged(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		return Value{}, nil, errors.New("short buffer for value type")
	}
	t := Type(data[0])
	data = data[1:]
	if t == TypeUnknown {
		return Value{}, data, nil
	}
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return Value{}, nil, errors.New("invalid value length")
	}
	data = data[k:]
	if uint64(len(data)) < n {
		return Value{}, nil, fmt.Errorf("short buffer for %s value", t)
	}
	v, err := Decode(t, data[:n])
	if err != nil {
		return Value{}, nil, err
	}
	return v, data[n:], nil
}

type jsonValue struct {
	Type  Type   `json:"type"`
	Value string `json:"value"`
}

// MarshalJSON encodes v as {"type": ..., "value": ...} using the textual form.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	return gojson.Marshal(jsonValue{Type: v.typ, Value: v.String()})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var jv jsonValue
	if err := gojson.Unmarshal(b, &jv); err != nil {
		return err
	}
	parsed, err := Parse(jv.Type, jv.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
