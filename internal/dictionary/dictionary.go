// Package dictionary builds and reads the sorted unique-value dictionary of
// a dictionary-encoded column.
//
// Body layout (little endian), wrapped in a segment artifact header:
//
//	Type        (1 byte)  - declared value.Type
//	Reserved    (3 bytes)
//	Cardinality (4 bytes)
//	Width       (4 bytes) - entry width, 0 for variable-width types
//	fixed: Cardinality * Width bytes
//	var:   (Cardinality+1) * 4-byte offsets, then the entry bytes
//
// Dictionary ids are positions in sorted order starting at 0.
package dictionary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/value"
)

const bodyHeaderSize = 12

// ErrEmpty is returned when a dictionary would have no entries.
var ErrEmpty = errors.New("dictionary: no values")

// Dictionary is an ordered set of unique values of one type.
type Dictionary struct {
	typ    value.Type
	values []value.Value
}

// New returns the dictionary of the distinct values in sorted order. Values
// that compare equal share one entry, the first one given; BIG_DECIMAL
// defaults that differ only in scale collapse.
func New(t value.Type, values []value.Value) (*Dictionary, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrEmpty
	}
	for _, v := range values {
		if v.Type() != t {
			return nil, fmt.Errorf("dictionary: value of type %s in %s dictionary", v.Type(), t)
		}
	}

	sorted := slices.Clone(values)
	slices.SortStableFunc(sorted, value.Compare)
	unique := slices.CompactFunc(sorted, func(a, b value.Value) bool {
		return value.Compare(a, b) == 0
	})

	return &Dictionary{typ: t, values: slices.Clip(unique)}, nil
}

// Type returns the declared value type.
func (d *Dictionary) Type() value.Type { return d.typ }

// Len returns the cardinality.
func (d *Dictionary) Len() int { return len(d.values) }

// Get returns the value with the given id.
func (d *Dictionary) Get(id int) (value.Value, error) {
	if id < 0 || id >= len(d.values) {
		return value.Value{}, fmt.Errorf("dictionary: id %d out of range [0, %d)", id, len(d.values))
	}
	return d.values[id], nil
}

// IndexOf returns the id of v, or -1 if v is not in the dictionary.
func (d *Dictionary) IndexOf(v value.Value) int {
	if v.Type() != d.typ {
		return -1
	}
	i, ok := slices.BinarySearchFunc(d.values, v, value.Compare)
	if !ok {
		return -1
	}
	return i
}

// IDs maps values to dictionary ids.
func (d *Dictionary) IDs(values []value.Value) ([]uint32, error) {
	ids := make([]uint32, len(values))
	for i, v := range values {
		id := d.IndexOf(v)
		if id < 0 {
			return nil, fmt.Errorf("dictionary: value %s not found", v)
		}
		ids[i] = uint32(id)
	}
	return ids, nil
}

// Values returns the entries in id order.
func (d *Dictionary) Values() []value.Value { return slices.Clone(d.values) }

// MarshalBinary encodes the dictionary as a checksummed artifact.
func (d *Dictionary) MarshalBinary() ([]byte, error) {
	width, fixed := d.typ.FixedWidth()

	body := make([]byte, bodyHeaderSize, bodyHeaderSize+len(d.values)*max(width, 8))
	body[0] = byte(d.typ)
	binary.LittleEndian.PutUint32(body[4:], uint32(len(d.values)))
	binary.LittleEndian.PutUint32(body[8:], uint32(width))

	var err error
	if fixed {
		for _, v := range d.values {
			if body, err = value.AppendEncoded(body, v); err != nil {
				return nil, err
			}
		}
		return segment.EncodeArtifact(segment.ArtifactDictionary, body), nil
	}

	var data []byte
	offsets := make([]uint32, 0, len(d.values)+1)
	offsets = append(offsets, 0)
	for _, v := range d.values {
		if data, err = value.AppendEncoded(data, v); err != nil {
			return nil, err
		}
		offsets = append(offsets, uint32(len(data)))
	}
	for _, off := range offsets {
		body = binary.LittleEndian.AppendUint32(body, off)
	}
	body = append(body, data...)
	return segment.EncodeArtifact(segment.ArtifactDictionary, body), nil
}

// Read decodes a dictionary artifact.
func Read(data []byte) (*Dictionary, error) {
	body, err := segment.DecodeArtifact(segment.ArtifactDictionary, data)
	if err != nil {
		return nil, err
	}
	if len(body) < bodyHeaderSize {
		return nil, segment.ErrTruncated
	}

	t := value.Type(body[0])
	if err := t.Check(); err != nil {
		return nil, err
	}
	card := int(binary.LittleEndian.Uint32(body[4:]))
	width := int(binary.LittleEndian.Uint32(body[8:]))
	body = body[bodyHeaderSize:]

	values := make([]value.Value, 0, min(card, len(body)))
	if w, fixed := t.FixedWidth(); fixed {
		if width != w {
			return nil, fmt.Errorf("dictionary: %s entry width %d, want %d", t, width, w)
		}
		if len(body) != card*w {
			return nil, segment.ErrTruncated
		}
		for i := 0; i < card; i++ {
			v, err := value.Decode(t, body[i*w:(i+1)*w])
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &Dictionary{typ: t, values: values}, nil
	}

	offSize := (card + 1) * 4
	if len(body) < offSize {
		return nil, segment.ErrTruncated
	}
	entries := body[offSize:]
	for i := 0; i < card; i++ {
		start := binary.LittleEndian.Uint32(body[i*4:])
		end := binary.LittleEndian.Uint32(body[(i+1)*4:])
		if start > end || int(end) > len(entries) {
			return nil, fmt.Errorf("dictionary: entry %d bounds [%d, %d) invalid", i, start, end)
		}
		v, err := value.Decode(t, entries[start:end])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &Dictionary{typ: t, values: values}, nil
}
