package value

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedType is returned when a data type has no defined encoding.
var ErrUnsupportedType = errors.New("unsupported data type")

// Type identifies the declared data type of a column.
type Type uint8

const (
	// TypeUnknown is the zero Type.
	TypeUnknown Type = iota
	// TypeInt is a 32-bit signed integer.
	TypeInt
	// TypeLong is a 64-bit signed integer.
	TypeLong
	// TypeFloat is a 32-bit IEEE 754 float.
	TypeFloat
	// TypeDouble is a 64-bit IEEE 754 float.
	TypeDouble
	// TypeBigDecimal is an arbitrary precision decimal.
	TypeBigDecimal
	// TypeBoolean is stored as INT 0 or 1.
	TypeBoolean
	// TypeTimestamp is stored as LONG epoch milliseconds.
	TypeTimestamp
	// TypeString is UTF-8 text.
	TypeString
	// TypeJSON is JSON text stored as STRING.
	TypeJSON
	// TypeBytes is an opaque byte sequence.
	TypeBytes
	// TypeMap has no column encoding.
	TypeMap
	// TypeList has no column encoding.
	TypeList
	// TypeStruct has no column encoding.
	TypeStruct
)

var typeNames = [...]string{
	TypeUnknown:    "UNKNOWN",
	TypeInt:        "INT",
	TypeLong:       "LONG",
	TypeFloat:      "FLOAT",
	TypeDouble:     "DOUBLE",
	TypeBigDecimal: "BIG_DECIMAL",
	TypeBoolean:    "BOOLEAN",
	TypeTimestamp:  "TIMESTAMP",
	TypeString:     "STRING",
	TypeJSON:       "JSON",
	TypeBytes:      "BYTES",
	TypeMap:        "MAP",
	TypeList:       "LIST",
	TypeStruct:     "STRUCT",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType parses a type name such as "INT" or "big_decimal".
func ParseType(s string) (Type, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown data type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Supported reports whether values of t can be encoded.
func (t Type) Supported() bool {
	switch t {
	case TypeInt, TypeLong, TypeFloat, TypeDouble, TypeBigDecimal,
		TypeBoolean, TypeTimestamp, TypeString, TypeJSON, TypeBytes:
		return true
	default:
		return false
	}
}

// Stored returns the type used for the on-disk representation.
func (t Type) Stored() Type {
	switch t {
	case TypeBoolean:
		return TypeInt
	case TypeTimestamp:
		return TypeLong
	case TypeJSON:
		return TypeString
	default:
		return t
	}
}

// FixedWidth returns the encoded width of the stored type, or false for
// variable-width types.
func (t Type) FixedWidth() (int, bool) {
	switch t.Stored() {
	case TypeInt, TypeFloat:
		return 4, true
	case TypeLong, TypeDouble:
		return 8, true
	default:
		return 0, false
	}
}

// Check returns ErrUnsupportedType wrapped with the type name when t has no
// encoding.
func (t Type) Check() error {
	if !t.Supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return nil
}
