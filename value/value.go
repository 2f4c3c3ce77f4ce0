package value

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Value is a single typed scalar.
//
// The zero Value has TypeUnknown and is not encodable.
type Value struct {
	typ Type
	i   int64
	f   float64
	s   string
	b   []byte
	d   decimal.Decimal
}

// Int returns an INT value.
func Int(v int32) Value { return Value{typ: TypeInt, i: int64(v)} }

// Long returns a LONG value.
func Long(v int64) Value { return Value{typ: TypeLong, i: v} }

// Float returns a FLOAT value.
func Float(v float32) Value { return Value{typ: TypeFloat, f: float64(v)} }

// Double returns a DOUBLE value.
func Double(v float64) Value { return Value{typ: TypeDouble, f: v} }

// BigDecimal returns a BIG_DECIMAL value.
func BigDecimal(v decimal.Decimal) Value { return Value{typ: TypeBigDecimal, d: v} }

// Bool returns a BOOLEAN value.
func Bool(v bool) Value {
	if v {
		return Value{typ: TypeBoolean, i: 1}
	}
	return Value{typ: TypeBoolean}
}

// Timestamp returns a TIMESTAMP value with millisecond precision.
func Timestamp(t time.Time) Value { return Value{typ: TypeTimestamp, i: t.UnixMilli()} }

// TimestampMillis returns a TIMESTAMP value from epoch milliseconds.
func TimestampMillis(ms int64) Value { return Value{typ: TypeTimestamp, i: ms} }

// String returns a STRING value.
func String(v string) Value { return Value{typ: TypeString, s: v} }

// JSON returns a JSON value holding the given document text.
func JSON(v string) Value { return Value{typ: TypeJSON, s: v} }

// Bytes returns a BYTES value. The slice is copied.
func Bytes(v []byte) Value {
	return Value{typ: TypeBytes, b: append([]byte{}, v...)}
}

// Type returns the declared type of v.
func (v Value) Type() Type { return v.typ }

// IsZero reports whether v is the zero Value.
func (v Value) IsZero() bool { return v.typ == TypeUnknown }

// Int64 returns the integer payload of INT, LONG, BOOLEAN and TIMESTAMP values.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the payload of FLOAT and DOUBLE values.
func (v Value) Float64() float64 { return v.f }

// Decimal returns the payload of BIG_DECIMAL values.
func (v Value) Decimal() decimal.Decimal { return v.d }

// BoolValue returns the payload of BOOLEAN values.
func (v Value) BoolValue() bool { return v.i != 0 }

// Time returns the payload of TIMESTAMP values in UTC.
func (v Value) Time() time.Time { return time.UnixMilli(v.i).UTC() }

// Str returns the payload of STRING and JSON values.
func (v Value) Str() string { return v.s }

// Raw returns the payload of BYTES values.
func (v Value) Raw() []byte { return v.b }

// Stored converts v to its stored type.
func (v Value) Stored() Value {
	switch v.typ {
	case TypeBoolean:
		return Value{typ: TypeInt, i: v.i}
	case TypeTimestamp:
		return Value{typ: TypeLong, i: v.i}
	case TypeJSON:
		return Value{typ: TypeString, s: v.s}
	default:
		return v
	}
}

// String returns the textual form of v as accepted by Parse.
func (v Value) String() string {
	switch v.typ {
	case TypeInt, TypeLong, TypeTimestamp:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case TypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeBigDecimal:
		if exp := v.d.Exponent(); exp < 0 {
			return v.d.StringFixed(-exp)
		}
		return v.d.String()
	case TypeBoolean:
		return strconv.FormatBool(v.i != 0)
	case TypeString, TypeJSON:
		return v.s
	case TypeBytes:
		return hex.EncodeToString(v.b)
	default:
		return ""
	}
}

// Key returns a string that is equal for two values exactly when they are
// Equal.
func (v Value) Key() string {
	var sb strings.Builder
	sb.WriteString(v.typ.String())
	sb.WriteByte(':')
	switch v.typ {
	case TypeFloat, TypeDouble:
		sb.WriteString(strconv.FormatUint(math.Float64bits(v.f), 16))
	default:
		sb.WriteString(v.String())
	}
	return sb.String()
}

// Equal reports whether v and o have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeFloat, TypeDouble:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case TypeBigDecimal:
		return v.d.Exponent() == o.d.Exponent() && v.d.Equal(o.d)
	case TypeBytes:
		return bytes.Equal(v.b, o.b)
	case TypeString, TypeJSON:
		return v.s == o.s
	default:
		return v.i == o.i
	}
}

// Compare orders a and b. Values of different stored types are ordered by
// type.
func Compare(a, b Value) int {
	at, bt := a.typ.Stored(), b.typ.Stored()
	if at != bt {
		return cmp.Compare(at, bt)
	}
	switch at {
	case TypeInt, TypeLong:
		return cmp.Compare(a.i, b.i)
	case TypeFloat, TypeDouble:
		return cmp.Compare(a.f, b.f)
	case TypeBigDecimal:
		return a.d.Cmp(b.d)
	case TypeString:
		return strings.Compare(a.s, b.s)
	case TypeBytes:
		return bytes.Compare(a.b, b.b)
	default:
		return 0
	}
}
