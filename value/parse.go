package value

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse converts the textual form s into a value of type t.
//
// TIMESTAMP accepts epoch milliseconds or an RFC 3339 / SQL style date-time;
// BYTES accepts hex.
func Parse(t Type, s string) (Value, error) {
	if err := t.Check(); err != nil {
		return Value{}, err
	}
	switch t {
	case TypeInt:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return Value{}, parseError(t, s, err)
		}
		return Int(int32(i)), nil
	case TypeLong:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Value{}, parseError(t, s, err)
		}
		return Long(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return Value{}, parseError(t, s, err)
		}
		return Float(float32(f)), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, parseError(t, s, err)
		}
		return Double(f), nil
	case TypeBigDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return Value{}, parseError(t, s, err)
		}
		return BigDecimal(d), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return Value{}, parseError(t, s, err)
		}
		return Bool(b), nil
	case TypeTimestamp:
		return parseTimestamp(s)
	case TypeString:
		return String(s), nil
	case TypeJSON:
		return JSON(s), nil
	case TypeBytes:
		b, err := hex.DecodeString(strings.TrimSpace(s))
		if err != nil {
			return Value{}, parseError(t, s, err)
		}
		return Bytes(b), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

func parseTimestamp(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TimestampMillis(ms), nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return Timestamp(ts), nil
		}
	}
	return Value{}, parseError(TypeTimestamp, s, errors.New("unrecognized timestamp format"))
}

func parseError(t Type, s string, err error) error {
	return fmt.Errorf("parse %s %q: %w", t, s, err)
}
