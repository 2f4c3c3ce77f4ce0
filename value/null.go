package value

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// NullString is the STRING and JSON null sentinel for dimension fields.
const NullString = "null"

// NullSentinel returns the value written in place of a null default.
// Metric fields use zero for numeric types; dimension and date-time fields
// use the type's minimum or a marker value.
func NullSentinel(t Type, metric bool) (Value, error) {
	if err := t.Check(); err != nil {
		return Value{}, err
	}
	if metric {
		switch t {
		case TypeInt:
			return Int(0), nil
		case TypeLong:
			return Long(0), nil
		case TypeFloat:
			return Float(0), nil
		case TypeDouble:
			return Double(0), nil
		case TypeBigDecimal:
			return BigDecimal(decimal.Zero), nil
		case TypeBytes:
			return Bytes(nil), nil
		}
	}
	switch t {
	case TypeInt:
		return Int(math.MinInt32), nil
	case TypeLong:
		return Long(math.MinInt64), nil
	case TypeFloat:
		return Float(float32(math.Inf(-1))), nil
	case TypeDouble:
		return Double(math.Inf(-1)), nil
	case TypeBigDecimal:
		return BigDecimal(decimal.Zero), nil
	case TypeBoolean:
		return Bool(false), nil
	case TypeTimestamp:
		return TimestampMillis(0), nil
	case TypeString:
		return String(NullString), nil
	case TypeJSON:
		return JSON(NullString), nil
	case TypeBytes:
		return Bytes(nil), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}
