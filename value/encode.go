package value

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Encode returns the on-disk representation of v.
func Encode(v Value) ([]byte, error) {
	return AppendEncoded(nil, v)
}

// AppendEncoded appends the on-disk representation of v to dst.
func AppendEncoded(dst []byte, v Value) ([]byte, error) {
	if err := v.typ.Check(); err != nil {
		return dst, err
	}
	s := v.Stored()
	switch s.typ {
	case TypeInt:
		return binary.LittleEndian.AppendUint32(dst, uint32(int32(s.i))), nil
	case TypeLong:
		return binary.LittleEndian.AppendUint64(dst, uint64(s.i)), nil
	case TypeFloat:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(s.f))), nil
	case TypeDouble:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(s.f)), nil
	case TypeBigDecimal:
		return appendDecimal(dst, s.d)
	case TypeString:
		return append(dst, s.s...), nil
	case TypeBytes:
		return append(dst, s.b...), nil
	default:
		return dst, fmt.Errorf("%w: %s", ErrUnsupportedType, v.typ)
	}
}

// Decode parses the on-disk representation b into a value of declared type t.
func Decode(t Type, b []byte) (Value, error) {
	if err := t.Check(); err != nil {
		return Value{}, err
	}
	if w, ok := t.FixedWidth(); ok && len(b) != w {
		return Value{}, fmt.Errorf("decode %s: want %d bytes, got %d", t, w, len(b))
	}
	switch t {
	case TypeInt:
		return Int(int32(binary.LittleEndian.Uint32(b))), nil
	case TypeBoolean:
		return Bool(int32(binary.LittleEndian.Uint32(b)) != 0), nil
	case TypeLong:
		return Long(int64(binary.LittleEndian.Uint64(b))), nil
	case TypeTimestamp:
		return TimestampMillis(int64(binary.LittleEndian.Uint64(b))), nil
	case TypeFloat:
		return Float(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case TypeDouble:
		return Double(math.Float64frombits(binary.LittleEndian.Uint64(b))), nil
	case TypeBigDecimal:
		d, err := decodeDecimal(b)
		if err != nil {
			return Value{}, err
		}
		return BigDecimal(d), nil
	case TypeString:
		return String(string(b)), nil
	case TypeJSON:
		return JSON(string(b)), nil
	case TypeBytes:
		return Bytes(b), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// BIG_DECIMAL layout: int16 big-endian scale, then the unscaled value as
// minimal big-endian two's complement.
func appendDecimal(dst []byte, d decimal.Decimal) ([]byte, error) {
	scale := -int64(d.Exponent())
	if scale < math.MinInt16 || scale > math.MaxInt16 {
		return dst, fmt.Errorf("big decimal scale %d out of range", scale)
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(int16(scale)))
	return appendTwosComplement(dst, d.Coefficient()), nil
}

func decodeDecimal(b []byte) (decimal.Decimal, error) {
	if len(b) < 2 {
		return decimal.Decimal{}, fmt.Errorf("decode BIG_DECIMAL: short buffer (%d bytes)", len(b))
	}
	scale := int16(binary.BigEndian.Uint16(b))
	unscaled := parseTwosComplement(b[2:])
	return decimal.NewFromBigInt(unscaled, -int32(scale)), nil
}

var bigOne = big.NewInt(1)

func appendTwosComplement(dst []byte, x *big.Int) []byte {
	switch x.Sign() {
	case 0:
		return append(dst, 0)
	case 1:
		b := x.Bytes()
		if b[0]&0x80 != 0 {
			dst = append(dst, 0)
		}
		return append(dst, b...)
	}
	// |x|-1 determines how many bytes the sign bit needs.
	m := new(big.Int).Neg(x)
	m.Sub(m, bigOne)
	n := m.BitLen()/8 + 1
	t := new(big.Int).Lsh(bigOne, uint(8*n))
	t.Add(t, x)
	return append(dst, t.Bytes()...)
}

func parseTwosComplement(b []byte) *big.Int {
	x := new(big.Int)
	if len(b) == 0 {
		return x
	}
	x.SetBytes(b)
	if b[0]&0x80 != 0 {
		x.Sub(x, new(big.Int).Lsh(bigOne, uint(8*len(b))))
	}
	return x
}
