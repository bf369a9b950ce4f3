// Package numeric holds the integer and real arithmetic shared by the mapper
// and the runtime codec: zigzag and LEB128 varints, division with explicit
// rounding, decimal digit decomposition of reals and counting of multiples.
package numeric

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// MaxVarintLen is the maximum number of bytes a 64-bit varint occupies.
const MaxVarintLen = binary.MaxVarintLen64

// RealEpsilon is the tolerance used when deciding whether a scaled real has
// reached an integral value.
const RealEpsilon = 1e-9

// ErrVarintOverflow is returned when a varint does not fit in 64 bits.
var ErrVarintOverflow = errors.New("numeric: varint overflows a 64-bit integer")

// ZigzagEncode maps signed integers onto unsigned ones so that small
// magnitudes stay small: 0 -> 0, -1 -> 1, 1 -> 2, -2 -> 3.
func ZigzagEncode(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// ZigzagDecode is the inverse of ZigzagEncode.
func ZigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// AppendVarint appends the little-endian base-128 encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// VarintLen returns the number of bytes the varint encoding of v occupies.
func VarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// ReadVarint reads one varint from r. A stream that ends mid-varint yields
// io.ErrUnexpectedEOF; an empty stream yields io.EOF.
func ReadVarint(r io.ByteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, err
		}
		return 0, ErrVarintOverflow
	}
	return v, nil
}

// IsByte reports whether v fits in a single unsigned byte.
func IsByte(v uint64) bool {
	return v <= math.MaxUint8
}

// DivideCeil returns ceil(dividend / divisor). The divisor may exceed the
// signed range.
func DivideCeil(dividend int64, divisor uint64) int64 {
	if divisor == 0 {
		panic("numeric: division by zero")
	}
	if divisor > math.MaxInt64 {
		switch {
		case dividend > 0:
			return 1
		case dividend == math.MinInt64 && divisor == 1<<63:
			return -1
		}
		return 0
	}
	d := int64(divisor)
	q := dividend / d
	if dividend%d > 0 {
		q++
	}
	return q
}

// DivideFloor returns floor(dividend / divisor). The divisor may exceed the
// signed range.
func DivideFloor(dividend int64, divisor uint64) int64 {
	if divisor == 0 {
		panic("numeric: division by zero")
	}
	if divisor > math.MaxInt64 {
		if dividend < 0 {
			return -1
		}
		return 0
	}
	d := int64(divisor)
	q := dividend / d
	if dividend%d < 0 {
		q--
	}
	return q
}

// Abs returns |v| as an unsigned integer, which is defined for MinInt64.
func Abs(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

// CountMultiples returns how many multiples of |multiplier| lie in the closed
// interval [minimum, maximum]. The result saturates at math.MaxUint64.
func CountMultiples(minimum, maximum int64, multiplier uint64) uint64 {
	if multiplier == 0 || minimum > maximum {
		return 0
	}
	lo := DivideCeil(minimum, multiplier)
	hi := DivideFloor(maximum, multiplier)
	if lo > hi {
		return 0
	}
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return span
	}
	return span + 1
}

// RealDigits decomposes a finite real into an integer and a decimal point
// position such that value == digits / 10^point. Scaling stops once the
// fractional part is within RealEpsilon of an integer.
func RealDigits(value float64) (digits int64, point uint64) {
	current := value
	for {
		_, frac := math.Modf(current)
		frac = math.Abs(frac)
		if frac < RealEpsilon || 1-frac < RealEpsilon {
			break
		}
		// Digits beyond this point would not fit the integer part.
		if math.Abs(current*10) >= math.MaxInt64 {
			break
		}
		current *= 10
		point++
	}
	return int64(math.Round(current)), point
}

// RealFromDigits reverses RealDigits.
func RealFromDigits(digits int64, point uint64) float64 {
	return float64(digits) / math.Pow(10, float64(point))
}

// ScaledDigits decomposes a finite real into digits and a power of ten such
// that value == digits * 10^exponent, using the shortest decimal form that
// reads back as value. It fails for reals that need a negative exponent or
// more digits than an int64 holds.
func ScaledDigits(value float64) (digits int64, exponent uint64, ok bool) {
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(value, 'e', -1, 64), "e")
	whole, frac, _ := strings.Cut(mantissa, ".")
	e, err := strconv.Atoi(exp)
	if err != nil {
		return 0, 0, false
	}
	e -= len(frac)
	if e < 0 {
		return 0, 0, false
	}
	digits, err = strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return digits, uint64(e), true
}

// ScaledFromDigits reverses ScaledDigits. Values beyond the float64 range
// are an error.
func ScaledFromDigits(digits int64, exponent uint64) (float64, error) {
	return strconv.ParseFloat(strconv.FormatInt(digits, 10)+"e"+strconv.FormatUint(exponent, 10), 64)
}

// ClosestSmallestExponent returns the largest exponent e in [lower, upper]
// with base^e <= value, or lower when none qualifies.
func ClosestSmallestExponent(value, base uint64, lower, upper uint8) uint8 {
	result := lower
	for e := lower; e <= upper; e++ {
		p, ok := pow(base, e)
		if !ok || p > value {
			break
		}
		result = e
		if e == math.MaxUint8 {
			break
		}
	}
	return result
}

func pow(base uint64, e uint8) (uint64, bool) {
	result := uint64(1)
	for i := uint8(0); i < e; i++ {
		if base != 0 && result > math.MaxUint64/base {
			return 0, false
		}
		result *= base
	}
	return result, true
}
