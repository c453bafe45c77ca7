package tensor

import "math"

// Half is an IEEE 754 half precision number: 1 sign bit, 5 exponent bits
// and 10 mantissa bits.
type Half uint16

const (
	float16SignMask     = 0x8000
	float16ExponentMask = 0x7C00
	float16MantissaMask = 0x03FF
)

// HalfFromFloat32 rounds f to the nearest half precision value, ties to even.
// Values beyond the half range become infinities and values below the
// smallest subnormal become signed zeros.
func HalfFromFloat32(f float32) Half {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & float16SignMask
	exponent := int((bits >> 23) & 0xFF)
	mantissa := bits & 0x7FFFFF

	if exponent == 0xFF {
		if mantissa == 0 {
			return Half(sign | float16ExponentMask)
		}
		return Half(sign | float16ExponentMask | 0x0200 | uint16(mantissa>>13))
	}

	e := exponent - 127 + 15
	if e >= 0x1F {
		return Half(sign | float16ExponentMask)
	}

	if e <= 0 {
		if e < -10 {
			return Half(sign)
		}
		full := mantissa | 0x800000
		shift := uint32(14 - e)
		halfway := uint32(1) << (shift - 1)
		rounded := full >> shift
		rest := full & (1<<shift - 1)
		if rest > halfway || (rest == halfway && rounded&1 == 1) {
			rounded++
		}
		return Half(sign | uint16(rounded))
	}

	h := uint32(e)<<10 | mantissa>>13
	rest := mantissa & 0x1FFF
	if rest > 0x1000 || (rest == 0x1000 && h&1 == 1) {
		// A carry out of the mantissa correctly bumps the exponent.
		h++
	}
	return Half(sign | uint16(h))
}

// Float32 converts h to float32 exactly.
func (h Half) Float32() float32 {
	sign := uint32(h&float16SignMask) << 16
	exponent := uint32(h&float16ExponentMask) >> 10
	mantissa := uint32(h & float16MantissaMask)

	switch exponent {
	case 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | mantissa<<13)
	case 0:
		if mantissa == 0 {
			return math.Float32frombits(sign)
		}
		e := uint32(127 - 15 + 1)
		for mantissa&0x400 == 0 {
			mantissa <<= 1
			e--
		}
		mantissa &= float16MantissaMask
		return math.Float32frombits(sign | e<<23 | mantissa<<13)
	}
	return math.Float32frombits(sign | (exponent+127-15)<<23 | mantissa<<13)
}

// BHalf is a brain floating point number: the upper 16 bits of a float32.
type BHalf uint16

// BHalfFromFloat32 rounds f to the nearest bfloat16 value, ties to even.
func BHalfFromFloat32(f float32) BHalf {
	bits := math.Float32bits(f)
	if f != f {
		return BHalf(bits>>16 | 0x0040)
	}
	bits += 0x7FFF + (bits>>16)&1
	return BHalf(bits >> 16)
}

// Float32 converts b to float32 exactly.
func (b BHalf) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// roundTo rounds v to the precision of a real dtype.
func roundTo(d DType, v float64) float64 {
	switch d {
	case Float16:
		return float64(HalfFromFloat32(float32(v)).Float32())
	case BFloat16:
		return float64(BHalfFromFloat32(float32(v)).Float32())
	case Float32:
		return float64(float32(v))
	}
	return v
}

func roundComplexTo(d DType, v complex128) complex128 {
	c := complexComponent(d)
	return complex(roundTo(c, real(v)), roundTo(c, imag(v)))
}

// castInt wraps v to the range of an integer-stored dtype the way a C cast does.
func castInt(d DType, v int64) int64 {
	switch d {
	case Bool:
		if v != 0 {
			return 1
		}
		return 0
	case Uint8, QUInt8:
		return int64(uint8(v))
	case Int8, QInt8:
		return int64(int8(v))
	case Int16:
		return int64(int16(v))
	case Int32, QInt32:
		return int64(int32(v))
	case QUInt4x2:
		return int64(uint8(v) & 0x0F)
	case QUInt2x4:
		return int64(uint8(v) & 0x03)
	}
	return v
}

// truncate converts a float to an integer rounding toward zero. Non-finite
// values have no integer image and map to zero.
func truncate(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	if v <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(v)
}
