package tensor

import (
	"fmt"
	"math"
)

func quantizedRange(d DType) (lo, hi int64) {
	switch d {
	case QUInt8:
		return 0, math.MaxUint8
	case QInt8:
		return math.MinInt8, math.MaxInt8
	case QInt32:
		return math.MinInt32, math.MaxInt32
	case QUInt4x2:
		return 0, 15
	case QUInt2x4:
		return 0, 3
	}
	return 0, 0
}

// QuantizePerTensor quantizes a real tensor with an affine mapping
// q = clamp(round(x / scale) + zeroPoint).
func QuantizePerTensor(t *Tensor, scale float64, zeroPoint int64, dtype DType) (*Tensor, error) {
	return quantize(t, scale, zeroPoint, dtype, PerTensorAffine)
}

// QuantizePerTensorSymmetric quantizes a real tensor around zero.
func QuantizePerTensorSymmetric(t *Tensor, scale float64, dtype DType) (*Tensor, error) {
	return quantize(t, scale, 0, dtype, PerTensorSymmetric)
}

func quantize(t *Tensor, scale float64, zeroPoint int64, dtype DType, scheme QScheme) (*Tensor, error) {
	if !dtype.IsQuantized() {
		return nil, fmt.Errorf("tensor: %s is not a quantized dtype", dtype)
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("tensor: quantization scale must be positive and finite, got %v", scale)
	}
	lo, hi := quantizedRange(dtype)
	if zeroPoint < lo || zeroPoint > hi {
		return nil, fmt.Errorf("tensor: zero point %d out of range [%d, %d] for %s", zeroPoint, lo, hi, dtype)
	}
	if !t.dtype.IsFloatingPoint() {
		return nil, fmt.Errorf("tensor: only floating point tensors can be quantized, got %s", t.dtype)
	}
	if t.device == Meta {
		out := newDense(dtype, t.shape, Meta)
		out.scale, out.zeroPoint, out.qscheme = scale, zeroPoint, scheme
		return out, nil
	}
	values, err := t.Float64s()
	if err != nil {
		return nil, err
	}
	out := newDense(dtype, t.shape, t.device)
	for i, v := range values {
		r := math.RoundToEven(v / scale)
		var q int64
		switch {
		case math.IsNaN(r):
			q = zeroPoint
		case r+float64(zeroPoint) <= float64(lo):
			q = lo
		case r+float64(zeroPoint) >= float64(hi):
			q = hi
		default:
			q = int64(r) + zeroPoint
		}
		out.ints[i] = q
	}
	out.scale, out.zeroPoint, out.qscheme = scale, zeroPoint, scheme
	return out, nil
}

// Dequantize maps a quantized tensor back to float32 values (q - zeroPoint) * scale.
func (t *Tensor) Dequantize() (*Tensor, error) {
	if !t.dtype.IsQuantized() {
		return nil, fmt.Errorf("tensor: cannot dequantize a %s tensor", t.dtype)
	}
	if t.device == Meta {
		return nil, fmt.Errorf("tensor: cannot dequantize meta tensor: %w", ErrNoData)
	}
	raw, err := t.Int64s()
	if err != nil {
		return nil, err
	}
	out := newDense(Float32, t.shape, t.device)
	for i, q := range raw {
		out.setFloat(i, float64(q-t.zeroPoint)*t.scale)
	}
	return out, nil
}
