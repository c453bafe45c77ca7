package tensor

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"
)

// CloseFloat64 reports whether |a - b| <= atol + rtol*|b|. Equal values,
// including equal infinities, are always close. Two NaNs are close only if
// equalNaN is set.
func CloseFloat64(a, b, rtol, atol float64, equalNaN bool) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return equalNaN && math.IsNaN(a) && math.IsNaN(b)
	}
	diff := math.Abs(a - b)
	if math.IsInf(diff, 0) {
		return false
	}
	return diff <= atol+rtol*math.Abs(b)
}

// AbsDiffInt64 returns |a - b| without overflow.
func AbsDiffInt64(a, b int64) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// CloseInt64 applies the CloseFloat64 rule to integers. The difference is
// computed exactly, so zero tolerances mean exact equality at any magnitude.
func CloseInt64(a, b int64, rtol, atol float64) bool {
	if a == b {
		return true
	}
	if rtol == 0 && atol == 0 {
		return false
	}
	return float64(AbsDiffInt64(a, b)) <= atol+rtol*math.Abs(float64(b))
}

// CloseComplex128 applies the CloseFloat64 rule to the complex modulus. A value
// with a NaN component counts as NaN.
func CloseComplex128(a, b complex128, rtol, atol float64, equalNaN bool) bool {
	if a == b {
		return true
	}
	if cmplx.IsNaN(a) || cmplx.IsNaN(b) {
		return equalNaN && cmplx.IsNaN(a) && cmplx.IsNaN(b)
	}
	diff := cmplx.Abs(a - b)
	if math.IsInf(diff, 0) || math.IsNaN(diff) {
		return false
	}
	return diff <= atol+rtol*cmplx.Abs(b)
}

// IsClose compares two strided tensors of the same dtype and shape element by
// element and returns the matches in row-major order.
func IsClose(a, b *Tensor, rtol, atol float64, equalNaN bool) ([]bool, error) {
	if a.dtype != b.dtype {
		return nil, fmt.Errorf("tensor: isclose dtype mismatch: %s and %s", a.dtype, b.dtype)
	}
	if !slices.Equal(a.shape, b.shape) {
		return nil, fmt.Errorf("tensor: isclose shape mismatch: %v and %v", a.shape, b.shape)
	}
	if a.dtype.IsQuantized() {
		return nil, fmt.Errorf("tensor: isclose is not defined for %s", a.dtype)
	}
	if a.dtype.storage() == complexStorage {
		x, err := a.Complex128s()
		if err != nil {
			return nil, err
		}
		y, err := b.Complex128s()
		if err != nil {
			return nil, err
		}
		out := make([]bool, len(x))
		for i := range x {
			out[i] = CloseComplex128(x[i], y[i], rtol, atol, equalNaN)
		}
		return out, nil
	}
	if a.dtype.storage() == intStorage {
		x, err := a.Int64s()
		if err != nil {
			return nil, err
		}
		y, err := b.Int64s()
		if err != nil {
			return nil, err
		}
		out := make([]bool, len(x))
		for i := range x {
			out[i] = CloseInt64(x[i], y[i], rtol, atol)
		}
		return out, nil
	}
	x, err := a.Float64s()
	if err != nil {
		return nil, err
	}
	y, err := b.Float64s()
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(x))
	for i := range x {
		out[i] = CloseFloat64(x[i], y[i], rtol, atol, equalNaN)
	}
	return out, nil
}

// Unravel converts a row-major flat index into a multi-index for shape.
func Unravel(flat int, shape []int) []int {
	idx := make([]int, len(shape))
	for d := len(shape) - 1; d >= 0; d-- {
		if shape[d] == 0 {
			continue
		}
		idx[d] = flat % shape[d]
		flat /= shape[d]
	}
	return idx
}
