package closeness

import (
	"github.com/AndreyAkinshin/closeness/pkg/tensor"
)

// Tolerance is a (relative, absolute) tolerance pair.
type Tolerance struct {
	RTol float64
	ATol float64
}

// dtypePrecisions holds the default tolerances per dtype. Quantized values are
// compared in their dequantized float32 form and share the float32 entry.
var dtypePrecisions = map[tensor.DType]Tolerance{
	tensor.Float16:    {RTol: 1e-3, ATol: 1e-5},
	tensor.BFloat16:   {RTol: 1.6e-2, ATol: 1e-5},
	tensor.Float32:    {RTol: 1.3e-6, ATol: 1e-5},
	tensor.Float64:    {RTol: 1e-7, ATol: 1e-7},
	tensor.Complex32:  {RTol: 1e-3, ATol: 1e-5},
	tensor.Complex64:  {RTol: 1.3e-6, ATol: 1e-5},
	tensor.Complex128: {RTol: 1e-7, ATol: 1e-7},
}

func init() {
	for _, d := range []tensor.DType{tensor.QUInt8, tensor.QUInt2x4, tensor.QUInt4x2, tensor.QInt8, tensor.QInt32} {
		dtypePrecisions[d] = dtypePrecisions[tensor.Float32]
	}
}

// DefaultTolerances returns the loosest default tolerances of the given
// dtypes. Dtypes without an entry require exact equality.
func DefaultTolerances(dtypes ...tensor.DType) (rtol, atol float64) {
	for _, d := range dtypes {
		tol := dtypePrecisions[d]
		rtol = max(rtol, tol.RTol)
		atol = max(atol, tol.ATol)
	}
	return rtol, atol
}

// ResolveTolerances returns rtol and atol when both are given and the
// defaults for dtypes when neither is. Giving only one is a configuration error.
func ResolveTolerances(rtol, atol *float64, dtypes ...tensor.DType) (float64, float64, error) {
	return resolveTolerances(rtol, atol, nil, dtypes...)
}

func resolveTolerances(rtol, atol *float64, path Path, dtypes ...tensor.DType) (float64, float64, error) {
	if err := checkTolerancePair(rtol, atol, path); err != nil {
		return 0, 0, err
	}
	if rtol != nil {
		return *rtol, *atol, nil
	}
	r, a := DefaultTolerances(dtypes...)
	return r, a, nil
}

func checkTolerancePair(rtol, atol *float64, path Path) error {
	if (rtol == nil) == (atol == nil) {
		return nil
	}
	missing := "atol"
	if rtol == nil {
		missing = "rtol"
	}
	return newError(KindConfiguration, path,
		"Both 'rtol' and 'atol' must be either specified or omitted, but got no %s.", missing)
}
