package closeness

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"slices"

	"github.com/AndreyAkinshin/closeness/pkg/tensor"
)

type tensorLikeComparator struct {
	base
	a, e             *tensor.Tensor
	rtol, atol       float64
	equalNaN         bool
	checkDevice      bool
	checkDType       bool
	checkLayout      bool
	checkStride      bool
	checkIsCoalesced bool
}

func matchTensorLike(actual, expected any, path Path, cfg *Config) (Comparator, bool, error) {
	if actual == nil || expected == nil {
		return nil, false, nil
	}
	at, et := reflect.TypeOf(actual), reflect.TypeOf(expected)
	if !directlyRelated(at, et) {
		return nil, false, nil
	}
	if !cfg.AllowSubclasses && at != et {
		return nil, false, nil
	}
	a, err := tensor.AsTensor(actual)
	if err != nil {
		return nil, false, nil
	}
	e, err := tensor.AsTensor(expected)
	if err != nil {
		return nil, false, nil
	}
	rtol, atol, err := resolveTolerances(cfg.RTol, cfg.ATol, path, a.DType(), e.DType())
	if err != nil {
		return nil, false, err
	}
	return &tensorLikeComparator{
		base:             newBase(tensorName, actual, expected, path, cfg),
		a:                a,
		e:                e,
		rtol:             rtol,
		atol:             atol,
		equalNaN:         cfg.EqualNaN,
		checkDevice:      cfg.CheckDevice,
		checkDType:       cfg.checkDType(true),
		checkLayout:      cfg.CheckLayout,
		checkStride:      cfg.CheckStride,
		checkIsCoalesced: cfg.CheckIsCoalesced,
	}, true, nil
}

// directlyRelated reports whether one type is the other or carries it by
// embedding, or whether a named composite type meets its unnamed form.
func directlyRelated(a, b reflect.Type) bool {
	if a == b {
		return true
	}
	if embeds(a, b, nil) || embeds(b, a, nil) {
		return true
	}
	if a.Kind() != b.Kind() || (a.Name() != "" && b.Name() != "") {
		return false
	}
	switch a.Kind() {
	case reflect.Slice, reflect.Array:
		return a.ConvertibleTo(b)
	}
	return false
}

func embeds(outer, inner reflect.Type, seen map[reflect.Type]bool) bool {
	t := outer
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || seen[t] {
		return false
	}
	if seen == nil {
		seen = make(map[reflect.Type]bool)
	}
	seen[t] = true
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		if f.Type == inner || embeds(f.Type, inner, seen) {
			return true
		}
	}
	return false
}

func (c *tensorLikeComparator) Compare() error {
	a, e := c.a, c.e
	if err := c.compareAttributes(a, e); err != nil {
		return err
	}
	a, e, err := c.equalizeAttributes(a, e)
	if err != nil {
		return c.backendError(err)
	}
	return c.compareValues(a, e)
}

// backendError turns a failed data access on a meta tensor into an orderly
// failure. Every other backend error is returned as is.
func (c *tensorLikeComparator) backendError(err error) error {
	if errors.Is(err, tensor.ErrNoData) {
		return &Error{
			Kind:    KindUnsupportedBackingStore,
			Message: "Comparing meta tensors is currently not supported.",
			Path:    c.path,
			Cause:   err,
		}
	}
	return err
}

func (c *tensorLikeComparator) compareAttributes(a, e *tensor.Tensor) error {
	mismatch := func(attribute string, actual, expected any) error {
		return c.fail(KindAttributeMismatch,
			"The values for attribute '%s' do not match: %v != %v.", attribute, actual, expected)
	}

	if !slices.Equal(a.Shape(), e.Shape()) {
		return mismatch("shape", tensor.FormatShape(a.Shape()), tensor.FormatShape(e.Shape()))
	}

	if a.IsQuantized() != e.IsQuantized() {
		return mismatch("is_quantized", a.IsQuantized(), e.IsQuantized())
	} else if a.IsQuantized() && a.QScheme() != e.QScheme() {
		return mismatch("qscheme()", a.QScheme(), e.QScheme())
	}

	if a.Layout() != e.Layout() {
		if c.checkLayout {
			return mismatch("layout", a.Layout(), e.Layout())
		}
	} else if a.Layout() == tensor.Strided && c.checkStride && !slices.Equal(a.Strides(), e.Strides()) {
		return mismatch("stride()", tensor.FormatShape(a.Strides()), tensor.FormatShape(e.Strides()))
	}

	if c.checkDevice && a.Device() != e.Device() {
		return mismatch("device", a.Device(), e.Device())
	}

	if c.checkDType && a.DType() != e.DType() {
		return mismatch("dtype", a.DType(), e.DType())
	}
	return nil
}

// equalizeAttributes moves both tensors to the CPU if their devices differ,
// promotes them to a common dtype and densifies them if their layouts differ.
// Sparse COO tensors are coalesced unless their coalescing is checked.
func (c *tensorLikeComparator) equalizeAttributes(a, e *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	var err error
	if a.Device() != e.Device() {
		if a, err = a.CPU(); err != nil {
			return nil, nil, err
		}
		if e, err = e.CPU(); err != nil {
			return nil, nil, err
		}
	}

	if a.DType() != e.DType() {
		dtype, err := tensor.PromoteTypes(a.DType(), e.DType())
		if err != nil {
			return nil, nil, err
		}
		if a, err = a.To(dtype); err != nil {
			return nil, nil, err
		}
		if e, err = e.To(dtype); err != nil {
			return nil, nil, err
		}
	}

	if a.Layout() != e.Layout() {
		if a, err = a.ToDense(); err != nil {
			return nil, nil, err
		}
		if e, err = e.ToDense(); err != nil {
			return nil, nil, err
		}
	} else if a.Layout() == tensor.SparseCOO && !c.checkIsCoalesced {
		if a, err = a.Coalesce(); err != nil {
			return nil, nil, err
		}
		if e, err = e.Coalesce(); err != nil {
			return nil, nil, err
		}
	}
	return a, e, nil
}

func (c *tensorLikeComparator) compareValues(a, e *tensor.Tensor) error {
	switch {
	case a.IsQuantized():
		return c.compareQuantizedValues(a, e)
	case a.Layout() == tensor.SparseCOO:
		return c.compareSparseCOOValues(a, e)
	case a.Layout() == tensor.SparseCSR:
		return c.compareSparseCSRValues(a, e)
	}
	return c.compareRegularValuesClose(a, e, c.rtol, c.atol, c.equalNaN, nil)
}

// compareQuantizedValues compares the dequantized values only. Quantization
// parameters and integer representations may differ.
func (c *tensorLikeComparator) compareQuantizedValues(a, e *tensor.Tensor) error {
	da, err := a.Dequantize()
	if err != nil {
		return c.backendError(err)
	}
	de, err := e.Dequantize()
	if err != nil {
		return c.backendError(err)
	}
	return c.compareRegularValuesClose(da, de, c.rtol, c.atol, c.equalNaN, quantizedIdentifier)
}

func (c *tensorLikeComparator) compareSparseCOOValues(a, e *tensor.Tensor) error {
	if a.SparseDim() != e.SparseDim() {
		return c.fail(KindAttributeMismatch,
			"The number of sparse dimensions in sparse COO tensors does not match: %d != %d",
			a.SparseDim(), e.SparseDim())
	}
	if a.NNZ() != e.NNZ() {
		return c.fail(KindAttributeMismatch,
			"The number of specified values in sparse COO tensors does not match: %d != %d",
			a.NNZ(), e.NNZ())
	}

	ai, err := a.Indices()
	if err != nil {
		return err
	}
	ei, err := e.Indices()
	if err != nil {
		return err
	}
	if err := c.compareRegularValuesEqual(ai, ei, FixedIdentifier("Sparse COO indices")); err != nil {
		return err
	}

	av, err := a.Values()
	if err != nil {
		return err
	}
	ev, err := e.Values()
	if err != nil {
		return err
	}
	return c.compareRegularValuesClose(av, ev, c.rtol, c.atol, c.equalNaN, FixedIdentifier("Sparse COO values"))
}

func (c *tensorLikeComparator) compareSparseCSRValues(a, e *tensor.Tensor) error {
	if a.NNZ() != e.NNZ() {
		return c.fail(KindAttributeMismatch,
			"The number of specified values in sparse CSR tensors does not match: %d != %d",
			a.NNZ(), e.NNZ())
	}

	parts := []struct {
		identifier string
		get        func(*tensor.Tensor) (*tensor.Tensor, error)
	}{
		{"Sparse CSR crow_indices", (*tensor.Tensor).CrowIndices},
		{"Sparse CSR col_indices", (*tensor.Tensor).ColIndices},
	}
	for _, part := range parts {
		ap, err := part.get(a)
		if err != nil {
			return err
		}
		ep, err := part.get(e)
		if err != nil {
			return err
		}
		if err := c.compareRegularValuesEqual(ap, ep, FixedIdentifier(part.identifier)); err != nil {
			return err
		}
	}

	av, err := a.Values()
	if err != nil {
		return err
	}
	ev, err := e.Values()
	if err != nil {
		return err
	}
	return c.compareRegularValuesClose(av, ev, c.rtol, c.atol, c.equalNaN, FixedIdentifier("Sparse CSR values"))
}

func (c *tensorLikeComparator) compareRegularValuesEqual(a, e *tensor.Tensor, identifier Identifier) error {
	return c.compareRegularValuesClose(a, e, 0, 0, false, identifier)
}

func (c *tensorLikeComparator) compareRegularValuesClose(a, e *tensor.Tensor, rtol, atol float64, equalNaN bool, identifier Identifier) error {
	a, e, err := promoteForComparison(a, e)
	if err != nil {
		return c.backendError(err)
	}
	matches, err := tensor.IsClose(a, e, rtol, atol, equalNaN)
	if err != nil {
		return c.backendError(err)
	}
	if !slices.Contains(matches, false) {
		return nil
	}

	if a.Dim() == 0 {
		an, err := item(a)
		if err != nil {
			return c.backendError(err)
		}
		en, err := item(e)
		if err != nil {
			return c.backendError(err)
		}
		return c.fail(KindValueMismatch, "%s", scalarMismatchMessage(an, en, rtol, atol, identifier))
	}
	msg, err := tensorMismatchMessage(a, e, matches, rtol, atol, identifier)
	if err != nil {
		return c.backendError(err)
	}
	return c.fail(KindValueMismatch, "%s", msg)
}

// promoteForComparison widens both tensors within their category: complex
// to complex128, floating point to float64 and everything else, bool
// included, to int64.
func promoteForComparison(a, e *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	dtype := tensor.Int64
	switch {
	case a.DType().IsComplex():
		dtype = tensor.Complex128
	case a.DType().IsFloatingPoint():
		dtype = tensor.Float64
	}
	a, err := a.To(dtype)
	if err != nil {
		return nil, nil, err
	}
	e, err = e.To(dtype)
	if err != nil {
		return nil, nil, err
	}
	return a, e, nil
}

// item returns the single element of a zero-dimensional tensor.
func item(t *tensor.Tensor) (number, error) {
	switch {
	case t.DType().IsComplex():
		v, err := t.Complex128s()
		if err != nil {
			return number{}, err
		}
		return number{kind: complexNumber, c: v[0]}, nil
	case t.DType().IsFloatingPoint():
		v, err := t.Float64s()
		if err != nil {
			return number{}, err
		}
		return number{kind: floatNumber, f: v[0]}, nil
	}
	v, err := t.Int64s()
	if err != nil {
		return number{}, err
	}
	return number{kind: intNumber, i: big.NewInt(v[0])}, nil
}

func (c *tensorLikeComparator) String() string {
	return c.describe(
		field{"rtol", c.rtol},
		field{"atol", c.atol},
		field{"equal_nan", c.equalNaN},
		field{"check_device", c.checkDevice},
		field{"check_dtype", c.checkDType},
		field{"check_layout", c.checkLayout},
		field{"check_stride", c.checkStride},
		field{"check_is_coalesced", c.checkIsCoalesced},
	)
}

var _ fmt.Stringer = (*tensorLikeComparator)(nil)
