package tensor

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrNoData is returned when the values of a meta tensor are requested.
var ErrNoData = errors.New("tensor: meta tensors have no data")

// Tensor is an n-dimensional array.
//
// A strided tensor keeps its elements in exactly one of three backing slices,
// chosen by the storage class of its dtype. Sparse tensors keep their
// components as strided tensors instead.
type Tensor struct {
	dtype   DType
	shape   []int
	strides []int
	offset  int
	device  Device
	layout  Layout

	ints  []int64
	reals []float64
	cplx  []complex128

	// sparse COO
	indices   *Tensor
	values    *Tensor
	coalesced bool

	// sparse CSR, values are shared with COO
	crow *Tensor
	col  *Tensor

	// quantized
	scale     float64
	zeroPoint int64
	qscheme   QScheme
}

// Like is implemented by values that carry a tensor. *Tensor implements it,
// and so does any struct embedding *Tensor.
type Like interface {
	Base() *Tensor
}

// Base returns t.
func (t *Tensor) Base() *Tensor { return t }

func (t *Tensor) DType() DType { return t.dtype }
func (t *Tensor) Device() Device { return t.device }
func (t *Tensor) Layout() Layout { return t.layout }
func (t *Tensor) Dim() int { return len(t.shape) }
func (t *Tensor) Shape() []int { return append([]int{}, t.shape...) }
func (t *Tensor) Strides() []int { return append([]int{}, t.strides...) }
func (t *Tensor) Numel() int { return numel(t.shape) }
func (t *Tensor) IsMeta() bool { return t.device == Meta }
func (t *Tensor) IsSparse() bool { return t.layout != Strided }
func (t *Tensor) IsQuantized() bool { return t.dtype.IsQuantized() }

// QScheme returns the quantization scheme. It is only meaningful for
// quantized tensors.
func (t *Tensor) QScheme() QScheme { return t.qscheme }

func (t *Tensor) QScale() float64 { return t.scale }
func (t *Tensor) QZeroPoint() int64 { return t.zeroPoint }

// IsContiguous reports whether a strided tensor is laid out in row-major order.
func (t *Tensor) IsContiguous() bool {
	if t.layout != Strided {
		return false
	}
	expected := contiguousStrides(t.shape)
	for i, s := range t.shape {
		if s > 1 && t.strides[i] != expected[i] {
			return false
		}
	}
	return true
}

func numel(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func contiguousStrides(shape []int) []int {
	strides := make([]int, len(shape))
	step := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = step
		if shape[i] > 1 {
			step *= shape[i]
		}
	}
	return strides
}

func checkShape(shape []int, n int) error {
	for _, s := range shape {
		if s < 0 {
			return fmt.Errorf("tensor: negative dimension in shape %v", shape)
		}
	}
	if numel(shape) != n {
		return fmt.Errorf("tensor: %d values do not fill shape %v", n, shape)
	}
	return nil
}

// newDense allocates a zeroed contiguous tensor. Meta tensors get no storage.
func newDense(dtype DType, shape []int, device Device) *Tensor {
	t := &Tensor{
		dtype:   dtype,
		shape:   slices.Clone(shape),
		strides: contiguousStrides(shape),
		device:  device,
		layout:  Strided,
	}
	if device == Meta {
		return t
	}
	n := numel(shape)
	switch dtype.storage() {
	case intStorage:
		t.ints = make([]int64, n)
	case realStorage:
		t.reals = make([]float64, n)
	default:
		t.cplx = make([]complex128, n)
	}
	return t
}

func (t *Tensor) setFloat(i int, v float64) {
	switch t.dtype.storage() {
	case intStorage:
		if t.dtype == Bool {
			t.ints[i] = castInt(Bool, b2i(v != 0))
			return
		}
		t.ints[i] = castInt(t.dtype, truncate(v))
	case realStorage:
		t.reals[i] = roundTo(t.dtype, v)
	default:
		t.cplx[i] = roundComplexTo(t.dtype, complex(v, 0))
	}
}

func (t *Tensor) setInt(i int, v int64) {
	switch t.dtype.storage() {
	case intStorage:
		t.ints[i] = castInt(t.dtype, v)
	case realStorage:
		t.reals[i] = roundTo(t.dtype, float64(v))
	default:
		t.cplx[i] = roundComplexTo(t.dtype, complex(float64(v), 0))
	}
}

func (t *Tensor) setComplex(i int, v complex128) {
	switch t.dtype.storage() {
	case intStorage:
		if t.dtype == Bool {
			t.ints[i] = b2i(v != 0)
			return
		}
		t.ints[i] = castInt(t.dtype, truncate(real(v)))
	case realStorage:
		t.reals[i] = roundTo(t.dtype, real(v))
	default:
		t.cplx[i] = roundComplexTo(t.dtype, v)
	}
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// FromFloat64s builds a contiguous CPU tensor, rounding data to dtype.
func FromFloat64s(dtype DType, shape []int, data []float64) (*Tensor, error) {
	if err := checkConstruct(dtype, shape, len(data)); err != nil {
		return nil, err
	}
	t := newDense(dtype, shape, CPU)
	for i, v := range data {
		t.setFloat(i, v)
	}
	return t, nil
}

// FromInt64s builds a contiguous CPU tensor, converting data to dtype.
func FromInt64s(dtype DType, shape []int, data []int64) (*Tensor, error) {
	if err := checkConstruct(dtype, shape, len(data)); err != nil {
		return nil, err
	}
	t := newDense(dtype, shape, CPU)
	for i, v := range data {
		t.setInt(i, v)
	}
	return t, nil
}

// FromComplex128s builds a contiguous CPU tensor, converting data to dtype.
func FromComplex128s(dtype DType, shape []int, data []complex128) (*Tensor, error) {
	if err := checkConstruct(dtype, shape, len(data)); err != nil {
		return nil, err
	}
	t := newDense(dtype, shape, CPU)
	for i, v := range data {
		t.setComplex(i, v)
	}
	return t, nil
}

// FromBools builds a contiguous CPU bool tensor.
func FromBools(shape []int, data []bool) (*Tensor, error) {
	if err := checkConstruct(Bool, shape, len(data)); err != nil {
		return nil, err
	}
	t := newDense(Bool, shape, CPU)
	for i, v := range data {
		t.ints[i] = b2i(v)
	}
	return t, nil
}

// Scalar builds a zero-dimensional CPU tensor.
func Scalar(dtype DType, v float64) (*Tensor, error) {
	return FromFloat64s(dtype, nil, []float64{v})
}

// Empty builds a zero-filled tensor on device. On Meta the tensor has a shape
// and dtype but no data.
func Empty(dtype DType, shape []int, device Device) (*Tensor, error) {
	if err := checkConstruct(dtype, shape, numel(shape)); err != nil {
		return nil, err
	}
	return newDense(dtype, shape, device), nil
}

func checkConstruct(dtype DType, shape []int, n int) error {
	if dtype < 0 || int(dtype) >= len(dtypeNames) {
		return fmt.Errorf("tensor: invalid dtype %d", int(dtype))
	}
	if dtype.IsQuantized() {
		return fmt.Errorf("tensor: %s tensors are built with QuantizePerTensor", dtype)
	}
	return checkShape(shape, n)
}

// Must panics if err is non-nil and returns t otherwise.
func Must(t *Tensor, err error) *Tensor {
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tensor) checkData() error {
	if t.device == Meta {
		return ErrNoData
	}
	if t.layout != Strided {
		return fmt.Errorf("tensor: %s tensor has no strided values, densify it first", t.layout)
	}
	return nil
}

// positions returns the storage position of every element in row-major
// logical order.
func (t *Tensor) positions() []int {
	n := t.Numel()
	out := make([]int, n)
	if n == 0 {
		return out
	}
	idx := make([]int, len(t.shape))
	for i := 0; i < n; i++ {
		pos := t.offset
		for d, v := range idx {
			pos += v * t.strides[d]
		}
		out[i] = pos
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < t.shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

// Float64s returns the elements in row-major order. Quantized tensors yield
// their raw integer representation.
func (t *Tensor) Float64s() ([]float64, error) {
	if err := t.checkData(); err != nil {
		return nil, err
	}
	pos := t.positions()
	out := make([]float64, len(pos))
	switch t.dtype.storage() {
	case intStorage:
		for i, p := range pos {
			out[i] = float64(t.ints[p])
		}
	case realStorage:
		for i, p := range pos {
			out[i] = t.reals[p]
		}
	default:
		return nil, fmt.Errorf("tensor: %s values are not real, use Complex128s", t.dtype)
	}
	return out, nil
}

// Complex128s returns the elements in row-major order as complex numbers.
func (t *Tensor) Complex128s() ([]complex128, error) {
	if err := t.checkData(); err != nil {
		return nil, err
	}
	pos := t.positions()
	out := make([]complex128, len(pos))
	switch t.dtype.storage() {
	case intStorage:
		for i, p := range pos {
			out[i] = complex(float64(t.ints[p]), 0)
		}
	case realStorage:
		for i, p := range pos {
			out[i] = complex(t.reals[p], 0)
		}
	default:
		for i, p := range pos {
			out[i] = t.cplx[p]
		}
	}
	return out, nil
}

// Int64s returns the elements in row-major order. Real values are truncated
// toward zero.
func (t *Tensor) Int64s() ([]int64, error) {
	if err := t.checkData(); err != nil {
		return nil, err
	}
	pos := t.positions()
	out := make([]int64, len(pos))
	switch t.dtype.storage() {
	case intStorage:
		for i, p := range pos {
			out[i] = t.ints[p]
		}
	case realStorage:
		for i, p := range pos {
			out[i] = truncate(t.reals[p])
		}
	default:
		return nil, fmt.Errorf("tensor: %s values are not real", t.dtype)
	}
	return out, nil
}

// Contiguous returns t if it is already row-major and a row-major copy otherwise.
func (t *Tensor) Contiguous() (*Tensor, error) {
	if t.IsContiguous() && t.offset == 0 {
		return t, nil
	}
	if t.layout != Strided {
		return nil, fmt.Errorf("tensor: %s tensor cannot be made contiguous", t.layout)
	}
	out := *t
	out.strides = contiguousStrides(t.shape)
	out.offset = 0
	if t.device == Meta {
		return &out, nil
	}
	pos := t.positions()
	switch t.dtype.storage() {
	case intStorage:
		out.ints = make([]int64, len(pos))
		for i, p := range pos {
			out.ints[i] = t.ints[p]
		}
	case realStorage:
		out.reals = make([]float64, len(pos))
		for i, p := range pos {
			out.reals[i] = t.reals[p]
		}
	default:
		out.cplx = make([]complex128, len(pos))
		for i, p := range pos {
			out.cplx[i] = t.cplx[p]
		}
	}
	return &out, nil
}

// Transpose returns a view of t with dimensions d0 and d1 swapped. The view
// shares storage with t.
func (t *Tensor) Transpose(d0, d1 int) (*Tensor, error) {
	if t.layout != Strided {
		return nil, fmt.Errorf("tensor: cannot transpose a %s tensor", t.layout)
	}
	if d0 < 0 || d0 >= len(t.shape) || d1 < 0 || d1 >= len(t.shape) {
		return nil, fmt.Errorf("tensor: transpose dimensions (%d, %d) out of range for %d dims", d0, d1, len(t.shape))
	}
	out := *t
	out.shape = slices.Clone(t.shape)
	out.strides = slices.Clone(t.strides)
	out.shape[d0], out.shape[d1] = out.shape[d1], out.shape[d0]
	out.strides[d0], out.strides[d1] = out.strides[d1], out.strides[d0]
	return &out, nil
}

// To converts t to dtype. Converting to the current dtype returns t.
func (t *Tensor) To(dtype DType) (*Tensor, error) {
	if dtype == t.dtype {
		return t, nil
	}
	if t.dtype.IsQuantized() || dtype.IsQuantized() {
		return nil, fmt.Errorf("tensor: cannot convert %s to %s", t.dtype, dtype)
	}
	switch t.layout {
	case SparseCOO, SparseCSR:
		values, err := t.values.To(dtype)
		if err != nil {
			return nil, err
		}
		out := *t
		out.dtype = dtype
		out.values = values
		return &out, nil
	}
	if t.device == Meta {
		return newDense(dtype, t.shape, Meta), nil
	}
	out := newDense(dtype, t.shape, t.device)
	pos := t.positions()
	switch t.dtype.storage() {
	case intStorage:
		for i, p := range pos {
			out.setInt(i, t.ints[p])
		}
	case realStorage:
		for i, p := range pos {
			out.setFloat(i, t.reals[p])
		}
	default:
		for i, p := range pos {
			out.setComplex(i, t.cplx[p])
		}
	}
	return out, nil
}

// ToDevice copies t to device. Moving to the current device returns t.
func (t *Tensor) ToDevice(device Device) (*Tensor, error) {
	if device == t.device {
		return t, nil
	}
	if t.device == Meta {
		return nil, fmt.Errorf("tensor: cannot copy out of meta tensor: %w", ErrNoData)
	}
	out := *t
	out.device = device
	if t.layout != Strided {
		var err error
		for _, part := range []**Tensor{&out.indices, &out.values, &out.crow, &out.col} {
			if *part == nil {
				continue
			}
			if *part, err = (*part).ToDevice(device); err != nil {
				return nil, err
			}
		}
		return &out, nil
	}
	if device == Meta {
		out.ints, out.reals, out.cplx = nil, nil, nil
		out.strides = contiguousStrides(t.shape)
		out.offset = 0
		return &out, nil
	}
	out.ints = slices.Clone(t.ints)
	out.reals = slices.Clone(t.reals)
	out.cplx = slices.Clone(t.cplx)
	return &out, nil
}

// CPU copies t to the host device.
func (t *Tensor) CPU() (*Tensor, error) {
	return t.ToDevice(CPU)
}

const maxPrintedElements = 16

func (t *Tensor) String() string {
	var b strings.Builder
	b.WriteString("tensor(")
	switch {
	case t.device == Meta:
		b.WriteString("...")
	case t.layout != Strided:
		fmt.Fprintf(&b, "nnz=%d", t.NNZ())
	case t.Numel() > maxPrintedElements:
		b.WriteString("[...]")
	default:
		b.WriteString(t.formatValues())
	}
	fmt.Fprintf(&b, ", size=%s, dtype=%s", FormatShape(t.shape), t.dtype)
	if t.device != CPU {
		fmt.Fprintf(&b, ", device='%s'", t.device)
	}
	if t.layout != Strided {
		fmt.Fprintf(&b, ", layout=%s", t.layout)
	}
	b.WriteString(")")
	return b.String()
}

func (t *Tensor) formatValues() string {
	pos := t.positions()
	parts := make([]string, len(pos))
	for i, p := range pos {
		switch t.dtype.storage() {
		case intStorage:
			if t.dtype == Bool {
				parts[i] = strconv.FormatBool(t.ints[p] != 0)
			} else {
				parts[i] = strconv.FormatInt(t.ints[p], 10)
			}
		case realStorage:
			parts[i] = strconv.FormatFloat(t.reals[p], 'g', -1, 64)
		default:
			parts[i] = strconv.FormatComplex(t.cplx[p], 'g', -1, 128)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatShape renders a shape as a tuple: (), (3,) or (2, 3).
func FormatShape(shape []int) string {
	if len(shape) == 1 {
		return "(" + strconv.Itoa(shape[0]) + ",)"
	}
	parts := make([]string, len(shape))
	for i, s := range shape {
		parts[i] = strconv.Itoa(s)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
