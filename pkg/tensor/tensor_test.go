package tensor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type labeled struct {
	*Tensor
	Label string
}

func TestAsTensor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        any
		wantDType DType
		wantShape []int
		wantData  []float64
	}{
		{"nested float32", [][]float32{{1, 2}, {3, 4}}, Float32, []int{2, 2}, []float64{1, 2, 3, 4}},
		{"int scalar", 3, Int64, []int{}, []float64{3}},
		{"bool", true, Bool, []int{}, []float64{1}},
		{"uint8 slice", []uint8{7, 8}, Uint8, []int{2}, []float64{7, 8}},
		{"array", [3]int16{1, 2, 3}, Int16, []int{3}, []float64{1, 2, 3}},
		{"float16 slice", []Half{0x3C00, 0x4000}, Float16, []int{2}, []float64{1, 2}},
		{"uint64 slice", []uint64{1 << 62}, Int64, []int{1}, []float64{1 << 62}},
		{"empty", []float64{}, Float64, []int{0}, []float64{}},
		{"gonum matrix", mat.NewDense(2, 2, []float64{1, 2, 3, 4}), Float64, []int{2, 2}, []float64{1, 2, 3, 4}},
		{"gonum vector", mat.NewVecDense(3, []float64{5, 6, 7}), Float64, []int{3}, []float64{5, 6, 7}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := AsTensor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDType, got.DType())
			assert.Equal(t, tt.wantShape, got.Shape())
			data, err := got.Float64s()
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestAsTensor_Errors(t *testing.T) {
	t.Parallel()
	var nilTensor *Tensor
	for name, in := range map[string]any{
		"nil":         nil,
		"nil tensor":  nilTensor,
		"string":      "x",
		"ragged":      [][]int{{1}, {1, 2}},
		"any slice":   []any{1, 2},
		"uint64 wrap": []uint64{1, 1 << 63},
	} {
		_, err := AsTensor(in)
		assert.Error(t, err, name)
	}
}

func TestAsTensor_EmbeddedTensor(t *testing.T) {
	t.Parallel()
	base := Must(FromFloat64s(Float32, []int{2}, []float64{1, 2}))
	got, err := AsTensor(labeled{Tensor: base, Label: "x"})
	require.NoError(t, err)
	assert.Same(t, base, got)
}

func TestTranspose(t *testing.T) {
	t.Parallel()
	x := Must(FromFloat64s(Float64, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, []int{3, 1}, x.Strides())
	assert.True(t, x.IsContiguous())

	tr, err := x.Transpose(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, tr.Shape())
	assert.Equal(t, []int{1, 3}, tr.Strides())
	assert.False(t, tr.IsContiguous())

	data, err := tr.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, data)

	c, err := tr.Contiguous()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, c.Strides())
	cdata, err := c.Float64s()
	require.NoError(t, err)
	assert.Equal(t, data, cdata)

	_, err = x.Transpose(0, 2)
	assert.Error(t, err)
}

func TestTo(t *testing.T) {
	t.Parallel()
	x := Must(FromFloat64s(Float64, []int{3}, []float64{1.5, -2.7, 300}))

	i8, err := x.To(Int8)
	require.NoError(t, err)
	ints, err := i8.Int64s()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, -2, 44}, ints)

	h, err := Must(Scalar(Float64, 0.1)).To(Float16)
	require.NoError(t, err)
	vals, err := h.Float64s()
	require.NoError(t, err)
	assert.Equal(t, 0.0999755859375, vals[0])

	c, err := x.To(Complex64)
	require.NoError(t, err)
	cv, err := c.Complex128s()
	require.NoError(t, err)
	assert.Equal(t, complex(1.5, 0), cv[0])

	same, err := x.To(Float64)
	require.NoError(t, err)
	assert.Same(t, x, same)

	_, err = x.To(QInt8)
	assert.Error(t, err)
}

func TestMetaTensors(t *testing.T) {
	t.Parallel()
	m, err := Empty(Float32, []int{2, 2}, Meta)
	require.NoError(t, err)
	assert.True(t, m.IsMeta())

	_, err = m.Float64s()
	assert.True(t, errors.Is(err, ErrNoData))

	_, err = m.CPU()
	assert.True(t, errors.Is(err, ErrNoData))

	promoted, err := m.To(Float64)
	require.NoError(t, err)
	assert.Equal(t, Meta, promoted.Device())
	assert.Contains(t, m.String(), "device='meta'")
}

func TestToDevice(t *testing.T) {
	t.Parallel()
	x := Must(FromFloat64s(Float32, []int{2}, []float64{1, 2}))
	moved, err := x.ToDevice(Accelerator(0))
	require.NoError(t, err)
	assert.Equal(t, "cuda:0", moved.Device().String())

	back, err := moved.CPU()
	require.NoError(t, err)
	data, err := back.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, data)

	toMeta, err := x.ToDevice(Meta)
	require.NoError(t, err)
	_, err = toMeta.Float64s()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestParseDevice(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Device{
		"cpu":    CPU,
		"meta":   Meta,
		"cuda":   Accelerator(0),
		"cuda:2": Accelerator(2),
	} {
		got, err := ParseDevice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"tpu", "cuda:x", "cpu:1"} {
		_, err := ParseDevice(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsClose(t *testing.T) {
	t.Parallel()
	nan, inf := math.NaN(), math.Inf(1)
	a := Must(FromFloat64s(Float64, []int{4}, []float64{1, nan, inf, 1}))
	b := Must(FromFloat64s(Float64, []int{4}, []float64{1.000001, nan, inf, 2}))

	got, err := IsClose(a, b, 1e-5, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, got)

	got, err = IsClose(a, b, 1e-5, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, false}, got)

	_, err = IsClose(a, Must(FromFloat64s(Float32, []int{4}, make([]float64, 4))), 0, 0, false)
	assert.Error(t, err)
}

func TestIsClose_Int64(t *testing.T) {
	t.Parallel()
	a := Must(FromInt64s(Int64, []int{3}, []int64{1<<53 + 1, math.MinInt64, 10}))
	b := Must(FromInt64s(Int64, []int{3}, []int64{1 << 53, math.MaxInt64, 12}))

	got, err := IsClose(a, b, 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, got)

	got, err = IsClose(a, b, 0, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, got)

	assert.Equal(t, uint64(math.MaxUint64), AbsDiffInt64(math.MinInt64, math.MaxInt64))
	assert.Equal(t, uint64(3), AbsDiffInt64(-1, 2))
}

func TestIsClose_Complex(t *testing.T) {
	t.Parallel()
	a := Must(FromComplex128s(Complex128, []int{2}, []complex128{1 + 1i, complex(math.NaN(), 0)}))
	b := Must(FromComplex128s(Complex128, []int{2}, []complex128{1 + 1.5i, complex(0, math.NaN())}))

	got, err := IsClose(a, b, 0, 0.6, true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, got)

	got, err = IsClose(a, b, 0, 0.1, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, got)
}

func TestUnravel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int{1, 2}, Unravel(5, []int{2, 3}))
	assert.Equal(t, []int{0, 0, 1}, Unravel(1, []int{2, 2, 2}))
	assert.Equal(t, []int{}, Unravel(0, []int{}))
}

func TestFormatShape(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "()", FormatShape(nil))
	assert.Equal(t, "(3,)", FormatShape([]int{3}))
	assert.Equal(t, "(2, 3)", FormatShape([]int{2, 3}))
}

func TestString(t *testing.T) {
	t.Parallel()
	x := Must(FromFloat64s(Float32, []int{2}, []float64{1, 2.5}))
	assert.Equal(t, "tensor([1, 2.5], size=(2,), dtype=float32)", x.String())
}
