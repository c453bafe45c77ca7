package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/closeness/pkg/tensor"
)

func decodeTensor(t *testing.T, doc string) *tensor.Tensor {
	t.Helper()
	got, err := Decode([]byte(doc), JSON, "x.json")
	require.NoError(t, err)
	x, ok := got.(*tensor.Tensor)
	require.True(t, ok, "decoded %T", got)
	return x
}

func TestTensorNode_Dense(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		doc    string
		dtype  tensor.DType
		shape  []int
		values []float64
	}{
		{"inferred shape", `{"$tensor": {"dtype": "float64", "data": [[1, 2, 3], [4, 5, 6]]}}`,
			tensor.Float64, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6}},
		{"explicit shape", `{"$tensor": {"dtype": "float32", "shape": [3, 1], "data": [1, 2, 3]}}`,
			tensor.Float32, []int{3, 1}, []float64{1, 2, 3}},
		{"zero-dim", `{"$tensor": {"dtype": "float64", "data": 2.5}}`,
			tensor.Float64, []int{}, []float64{2.5}},
		{"empty", `{"$tensor": {"dtype": "float64", "data": []}}`,
			tensor.Float64, []int{0}, []float64{}},
		{"integers", `{"$tensor": {"dtype": "int32", "data": [1, 2.0, -3]}}`,
			tensor.Int32, []int{3}, []float64{1, 2, -3}},
		{"bools", `{"$tensor": {"dtype": "bool", "data": [true, false, 1]}}`,
			tensor.Bool, []int{3}, []float64{1, 0, 1}},
		{"zeros", `{"$tensor": {"dtype": "torch.half", "shape": [2]}}`,
			tensor.Float16, []int{2}, []float64{0, 0}},
		{"transposed", `{"$tensor": {"dtype": "float64", "data": [[1, 2], [3, 4]], "transpose": [0, 1]}}`,
			tensor.Float64, []int{2, 2}, []float64{1, 3, 2, 4}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			x := decodeTensor(t, tt.doc)
			assert.Equal(t, tt.dtype, x.DType())
			assert.Equal(t, tt.shape, x.Shape())
			assert.Equal(t, tensor.Strided, x.Layout())
			got, err := x.Float64s()
			require.NoError(t, err)
			assert.Equal(t, tt.values, append([]float64{}, got...))
		})
	}
}

func TestTensorNode_Transpose(t *testing.T) {
	t.Parallel()
	x := decodeTensor(t, `{"$tensor": {"dtype": "float64", "data": [[1, 2, 3], [4, 5, 6]], "transpose": [0, 1]}}`)
	assert.Equal(t, []int{3, 2}, x.Shape())
	assert.Equal(t, []int{1, 3}, x.Strides())
	assert.False(t, x.IsContiguous())
}

func TestTensorNode_Complex(t *testing.T) {
	t.Parallel()
	x := decodeTensor(t, `{"$tensor": {"dtype": "complex128", "data": [[1, 2], 3, [0, -1]]}}`)
	assert.Equal(t, []int{3}, x.Shape())
	got, err := x.Complex128s()
	require.NoError(t, err)
	assert.Equal(t, []complex128{complex(1, 2), 3, complex(0, -1)}, got)
}

func TestTensorNode_Devices(t *testing.T) {
	t.Parallel()

	meta := decodeTensor(t, `{"$tensor": {"dtype": "float32", "shape": [2, 2], "device": "meta"}}`)
	assert.True(t, meta.IsMeta())
	assert.Equal(t, []int{2, 2}, meta.Shape())
	_, err := meta.Float64s()
	assert.ErrorIs(t, err, tensor.ErrNoData)

	cuda := decodeTensor(t, `{"$tensor": {"dtype": "float32", "data": [1], "device": "cuda:1"}}`)
	assert.Equal(t, tensor.Accelerator(1), cuda.Device())
}

func TestTensorNode_Sparse(t *testing.T) {
	t.Parallel()

	coo := decodeTensor(t, `{"$tensor": {"dtype": "float64", "layout": "sparse_coo", "shape": [2, 3],
		"indices": [[0, 1], [2, 0]], "data": [5, 6]}}`)
	assert.Equal(t, tensor.SparseCOO, coo.Layout())
	assert.Equal(t, 2, coo.NNZ())
	dense, err := coo.ToDense()
	require.NoError(t, err)
	values, err := dense.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 5, 6, 0, 0}, values)

	csr := decodeTensor(t, `{"$tensor": {"dtype": "float64", "layout": "sparse_csr", "shape": [2, 2],
		"crow_indices": [0, 1, 2], "col_indices": [1, 0], "data": [7, 8]}}`)
	assert.Equal(t, tensor.SparseCSR, csr.Layout())
	dense, err = csr.ToDense()
	require.NoError(t, err)
	values, err = dense.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 7, 8, 0}, values)
}

func TestTensorNode_Quantized(t *testing.T) {
	t.Parallel()
	x := decodeTensor(t, `{"$tensor": {"dtype": "float32", "data": [0.0, 0.5, 1.0],
		"quantize": {"scale": 0.5, "zero_point": 2, "dtype": "quint8"}}}`)
	assert.Equal(t, tensor.QUInt8, x.DType())
	assert.Equal(t, 0.5, x.QScale())
	assert.Equal(t, int64(2), x.QZeroPoint())
	assert.Equal(t, tensor.PerTensorAffine, x.QScheme())

	sym := decodeTensor(t, `{"$tensor": {"dtype": "float32", "data": [1.0],
		"quantize": {"scale": 0.1, "dtype": "qint8", "scheme": "per_tensor_symmetric"}}}`)
	assert.Equal(t, tensor.PerTensorSymmetric, sym.QScheme())
}

func TestTensorNode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"schema", `{"$tensor": {"data": [1]}}`},
		{"unknown dtype", `{"$tensor": {"dtype": "float128", "data": [1]}}`},
		{"quantized dtype", `{"$tensor": {"dtype": "qint8", "data": [1]}}`},
		{"ragged", `{"$tensor": {"dtype": "float64", "data": [[1, 2], [3]]}}`},
		{"shape mismatch", `{"$tensor": {"dtype": "float64", "shape": [4], "data": [1, 2]}}`},
		{"fractional int", `{"$tensor": {"dtype": "int64", "data": [1.5]}}`},
		{"string value", `{"$tensor": {"dtype": "float64", "data": ["one"]}}`},
		{"no data no shape", `{"$tensor": {"dtype": "float64"}}`},
		{"sparse without shape", `{"$tensor": {"dtype": "float64", "layout": "sparse_coo", "indices": [[0]], "data": [1]}}`},
		{"coo without indices", `{"$tensor": {"dtype": "float64", "layout": "sparse_coo", "shape": [2], "data": [1]}}`},
		{"csr without indices", `{"$tensor": {"dtype": "float64", "layout": "sparse_csr", "shape": [1, 1], "data": [1]}}`},
		{"bad device", `{"$tensor": {"dtype": "float64", "data": [1], "device": "tpu"}}`},
		{"bad transpose", `{"$tensor": {"dtype": "float64", "data": [1], "transpose": [0, 3]}}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tt.doc), JSON, "x.json")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "$tensor")
		})
	}
}
