package fixture

import (
	"fmt"
	"math"
	"slices"

	"github.com/AndreyAkinshin/closeness/internal/schema"
	"github.com/AndreyAkinshin/closeness/pkg/tensor"
)

// tensorNode is the resolved body of a $tensor node.
type tensorNode struct {
	dtype     tensor.DType
	shape     []int
	hasShape  bool
	data      any
	device    tensor.Device
	layout    string
	indices   [][]int64
	crow      []int64
	col       []int64
	quantize  map[string]any
	transpose []int
}

func buildTensor(body any, baseDir string) (*tensor.Tensor, error) {
	if err := schema.ValidateTensor(body); err != nil {
		return nil, fmt.Errorf("$tensor: %w", err)
	}
	resolved, err := Resolve(body, baseDir)
	if err != nil {
		return nil, fmt.Errorf("$tensor: %w", err)
	}
	node, err := parseTensorNode(stringKeys(resolved))
	if err != nil {
		return nil, fmt.Errorf("$tensor: %w", err)
	}
	t, err := node.build()
	if err != nil {
		return nil, fmt.Errorf("$tensor: %w", err)
	}
	return t, nil
}

func stringKeys(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, e := range m {
			out[fmt.Sprint(k)] = e
		}
		return out
	}
	return nil
}

func parseTensorNode(m map[string]any) (*tensorNode, error) {
	name, _ := m["dtype"].(string)
	dtype, err := tensor.ParseDType(name)
	if err != nil {
		return nil, err
	}
	if dtype.IsQuantized() {
		return nil, fmt.Errorf("quantized dtype %s is set under \"quantize\"; \"dtype\" names the source values", dtype)
	}
	node := &tensorNode{dtype: dtype, device: tensor.CPU, layout: "strided", data: m["data"]}

	if raw, ok := m["shape"]; ok {
		ints, err := int64List(raw, "shape")
		if err != nil {
			return nil, err
		}
		node.shape = toInts(ints)
		node.hasShape = true
	}
	if raw, ok := m["device"].(string); ok {
		if node.device, err = tensor.ParseDevice(raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := m["layout"].(string); ok {
		node.layout = raw
	}
	if raw, ok := m["indices"].([]any); ok {
		for i, row := range raw {
			ints, err := int64List(row, fmt.Sprintf("indices[%d]", i))
			if err != nil {
				return nil, err
			}
			node.indices = append(node.indices, ints)
		}
	}
	if raw, ok := m["crow_indices"]; ok {
		if node.crow, err = int64List(raw, "crow_indices"); err != nil {
			return nil, err
		}
	}
	if raw, ok := m["col_indices"]; ok {
		if node.col, err = int64List(raw, "col_indices"); err != nil {
			return nil, err
		}
	}
	if raw, ok := m["quantize"]; ok {
		node.quantize = stringKeys(raw)
	}
	if raw, ok := m["transpose"]; ok {
		ints, err := int64List(raw, "transpose")
		if err != nil {
			return nil, err
		}
		node.transpose = toInts(ints)
	}
	return node, nil
}

func (n *tensorNode) build() (*tensor.Tensor, error) {
	var (
		t   *tensor.Tensor
		err error
	)
	switch n.layout {
	case "sparse_coo":
		t, err = n.buildCOO()
	case "sparse_csr":
		t, err = n.buildCSR()
	default:
		t, err = n.buildDense()
	}
	if err != nil {
		return nil, err
	}
	if n.quantize != nil {
		if t, err = n.applyQuantize(t); err != nil {
			return nil, err
		}
	}
	if n.transpose != nil {
		if t, err = t.Transpose(n.transpose[0], n.transpose[1]); err != nil {
			return nil, err
		}
	}
	if n.device != tensor.CPU && t.Device() != n.device {
		if t, err = t.ToDevice(n.device); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (n *tensorNode) buildDense() (*tensor.Tensor, error) {
	if n.data == nil {
		if !n.hasShape {
			return nil, fmt.Errorf("a tensor without data needs a shape")
		}
		device := tensor.CPU
		if n.device == tensor.Meta {
			device = tensor.Meta
		}
		return tensor.Empty(n.dtype, n.shape, device)
	}
	shape := n.shape
	values, inferred, err := flatten(n.data, n.dtype.IsComplex())
	if err != nil {
		return nil, err
	}
	if !n.hasShape {
		shape = inferred
	}
	return fromValues(n.dtype, shape, values)
}

func (n *tensorNode) buildCOO() (*tensor.Tensor, error) {
	if !n.hasShape {
		return nil, fmt.Errorf("a sparse tensor needs a shape")
	}
	if len(n.indices) == 0 {
		return nil, fmt.Errorf("a sparse COO tensor needs indices")
	}
	values, err := n.sparseValues(len(n.indices[0]), n.shape[len(n.indices):])
	if err != nil {
		return nil, err
	}
	return tensor.NewCOO(n.indices, values, n.shape)
}

func (n *tensorNode) buildCSR() (*tensor.Tensor, error) {
	if !n.hasShape {
		return nil, fmt.Errorf("a sparse tensor needs a shape")
	}
	if n.crow == nil || n.col == nil {
		return nil, fmt.Errorf("a sparse CSR tensor needs crow_indices and col_indices")
	}
	values, err := n.sparseValues(len(n.col), nil)
	if err != nil {
		return nil, err
	}
	return tensor.NewCSR(n.crow, n.col, values, n.shape)
}

// sparseValues builds the values tensor of a sparse node: one leading entry
// per specified element followed by the dense dimensions.
func (n *tensorNode) sparseValues(nnz int, dense []int) (*tensor.Tensor, error) {
	var values []any
	if n.data != nil {
		var err error
		if values, _, err = flatten(n.data, n.dtype.IsComplex()); err != nil {
			return nil, err
		}
	}
	shape := append([]int{nnz}, dense...)
	return fromValues(n.dtype, shape, values)
}

func (n *tensorNode) applyQuantize(t *tensor.Tensor) (*tensor.Tensor, error) {
	qname, _ := n.quantize["dtype"].(string)
	qdtype, err := tensor.ParseDType(qname)
	if err != nil {
		return nil, err
	}
	scale, ok := toFloat(n.quantize["scale"])
	if !ok {
		return nil, fmt.Errorf("quantize scale must be a number")
	}
	var zeroPoint int64
	if raw, ok := n.quantize["zero_point"]; ok {
		if zeroPoint, ok = raw.(int64); !ok {
			return nil, fmt.Errorf("quantize zero_point must be an integer, got %v", raw)
		}
	}
	if scheme, _ := n.quantize["scheme"].(string); scheme == tensor.PerTensorSymmetric.String() {
		return tensor.QuantizePerTensorSymmetric(t, scale, qdtype)
	}
	return tensor.QuantizePerTensor(t, scale, zeroPoint, qdtype)
}

// flatten walks nested lists in row-major order and returns the leaves and
// the shape of the nesting. With complexPairs set, a two-element list of
// numbers is a single [re, im] leaf.
func flatten(data any, complexPairs bool) ([]any, []int, error) {
	list, ok := data.([]any)
	if !ok || (complexPairs && isComplexPair(list)) {
		return []any{data}, []int{}, nil
	}
	if len(list) == 0 {
		return nil, []int{0}, nil
	}
	var (
		leaves []any
		inner  []int
	)
	for i, e := range list {
		vals, shape, err := flatten(e, complexPairs)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			inner = shape
		} else if !slices.Equal(shape, inner) {
			return nil, nil, fmt.Errorf("ragged data: element %d has shape %s, expected %s",
				i, tensor.FormatShape(shape), tensor.FormatShape(inner))
		}
		leaves = append(leaves, vals...)
	}
	return leaves, append([]int{len(list)}, inner...), nil
}

func isComplexPair(list []any) bool {
	if len(list) != 2 {
		return false
	}
	_, reOK := toFloat(list[0])
	_, imOK := toFloat(list[1])
	return reOK && imOK
}

// fromValues builds a CPU tensor of dtype from flattened leaves.
func fromValues(dtype tensor.DType, shape []int, values []any) (*tensor.Tensor, error) {
	switch {
	case dtype == tensor.Bool:
		data := make([]bool, len(values))
		for i, v := range values {
			switch b := v.(type) {
			case bool:
				data[i] = b
			default:
				f, ok := toFloat(v)
				if !ok {
					return nil, fmt.Errorf("value %v at position %d is not a bool", v, i)
				}
				data[i] = f != 0
			}
		}
		return tensor.FromBools(shape, data)
	case dtype.IsIntegral():
		data := make([]int64, len(values))
		for i, v := range values {
			n, ok := toInt(v)
			if !ok {
				return nil, fmt.Errorf("value %v at position %d is not an integer", v, i)
			}
			data[i] = n
		}
		return tensor.FromInt64s(dtype, shape, data)
	case dtype.IsComplex():
		data := make([]complex128, len(values))
		for i, v := range values {
			c, ok := toComplex(v)
			if !ok {
				return nil, fmt.Errorf("value %v at position %d is not a number or [re, im] pair", v, i)
			}
			data[i] = c
		}
		return tensor.FromComplex128s(dtype, shape, data)
	default:
		data := make([]float64, len(values))
		for i, v := range values {
			f, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("value %v at position %d is not a number", v, i)
			}
			data[i] = f
		}
		return tensor.FromFloat64s(dtype, shape, data)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<63 {
			return int64(x), true
		}
	}
	return 0, false
}

func toComplex(v any) (complex128, bool) {
	if pair, ok := v.([]any); ok && isComplexPair(pair) {
		re, _ := toFloat(pair[0])
		im, _ := toFloat(pair[1])
		return complex(re, im), true
	}
	f, ok := toFloat(v)
	return complex(f, 0), ok
}

func int64List(v any, field string) ([]int64, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of integers", field)
	}
	out := make([]int64, len(list))
	for i, e := range list {
		n, ok := e.(int64)
		if !ok {
			f, isFloat := e.(float64)
			if !isFloat || f != math.Trunc(f) {
				return nil, fmt.Errorf("%s[%d] must be an integer, got %v", field, i, e)
			}
			n = int64(f)
		}
		out[i] = n
	}
	return out, nil
}

func toInts(v []int64) []int {
	out := make([]int, len(v))
	for i, n := range v {
		out[i] = int(n)
	}
	return out
}
