package tensor

import (
	"fmt"
	"slices"
	"sort"
)

// NewCOO builds a sparse COO tensor. indices has one row per sparse dimension
// and one column per specified element. values has one leading entry per
// specified element followed by the dense dimensions of shape. Duplicate
// indices are allowed; the tensor starts out uncoalesced.
func NewCOO(indices [][]int64, values *Tensor, shape []int) (*Tensor, error) {
	sparseDim := len(indices)
	if sparseDim == 0 || sparseDim > len(shape) {
		return nil, fmt.Errorf("tensor: %d sparse dimensions do not fit shape %v", sparseDim, shape)
	}
	if err := checkShape(shape, numel(shape)); err != nil {
		return nil, err
	}
	nnz := len(indices[0])
	flat := make([]int64, 0, sparseDim*nnz)
	for d, row := range indices {
		if len(row) != nnz {
			return nil, fmt.Errorf("tensor: index row %d has %d entries, expected %d", d, len(row), nnz)
		}
		for _, v := range row {
			if v < 0 || v >= int64(shape[d]) {
				return nil, fmt.Errorf("tensor: index %d out of bounds for dimension %d of size %d", v, d, shape[d])
			}
		}
		flat = append(flat, row...)
	}
	values, err := checkValues(values, nnz, shape[sparseDim:])
	if err != nil {
		return nil, err
	}
	idx := newDense(Int64, []int{sparseDim, nnz}, values.device)
	copy(idx.ints, flat)
	return &Tensor{
		dtype:   values.dtype,
		shape:   slices.Clone(shape),
		device:  values.device,
		layout:  SparseCOO,
		indices: idx,
		values:  values,
	}, nil
}

// NewCSR builds a two-dimensional sparse CSR tensor from compressed row
// pointers, column indices and one value per column index.
func NewCSR(crow, col []int64, values *Tensor, shape []int) (*Tensor, error) {
	if len(shape) != 2 {
		return nil, fmt.Errorf("tensor: sparse CSR tensors must be two-dimensional, got shape %v", shape)
	}
	if err := checkShape(shape, numel(shape)); err != nil {
		return nil, err
	}
	if len(crow) != shape[0]+1 {
		return nil, fmt.Errorf("tensor: crow_indices has %d entries, expected %d", len(crow), shape[0]+1)
	}
	if crow[0] != 0 || crow[len(crow)-1] != int64(len(col)) {
		return nil, fmt.Errorf("tensor: crow_indices must start at 0 and end at %d", len(col))
	}
	for i := 1; i < len(crow); i++ {
		if crow[i] < crow[i-1] {
			return nil, fmt.Errorf("tensor: crow_indices must be non-decreasing")
		}
	}
	for _, c := range col {
		if c < 0 || c >= int64(shape[1]) {
			return nil, fmt.Errorf("tensor: column index %d out of bounds for size %d", c, shape[1])
		}
	}
	values, err := checkValues(values, len(col), nil)
	if err != nil {
		return nil, err
	}
	crowT := newDense(Int64, []int{len(crow)}, values.device)
	copy(crowT.ints, crow)
	colT := newDense(Int64, []int{len(col)}, values.device)
	copy(colT.ints, col)
	return &Tensor{
		dtype:  values.dtype,
		shape:  slices.Clone(shape),
		device: values.device,
		layout: SparseCSR,
		crow:   crowT,
		col:    colT,
		values: values,
	}, nil
}

func checkValues(values *Tensor, nnz int, denseShape []int) (*Tensor, error) {
	if values == nil {
		return nil, fmt.Errorf("tensor: sparse values are required")
	}
	if values.layout != Strided || values.dtype.IsQuantized() {
		return nil, fmt.Errorf("tensor: sparse values must be a plain strided tensor")
	}
	want := append([]int{nnz}, denseShape...)
	if !slices.Equal(values.shape, want) {
		return nil, fmt.Errorf("tensor: sparse values have shape %v, expected %v", values.shape, want)
	}
	return values.Contiguous()
}

// SparseDim returns the number of sparse dimensions. Strided tensors have none.
func (t *Tensor) SparseDim() int {
	switch t.layout {
	case SparseCOO:
		return t.indices.shape[0]
	case SparseCSR:
		return 2
	}
	return 0
}

// NNZ returns the number of specified elements of a sparse tensor, or the
// element count of a strided one.
func (t *Tensor) NNZ() int {
	switch t.layout {
	case SparseCOO:
		return t.indices.shape[1]
	case SparseCSR:
		return t.col.shape[0]
	}
	return t.Numel()
}

// IsCoalesced reports whether a COO tensor has sorted, unique indices.
func (t *Tensor) IsCoalesced() bool { return t.coalesced }

// Indices returns the [sparseDim, nnz] index tensor of a COO tensor as stored,
// without coalescing.
func (t *Tensor) Indices() (*Tensor, error) {
	if t.layout != SparseCOO {
		return nil, fmt.Errorf("tensor: indices of a %s tensor", t.layout)
	}
	return t.indices, nil
}

// Values returns the specified values of a sparse tensor as stored.
func (t *Tensor) Values() (*Tensor, error) {
	if t.layout == Strided {
		return nil, fmt.Errorf("tensor: values of a %s tensor", t.layout)
	}
	return t.values, nil
}

func (t *Tensor) CrowIndices() (*Tensor, error) {
	if t.layout != SparseCSR {
		return nil, fmt.Errorf("tensor: crow_indices of a %s tensor", t.layout)
	}
	return t.crow, nil
}

func (t *Tensor) ColIndices() (*Tensor, error) {
	if t.layout != SparseCSR {
		return nil, fmt.Errorf("tensor: col_indices of a %s tensor", t.layout)
	}
	return t.col, nil
}

// Coalesce returns a COO tensor with indices sorted in row-major order and
// duplicate entries summed.
func (t *Tensor) Coalesce() (*Tensor, error) {
	if t.layout != SparseCOO {
		return nil, fmt.Errorf("tensor: cannot coalesce a %s tensor", t.layout)
	}
	if t.coalesced {
		return t, nil
	}
	if t.device == Meta {
		return nil, fmt.Errorf("tensor: cannot coalesce meta tensor: %w", ErrNoData)
	}
	sparseDim, nnz := t.indices.shape[0], t.indices.shape[1]
	keys := t.linearIndices()
	order := make([]int, nnz)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	block := numel(t.values.shape[1:])
	var kept []int
	for _, k := range order {
		if len(kept) > 0 && keys[kept[len(kept)-1]] == keys[k] {
			continue
		}
		kept = append(kept, k)
	}

	idx := newDense(Int64, []int{sparseDim, len(kept)}, t.device)
	for d := 0; d < sparseDim; d++ {
		for j, k := range kept {
			idx.ints[d*len(kept)+j] = t.indices.ints[d*nnz+k]
		}
	}
	valShape := append([]int{len(kept)}, t.values.shape[1:]...)
	vals := newDense(t.dtype, valShape, t.device)
	slot := -1
	var last int64 = -1
	for _, k := range order {
		if slot < 0 || keys[k] != last {
			slot++
			last = keys[k]
		}
		for j := 0; j < block; j++ {
			accumulate(vals, slot*block+j, t.values, k*block+j)
		}
	}
	out := *t
	out.indices = idx
	out.values = vals
	out.coalesced = true
	return &out, nil
}

// linearIndices returns the row-major position of every specified element
// within the sparse dimensions.
func (t *Tensor) linearIndices() []int64 {
	sparseDim, nnz := t.indices.shape[0], t.indices.shape[1]
	keys := make([]int64, nnz)
	for k := 0; k < nnz; k++ {
		var key int64
		for d := 0; d < sparseDim; d++ {
			key = key*int64(t.shape[d]) + t.indices.ints[d*nnz+k]
		}
		keys[k] = key
	}
	return keys
}

// accumulate adds src's storage element si to dst's storage element di. Both
// tensors share a dtype.
func accumulate(dst *Tensor, di int, src *Tensor, si int) {
	switch dst.dtype.storage() {
	case intStorage:
		if dst.dtype == Bool {
			dst.ints[di] |= src.ints[si]
			return
		}
		dst.ints[di] = castInt(dst.dtype, dst.ints[di]+src.ints[si])
	case realStorage:
		dst.reals[di] = roundTo(dst.dtype, dst.reals[di]+src.reals[si])
	default:
		dst.cplx[di] = roundComplexTo(dst.dtype, dst.cplx[di]+src.cplx[si])
	}
}

// ToDense converts a sparse tensor to a strided one. Strided tensors are
// returned as is.
func (t *Tensor) ToDense() (*Tensor, error) {
	if t.layout != Strided && t.device == Meta {
		return nil, fmt.Errorf("tensor: cannot densify meta tensor: %w", ErrNoData)
	}
	switch t.layout {
	case Strided:
		return t, nil
	case SparseCOO:
		out := newDense(t.dtype, t.shape, t.device)
		block := numel(t.values.shape[1:])
		for k, key := range t.linearIndices() {
			for j := 0; j < block; j++ {
				accumulate(out, int(key)*block+j, t.values, k*block+j)
			}
		}
		return out, nil
	case SparseCSR:
		out := newDense(t.dtype, t.shape, t.device)
		cols := t.shape[1]
		for r := 0; r < t.shape[0]; r++ {
			for p := t.crow.ints[r]; p < t.crow.ints[r+1]; p++ {
				accumulate(out, r*cols+int(t.col.ints[p]), t.values, int(p))
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("tensor: unsupported layout %s", t.layout)
}
