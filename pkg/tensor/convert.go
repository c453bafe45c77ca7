package tensor

import (
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/mat"
)

var (
	halfType  = reflect.TypeOf(Half(0))
	bhalfType = reflect.TypeOf(BHalf(0))
)

// AsTensor converts v to a tensor. It accepts tensors and values embedding
// one, gonum vectors and matrices, numeric and bool scalars, and rectangular
// nested slices or arrays of them. Tensors are returned without copying.
func AsTensor(v any) (*Tensor, error) {
	if v == nil {
		return nil, fmt.Errorf("tensor: cannot convert nil")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, fmt.Errorf("tensor: cannot convert nil %T", v)
	}
	switch x := v.(type) {
	case *Tensor:
		return x, nil
	case Like:
		base := x.Base()
		if base == nil {
			return nil, fmt.Errorf("tensor: %T carries no tensor", v)
		}
		return base, nil
	case mat.Vector:
		n := x.Len()
		data := make([]float64, n)
		for i := range data {
			data[i] = x.AtVec(i)
		}
		return FromFloat64s(Float64, []int{n}, data)
	case mat.Matrix:
		r, c := x.Dims()
		data := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				data = append(data, x.At(i, j))
			}
		}
		return FromFloat64s(Float64, []int{r, c}, data)
	}

	dtype, ok := leafDType(rv.Type())
	if !ok {
		return nil, fmt.Errorf("tensor: cannot convert %T", v)
	}
	shape := inferShape(rv)
	t := newDense(dtype, shape, CPU)
	pos := 0
	if err := fill(rv, 0, shape, t, &pos); err != nil {
		return nil, err
	}
	return t, nil
}

// IsConvertible reports whether AsTensor accepts values of type typ without
// looking at a concrete value.
func IsConvertible(typ reflect.Type) bool {
	_, ok := leafDType(typ)
	return ok
}

func leafDType(typ reflect.Type) (DType, bool) {
	for typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array {
		typ = typ.Elem()
	}
	switch typ {
	case halfType:
		return Float16, true
	case bhalfType:
		return BFloat16, true
	}
	switch typ.Kind() {
	case reflect.Bool:
		return Bool, true
	case reflect.Uint8:
		return Uint8, true
	case reflect.Int8:
		return Int8, true
	case reflect.Int16:
		return Int16, true
	case reflect.Int32:
		return Int32, true
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int64, true
	case reflect.Float32:
		return Float32, true
	case reflect.Float64:
		return Float64, true
	case reflect.Complex64:
		return Complex64, true
	case reflect.Complex128:
		return Complex128, true
	}
	return 0, false
}

func inferShape(v reflect.Value) []int {
	var shape []int
	for v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		shape = append(shape, v.Len())
		if v.Len() == 0 {
			break
		}
		v = v.Index(0)
	}
	return shape
}

func fill(v reflect.Value, depth int, shape []int, t *Tensor, pos *int) error {
	if depth < len(shape) {
		if v.Len() != shape[depth] {
			return fmt.Errorf("tensor: ragged nested sequence at dimension %d: expected length %d, got %d",
				depth, shape[depth], v.Len())
		}
		for i := 0; i < v.Len(); i++ {
			if err := fill(v.Index(i), depth+1, shape, t, pos); err != nil {
				return err
			}
		}
		return nil
	}
	i := *pos
	*pos++
	switch v.Type() {
	case halfType:
		t.setFloat(i, float64(Half(v.Uint()).Float32()))
		return nil
	case bhalfType:
		t.setFloat(i, float64(BHalf(v.Uint()).Float32()))
		return nil
	}
	switch v.Kind() {
	case reflect.Bool:
		t.setInt(i, b2i(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		t.setInt(i, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return fmt.Errorf("tensor: element %d does not fit in int64", u)
		}
		t.setInt(i, int64(u))
	case reflect.Float32, reflect.Float64:
		t.setFloat(i, v.Float())
	case reflect.Complex64, reflect.Complex128:
		t.setComplex(i, v.Complex())
	default:
		return fmt.Errorf("tensor: unsupported element %s", v.Type())
	}
	return nil
}
