// Package tensor provides the small n-dimensional array backend used by the
// closeness comparators.
//
// It models the pieces of an array library a comparison engine needs to look
// at: element types and their promotion rules, devices, storage layouts
// (strided, sparse COO, sparse CSR), quantized storage and shape-only
// placeholder tensors. All storage is host memory; a device is a placement tag
// and moving a tensor between devices copies it.
package tensor

import (
	"fmt"
	"strings"
)

// DType is the element type of a tensor.
type DType int

const (
	Bool DType = iota
	Uint8
	Int8
	Int16
	Int32
	Int64
	Float16
	BFloat16
	Float32
	Float64
	Complex32
	Complex64
	Complex128
	QUInt8
	QInt8
	QInt32
	QUInt4x2
	QUInt2x4
)

var dtypeNames = [...]string{
	Bool:       "bool",
	Uint8:      "uint8",
	Int8:       "int8",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	Float16:    "float16",
	BFloat16:   "bfloat16",
	Float32:    "float32",
	Float64:    "float64",
	Complex32:  "complex32",
	Complex64:  "complex64",
	Complex128: "complex128",
	QUInt8:     "quint8",
	QInt8:      "qint8",
	QInt32:     "qint32",
	QUInt4x2:   "quint4x2",
	QUInt2x4:   "quint2x4",
}

// DTypes returns every supported dtype in declaration order.
func DTypes() []DType {
	out := make([]DType, len(dtypeNames))
	for i := range dtypeNames {
		out[i] = DType(i)
	}
	return out
}

func (d DType) String() string {
	if d < 0 || int(d) >= len(dtypeNames) {
		return fmt.Sprintf("dtype(%d)", int(d))
	}
	return dtypeNames[d]
}

// ParseDType parses a dtype name such as "float32" or "qint8".
// A leading "torch." prefix is accepted.
func ParseDType(name string) (DType, error) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "torch.")
	switch name {
	case "half":
		return Float16, nil
	case "float":
		return Float32, nil
	case "double":
		return Float64, nil
	case "long":
		return Int64, nil
	case "int":
		return Int32, nil
	}
	for i, n := range dtypeNames {
		if n == name {
			return DType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dtype %q", name)
}

// IsFloatingPoint reports whether d is a real floating point type.
func (d DType) IsFloatingPoint() bool {
	switch d {
	case Float16, BFloat16, Float32, Float64:
		return true
	}
	return false
}

// IsComplex reports whether d is a complex type.
func (d DType) IsComplex() bool {
	switch d {
	case Complex32, Complex64, Complex128:
		return true
	}
	return false
}

// IsQuantized reports whether d is a quantized integer type.
func (d DType) IsQuantized() bool {
	switch d {
	case QUInt8, QInt8, QInt32, QUInt4x2, QUInt2x4:
		return true
	}
	return false
}

// IsIntegral reports whether d is a plain integer type. Bool is not integral.
func (d DType) IsIntegral() bool {
	switch d {
	case Uint8, Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// bits returns the width of a non-quantized dtype. Complex widths count both
// components.
func (d DType) bits() int {
	switch d {
	case Bool, Uint8, Int8:
		return 8
	case Int16, Float16, BFloat16:
		return 16
	case Int32, Float32, Complex32:
		return 32
	case Int64, Float64, Complex64:
		return 64
	case Complex128:
		return 128
	}
	return 0
}

type storageClass int

const (
	intStorage storageClass = iota
	realStorage
	complexStorage
)

func (d DType) storage() storageClass {
	switch {
	case d.IsFloatingPoint():
		return realStorage
	case d.IsComplex():
		return complexStorage
	}
	return intStorage
}
