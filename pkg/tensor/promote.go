package tensor

import "fmt"

// category orders dtypes on the promotion lattice bool < integral < floating < complex.
func category(d DType) int {
	switch {
	case d == Bool:
		return 0
	case d.IsIntegral():
		return 1
	case d.IsFloatingPoint():
		return 2
	case d.IsComplex():
		return 3
	}
	return -1
}

// PromoteTypes returns the smallest dtype both a and b can be converted to
// without losing their category: a bool meets an integer as the integer, an
// integer meets a float as the float and a float meets a complex as a complex
// wide enough for both. Quantized dtypes do not promote.
func PromoteTypes(a, b DType) (DType, error) {
	if a == b {
		return a, nil
	}
	if a.IsQuantized() || b.IsQuantized() {
		return 0, fmt.Errorf("tensor: promotion of %s and %s is not supported", a, b)
	}
	ca, cb := category(a), category(b)
	if ca < cb {
		a, b = b, a
		ca, cb = cb, ca
	}
	// From here on a is in the higher (or same) category.
	switch ca {
	case 0:
		return Bool, nil
	case 1:
		if cb == 0 {
			return a, nil
		}
		return promoteIntegral(a, b), nil
	case 2:
		if cb < 2 {
			return a, nil
		}
		return promoteFloating(a, b), nil
	default:
		if cb < 2 {
			return a, nil
		}
		component := b
		if cb == 3 {
			component = complexComponent(b)
		}
		return complexOf(promoteFloating(complexComponent(a), component)), nil
	}
}

func promoteIntegral(a, b DType) DType {
	if a == Uint8 || b == Uint8 {
		other := a
		if a == Uint8 {
			other = b
		}
		if other.bits() > 8 {
			return other
		}
		return Int16
	}
	if a.bits() >= b.bits() {
		return a
	}
	return b
}

func promoteFloating(a, b DType) DType {
	if a == b {
		return a
	}
	if (a == Float16 && b == BFloat16) || (a == BFloat16 && b == Float16) {
		return Float32
	}
	if a.bits() >= b.bits() {
		return a
	}
	return b
}

func complexComponent(d DType) DType {
	switch d {
	case Complex32:
		return Float16
	case Complex64:
		return Float32
	}
	return Float64
}

func complexOf(d DType) DType {
	switch d {
	case Float16:
		return Complex32
	case BFloat16, Float32:
		return Complex64
	}
	return Complex128
}
