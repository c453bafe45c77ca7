package closeness

import (
	"math"
	"math/big"
	"math/cmplx"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/AndreyAkinshin/closeness/pkg/tensor"
)

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

type noneComparator struct {
	base
}

func matchNone(actual, expected any, path Path, cfg *Config) (Comparator, bool, error) {
	if !isNil(actual) && !isNil(expected) {
		return nil, false, nil
	}
	return &noneComparator{base: newBase(noneName, actual, expected, path, cfg)}, true, nil
}

func (c *noneComparator) Compare() error {
	if isNil(c.actual) && isNil(c.expected) {
		return nil
	}
	return c.fail(KindValueMismatch, "None mismatch: %s is not %s", formatValue(c.actual), formatValue(c.expected))
}

func (c *noneComparator) String() string { return c.describe() }

type booleanComparator struct {
	base
	a, e bool
}

func matchBoolean(actual, expected any, path Path, cfg *Config) (Comparator, bool, error) {
	a, ok := toBool(actual)
	if !ok {
		return nil, false, nil
	}
	e, ok := toBool(expected)
	if !ok {
		return nil, false, nil
	}
	return &booleanComparator{base: newBase(booleanName, actual, expected, path, cfg), a: a, e: e}, true, nil
}

func toBool(v any) (bool, bool) {
	if v == nil {
		return false, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Bool {
		return false, false
	}
	return rv.Bool(), true
}

func (c *booleanComparator) Compare() error {
	if c.a == c.e {
		return nil
	}
	return c.fail(KindValueMismatch, "Booleans mismatch: %t is not %t", c.a, c.e)
}

func (c *booleanComparator) String() string { return c.describe() }

// numberKind is the canonical category of a scalar. Go's sized numeric types
// collapse onto these, so int8 and int64 scalars share a kind.
type numberKind int

const (
	intNumber numberKind = iota
	floatNumber
	complexNumber
	decimalNumber
)

func (k numberKind) String() string {
	switch k {
	case intNumber:
		return "int"
	case floatNumber:
		return "float"
	case complexNumber:
		return "complex"
	}
	return "decimal"
}

// dtype is the tensor dtype whose default tolerances apply to the kind.
func (k numberKind) dtype() tensor.DType {
	switch k {
	case intNumber:
		return tensor.Int64
	case complexNumber:
		return tensor.Complex128
	}
	return tensor.Float64
}

// number is a scalar in canonical form. Integers are arbitrary precision so
// uint64 values and differences never overflow.
type number struct {
	kind numberKind
	i    *big.Int
	f    float64
	c    complex128
	d    decimal.Decimal
}

func toNumber(v any) (number, bool) {
	if v == nil {
		return number{}, false
	}
	switch x := v.(type) {
	case decimal.Decimal:
		return number{kind: decimalNumber, d: x}, true
	case tensor.Half:
		return number{kind: floatNumber, f: float64(x.Float32())}, true
	case tensor.BHalf:
		return number{kind: floatNumber, f: float64(x.Float32())}, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: intNumber, i: big.NewInt(rv.Int())}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: intNumber, i: new(big.Int).SetUint64(rv.Uint())}, true
	case reflect.Float32, reflect.Float64:
		return number{kind: floatNumber, f: rv.Float()}, true
	case reflect.Complex64, reflect.Complex128:
		return number{kind: complexNumber, c: rv.Complex()}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	switch n.kind {
	case intNumber:
		f, _ := new(big.Float).SetInt(n.i).Float64()
		return f
	case complexNumber:
		return real(n.c)
	case decimalNumber:
		return n.d.InexactFloat64()
	}
	return n.f
}

func (n number) complex() complex128 {
	if n.kind == complexNumber {
		return n.c
	}
	return complex(n.float(), 0)
}

func (n number) isNaN() bool {
	switch n.kind {
	case floatNumber:
		return math.IsNaN(n.f)
	case complexNumber:
		return cmplx.IsNaN(n.c)
	}
	return false
}

func (n number) String() string {
	switch n.kind {
	case intNumber:
		return n.i.String()
	case complexNumber:
		return strconv.FormatComplex(n.c, 'g', -1, 128)
	case decimalNumber:
		return n.d.String()
	}
	return formatFloat(n.f)
}

// arithmetic picks how a pair is compared: exactly for integers and decimals,
// otherwise in the widest of float and complex.
func arithmetic(a, b number) numberKind {
	switch {
	case a.kind == intNumber && b.kind == intNumber:
		return intNumber
	case a.kind == decimalNumber && b.kind == decimalNumber:
		return decimalNumber
	case a.kind == complexNumber || b.kind == complexNumber:
		return complexNumber
	}
	return floatNumber
}

func (n number) equal(other number) bool {
	switch arithmetic(n, other) {
	case intNumber:
		return n.i.Cmp(other.i) == 0
	case decimalNumber:
		return n.d.Equal(other.d)
	case complexNumber:
		return n.complex() == other.complex()
	}
	return n.float() == other.float()
}

// within reports whether |n - expected| is finite and at most
// atol + rtol*|expected|.
func (n number) within(expected number, rtol, atol float64) bool {
	switch arithmetic(n, expected) {
	case intNumber:
		tol := atol + rtol*math.Abs(expected.float())
		if math.IsNaN(tol) {
			return false
		}
		if math.IsInf(tol, 1) {
			return true
		}
		diff := new(big.Int).Abs(new(big.Int).Sub(n.i, expected.i))
		return new(big.Float).SetInt(diff).Cmp(big.NewFloat(tol)) <= 0
	case decimalNumber:
		if math.IsNaN(rtol) || math.IsNaN(atol) || math.IsInf(rtol, 0) || math.IsInf(atol, 0) {
			return n.within(number{kind: floatNumber, f: expected.float()}, rtol, atol)
		}
		diff := n.d.Sub(expected.d).Abs()
		tol := decimal.NewFromFloat(atol).Add(decimal.NewFromFloat(rtol).Mul(expected.d.Abs()))
		return diff.LessThanOrEqual(tol)
	case complexNumber:
		diff := cmplx.Abs(n.complex() - expected.complex())
		return !math.IsInf(diff, 0) && !math.IsNaN(diff) && diff <= atol+rtol*cmplx.Abs(expected.complex())
	}
	diff := math.Abs(n.float() - expected.float())
	return !math.IsInf(diff, 0) && !math.IsNaN(diff) && diff <= atol+rtol*math.Abs(expected.float())
}

// diffs renders the absolute and the relative difference of n to expected.
// The relative difference to zero is infinite.
func (n number) diffs(expected number) (abs, rel string) {
	switch arithmetic(n, expected) {
	case intNumber:
		diff := new(big.Int).Abs(new(big.Int).Sub(n.i, expected.i))
		if expected.i.Sign() == 0 {
			return diff.String(), "inf"
		}
		q, _ := new(big.Float).Quo(new(big.Float).SetInt(diff), new(big.Float).SetInt(new(big.Int).Abs(expected.i))).Float64()
		return diff.String(), formatFloat(q)
	case decimalNumber:
		diff := n.d.Sub(expected.d).Abs()
		if expected.d.IsZero() {
			return diff.String(), "inf"
		}
		return diff.String(), diff.Div(expected.d.Abs()).String()
	case complexNumber:
		diff := cmplx.Abs(n.complex() - expected.complex())
		if expected.complex() == 0 {
			return formatFloat(diff), "inf"
		}
		return formatFloat(diff), formatFloat(diff / cmplx.Abs(expected.complex()))
	}
	diff := math.Abs(n.float() - expected.float())
	if expected.float() == 0 {
		return formatFloat(diff), "inf"
	}
	return formatFloat(diff), formatFloat(diff / math.Abs(expected.float()))
}

type numberComparator struct {
	base
	a, e       number
	rtol, atol float64
	equalNaN   bool
	checkDType bool
}

func matchNumber(actual, expected any, path Path, cfg *Config) (Comparator, bool, error) {
	a, ok := toNumber(actual)
	if !ok {
		return nil, false, nil
	}
	e, ok := toNumber(expected)
	if !ok {
		return nil, false, nil
	}
	rtol, atol, err := resolveTolerances(cfg.RTol, cfg.ATol, path, a.kind.dtype(), e.kind.dtype())
	if err != nil {
		return nil, false, err
	}
	return &numberComparator{
		base:       newBase(numberName, actual, expected, path, cfg),
		a:          a,
		e:          e,
		rtol:       rtol,
		atol:       atol,
		equalNaN:   cfg.EqualNaN,
		checkDType: cfg.checkDType(false),
	}, true, nil
}

func (c *numberComparator) Compare() error {
	if c.checkDType && c.a.kind != c.e.kind {
		return c.fail(KindValueMismatch, "The (d)types do not match: %s != %s.", c.a.kind, c.e.kind)
	}
	if c.a.equal(c.e) {
		return nil
	}
	if c.equalNaN && c.a.isNaN() && c.e.isNaN() {
		return nil
	}
	if c.a.within(c.e, c.rtol, c.atol) {
		return nil
	}
	return c.fail(KindValueMismatch, "%s", scalarMismatchMessage(c.a, c.e, c.rtol, c.atol, nil))
}

func (c *numberComparator) String() string {
	return c.describe(
		field{"rtol", c.rtol},
		field{"atol", c.atol},
		field{"equal_nan", c.equalNaN},
		field{"check_dtype", c.checkDType},
	)
}
