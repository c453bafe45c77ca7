package closeness

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/closeness/pkg/tensor"
)

// Identifier produces the noun phrase of a mismatch message from the default
// one, e.g. "Tensor-likes" -> "Quantized tensor-likes".
type Identifier func(defaultIdentifier string) string

// FixedIdentifier returns an Identifier that ignores the default.
func FixedIdentifier(s string) Identifier {
	return func(string) string { return s }
}

func quantizedIdentifier(defaultIdentifier string) string {
	return "Quantized " + strings.ToLower(defaultIdentifier)
}

// mismatchReport is the data behind a numeric mismatch message. Indices are
// nil for scalar reports.
type mismatchReport struct {
	defaultIdentifier string
	identifier        Identifier
	extra             string
	absDiff           string
	absIndex          []int
	relDiff           string
	relIndex          []int
	rtol              float64
	atol              float64
}

func (r mismatchReport) String() string {
	equality := r.rtol == 0 && r.atol == 0
	identifier := r.defaultIdentifier
	if r.identifier != nil {
		identifier = r.identifier(identifier)
	}

	var b strings.Builder
	verdict := "close"
	if equality {
		verdict = "equal"
	}
	fmt.Fprintf(&b, "%s are not %s!\n\n", identifier, verdict)
	if extra := strings.TrimSpace(r.extra); extra != "" {
		b.WriteString(extra)
		b.WriteByte('\n')
	}
	b.WriteString(diffLine("absolute", r.absDiff, r.absIndex, r.atol, equality))
	b.WriteString(diffLine("relative", r.relDiff, r.relIndex, r.rtol, equality))
	return b.String()
}

func diffLine(kind, diff string, index []int, tol float64, equality bool) string {
	var msg string
	if index == nil {
		msg = fmt.Sprintf("%s difference: %s", cases.Title(language.English).String(kind), diff)
	} else {
		msg = fmt.Sprintf("Greatest %s difference: %s at index %s", kind, diff, tensor.FormatShape(index))
	}
	if !equality {
		msg += fmt.Sprintf(" (up to %s allowed)", formatFloat(tol))
	}
	return msg + "\n"
}

// scalarMismatchMessage renders the message for two scalars that are not close.
func scalarMismatchMessage(actual, expected number, rtol, atol float64, identifier Identifier) string {
	absDiff, relDiff := actual.diffs(expected)
	return mismatchReport{
		defaultIdentifier: "Scalars",
		identifier:        identifier,
		absDiff:           absDiff,
		relDiff:           relDiff,
		rtol:              rtol,
		atol:              atol,
	}.String()
}

// tensorMismatchMessage renders the message for two tensors of the same
// comparison dtype and shape. matches holds the elementwise closeness result
// in row-major order.
func tensorMismatchMessage(actual, expected *tensor.Tensor, matches []bool, rtol, atol float64, identifier Identifier) (string, error) {
	total := len(matches)
	mismatched := 0
	for _, ok := range matches {
		if !ok {
			mismatched++
		}
	}
	extra := fmt.Sprintf("Mismatched elements: %d / %d (%.1f%%)",
		mismatched, total, 100*float64(mismatched)/float64(total))

	absDiffs, absText, relDiffs, err := elementDiffs(actual, expected)
	if err != nil {
		return "", err
	}
	for i, ok := range matches {
		if ok {
			absDiffs[i] = 0
			relDiffs[i] = 0
		}
	}
	absIdx := argmax(absDiffs)
	relIdx := argmax(relDiffs)
	shape := actual.Shape()

	return mismatchReport{
		defaultIdentifier: "Tensor-likes",
		identifier:        identifier,
		extra:             extra,
		absDiff:           absText(absIdx),
		absIndex:          tensor.Unravel(absIdx, shape),
		relDiff:           formatFloat(relDiffs[relIdx]),
		relIndex:          tensor.Unravel(relIdx, shape),
		rtol:              rtol,
		atol:              atol,
	}.String(), nil
}

// elementDiffs returns the absolute and relative difference of every element.
// Integer differences are exact and rendered as integers.
func elementDiffs(actual, expected *tensor.Tensor) (abs []float64, absText func(int) string, rel []float64, err error) {
	switch {
	case actual.DType().IsComplex():
		a, err := actual.Complex128s()
		if err != nil {
			return nil, nil, nil, err
		}
		e, err := expected.Complex128s()
		if err != nil {
			return nil, nil, nil, err
		}
		abs = make([]float64, len(a))
		rel = make([]float64, len(a))
		for i := range a {
			abs[i] = cmplx.Abs(a[i] - e[i])
			rel[i] = abs[i] / cmplx.Abs(e[i])
		}
	case actual.DType().IsFloatingPoint():
		a, err := actual.Float64s()
		if err != nil {
			return nil, nil, nil, err
		}
		e, err := expected.Float64s()
		if err != nil {
			return nil, nil, nil, err
		}
		abs = make([]float64, len(a))
		rel = make([]float64, len(a))
		for i := range a {
			abs[i] = math.Abs(a[i] - e[i])
			rel[i] = abs[i] / math.Abs(e[i])
		}
	default:
		a, err := actual.Int64s()
		if err != nil {
			return nil, nil, nil, err
		}
		e, err := expected.Int64s()
		if err != nil {
			return nil, nil, nil, err
		}
		exact := make([]uint64, len(a))
		abs = make([]float64, len(a))
		rel = make([]float64, len(a))
		for i := range a {
			exact[i] = tensor.AbsDiffInt64(a[i], e[i])
			abs[i] = float64(exact[i])
			rel[i] = abs[i] / math.Abs(float64(e[i]))
		}
		return abs, func(i int) string {
			if abs[i] == 0 {
				return "0"
			}
			return strconv.FormatUint(exact[i], 10)
		}, rel, nil
	}
	return abs, func(i int) string { return formatFloat(abs[i]) }, rel, nil
}

// argmax returns the index of the first maximum. NaN wins over any number.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		switch {
		case math.IsNaN(values[best]):
			return best
		case math.IsNaN(v) || v > values[best]:
			best = i
		}
	}
	return best
}

// formatFloat renders v the way the diagnostics have always shown floats:
// shortest round-trip digits, a trailing ".0" for integral values in fixed
// notation and exponent notation outside [1e-4, 1e16).
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}
	e := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.LastIndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
