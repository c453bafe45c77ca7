package closeness

import (
	"fmt"
	"strings"
)

// Comparator checks one leaf pair. Compare returns nil on a match and an
// *Error otherwise; any other error or a panic is treated as a bug in the
// comparator.
type Comparator interface {
	Compare() error
	Path() Path
	String() string
}

// MatchFunc builds a comparator for a leaf pair. It returns ok == false when
// it does not handle the inputs, in which case the next matcher is tried. A
// non-nil error aborts the assertion and must be an *Error.
type MatchFunc func(actual, expected any, path Path, cfg *Config) (c Comparator, ok bool, err error)

// Matcher is a named entry of the comparator registry.
type Matcher struct {
	Name  string
	Match MatchFunc
}

const (
	noneName    = "NoneComparator"
	booleanName = "BooleanComparator"
	numberName  = "NumberComparator"
	tensorName  = "TensorLikeComparator"
	objectName  = "ObjectComparator"
)

// Registry entries, in the order AssertClose tries them.
var (
	NoneMatcher    = Matcher{Name: noneName, Match: matchNone}
	BooleanMatcher = Matcher{Name: booleanName, Match: matchBoolean}
	NumberMatcher  = Matcher{Name: numberName, Match: matchNumber}
	TensorMatcher  = Matcher{Name: tensorName, Match: matchTensorLike}
	ObjectMatcher  = Matcher{Name: objectName, Match: matchObject}
)

func closeMatchers() []Matcher {
	return []Matcher{NoneMatcher, BooleanMatcher, NumberMatcher, TensorMatcher}
}

// base carries what every comparator shares.
type base struct {
	name     string
	actual   any
	expected any
	path     Path
	message  string
}

func newBase(name string, actual, expected any, path Path, cfg *Config) base {
	return base{name: name, actual: actual, expected: expected, path: path, message: cfg.Message}
}

func (b *base) Path() Path { return b.path }

// fail builds a failure for this comparator. A user message replaces the
// generated one for mismatch kinds only.
func (b *base) fail(kind FailureKind, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if b.message != "" && kind.overridable() {
		msg = b.message
	}
	return &Error{Kind: kind, Message: msg, Path: b.path}
}

type field struct {
	name  string
	value any
}

func (b *base) describe(extra ...field) string {
	lines := []string{b.name + "("}
	for _, f := range append([]field{
		{"path", b.path},
		{"actual", b.actual},
		{"expected", b.expected},
	}, extra...) {
		lines = append(lines, fmt.Sprintf("    %s=%s,", f.name, formatValue(f.value)))
	}
	lines = append(lines, ")")
	return strings.Join(lines, "\n")
}

func formatValue(v any) string {
	if isNil(v) {
		return "nil"
	}
	if p, ok := v.(Path); ok {
		if len(p) == 0 {
			return "[]"
		}
		return p.String()
	}
	return fmt.Sprintf("%v", v)
}
