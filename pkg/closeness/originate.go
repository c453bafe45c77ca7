package closeness

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// originate walks actual and expected in lockstep and returns one comparator
// per leaf pair. The first structural or unsupported pair aborts the walk.
// Inputs must be acyclic.
func originate(actual, expected any, path Path, cfg *Config) ([]Comparator, error) {
	if as, ok := asSequence(actual, cfg.SequenceKinds); ok {
		if es, ok := asSequence(expected, cfg.SequenceKinds); ok {
			return originateSequence(as, es, path, cfg)
		}
	}
	if am, ok := asMapping(actual, cfg.MappingKinds); ok {
		if em, ok := asMapping(expected, cfg.MappingKinds); ok {
			return originateMapping(am, em, path, cfg)
		}
	}

	for _, m := range cfg.Matchers {
		c, ok, err := tryMatch(m, actual, expected, path, cfg)
		if err != nil {
			return nil, err
		}
		if ok {
			cfg.Logger.Debug("originated comparator",
				zap.String("comparator", m.Name),
				zap.Stringer("path", path))
			return []Comparator{c}, nil
		}
	}
	return nil, newError(KindUnsupportedKind, path,
		"No comparator was able to handle inputs of type %T and %T.", actual, expected)
}

func originateSequence(actual, expected Sequence, path Path, cfg *Config) ([]Comparator, error) {
	if actual.Len() != expected.Len() {
		return nil, newError(KindStructuralMismatch, path,
			"The length of the sequences mismatch: %d != %d", actual.Len(), expected.Len())
	}
	var out []Comparator
	for i := 0; i < actual.Len(); i++ {
		cs, err := originate(actual.Index(i), expected.Index(i), path.Append(i), cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

func originateMapping(actual, expected Mapping, path Path, cfg *Config) ([]Comparator, error) {
	actualKeys := actual.Keys()
	expectedKeys := expected.Keys()
	missing := difference(expectedKeys, actualKeys)
	additional := difference(actualKeys, expectedKeys)
	if len(missing) > 0 || len(additional) > 0 {
		return nil, newError(KindStructuralMismatch, path,
			"The keys of the mappings do not match:\n"+
				"Missing keys in the actual mapping: %s\n"+
				"Additional keys in the actual mapping: %s",
			formatKeys(missing), formatKeys(additional))
	}
	var out []Comparator
	for _, k := range actualKeys {
		cs, err := originate(actual.Get(k), expected.Get(k), path.Append(k), cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

// difference returns the keys of a absent from b, in the order of a.
func difference(a, b []any) []any {
	present := make(map[any]bool, len(b))
	for _, k := range b {
		present[k] = true
	}
	var out []any
	for _, k := range a {
		if !present[k] {
			out = append(out, k)
		}
	}
	return out
}

// tryMatch runs one matcher. A panic or an error other than *Error means the
// matcher itself is broken and becomes an internal invariant violation.
func tryMatch(m Matcher, actual, expected any, path Path, cfg *Config) (c Comparator, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, ok = nil, false
			err = originationError(m, actual, expected, path, fmt.Errorf("panic: %v", r))
		}
	}()
	c, ok, err = m.Match(actual, expected, path, cfg)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, false, e
		}
		return nil, false, originationError(m, actual, expected, path, err)
	}
	return c, ok, nil
}

func originationError(m Matcher, actual, expected any, path Path, cause error) *Error {
	return &Error{
		Kind: KindInternalInvariant,
		Message: fmt.Sprintf(
			"Originating a %s at item %s with\n\n%T: %s\n\nand\n\n%T: %s\n\n"+
				"resulted in an unexpected error:\n\n%v\n\n"+
				"This points to a gap in the comparator registry: a matcher must "+
				"report unsupported inputs or return an *Error, never fail otherwise.",
			m.Name, formatValue(path), actual, formatValue(actual), expected, formatValue(expected), cause),
		Path:  path,
		Cause: cause,
	}
}
