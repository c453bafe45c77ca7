// Package closeness asserts that nested values are equal or numerically
// close and reports where and how they differ.
//
// Sequences and mappings are walked in lockstep down to leaf pairs. Each leaf
// pair is handed to the first matcher of an ordered registry that accepts it.
// The walk stops at the first structural problem; the comparison of leaves
// runs to completion and reports the first failure.
package closeness

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// AssertEqual returns nil if actual and expected are equal. By default leaves
// are compared with go-cmp; WithMatchers installs a different registry.
func AssertEqual(actual, expected any, opts ...Option) error {
	cfg := NewConfig(opts...)
	return run(actual, expected, &cfg)
}

// AssertClose returns nil if actual and expected are close. Leaves may be
// nil, booleans, numbers or tensor-likes. Without WithTolerances the
// tolerances default per dtype, see DefaultTolerances.
func AssertClose(actual, expected any, opts ...Option) error {
	cfg := NewConfig(opts...)
	cfg.Matchers = closeMatchers()
	if cfg.CheckDType == nil {
		check := true
		cfg.CheckDType = &check
	}
	return run(actual, expected, &cfg)
}

func run(actual, expected any, cfg *Config) error {
	if err := checkTolerancePair(cfg.RTol, cfg.ATol, nil); err != nil {
		return err
	}

	comparators, err := originate(actual, expected, nil, cfg)
	if err != nil {
		cfg.Logger.Debug("origination failed", zap.Error(err))
		return err
	}

	var failures []*Error
	for _, c := range comparators {
		if err := safeCompare(c); err != nil {
			var e *Error
			if !errors.As(err, &e) || e.Kind == KindInternalInvariant {
				return err
			}
			cfg.Logger.Debug("comparison failed",
				zap.Stringer("path", c.Path()),
				zap.Stringer("kind", e.Kind))
			failures = append(failures, e)
		}
	}
	cfg.Logger.Debug("comparison finished",
		zap.Int("comparators", len(comparators)),
		zap.Int("failures", len(failures)))

	if len(failures) == 0 {
		return nil
	}
	// TODO: compose all collected failures into a single error.
	return failures[0]
}

// safeCompare runs c.Compare. A panic or an error that is not an *Error is
// reported as an internal invariant violation naming the comparator.
func safeCompare(c Comparator) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = compareError(c, fmt.Errorf("panic: %v", r))
		}
	}()
	err = c.Compare()
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return compareError(c, err)
}

func compareError(c Comparator, cause error) *Error {
	return &Error{
		Kind: KindInternalInvariant,
		Message: fmt.Sprintf(
			"Comparing\n\n%s\n\nresulted in an unexpected error:\n\n%v\n\n"+
				"This points to a gap in the comparator: Compare must return nil or an *Error.",
			c.String(), cause),
		Path:  c.Path(),
		Cause: cause,
	}
}
