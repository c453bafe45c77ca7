// Package suite runs directories of comparison cases.
//
// A case file holds an actual and an expected value, optional assertion
// options and, for cases that must fail, the expected failure kind.
package suite

import (
	"fmt"
	"time"

	"github.com/AndreyAkinshin/closeness/pkg/closeness"
)

// Mode selects the assertion a case runs.
type Mode string

const (
	ModeClose Mode = "close"
	ModeEqual Mode = "equal"
)

// ParseMode parses "close" or "equal". The empty string yields ModeClose.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeClose:
		return ModeClose, nil
	case ModeEqual:
		return ModeEqual, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeClose, ModeEqual)
}

// Case is a single comparison loaded from a case file.
type Case struct {
	Name        string // file name without extension
	Path        string // full path to the case file
	Description string
	Actual      any
	Expected    any
	Mode        Mode // empty means the runner's default
	Options     Options
	Expect      *Expectation // nil means the comparison must pass
}

// Options are per-case assertion settings. Nil fields keep the runner's value.
type Options struct {
	RTol             *float64
	ATol             *float64
	EqualNaN         *bool
	AllowSubclasses  *bool
	CheckDevice      *bool
	CheckDType       *bool
	CheckLayout      *bool
	CheckStride      *bool
	CheckIsCoalesced *bool
	Message          *string
}

// Expectation describes the failure a case must produce.
type Expectation struct {
	Kind            closeness.FailureKind
	MessageContains string
}

// Result is the outcome of running one case.
type Result struct {
	Case     *Case
	Passed   bool
	Err      error  // the assertion's error, if any
	Reason   string // why the case failed
	Duration time.Duration
}

// SuiteResult aggregates the results of a directory of cases.
type SuiteResult struct {
	Dir      string
	Results  []Result
	Passed   int
	Failed   int
	Duration time.Duration
}

// Total is the number of cases that ran.
func (r *SuiteResult) Total() int {
	return r.Passed + r.Failed
}

var kindNames = map[string]closeness.FailureKind{
	"configuration":             closeness.KindConfiguration,
	"unsupported_kind":          closeness.KindUnsupportedKind,
	"structural_mismatch":       closeness.KindStructuralMismatch,
	"attribute_mismatch":        closeness.KindAttributeMismatch,
	"value_mismatch":            closeness.KindValueMismatch,
	"unsupported_backing_store": closeness.KindUnsupportedBackingStore,
	"internal_invariant":        closeness.KindInternalInvariant,
}

// ParseKind parses a failure kind name such as "value_mismatch".
func ParseKind(name string) (closeness.FailureKind, error) {
	k, ok := kindNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown failure kind %q", name)
	}
	return k, nil
}
