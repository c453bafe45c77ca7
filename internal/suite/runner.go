package suite

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AndreyAkinshin/closeness/pkg/closeness"
)

// Runner runs cases with a shared set of base options.
type Runner struct {
	// Mode is used by cases that do not pick one.
	Mode Mode
	// Options apply to every case before its own options.
	Options []closeness.Option
	Logger  *zap.Logger
}

// NewRunner returns a runner in close mode with no base options.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Mode: ModeClose, Logger: logger}
}

// Run runs cases in order and aggregates their results.
func (r *Runner) Run(dir string, cases []Case) *SuiteResult {
	start := time.Now()
	res := &SuiteResult{Dir: dir, Results: make([]Result, 0, len(cases))}
	for i := range cases {
		result := r.RunCase(&cases[i])
		if result.Passed {
			res.Passed++
		} else {
			res.Failed++
		}
		res.Results = append(res.Results, result)
	}
	res.Duration = time.Since(start)
	return res
}

// RunCase runs a single case.
func (r *Runner) RunCase(c *Case) Result {
	mode := c.Mode
	if mode == "" {
		mode = r.Mode
	}
	opts := append(append([]closeness.Option{}, r.Options...), c.Options.apply()...)
	opts = append(opts, closeness.WithLogger(r.Logger.With(zap.String("case", c.Name))))

	start := time.Now()
	var err error
	switch mode {
	case ModeEqual:
		err = closeness.AssertEqual(c.Actual, c.Expected, opts...)
	default:
		err = closeness.AssertClose(c.Actual, c.Expected, opts...)
	}
	result := Result{Case: c, Err: err, Duration: time.Since(start)}
	result.Passed, result.Reason = evaluate(c.Expect, err)

	r.Logger.Debug("case finished",
		zap.String("case", c.Name),
		zap.String("mode", string(mode)),
		zap.Bool("passed", result.Passed),
		zap.Duration("duration", result.Duration),
	)
	return result
}

// evaluate checks err against the expectation of a case.
func evaluate(expect *Expectation, err error) (bool, string) {
	if expect == nil {
		if err != nil {
			return false, err.Error()
		}
		return true, ""
	}
	if err == nil {
		return false, fmt.Sprintf("expected a %s failure, but the comparison passed", expect.Kind)
	}
	if kind := closeness.KindOf(err); kind != expect.Kind {
		return false, fmt.Sprintf("expected a %s failure, got %s: %v", expect.Kind, kind, err)
	}
	if !strings.Contains(err.Error(), expect.MessageContains) {
		return false, fmt.Sprintf("failure message does not contain %q: %v", expect.MessageContains, err)
	}
	return true, ""
}

func (o Options) apply() []closeness.Option {
	var opts []closeness.Option
	if o.RTol != nil {
		opts = append(opts, closeness.WithRTol(*o.RTol))
	}
	if o.ATol != nil {
		opts = append(opts, closeness.WithATol(*o.ATol))
	}
	if o.EqualNaN != nil {
		opts = append(opts, closeness.WithEqualNaN(*o.EqualNaN))
	}
	if o.AllowSubclasses != nil {
		opts = append(opts, closeness.WithAllowSubclasses(*o.AllowSubclasses))
	}
	if o.CheckDevice != nil {
		opts = append(opts, closeness.WithCheckDevice(*o.CheckDevice))
	}
	if o.CheckDType != nil {
		opts = append(opts, closeness.WithCheckDType(*o.CheckDType))
	}
	if o.CheckLayout != nil {
		opts = append(opts, closeness.WithCheckLayout(*o.CheckLayout))
	}
	if o.CheckStride != nil {
		opts = append(opts, closeness.WithCheckStride(*o.CheckStride))
	}
	if o.CheckIsCoalesced != nil {
		opts = append(opts, closeness.WithCheckIsCoalesced(*o.CheckIsCoalesced))
	}
	if o.Message != nil {
		opts = append(opts, closeness.WithMessage(*o.Message))
	}
	return opts
}
