package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/closeness/internal/errors"
	"github.com/AndreyAkinshin/closeness/internal/suite"
	"github.com/AndreyAkinshin/closeness/pkg/closeness"
)

func (a *app) suiteCommand() *cobra.Command {
	var (
		flags   assertFlags
		pattern string
	)
	cmd := &cobra.Command{
		Use:   "suite [DIR]",
		Short: "Run a directory of comparison cases",
		Long: `Run every case file in a directory, in path order.

A case file holds "actual" and "expected" values, an optional "mode",
"options" that override the configuration, and an optional "expect" block
naming the failure kind the case must produce. Directories whose names start
with "_" or "." are skipped and can hold data for $file references.

DIR defaults to suite.directory from the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, opts, err := flags.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			dir := a.cfg.Suite.Directory
			if len(args) > 0 {
				dir = args[0]
			}
			if !cmd.Flags().Changed("pattern") {
				pattern = a.cfg.Suite.Pattern
			}
			return a.runSuite(dir, pattern, mode, opts)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&pattern, "pattern", suite.DefaultPattern, "glob matched against case file names")
	return cmd
}

func (a *app) runSuite(dir, pattern string, mode suite.Mode, opts []closeness.Option) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errors.NotFound("suite directory", dir)
	}
	cases, err := suite.LoadSuite(dir, pattern)
	if err != nil {
		return errors.Validation(err.Error(), err)
	}
	if len(cases) == 0 {
		a.out.Warning("no cases in %s match %q", dir, pattern)
		return nil
	}

	runner := suite.NewRunner(a.logger)
	runner.Mode = mode
	runner.Options = opts
	result := runner.Run(dir, cases)

	a.out.Section(fmt.Sprintf("Suite %s", dir))
	for _, r := range result.Results {
		a.out.CaseResult(r.Case.Name, r.Passed, formatDuration(r.Duration))
	}
	a.printSuiteSummary(result)

	if result.Failed > 0 {
		return errors.Mismatch(fmt.Sprintf("%d of %d cases failed", result.Failed, result.Total()), nil)
	}
	return nil
}

// printSuiteSummary prints the counts and the reason of every failed case.
func (a *app) printSuiteSummary(result *suite.SuiteResult) {
	a.out.SummaryHeader("Suite Summary")
	a.out.SummaryPassed("Passed", fmt.Sprintf("%d", result.Passed))
	if result.Failed > 0 {
		a.out.SummaryFailed("Failed", fmt.Sprintf("%d", result.Failed))
	}
	a.out.SummaryItem("Total", fmt.Sprintf("%d", result.Total()))
	a.out.SummaryItem("Duration", formatDuration(result.Duration))

	if result.Failed > 0 {
		a.out.Println("")
		a.out.SummarySectionLabel("Failed Cases:")
		for _, r := range result.Results {
			if r.Passed {
				continue
			}
			label := "failed"
			if r.Err != nil {
				label = titleCase.String(closeness.KindOf(r.Err).String())
			}
			a.out.FailedCase(r.Case.Path, label, r.Reason)
		}
	}

	if result.Failed == 0 {
		a.out.FinalSuccess("All %d cases passed.", result.Total())
	} else {
		a.out.FinalFailure("%d of %d cases failed.", result.Failed, result.Total())
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}
