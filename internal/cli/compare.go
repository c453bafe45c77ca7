package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/closeness/internal/config"
	"github.com/AndreyAkinshin/closeness/internal/errors"
	"github.com/AndreyAkinshin/closeness/internal/fixture"
	"github.com/AndreyAkinshin/closeness/internal/suite"
	"github.com/AndreyAkinshin/closeness/pkg/closeness"
)

var titleCase = cases.Title(language.English)

// assertFlags are the assertion settings that can be overridden per run.
type assertFlags struct {
	mode             string
	rtol             float64
	atol             float64
	equalNaN         bool
	allowSubclasses  bool
	checkDevice      bool
	checkDType       bool
	checkLayout      bool
	checkStride      bool
	checkIsCoalesced bool
	message          string
}

func (f *assertFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.mode, "mode", "", "assertion to run: close or equal (default from config)")
	flags.Float64Var(&f.rtol, "rtol", 0, "relative tolerance, requires --atol")
	flags.Float64Var(&f.atol, "atol", 0, "absolute tolerance, requires --rtol")
	flags.BoolVar(&f.equalNaN, "equal-nan", false, "treat two NaNs as equal")
	flags.BoolVar(&f.allowSubclasses, "allow-subclasses", true, "allow related tensor-like types")
	flags.BoolVar(&f.checkDevice, "check-device", true, "require tensors on the same device")
	flags.BoolVar(&f.checkDType, "check-dtype", true, "require equal dtypes")
	flags.BoolVar(&f.checkLayout, "check-layout", true, "require equal layouts")
	flags.BoolVar(&f.checkStride, "check-stride", false, "require equal strides")
	flags.BoolVar(&f.checkIsCoalesced, "check-is-coalesced", true, "require equal coalescing of sparse COO tensors")
	flags.StringVar(&f.message, "message", "", "replace the text of value and attribute mismatches")
}

// resolve merges the configuration with the flags the user set.
func (f *assertFlags) resolve(cmd *cobra.Command, cfg *config.Config) (suite.Mode, []closeness.Option, error) {
	modeName := cfg.Mode
	if cmd.Flags().Changed("mode") {
		modeName = f.mode
	}
	mode, err := suite.ParseMode(modeName)
	if err != nil {
		return "", nil, errors.Configf("mode: %v", err)
	}

	opts := cfg.Options()
	changed := cmd.Flags().Changed
	if changed("rtol") {
		opts = append(opts, closeness.WithRTol(f.rtol))
	}
	if changed("atol") {
		opts = append(opts, closeness.WithATol(f.atol))
	}
	if changed("equal-nan") {
		opts = append(opts, closeness.WithEqualNaN(f.equalNaN))
	}
	if changed("allow-subclasses") {
		opts = append(opts, closeness.WithAllowSubclasses(f.allowSubclasses))
	}
	if changed("check-device") {
		opts = append(opts, closeness.WithCheckDevice(f.checkDevice))
	}
	if changed("check-dtype") {
		opts = append(opts, closeness.WithCheckDType(f.checkDType))
	}
	if changed("check-layout") {
		opts = append(opts, closeness.WithCheckLayout(f.checkLayout))
	}
	if changed("check-stride") {
		opts = append(opts, closeness.WithCheckStride(f.checkStride))
	}
	if changed("check-is-coalesced") {
		opts = append(opts, closeness.WithCheckIsCoalesced(f.checkIsCoalesced))
	}
	if changed("message") {
		opts = append(opts, closeness.WithMessage(f.message))
	}
	return mode, opts, nil
}

func (a *app) compareCommand() *cobra.Command {
	var flags assertFlags
	cmd := &cobra.Command{
		Use:   "compare ACTUAL EXPECTED",
		Short: "Compare two documents",
		Long: `Compare an actual document with an expected one.

Documents are JSON, YAML or HCL files. Tensors are written as
{"$tensor": {"dtype": "float32", "data": [...]}} nodes, exact decimals as
{"$decimal": "0.1"} and the strings "NaN", "Infinity" and "-Infinity" are
read as floats.

Exit status is 0 when the documents match, 1 when they do not and 2 when the
inputs or options are invalid.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, opts, err := flags.resolve(cmd, a.cfg)
			if err != nil {
				return err
			}
			return a.runCompare(args[0], args[1], mode, opts)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) runCompare(actualPath, expectedPath string, mode suite.Mode, opts []closeness.Option) error {
	actual, err := loadDocument(actualPath)
	if err != nil {
		return err
	}
	expected, err := loadDocument(expectedPath)
	if err != nil {
		return err
	}

	opts = append(opts, closeness.WithLogger(a.logger))
	if mode == suite.ModeEqual {
		err = closeness.AssertEqual(actual, expected, opts...)
	} else {
		err = closeness.AssertClose(actual, expected, opts...)
	}
	return a.report(mode, err)
}

// report prints the outcome of an assertion and converts it to a CLI error.
func (a *app) report(mode suite.Mode, err error) error {
	if err == nil {
		a.out.Success("OK: inputs are %s.", mode)
		return nil
	}
	kind := closeness.KindOf(err)
	if kind == closeness.KindConfiguration {
		return &errors.CLIError{Kind: errors.KindConfig, Message: err.Error(), Cause: err}
	}
	a.out.Failure(titleCase.String(kind.String()), err.Error())
	return errors.Mismatch("inputs are not "+string(mode), err)
}

// loadDocument decodes an input file. Missing files are runtime errors,
// undecodable ones are validation errors.
func loadDocument(path string) (any, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("input file", path)
		}
		return nil, errors.Wrap(err, fmt.Sprintf("cannot read input file %s", path))
	}
	v, err := fixture.Load(path)
	if err != nil {
		return nil, errors.InputError(path, "compare", err)
	}
	return v, nil
}
