// Package cli implements the closeness command.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/closeness/internal/config"
	"github.com/AndreyAkinshin/closeness/internal/errors"
	"github.com/AndreyAkinshin/closeness/internal/logging"
	"github.com/AndreyAkinshin/closeness/internal/output"
)

// Version is set at build time.
var Version = "dev"

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	logFormat  string
}

// app carries the state of one invocation.
type app struct {
	opts   globalOptions
	out    *output.Writer
	logOut io.Writer
	cfg    *config.Config
	logger *zap.Logger
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	return run(args, output.New(), os.Stderr)
}

func run(args []string, out *output.Writer, logOut io.Writer) int {
	a := &app{out: out, logOut: logOut}
	root := a.rootCommand()
	root.SetArgs(args)

	err := root.Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		if ce, ok := errors.AsCLIError(err); !ok || ce.Kind != errors.KindMismatch {
			out.ErrorPrefix("%v", err)
		}
	}
	return errors.GetExitCode(err)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "closeness",
		Short: "Check nested values and tensors for equality or closeness",
		Long: `closeness compares an actual and an expected document the way tensor test
suites do: containers are walked element by element and numeric leaves are
compared with dtype aware tolerances.

Documents are JSON, YAML or HCL files. Settings are read from .closeness.yaml
in the working directory or the nearest parent.

Examples:
  closeness compare actual.json expected.json
  closeness compare --rtol 0 --atol 1e-3 out.yaml golden.yaml
  closeness suite cases
  closeness tolerances float16 float32`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.out.Stdout())
	root.SetErr(a.out.Stderr())
	root.SetVersionTemplate("closeness {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Config(err.Error())
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "config file (default is the nearest "+config.FileName+")")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "log debug events of the comparison engine")
	flags.BoolVarP(&a.opts.quiet, "quiet", "q", false, "only report failures")
	flags.StringVar(&a.opts.logFormat, "log-format", "", "log format (console or json)")

	root.AddCommand(a.compareCommand())
	root.AddCommand(a.suiteCommand())
	root.AddCommand(a.tolerancesCommand())
	root.AddCommand(a.versionCommand())
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.out.SetQuiet(a.opts.quiet)

	var warnings []string
	if a.opts.configPath != "" {
		cfg, w, err := config.LoadAndValidate(a.opts.configPath)
		if err != nil {
			return &errors.CLIError{Kind: errors.KindConfig, Message: err.Error(), Input: a.opts.configPath, Cause: err}
		}
		a.cfg, warnings = cfg, w
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return errors.Environmentf("cannot determine working directory: %v", err)
		}
		cfg, path, w, err := config.Discover(cwd)
		if err != nil {
			return &errors.CLIError{Kind: errors.KindConfig, Message: err.Error(), Cause: err}
		}
		a.cfg, warnings = cfg, w
		if path != "" {
			a.out.Info("Using %s", path)
		}
	}
	for _, w := range warnings {
		a.out.Warning("%s", w)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = a.cfg.Logging.Level
	logCfg.Format = a.cfg.Logging.Format
	if a.opts.verbose {
		logCfg.Level = "debug"
	}
	if a.opts.logFormat != "" {
		logCfg.Format = a.opts.logFormat
	}
	logger, err := logging.New(logCfg, a.logOut)
	if err != nil {
		return errors.Configf("logging: %v", err)
	}
	a.logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}

func (a *app) versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			a.out.Println("closeness %s", Version)
		},
	}
	// version works without a readable configuration.
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return nil
	}
	return cmd
}
