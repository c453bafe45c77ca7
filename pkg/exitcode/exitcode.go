// Package exitcode lists the exit codes of the closeness command so that
// scripts and other tools can check them symbolically.
package exitcode

const (
	// Success means every comparison passed.
	Success = 0

	// Failure means a comparison failed or the command hit a runtime error.
	Failure = 1

	// ConfigError means the configuration or a case file is invalid.
	ConfigError = 2

	// EnvError means the environment prevented the command from running.
	EnvError = 3
)
