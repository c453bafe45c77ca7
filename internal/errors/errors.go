// Package errors provides the CLI's structured error type and exit codes.
package errors

import (
	"errors"
	"fmt"

	"github.com/AndreyAkinshin/closeness/pkg/exitcode"
)

// Exit codes of the closeness command.
const (
	ExitSuccess          = exitcode.Success     // Every comparison passed
	ExitFailure          = exitcode.Failure     // A comparison failed or a runtime error occurred
	ExitConfigError      = exitcode.ConfigError // Invalid configuration or case file
	ExitEnvironmentError = exitcode.EnvError    // Working directory or terminal unavailable
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindMismatch
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
)

// CLIError is the error type returned by commands.
type CLIError struct {
	Kind    ErrorKind
	Message string
	Input   string // Input file if applicable
	Command string // Command name if applicable
	Cause   error  // Underlying error
}

func (e *CLIError) Error() string {
	if e.Input != "" && e.Command != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Input, e.Command, e.Message)
	}
	if e.Input != "" {
		return fmt.Sprintf("[%s] %s", e.Input, e.Message)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *CLIError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitFailure
	}
}

// Mismatch reports a failed comparison. cause is the assertion's error.
func Mismatch(message string, cause error) *CLIError {
	return &CLIError{
		Kind:    KindMismatch,
		Message: message,
		Cause:   cause,
	}
}

// Config creates a new configuration error.
func Config(message string) *CLIError {
	return &CLIError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *CLIError {
	return Config(fmt.Sprintf(format, args...))
}

// Validation reports an input file that does not describe a valid comparison.
func Validation(message string, cause error) *CLIError {
	return &CLIError{
		Kind:    KindValidation,
		Message: message,
		Cause:   cause,
	}
}

// Environment creates a new environment error.
func Environment(message string) *CLIError {
	return &CLIError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *CLIError {
	return Environment(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *CLIError {
	return &CLIError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// InputError reports an input file that command could not decode into a
// comparison operand.
func InputError(input, command string, cause error) *CLIError {
	return &CLIError{
		Kind:    KindValidation,
		Input:   input,
		Command: command,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *CLIError {
	return &CLIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// AsCLIError finds the first CLIError in err's chain.
func AsCLIError(err error) (*CLIError, bool) {
	var ce *CLIError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if ce, ok := AsCLIError(err); ok {
		return ce.ExitCode()
	}
	return ExitFailure
}
