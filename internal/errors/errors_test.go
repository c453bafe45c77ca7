package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AndreyAkinshin/closeness/pkg/closeness"
)

func TestCLIError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *CLIError
		expected string
	}{
		{"message only", &CLIError{Message: "something failed"}, "something failed"},
		{"with input", &CLIError{Input: "a.json", Message: "cannot decode"}, "[a.json] cannot decode"},
		{"with input and command", &CLIError{Input: "a.json", Command: "compare", Message: "cannot decode"},
			"[a.json] compare: cannot decode"},
		{"command without input not included", &CLIError{Command: "compare", Message: "failed"}, "failed"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestCLIError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := &closeness.Error{Kind: closeness.KindValueMismatch, Message: "Scalars are not equal!"}
	err := Mismatch("comparison failed", cause)
	assert.Same(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, closeness.ErrValueMismatch)
	assert.Nil(t, Config("no cause").Unwrap())

	decode := errors.New("unexpected end of JSON input")
	assert.ErrorIs(t, InputError("a.json", "compare", decode), decode)
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *CLIError
		kind     ErrorKind
		message  string
		exitCode int
	}{
		{"Mismatch", Mismatch("differ", nil), KindMismatch, "differ", ExitFailure},
		{"Config", Config("bad"), KindConfig, "bad", ExitConfigError},
		{"Configf", Configf("bad %d", 2), KindConfig, "bad 2", ExitConfigError},
		{"Validation", Validation("bad case", nil), KindValidation, "bad case", ExitConfigError},
		{"Environment", Environment("no cwd"), KindEnvironment, "no cwd", ExitEnvironmentError},
		{"Environmentf", Environmentf("no %s", "tty"), KindEnvironment, "no tty", ExitEnvironmentError},
		{"Wrap", Wrap(errors.New("cause"), "context"), KindRuntime, "context", ExitFailure},
		{"InputError", InputError("a.json", "compare", errors.New("oops")), KindValidation, "oops", ExitConfigError},
		{"NotFound", NotFound("suite directory", "cases"), KindNotFound, "suite directory not found: cases", ExitFailure},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.Equal(t, tt.exitCode, tt.err.ExitCode())
		})
	}
}

func TestGetExitCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitConfigError, GetExitCode(Config("bad")))
	assert.Equal(t, ExitConfigError, GetExitCode(fmt.Errorf("wrapped: %w", Config("bad"))))
	assert.Equal(t, ExitEnvironmentError, GetExitCode(Environment("env")))
}

func TestAsCLIError(t *testing.T) {
	t.Parallel()
	ce, ok := AsCLIError(fmt.Errorf("ctx: %w", Validation("bad", nil)))
	assert.True(t, ok)
	assert.Equal(t, KindValidation, ce.Kind)

	_, ok = AsCLIError(errors.New("plain"))
	assert.False(t, ok)
}
