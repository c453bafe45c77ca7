package config

import (
	"fmt"
	"path/filepath"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the rules the schema cannot express.
func Validate(cfg *Config) error {
	if err := validateMode(cfg.Mode); err != nil {
		return err
	}
	if err := validateTolerances(cfg); err != nil {
		return err
	}
	if cfg.Suite != nil {
		if _, err := filepath.Match(cfg.Suite.Pattern, ""); err != nil {
			return &ValidationError{Field: "suite.pattern", Message: fmt.Sprintf("invalid pattern: %v", err)}
		}
	}
	return nil
}

func validateMode(mode string) error {
	if mode != "close" && mode != "equal" {
		return &ValidationError{Field: "mode", Message: `must be "close" or "equal"`}
	}
	return nil
}

func validateTolerances(cfg *Config) error {
	switch {
	case cfg.RTol != nil && cfg.ATol == nil:
		return &ValidationError{Field: "atol", Message: "is required when rtol is set"}
	case cfg.RTol == nil && cfg.ATol != nil:
		return &ValidationError{Field: "rtol", Message: "is required when atol is set"}
	}
	return nil
}
