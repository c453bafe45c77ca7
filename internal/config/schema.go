// Package config loads and validates .closeness.yaml files.
package config

// Config is the contents of a .closeness.yaml file. Pointer fields are nil
// when the file leaves the setting to the assertion's own default.
type Config struct {
	Mode            string         `yaml:"mode,omitempty"`
	RTol            *float64       `yaml:"rtol,omitempty"`
	ATol            *float64       `yaml:"atol,omitempty"`
	EqualNaN        *bool          `yaml:"equal_nan,omitempty"`
	AllowSubclasses *bool          `yaml:"allow_subclasses,omitempty"`
	Checks          *ChecksConfig  `yaml:"checks,omitempty"`
	Message         string         `yaml:"message,omitempty"`
	Logging         *LoggingConfig `yaml:"logging,omitempty"`
	Suite           *SuiteConfig   `yaml:"suite,omitempty"`
}

// ChecksConfig toggles the attribute checks of tensor comparisons.
type ChecksConfig struct {
	Device      *bool `yaml:"device,omitempty"`
	DType       *bool `yaml:"dtype,omitempty"`
	Layout      *bool `yaml:"layout,omitempty"`
	Stride      *bool `yaml:"stride,omitempty"`
	IsCoalesced *bool `yaml:"is_coalesced,omitempty"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// SuiteConfig locates comparison cases for "closeness suite".
type SuiteConfig struct {
	Directory string `yaml:"directory,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`
}
