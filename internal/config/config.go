package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/closeness/internal/schema"
)

// FileName is the name of the configuration file.
const FileName = ".closeness.yaml"

// ErrNotFound is returned when no configuration file exists in a directory
// or any of its parents.
var ErrNotFound = errors.New(FileName + " not found in the directory or any parent up to the root")

// Load reads and parses a configuration file without applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadAndValidate reads a configuration file, checks it against the config
// schema, applies defaults and validates it. Unknown top-level keys are
// reported as warnings.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, warnings, err := LoadWithWarnings(data)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, warnings, err
	}

	return cfg, warnings, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Find walks up from startDir until it finds FileName and returns its path.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Discover loads the configuration found from startDir, or the defaults when
// there is none. The returned path is empty in the latter case.
func Discover(startDir string) (*Config, string, []string, error) {
	path, err := Find(startDir)
	if errors.Is(err, ErrNotFound) {
		return Default(), "", nil, nil
	}
	if err != nil {
		return nil, "", nil, err
	}
	cfg, warnings, err := LoadAndValidate(path)
	if err != nil {
		return nil, path, warnings, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, path, warnings, nil
}

// LoadWithWarnings parses data and returns warnings for unknown keys.
func LoadWithWarnings(data []byte) (*Config, []string, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := schema.ValidateConfigValue(raw); err != nil {
		return nil, nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, detectUnknownFields(raw), nil
}
