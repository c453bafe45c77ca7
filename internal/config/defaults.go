package config

// Default configuration values.
const (
	DefaultMode           = "close"
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "console"
	DefaultSuiteDirectory = "cases"
	DefaultSuitePattern   = "*"
)

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}
	applyLoggingDefaults(cfg)
	applySuiteDefaults(cfg)
}

func applyLoggingDefaults(cfg *Config) {
	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

func applySuiteDefaults(cfg *Config) {
	if cfg.Suite == nil {
		cfg.Suite = &SuiteConfig{}
	}
	if cfg.Suite.Directory == "" {
		cfg.Suite.Directory = DefaultSuiteDirectory
	}
	if cfg.Suite.Pattern == "" {
		cfg.Suite.Pattern = DefaultSuitePattern
	}
}
