package closeness

import (
	"go.uber.org/zap"
)

// Config is the resolved configuration of one assertion. Matchers receive it
// when building comparators.
type Config struct {
	// Matchers is the ordered comparator registry. The first matcher that
	// accepts a leaf pair wins.
	Matchers []Matcher
	// SequenceKinds and MappingKinds decide which values are walked instead
	// of compared as leaves.
	SequenceKinds []SequenceKind
	MappingKinds  []MappingKind

	// AllowSubclasses relaxes the type relation of tensor-like pairs from
	// identity to embedding.
	AllowSubclasses bool
	// RTol and ATol override the default tolerances. Both or neither must be set.
	RTol *float64
	ATol *float64
	// EqualNaN treats two NaNs as equal.
	EqualNaN bool

	CheckDevice bool
	// CheckDType is nil when unset. Numbers then ignore their kinds while
	// tensor-likes compare their dtypes.
	CheckDType       *bool
	CheckLayout      bool
	CheckStride      bool
	CheckIsCoalesced bool

	// Message replaces the generated text of attribute and value mismatches.
	Message string

	Logger *zap.Logger
}

func (c *Config) checkDType(def bool) bool {
	if c.CheckDType == nil {
		return def
	}
	return *c.CheckDType
}

// DefaultConfig returns the configuration AssertEqual starts from.
func DefaultConfig() Config {
	return Config{
		Matchers:         []Matcher{ObjectMatcher},
		SequenceKinds:    []SequenceKind{SliceSequence},
		MappingKinds:     []MappingKind{MapMapping},
		AllowSubclasses:  true,
		CheckDevice:      true,
		CheckLayout:      true,
		CheckIsCoalesced: true,
		Logger:           zap.NewNop(),
	}
}

// NewConfig applies opts to the default configuration.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// Option is a functional option that mutates a Config.
type Option func(*Config)

// WithMatchers replaces the comparator registry of AssertEqual. AssertClose
// always uses its own registry.
func WithMatchers(matchers ...Matcher) Option {
	return func(c *Config) {
		c.Matchers = matchers
	}
}

// WithSequenceKinds replaces the kinds walked as sequences.
func WithSequenceKinds(kinds ...SequenceKind) Option {
	return func(c *Config) {
		c.SequenceKinds = kinds
	}
}

// WithMappingKinds replaces the kinds walked as mappings.
func WithMappingKinds(kinds ...MappingKind) Option {
	return func(c *Config) {
		c.MappingKinds = kinds
	}
}

// WithAllowSubclasses sets AllowSubclasses.
func WithAllowSubclasses(allow bool) Option {
	return func(c *Config) {
		c.AllowSubclasses = allow
	}
}

// WithRTol sets the relative tolerance. It must be paired with WithATol.
func WithRTol(rtol float64) Option {
	return func(c *Config) {
		c.RTol = &rtol
	}
}

// WithATol sets the absolute tolerance. It must be paired with WithRTol.
func WithATol(atol float64) Option {
	return func(c *Config) {
		c.ATol = &atol
	}
}

// WithTolerances sets both tolerances.
func WithTolerances(rtol, atol float64) Option {
	return func(c *Config) {
		c.RTol = &rtol
		c.ATol = &atol
	}
}

// WithEqualNaN sets EqualNaN.
func WithEqualNaN(equal bool) Option {
	return func(c *Config) {
		c.EqualNaN = equal
	}
}

// WithCheckDevice sets CheckDevice.
func WithCheckDevice(check bool) Option {
	return func(c *Config) {
		c.CheckDevice = check
	}
}

// WithCheckDType sets CheckDType.
func WithCheckDType(check bool) Option {
	return func(c *Config) {
		c.CheckDType = &check
	}
}

// WithCheckLayout sets CheckLayout.
func WithCheckLayout(check bool) Option {
	return func(c *Config) {
		c.CheckLayout = check
	}
}

// WithCheckStride sets CheckStride.
func WithCheckStride(check bool) Option {
	return func(c *Config) {
		c.CheckStride = check
	}
}

// WithCheckIsCoalesced sets CheckIsCoalesced.
func WithCheckIsCoalesced(check bool) Option {
	return func(c *Config) {
		c.CheckIsCoalesced = check
	}
}

// WithMessage replaces the text of attribute and value mismatches.
func WithMessage(msg string) Option {
	return func(c *Config) {
		c.Message = msg
	}
}

// WithLogger sets the logger receiving debug events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
