package config

import (
	"github.com/AndreyAkinshin/closeness/pkg/closeness"
)

// Options converts the assertion settings of cfg into closeness options.
func (cfg *Config) Options() []closeness.Option {
	var opts []closeness.Option
	if cfg.RTol != nil && cfg.ATol != nil {
		opts = append(opts, closeness.WithTolerances(*cfg.RTol, *cfg.ATol))
	}
	if cfg.EqualNaN != nil {
		opts = append(opts, closeness.WithEqualNaN(*cfg.EqualNaN))
	}
	if cfg.AllowSubclasses != nil {
		opts = append(opts, closeness.WithAllowSubclasses(*cfg.AllowSubclasses))
	}
	if cfg.Message != "" {
		opts = append(opts, closeness.WithMessage(cfg.Message))
	}
	if c := cfg.Checks; c != nil {
		if c.Device != nil {
			opts = append(opts, closeness.WithCheckDevice(*c.Device))
		}
		if c.DType != nil {
			opts = append(opts, closeness.WithCheckDType(*c.DType))
		}
		if c.Layout != nil {
			opts = append(opts, closeness.WithCheckLayout(*c.Layout))
		}
		if c.Stride != nil {
			opts = append(opts, closeness.WithCheckStride(*c.Stride))
		}
		if c.IsCoalesced != nil {
			opts = append(opts, closeness.WithCheckIsCoalesced(*c.IsCoalesced))
		}
	}
	return opts
}
