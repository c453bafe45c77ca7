// Package logging builds the CLI's structured logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level.
	Level string
	// Format is the output format, "console" or "json".
	Format string
	// Development adds stack traces to errors.
	Development bool
}

// DefaultConfig logs warnings and above in console format.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "console",
	}
}

// New builds a logger writing to w. A nil w writes to stderr.
func New(cfg Config, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "", "console":
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q (want console or json)", cfg.Format)
	}

	if w == nil {
		w = os.Stderr
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)

	if cfg.Development {
		return zap.New(core, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
	}
	return zap.New(core), nil
}
