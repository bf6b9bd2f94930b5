package generator

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/timzifer/regmapgen/telemetry"
)

// Option configures the generator during construction.
type Option func(*settings) error

type settings struct {
	logger    zerolog.Logger
	telemetry telemetry.Collector
	outputDir string
	validate  bool
	dryRun    bool
}

// WithLogger provides a custom logger instance for the generator.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		cfg.logger = logger
		return nil
	}
}

// WithTelemetry injects a metrics collector.
func WithTelemetry(collector telemetry.Collector) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		if collector == nil {
			collector = telemetry.Noop()
		}
		cfg.telemetry = collector
		return nil
	}
}

// WithOutputDir sets the directory generated files are written to.
func WithOutputDir(dir string) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		dir = strings.TrimSpace(dir)
		if dir == "" {
			return errors.New("output directory must not be empty")
		}
		cfg.outputDir = dir
		return nil
	}
}

// WithValidation toggles schema and consistency validation of every
// document before it is written.
func WithValidation(enabled bool) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		cfg.validate = enabled
		return nil
	}
}

// WithDryRun builds and encodes documents without writing them.
func WithDryRun(enabled bool) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		cfg.dryRun = enabled
		return nil
	}
}
