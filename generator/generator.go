// Package generator turns device tables into register map files.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/mapfile"
	"github.com/timzifer/regmapgen/telemetry"
)

// DefaultOutputDir is used when WithOutputDir is not given.
const DefaultOutputDir = "out"

// FileResult describes one generated document.
type FileResult struct {
	Device string
	Title  string
	// Path is empty for dry runs.
	Path  string
	Bytes int
	Stats mapfile.Stats
}

// Summary lists the files of a run in generation order.
type Summary struct {
	Files    []FileResult
	Duration time.Duration
}

// Totals sums the statistics of all files.
func (s Summary) Totals() mapfile.Stats {
	var total mapfile.Stats
	for _, f := range s.Files {
		total.Sequences += f.Stats.Sequences
		total.Primitives += f.Stats.Primitives
		total.Derived += f.Stats.Derived
	}
	return total
}

// Generator writes the register map files of a set of devices.
type Generator struct {
	logger    zerolog.Logger
	collector telemetry.Collector
	outputDir string
	dryRun    bool
	validator *mapfile.Validator
}

// New constructs a generator with the supplied options. Validation is
// enabled unless WithValidation(false) is given.
func New(opts ...Option) (*Generator, error) {
	cfg := settings{
		logger:    zerolog.Nop(),
		telemetry: telemetry.Noop(),
		outputDir: DefaultOutputDir,
		validate:  true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	g := &Generator{
		logger:    cfg.logger,
		collector: cfg.telemetry,
		outputDir: cfg.outputDir,
		dryRun:    cfg.dryRun,
	}
	if cfg.validate {
		validator, err := mapfile.NewValidator()
		if err != nil {
			return nil, err
		}
		g.validator = validator
	}
	return g, nil
}

// Run builds every table of the given devices, encodes it and writes one
// file per table. The first error aborts the run; files written before the
// error stay on disk.
func (g *Generator) Run(ctx context.Context, devs []devices.Device) (Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	var summary Summary
	owners := make(map[string]string)

	for _, dev := range devs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		logger := g.logger.With().Str("device", dev.Name()).Logger()
		tables, err := dev.Tables()
		if err != nil {
			return summary, fmt.Errorf("build %s tables: %w", dev.Name(), err)
		}
		logger.Debug().Int("tables", len(tables)).Msg("tables built")

		for _, table := range tables {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			name := mapfile.FileName(table.Title)
			if owner, exists := owners[name]; exists {
				return summary, fmt.Errorf("file %s produced by both %s and %s", name, owner, dev.Name())
			}
			owners[name] = dev.Name()

			result, err := g.emit(dev.Name(), table)
			if err != nil {
				return summary, err
			}
			summary.Files = append(summary.Files, result)

			event := logger.Info()
			if g.dryRun {
				event = logger.Debug()
			}
			event.
				Str("file", name).
				Int("sequences", result.Stats.Sequences).
				Int("records", result.Stats.Primitives+result.Stats.Derived).
				Msg("register map generated")
		}
	}

	summary.Duration = time.Since(started)
	g.collector.ObserveRun(summary.Duration)
	return summary, nil
}

func (g *Generator) emit(device string, table devices.Table) (FileResult, error) {
	doc := mapfile.NewDocument(table.Title, table.Groups)
	if g.validator != nil {
		if err := g.validator.ValidateDocument(doc); err != nil {
			g.collector.IncValidationFailure(device)
			return FileResult{}, fmt.Errorf("validate %s %q: %w", device, table.Title, err)
		}
	}
	data, err := mapfile.Marshal(doc)
	if err != nil {
		return FileResult{}, fmt.Errorf("encode %s %q: %w", device, table.Title, err)
	}

	result := FileResult{Device: device, Title: table.Title, Bytes: len(data), Stats: doc.Stats()}
	if g.dryRun {
		return result, nil
	}
	path, err := mapfile.WriteFile(g.outputDir, table.Title, data)
	if err != nil {
		return FileResult{}, err
	}
	result.Path = path
	g.collector.IncFileWritten(device)
	g.collector.AddRecords(device, telemetry.KindPrimitive, result.Stats.Primitives)
	g.collector.AddRecords(device, telemetry.KindDerived, result.Stats.Derived)
	return result, nil
}
