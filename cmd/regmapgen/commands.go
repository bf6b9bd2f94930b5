package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/generator"
	"github.com/timzifer/regmapgen/internal/config"
	"github.com/timzifer/regmapgen/internal/reload"
	"github.com/timzifer/regmapgen/layout"
	"github.com/timzifer/regmapgen/mapfile"
	"github.com/timzifer/regmapgen/telemetry"
)

type generateOptions struct {
	outDir      string
	noValidate  bool
	metricsFile string
	watch       bool
	interval    time.Duration
}

func (o generateOptions) apply(cfg *config.Config) {
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if o.noValidate {
		disabled := false
		cfg.Output.Validate = &disabled
	}
	if o.metricsFile != "" {
		cfg.Telemetry.Textfile = o.metricsFile
	}
}

func newGenerateCommand(a *app) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate [device...]",
		Short: "Write register map files for all or the named devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(a.cfg)
			if err := generate(cmd.Context(), a, args); err != nil {
				return err
			}
			if !opts.watch {
				return nil
			}
			return watch(cmd.Context(), a, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Output directory (overrides output.dir)")
	cmd.Flags().BoolVar(&opts.noValidate, "no-validate", false, "Skip schema and consistency validation")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Regenerate when the configuration or a layout file changes")
	cmd.Flags().DurationVar(&opts.interval, "interval", 2*time.Second, "Polling interval in watch mode")
	return cmd
}

// generate runs one generation pass. The metrics textfile is written even
// when the run fails so validation failures are exported.
func generate(ctx context.Context, a *app, names []string) (err error) {
	cfg := a.cfg
	devs, err := generator.Resolve(cfg, names...)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	collector, err := generator.NewTelemetryCollector(cfg.Telemetry, reg)
	if err != nil {
		return err
	}
	if cfg.Telemetry.Textfile != "" {
		defer func() {
			if werr := telemetry.WriteTextfile(cfg.Telemetry.Textfile, reg); werr != nil {
				err = errors.Join(err, werr)
			}
		}()
	}
	gen, err := generator.New(
		generator.WithLogger(a.logger),
		generator.WithTelemetry(collector),
		generator.WithOutputDir(cfg.Output.Dir),
		generator.WithValidation(cfg.Output.ValidateEnabled()),
	)
	if err != nil {
		return err
	}

	summary, err := gen.Run(ctx, devs)
	if err != nil {
		return err
	}
	totals := summary.Totals()
	a.logger.Info().
		Int("files", len(summary.Files)).
		Int("sequences", totals.Sequences).
		Int("records", totals.Primitives+totals.Derived).
		Dur("duration", summary.Duration).
		Str("dir", cfg.Output.Dir).
		Msg("generation finished")
	return nil
}

// watch polls the configuration sources and reruns generation after a
// change. Failed runs are logged and the previous output is left in place.
func watch(ctx context.Context, a *app, opts generateOptions, names []string) error {
	if opts.interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", opts.interval)
	}
	watcher, err := reload.NewWatcher(a.configPath, a.cfg)
	if err != nil {
		return err
	}
	a.logger.Info().Int("files", watcher.Tracked()).Dur("interval", opts.interval).Msg("watching for changes")

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		changed, err := watcher.Check()
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			continue
		}
		a.logger.Info().Strs("changed", changed).Msg("sources changed, regenerating")
		if err := a.reload(); err != nil {
			a.logger.Error().Err(err).Msg("reload configuration")
		} else {
			opts.apply(a.cfg)
			if err := generate(ctx, a, names); err != nil {
				a.logger.Error().Err(err).Msg("generation failed")
			}
		}
		if err := watcher.Update(a.configPath, a.cfg); err != nil {
			return err
		}
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [device...]",
		Short: "Show the files a generate run would write, without writing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			devs, err := generator.Resolve(a.cfg, args...)
			if err != nil {
				return err
			}
			gen, err := generator.New(generator.WithLogger(a.logger), generator.WithDryRun(true))
			if err != nil {
				return err
			}
			summary, err := gen.Run(cmd.Context(), devs)
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func renderSummary(out io.Writer, summary generator.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Device", "File", "Sequences", "Primitives", "Derived"})
	for _, f := range summary.Files {
		t.AppendRow(table.Row{f.Device, mapfile.FileName(f.Title), f.Stats.Sequences, f.Stats.Primitives, f.Stats.Derived})
	}
	totals := summary.Totals()
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d files", len(summary.Files)), totals.Sequences, totals.Primitives, totals.Derived})
	t.Render()
}

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check existing register map files against the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			validator, err := mapfile.NewValidator()
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range args {
				if err := validateFile(validator, path); err != nil {
					failed++
					a.logger.Error().Err(err).Str("file", path).Msg("invalid register map")
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateFile(validator *mapfile.Validator, path string) error {
	doc, raw, err := mapfile.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validator.Validate(raw); err != nil {
		return err
	}
	return mapfile.Check(doc)
}

func newExpandCommand(a *app) *cobra.Command {
	var (
		units  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "expand START ELEMENT...",
		Short: "Expand an ad-hoc compact layout and print its records",
		Long: `Expand an ad-hoc compact layout. Integers set the registers per field,
other arguments are field names, "Unused" skips registers and [A,B,C]
declares packed flags sharing one register.`,
		Example: `  regmapgen expand 100 2 Voltage "Energy[uint]" 1 Status "[Alarm,Fault]"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("start register %q: %w", args[0], err)
			}
			spec, err := parseSpec(args[1:])
			if err != nil {
				return err
			}
			var opts []layout.Option
			switch strings.ToLower(units) {
			case "":
			case "pqube":
				opts = append(opts, layout.WithUnits(layout.PQubeUnits))
			default:
				return fmt.Errorf("unknown units %q", units)
			}
			records, err := layout.ExpandFields(start, spec, opts...)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "    ")
				if records == nil {
					records = []layout.Record{}
				}
				return enc.Encode(records)
			}
			renderRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().StringVar(&units, "units", "", "Unit inference rules to apply (pqube)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}

// parseSpec turns command line arguments into a compact layout.
func parseSpec(args []string) (layout.Spec, error) {
	spec := make(layout.Spec, 0, len(args))
	for _, arg := range args {
		if width, err := strconv.Atoi(arg); err == nil {
			spec = append(spec, width)
			continue
		}
		if strings.HasPrefix(arg, "[") && strings.HasSuffix(arg, "]") {
			inner := strings.TrimSpace(arg[1 : len(arg)-1])
			if inner == "" {
				return nil, errors.New("packed group must name at least one flag")
			}
			var packed layout.Packed
			for _, name := range strings.Split(inner, ",") {
				packed = append(packed, strings.TrimSpace(name))
			}
			spec = append(spec, packed)
			continue
		}
		spec = append(spec, arg)
	}
	return spec, nil
}

func renderRecords(out io.Writer, records []layout.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Type", "Address", "Description"})
	for _, rec := range records {
		kind := "primitive"
		if rec.Type == layout.DerivedRecord {
			kind = "derived"
		}
		t.AppendRow(table.Row{kind, rec.Address, rec.Description})
	}
	t.Render()
}

func newDevicesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List registered devices and configured layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Device", "Source", "Enabled"})
			for _, name := range devices.RegisteredNames() {
				override, _ := a.cfg.Device(name)
				t.AppendRow(table.Row{name, "built-in", !override.Disable})
			}
			for _, path := range a.cfg.Layouts {
				t.AppendRow(table.Row{"", path, true})
			}
			t.Render()
			return nil
		},
	}
}
