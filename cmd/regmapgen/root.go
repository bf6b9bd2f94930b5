package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/timzifer/regmapgen/internal/config"
	"github.com/timzifer/regmapgen/internal/logging"
)

type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg     *config.Config
	logger  zerolog.Logger
	cleanup func()
}

func newApp() *app {
	return &app{logger: zerolog.Nop(), cleanup: func() {}}
}

// close releases logging resources. It is safe to call after a failed setup.
func (a *app) close() {
	a.cleanup()
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "regmapgen",
		Short:         "Generate Modbus register map files for CellWatch, Kelman and PQube devices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a configuration file or directory")
	flags.StringVar(&a.logLevel, "log-level", "", "Override the configured log level")
	flags.StringVar(&a.logFormat, "log-format", "", "Override the configured log format (json or text)")

	root.AddCommand(
		newGenerateCommand(a),
		newListCommand(a),
		newValidateCommand(a),
		newExpandCommand(a),
		newDevicesCommand(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := logging.Setup(cfg.Logging)
	if err != nil {
		return err
	}
	log.Logger = logger
	a.cfg = cfg
	a.logger = logger
	a.cleanup = cleanup
	if a.configPath != "" {
		logger.Debug().Strs("sources", config.SourceFiles(cfg)).Msg("configuration loaded")
	}
	return nil
}

// reload reads the configuration again and keeps the current logger.
func (a *app) reload() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
