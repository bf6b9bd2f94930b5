package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultOutputDir is used when no output directory is configured.
const DefaultOutputDir = "out"

// OutputConfig controls where generated files are written.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Validate *bool  `yaml:"validate,omitempty"`
}

// ValidateEnabled reports whether generated documents are validated before
// they are written. Validation is on unless disabled explicitly.
func (o OutputConfig) ValidateEnabled() bool {
	return o.Validate == nil || *o.Validate
}

// LokiConfig configures optional Loki integration for logging.
type LokiConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Labels  map[string]string `yaml:"labels"`
}

// LoggingConfig encapsulates logging options.
type LoggingConfig struct {
	Level  string     `yaml:"level"`
	Format string     `yaml:"format"`
	Loki   LokiConfig `yaml:"loki"`
}

// TelemetryConfig enables generator metrics. Metrics are collected only when
// a textfile is configured, since a batch run has no endpoint to scrape.
type TelemetryConfig struct {
	Textfile string `yaml:"textfile"`
}

// DeviceConfig selects a built-in device and its settings.
type DeviceConfig struct {
	Name     string                 `yaml:"name"`
	Disable  bool                   `yaml:"disable"`
	Settings map[string]interface{} `yaml:"settings"`
}

// Config is the root configuration structure of the generator.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	// Devices lists per-device overrides. Built-in devices without an entry
	// are enabled with default settings.
	Devices []DeviceConfig `yaml:"devices"`
	// Layouts lists custom layout files, resolved against the directory of
	// the file that declared them.
	Layouts []string `yaml:"layouts"`

	sources []string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output:  OutputConfig{Dir: DefaultOutputDir},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads the configuration from a YAML file, or from every .yaml/.yml
// file of a directory in lexical order. Later files override scalar values,
// merge device settings by name and append layouts.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	files := []string{path}
	if info.IsDir() {
		files, err = directoryFiles(path)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("config directory %s contains no yaml files", path)
		}
	}

	cfg := Default()
	for _, file := range files {
		part, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		cfg.merge(part)
		cfg.sources = append(cfg.sources, file)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func directoryFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read config directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func loadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i, layout := range cfg.Layouts {
		layout = strings.TrimSpace(layout)
		if layout != "" && !filepath.IsAbs(layout) {
			layout = filepath.Join(base, layout)
		}
		cfg.Layouts[i] = layout
	}
	return &cfg, nil
}

func (c *Config) merge(other *Config) {
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.Output.Validate != nil {
		v := *other.Output.Validate
		c.Output.Validate = &v
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if other.Logging.Loki.Enabled || other.Logging.Loki.URL != "" || len(other.Logging.Loki.Labels) > 0 {
		c.Logging.Loki = other.Logging.Loki
	}
	if other.Telemetry.Textfile != "" {
		c.Telemetry.Textfile = other.Telemetry.Textfile
	}
	for _, dev := range other.Devices {
		c.mergeDevice(dev)
	}
	c.Layouts = append(c.Layouts, other.Layouts...)
}

func (c *Config) mergeDevice(dev DeviceConfig) {
	for i := range c.Devices {
		existing := &c.Devices[i]
		if existing.Name != dev.Name {
			continue
		}
		existing.Disable = dev.Disable
		if existing.Settings == nil && len(dev.Settings) > 0 {
			existing.Settings = make(map[string]interface{}, len(dev.Settings))
		}
		for k, v := range dev.Settings {
			existing.Settings[k] = v
		}
		return
	}
	c.Devices = append(c.Devices, dev)
}

// Validate checks values that cannot be expressed in the YAML structure.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging format %q must be json or text", c.Logging.Format)
	}
	if c.Logging.Loki.Enabled && c.Logging.Loki.URL == "" {
		return errors.New("logging.loki.url is required when loki is enabled")
	}
	for i, dev := range c.Devices {
		if strings.TrimSpace(dev.Name) == "" {
			return fmt.Errorf("devices[%d]: name is required", i)
		}
	}
	for i, layout := range c.Layouts {
		if layout == "" {
			return fmt.Errorf("layouts[%d]: path must not be empty", i)
		}
	}
	return nil
}

// Device returns the override for a device, if any.
func (c *Config) Device(name string) (DeviceConfig, bool) {
	for _, dev := range c.Devices {
		if dev.Name == name {
			return dev, true
		}
	}
	return DeviceConfig{}, false
}
