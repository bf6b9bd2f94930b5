package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/grafana/loki-client-go/loki"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog"

	"github.com/timzifer/regmapgen/internal/config"
)

// DefaultApp is the Loki app label used when no labels are configured.
const DefaultApp = "regmapgen"

// Setup creates the generator logger. Console output goes to stderr so that
// command output on stdout stays machine readable. The returned cleanup flushes
// the Loki client and may be called more than once.
func Setup(cfg config.LoggingConfig) (zerolog.Logger, func(), error) {
	return setup(cfg, os.Stderr, newLokiClient)
}

// lokiHandler is the part of *loki.Client the writer needs.
type lokiHandler interface {
	Handle(labels model.LabelSet, ts time.Time, line string) error
	Stop()
}

func newLokiClient(url string) (lokiHandler, error) {
	lokiCfg, err := loki.NewDefaultConfig(url)
	if err != nil {
		return nil, fmt.Errorf("prepare loki config: %w", err)
	}
	client, err := loki.New(lokiCfg)
	if err != nil {
		return nil, fmt.Errorf("create loki client: %w", err)
	}
	return client, nil
}

func setup(cfg config.LoggingConfig, out io.Writer, dial func(string) (lokiHandler, error)) (zerolog.Logger, func(), error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	console := out
	if strings.EqualFold(cfg.Format, "text") {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	writers := []io.Writer{console}
	cleanup := func() {}

	if cfg.Loki.Enabled {
		if cfg.Loki.URL == "" {
			return zerolog.Logger{}, nil, fmt.Errorf("loki url is required")
		}
		labels, err := lokiLabels(cfg.Loki.Labels)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		client, err := dial(cfg.Loki.URL)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		writers = append(writers, &lokiWriter{client: client, labels: labels})
		cleanup = sync.OnceFunc(client.Stop)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(level)
	return logger, cleanup, nil
}

func parseLevel(raw string) (zerolog.Level, error) {
	if raw == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}

// lokiLabels builds the static stream labels. The level and device labels are
// added per entry by the writer.
func lokiLabels(raw map[string]string) (model.LabelSet, error) {
	labels := model.LabelSet{}
	for k, v := range raw {
		name := model.LabelName(k)
		if !name.IsValid() {
			return nil, fmt.Errorf("loki label %q is not a valid label name", k)
		}
		labels[name] = model.LabelValue(v)
	}
	if len(labels) == 0 {
		labels["app"] = DefaultApp
	}
	return labels, nil
}

// lokiWriter ships JSON log entries to Loki, one stream per level and device,
// so a single device's generation history can be queried on its own.
type lokiWriter struct {
	client lokiHandler
	labels model.LabelSet
}

func (l *lokiWriter) Write(p []byte) (int, error) {
	return l.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter.
func (l *lokiWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	entry := strings.TrimSpace(string(p))
	if entry == "" {
		return len(p), nil
	}
	return len(p), l.client.Handle(l.streamLabels(level, p), time.Now(), entry)
}

func (l *lokiWriter) streamLabels(level zerolog.Level, p []byte) model.LabelSet {
	labels := l.labels.Clone()
	if level != zerolog.NoLevel {
		labels["level"] = model.LabelValue(level.String())
	}
	var fields struct {
		Device string `json:"device"`
	}
	if json.Unmarshal(p, &fields) == nil && fields.Device != "" {
		labels["device"] = model.LabelValue(fields.Device)
	}
	return labels
}
