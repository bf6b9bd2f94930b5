package generator

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/timzifer/regmapgen/internal/config"
	"github.com/timzifer/regmapgen/telemetry"
)

// NewTelemetryCollector returns a Prometheus collector registered with reg
// when a metrics textfile is configured, and a no-op collector otherwise.
func NewTelemetryCollector(cfg config.TelemetryConfig, reg prometheus.Registerer) (telemetry.Collector, error) {
	if cfg.Textfile == "" {
		return telemetry.Noop(), nil
	}
	collector, err := telemetry.NewPrometheusCollector(reg)
	if err != nil {
		return nil, err
	}
	return collector, nil
}
