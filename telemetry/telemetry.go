package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Record kinds used as the kind label of the records counter.
const (
	KindPrimitive = "primitive"
	KindDerived   = "derived"
)

// Collector captures telemetry events emitted while generating register maps.
//
// Implementations may forward metrics to Prometheus, loggers or other
// monitoring systems. Calls happen inline for every written file and should
// be cheap.
type Collector interface {
	IncFileWritten(device string)
	AddRecords(device, kind string, count int)
	IncValidationFailure(device string)
	ObserveRun(duration time.Duration)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) IncFileWritten(string)          {}
func (noopCollector) AddRecords(string, string, int) {}
func (noopCollector) IncValidationFailure(string)    {}
func (noopCollector) ObserveRun(time.Duration)       {}

// PrometheusCollector exposes generator counters via Prometheus.
type PrometheusCollector struct {
	filesWritten       *prometheus.CounterVec
	records            *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	runDuration        prometheus.Gauge
}

// NewPrometheusCollector registers the required metrics with the provided
// registerer. Metrics that are already registered are reused.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	files, err := registerCounterVec(reg, prometheus.CounterOpts{
		Name: "regmapgen_files_written_total",
		Help: "Number of register map files written per device.",
	}, "device")
	if err != nil {
		return nil, err
	}
	records, err := registerCounterVec(reg, prometheus.CounterOpts{
		Name: "regmapgen_records_total",
		Help: "Number of register records emitted per device and record kind.",
	}, "device", "kind")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounterVec(reg, prometheus.CounterOpts{
		Name: "regmapgen_validation_failures_total",
		Help: "Number of generated documents rejected by schema or consistency validation.",
	}, "device")
	if err != nil {
		return nil, err
	}
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "regmapgen_run_duration_seconds",
		Help: "Wall clock duration of the last generator run.",
	})
	if err := reg.Register(duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(prometheus.Gauge)
		if !ok {
			return nil, fmt.Errorf("metric regmapgen_run_duration_seconds registered with unexpected type %T", already.ExistingCollector)
		}
		duration = existing
	}

	return &PrometheusCollector{
		filesWritten:       files,
		records:            records,
		validationFailures: failures,
		runDuration:        duration,
	}, nil
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) (*prometheus.CounterVec, error) {
	counter := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(counter); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("metric %s registered with unexpected type %T", opts.Name, already.ExistingCollector)
		}
		return existing, nil
	}
	return counter, nil
}

// IncFileWritten increments the file counter of a device.
func (p *PrometheusCollector) IncFileWritten(device string) {
	if p == nil || p.filesWritten == nil {
		return
	}
	p.filesWritten.WithLabelValues(device).Inc()
}

// AddRecords adds emitted records of one kind.
func (p *PrometheusCollector) AddRecords(device, kind string, count int) {
	if p == nil || p.records == nil || count <= 0 {
		return
	}
	p.records.WithLabelValues(device, kind).Add(float64(count))
}

// IncValidationFailure counts a rejected document.
func (p *PrometheusCollector) IncValidationFailure(device string) {
	if p == nil || p.validationFailures == nil {
		return
	}
	p.validationFailures.WithLabelValues(device).Inc()
}

// ObserveRun stores the duration of the last run.
func (p *PrometheusCollector) ObserveRun(duration time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Set(duration.Seconds())
}

// WriteTextfile exports the gathered metrics in the text exposition format,
// for pickup by the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
