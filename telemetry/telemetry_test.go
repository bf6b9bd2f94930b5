package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestNoopCollector(t *testing.T) {
	collector := Noop()
	require.NotNil(t, collector)
	collector.IncFileWritten("kelman")
	collector.AddRecords("kelman", KindPrimitive, 3)
	collector.IncValidationFailure("kelman")
	collector.ObserveRun(time.Second)
}

func TestPrometheusCollectorRegistersAndReusesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	require.NotNil(t, collector)

	collector.IncFileWritten("kelman")
	collector.AddRecords("kelman", KindDerived, 4)
	collector.AddRecords("kelman", KindDerived, 0)

	families := gather(t, reg)
	requireCounterValue(t, families["regmapgen_files_written_total"], 1)
	requireCounterValue(t, families["regmapgen_records_total"], 4)

	again, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	require.Same(t, collector.filesWritten, again.filesWritten)
	require.Same(t, collector.records, again.records)

	again.IncFileWritten("kelman")
	again.ObserveRun(1500 * time.Millisecond)

	families = gather(t, reg)
	requireCounterValue(t, families["regmapgen_files_written_total"], 2)
	gauge := families["regmapgen_run_duration_seconds"]
	require.NotNil(t, gauge)
	require.Equal(t, 1.5, gauge.Metric[0].GetGauge().GetValue())
}

func TestPrometheusCollectorRejectsConflictingMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "regmapgen_files_written_total",
		Help: "Number of register map files written per device.",
	}, []string{"device"})))

	_, err := NewPrometheusCollector(reg)
	require.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	collector.IncValidationFailure("pqube")

	path := filepath.Join(t.TempDir(), "regmapgen.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `regmapgen_validation_failures_total{device="pqube"} 1`))

	require.Error(t, WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg))
}

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	metrics, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(metrics))
	for _, mf := range metrics {
		out[mf.GetName()] = mf
	}
	return out
}

func requireCounterValue(t *testing.T, mf *dto.MetricFamily, value float64) {
	t.Helper()
	require.NotNil(t, mf)
	require.Len(t, mf.Metric, 1)
	require.NotNil(t, mf.Metric[0].Counter)
	require.Equal(t, value, mf.Metric[0].Counter.GetValue())
}
