package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/timzifer/regmapgen/devices"
	_ "github.com/timzifer/regmapgen/devices/builtin"
	"github.com/timzifer/regmapgen/layout"
)

const negativeDevice = "negative-start"

type negativeStart struct{}

func (negativeStart) Name() string { return negativeDevice }

func (negativeStart) Tables() ([]devices.Table, error) {
	return []devices.Table{{
		Title:  "Negative Start",
		Groups: [][]layout.Field{{{Start: -2, Count: 1, Name: "Below Zero", Type: layout.Raw16}}},
	}}, nil
}

func init() {
	devices.Register(negativeDevice, func(map[string]interface{}) (devices.Device, error) {
		return negativeStart{}, nil
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	t.Cleanup(a.close)
	root := newRootCommand(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestParseSpec(t *testing.T) {
	spec, err := parseSpec([]string{"2", "Voltage", "Unused", "1", "[Alarm, Fault]"})
	require.NoError(t, err)
	require.Equal(t, layout.Spec{2, "Voltage", "Unused", 1, layout.Packed{"Alarm", "Fault"}}, spec)

	_, err = parseSpec([]string{"1", "[ ]"})
	require.Error(t, err)
}

func TestExpandCommand(t *testing.T) {
	out, err := execute(t, "expand", "--json", "100", "2", "Voltage")
	require.NoError(t, err)
	require.Contains(t, out, `"address": "100"`)
	require.Contains(t, out, `"address": "Single(HR100,HR101)"`)
	require.Contains(t, out, `"description": "Voltage"`)

	out, err = execute(t, "expand", "--units", "pqube", "7000", "2", "L1-N Voltage")
	require.NoError(t, err)
	require.Contains(t, out, "L1-N Voltage (RMS Volts)")

	_, err = execute(t, "expand", "x", "1", "A")
	require.Error(t, err)

	_, err = execute(t, "expand", "--units", "bogus", "1", "1", "A")
	require.ErrorContains(t, err, "unknown units")
}

func TestGenerateAndValidateCommands(t *testing.T) {
	dir := t.TempDir()
	metrics := filepath.Join(dir, "metrics.prom")

	_, err := execute(t, "generate", "pqube", "--out", dir, "--metrics-file", metrics)
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "PQube*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(data), `regmapgen_files_written_total{device="pqube"} 1`)

	out, err := execute(t, append([]string{"validate"}, files...)...)
	require.NoError(t, err)
	require.Contains(t, out, "OK")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"sequences": [{"name": 1}]}`), 0o600))
	out, err = execute(t, "validate", files[0], broken)
	require.ErrorContains(t, err, "1 of 2 files invalid")
	require.Contains(t, out, "FAIL "+broken)
}

func TestListAndDevicesCommands(t *testing.T) {
	out, err := execute(t, "list", "kelman")
	require.NoError(t, err)
	require.Contains(t, out, "General Information.json")
	require.Contains(t, out, "72 files")

	out, err = execute(t, "devices")
	require.NoError(t, err)
	require.Contains(t, out, "cellwatch")
	require.Contains(t, out, "kelman")
	require.Contains(t, out, "pqube")

	_, err = execute(t, "list", "nope")
	require.ErrorContains(t, err, "unknown device")
}

func TestGenerateWatchRegeneratesOnLayoutChange(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	layoutPath := filepath.Join(dir, "boiler.yaml")
	cfgPath := filepath.Join(dir, "regmapgen.yaml")
	writeLayout := func(title string) {
		data := "device: boiler\ntables: [{name: " + title + ", blocks: [{start: 1, fields: [1, A]}]}]\n"
		require.NoError(t, os.WriteFile(layoutPath, []byte(data), 0o600))
	}
	writeLayout("Boiler")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output: {dir: "+out+"}\nlayouts: [boiler.yaml]\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := newApp()
	t.Cleanup(a.close)
	root := newRootCommand(a)
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--log-level", "error", "-c", cfgPath, "generate", "boiler", "--watch", "--interval", "20ms"})
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "Boiler.json"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	writeLayout("Boiler Second")
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "Boiler Second.json"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestGenerateWritesMetricsWhenValidationFails(t *testing.T) {
	dir := t.TempDir()
	metrics := filepath.Join(dir, "metrics.prom")

	_, err := execute(t, "generate", negativeDevice, "--out", filepath.Join(dir, "out"), "--metrics-file", metrics)
	require.Error(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(data), `regmapgen_validation_failures_total{device="negative-start"} 1`)

	_, err = os.Stat(filepath.Join(dir, "out", "Negative Start.json"))
	require.True(t, os.IsNotExist(err))
}
