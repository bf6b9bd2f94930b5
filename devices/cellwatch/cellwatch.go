// Package cellwatch describes the register map of the CellWatch battery
// string monitoring system.
package cellwatch

import (
	"fmt"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/layout"
)

// Name is the registry key of the CellWatch device.
const Name = "cellwatch"

const (
	// DefaultStrings is the number of monitored battery strings.
	DefaultStrings = 4
	// MaxStrings is the largest string count a controller supports.
	MaxStrings = 16
	// DefaultPageSize is the largest register span the adapter polls per sequence.
	DefaultPageSize = 100
	// CellsPerString is the width of the per-string cell blocks.
	CellsPerString = 256
)

const (
	systemBase      = 0
	thresholdBase   = 500
	summaryBase     = 1000
	summaryStride   = 50
	voltageBase     = 10000
	temperatureBase = 20000
	resistanceBase  = 30000
)

func init() {
	devices.Register(Name, New)
}

// Device builds the CellWatch register map tables.
type Device struct {
	strings  int
	pageSize int
}

// New creates the CellWatch device from its settings: strings (1..16) and
// page_size.
func New(settings map[string]interface{}) (devices.Device, error) {
	strings, err := devices.IntSetting(settings, "strings", DefaultStrings)
	if err != nil {
		return nil, fmt.Errorf("cellwatch: %w", err)
	}
	if strings < 1 || strings > MaxStrings {
		return nil, fmt.Errorf("cellwatch: strings must be between 1 and %d, got %d", MaxStrings, strings)
	}
	pageSize, err := devices.IntSetting(settings, "page_size", DefaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("cellwatch: %w", err)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("cellwatch: page_size must be positive, got %d", pageSize)
	}
	return &Device{strings: strings, pageSize: pageSize}, nil
}

// Name implements devices.Device.
func (d *Device) Name() string { return Name }

// Tables implements devices.Device.
func (d *Device) Tables() ([]devices.Table, error) {
	builders := []struct {
		title string
		build func() ([][]layout.Field, error)
	}{
		{"System Information", d.systemInformation},
		{"String Summary", d.stringSummary},
		{"Cell Voltages", d.cellBlock(voltageBase, "Voltage", "mV")},
		{"Cell Temperatures", d.cellBlock(temperatureBase, "Temperature", "Celsius")},
		{"Cell Resistances", d.cellBlock(resistanceBase, "Resistance", "micro-ohms")},
		{"Alarm Thresholds", d.alarmThresholds},
	}

	tables := make([]devices.Table, 0, len(builders))
	for _, b := range builders {
		groups, err := b.build()
		if err != nil {
			return nil, fmt.Errorf("cellwatch %s: %w", b.title, err)
		}
		tables = append(tables, devices.Table{Title: b.title, Groups: groups})
	}
	return tables, nil
}

func (d *Device) systemInformation() ([][]layout.Field, error) {
	units := layout.UnitTable(map[string]string{
		"Controller Uptime": "seconds",
	})
	return layout.SplitFields(systemBase, layout.Spec{
		16,
		"Site Name",

		8,
		"Controller Serial Number",

		1,
		"Firmware Major Version", "Firmware Minor Version", "Number of Strings", "Cells per String",
		layout.Unused,

		2,
		"Controller Uptime[uint]",

		1,
		layout.Packed{"Communication Fault", "Controller Fault", "Sensor Fault", "Configuration Fault"},
		"Active Alarm Count",
	}, layout.WithUnits(units))
}

func (d *Device) stringSummary() ([][]layout.Field, error) {
	groups := make([][]layout.Field, 0, d.strings)
	for s := 1; s <= d.strings; s++ {
		prefix := fmt.Sprintf("String %d ", s)
		units := layout.UnitTable(map[string]string{
			prefix + "Voltage":              "V",
			prefix + "Current":              "A",
			prefix + "Average Cell Voltage": "mV",
			prefix + "Minimum Cell Voltage": "mV",
			prefix + "Maximum Cell Voltage": "mV",
			prefix + "Average Temperature":  "Celsius",
			prefix + "State of Charge":      "%",
		})
		fields, err := layout.Fields(summaryBase+(s-1)*summaryStride, layout.Spec{
			2,
			prefix + "Voltage", prefix + "Current", prefix + "Average Cell Voltage",
			prefix + "Minimum Cell Voltage", prefix + "Maximum Cell Voltage",
			prefix + "Average Temperature", prefix + "State of Charge",

			1,
			prefix + "Lowest Cell Number", prefix + "Highest Cell Number",
			layout.Packed{
				prefix + "High Voltage Alarm", prefix + "Low Voltage Alarm",
				prefix + "High Temperature Alarm", prefix + "High Resistance Alarm",
				prefix + "Discharging",
			},
		}, layout.WithUnits(units))
		if err != nil {
			return nil, err
		}
		groups = append(groups, fields)
	}
	return groups, nil
}

// cellBlock lays out one register per cell for every string and paginates
// each string's block separately.
func (d *Device) cellBlock(base int, quantity, unit string) func() ([][]layout.Field, error) {
	return func() ([][]layout.Field, error) {
		var groups [][]layout.Field
		for s := 1; s <= d.strings; s++ {
			spec := make(layout.Spec, 0, CellsPerString+1)
			spec = append(spec, 1)
			for cell := 1; cell <= CellsPerString; cell++ {
				spec = append(spec, fmt.Sprintf("String %d Cell %d %s", s, cell, quantity))
			}
			fields, err := layout.Fields(base+(s-1)*CellsPerString, spec, layout.WithUnits(layout.FixedUnits(unit)))
			if err != nil {
				return nil, err
			}
			pages, err := layout.Paginate(fields, d.pageSize)
			if err != nil {
				return nil, err
			}
			groups = append(groups, pages...)
		}
		return groups, nil
	}
}

func (d *Device) alarmThresholds() ([][]layout.Field, error) {
	units := layout.UnitTable(map[string]string{
		"Cell High Voltage Threshold":     "mV",
		"Cell Low Voltage Threshold":      "mV",
		"Cell High Temperature Threshold": "Celsius",
		"Cell High Resistance Threshold":  "micro-ohms",
		"String High Current Threshold":   "A",
		"Alarm Delay":                     "seconds",
	})
	return layout.SplitFields(thresholdBase, layout.Spec{
		2,
		"Cell High Voltage Threshold", "Cell Low Voltage Threshold",
		"Cell High Temperature Threshold", "Cell High Resistance Threshold",
		"String High Current Threshold",

		1,
		"Alarm Delay", "Alarm Hysteresis",
		layout.Packed{"Voltage Alarms Enabled", "Temperature Alarms Enabled", "Resistance Alarms Enabled", "Relay Output Enabled"},
	}, layout.WithUnits(units))
}
