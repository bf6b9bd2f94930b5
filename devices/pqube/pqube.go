// Package pqube describes the register map of the PQube power quality meter.
package pqube

import (
	"fmt"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/layout"
)

const (
	// Name is the registry key of the PQube device.
	Name = "pqube"
	// Title names the single output file.
	Title = "PQube"
	// BaseRegister is the first register of the PQube measurement block.
	BaseRegister = 7000
	// DefaultPageSize is the largest register span the adapter polls per sequence.
	DefaultPageSize = 100
)

func init() {
	devices.Register(Name, New)
}

func registers() layout.Spec {
	spec := layout.Spec{
		1,
		"Date and Time: Year", "Date and Time: Month", "Date and Time: Day",
		"Date and Time: Hour", "Date and Time: Minute", "Date and Time: Second",
		"PQube Status", "Max Current Event Date",

		2,
	}
	phases := []string{"L1", "L2", "L3"}
	for _, p := range []string{"L1-N", "L2-N", "L3-N", "N-E", "L1-L2", "L2-L3", "L3-L1"} {
		spec = append(spec, p+" Voltage")
	}
	for _, p := range []string{"L1-N", "L2-N", "L3-N"} {
		spec = append(spec, p+" Voltage Fundamental Angle")
	}
	for _, p := range append(phases, "N") {
		spec = append(spec, p+" Current")
	}
	spec = append(spec, "Frequency", "Voltage Unbalance (ANSI)", "Voltage Unbalance (IEC)", "Current Unbalance")
	for _, p := range phases {
		spec = append(spec, p+" Voltage THD", p+" Current TDD")
	}
	for _, p := range append(phases, "Total") {
		spec = append(spec, p+" Power", p+" Apparent Power", p+" Volt-Amps Reactive")
	}
	spec = append(spec,
		"True Power Factor", "Peak Demand Power",
		"Net Energy", "Apparent Energy",
		"Ambient Temperature", "Relative Humidity",
		"CO2 Emission Rate", "CO2 Emissions",
		"GPS Latitude", "GPS Longitude",
		"Analog 1 to Earth", "Analog 2 to Earth",
		"PT (Potential Transformer) Ratio", "Voltage Multiplier",
	)
	return spec
}

// Device builds the PQube register map.
type Device struct {
	pageSize int
}

// New creates the PQube device. The page_size setting bounds the register
// span of every sequence.
func New(settings map[string]interface{}) (devices.Device, error) {
	pageSize, err := devices.IntSetting(settings, "page_size", DefaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("pqube: %w", err)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("pqube: page_size must be positive, got %d", pageSize)
	}
	return &Device{pageSize: pageSize}, nil
}

// Name implements devices.Device.
func (d *Device) Name() string { return Name }

// Tables implements devices.Device.
func (d *Device) Tables() ([]devices.Table, error) {
	fields, err := layout.Fields(BaseRegister, registers(), layout.WithUnits(layout.PQubeUnits))
	if err != nil {
		return nil, fmt.Errorf("pqube: %w", err)
	}
	pages, err := layout.Paginate(fields, d.pageSize)
	if err != nil {
		return nil, fmt.Errorf("pqube: %w", err)
	}
	return []devices.Table{{Title: Title, Groups: pages}}, nil
}
