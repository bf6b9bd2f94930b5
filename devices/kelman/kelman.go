// Package kelman describes the register map of the Kelman TRANSFIX dissolved
// gas analyser.
package kelman

import (
	"fmt"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/layout"
)

// Name is the registry key of the Kelman device.
const Name = "kelman"

// DefaultBaseOffset converts the one-based register numbers of the device
// manual into zero-based protocol addresses.
const DefaultBaseOffset = -1

func init() {
	devices.Register(Name, New)
}

type table struct {
	title  string
	blocks []layout.Block
}

func single(title string, start int, spec layout.Spec) table {
	return table{title: title, blocks: []layout.Block{{Start: start, Fields: spec}}}
}

func alarmTriple(title string, starts [3]int, build func(alarm int) layout.Spec) table {
	t := table{title: title}
	for i, start := range starts {
		t.blocks = append(t.blocks, layout.Block{Start: start, Fields: build(i + 1)})
	}
	return t
}

// catalogue returns the tables in output order, with the register numbers of
// the device manual.
func catalogue() []table {
	tables := []table{
		single("General Information", 1000, information()),
		single("Time", 1197, clock()),
	}
	for alarm := 1; alarm <= 4; alarm++ {
		tables = append(tables, single(fmt.Sprintf("TransOpto Alarm %d Settings", alarm), 2000+alarm*100, transOptoAlarm(alarm)))
	}
	tables = append(tables, single("Peripheral Device Scheduler Settings", 2655, peripheralScheduler()))

	for input := 1; input <= 3; input++ {
		base := 2800 + (input-1)*60
		in := input
		tables = append(tables, alarmTriple(
			fmt.Sprintf("Digital Input %d Alarm 1, 2, and 3 Settings", input),
			[3]int{base, base + 20, base + 40},
			func(alarm int) layout.Spec { return digitalInputAlarm(in, alarm) },
		))
	}
	for input := 1; input <= 6; input++ {
		base := 3040 + (input-1)*100
		in := input
		tables = append(tables, alarmTriple(
			fmt.Sprintf("Analog Input %d Alarm 1, 2, and 3 Settings", input),
			[3]int{base, base + 20, base + 40},
			func(alarm int) layout.Spec { return analogInputAlarm(in, alarm) },
		))
	}
	tables = append(tables, table{
		title: "PreSens O2 Sensor 1 and 2 Configuration Settings",
		blocks: []layout.Block{
			{Start: 3700, Fields: o2Sensor(1)},
			{Start: 3740, Fields: o2Sensor(2)},
		},
	})

	for i, source := range []string{"A", "B", "C"} {
		base := 4000 + i*1000
		prefix := "Oil Source " + source
		tables = append(tables,
			single(prefix+" Settings", base, oilSourceSettings(source)),
			single(prefix+" Last Record (Float)", base+98, oilSourceLastRecordFloat(source)),
			single(prefix+" Last Record (Int)", base+198, oilSourceLastRecordInt(source)),
		)
		for alarm := 1; alarm <= 6; alarm++ {
			tables = append(tables, single(
				fmt.Sprintf("%s Alarm %d Settings", prefix, alarm),
				base+200+alarm*100,
				oilSourceAlarm(source, alarm),
			))
		}
		tables = append(tables, single(prefix+" Relative Saturation Alarm Settings", base+902, relativeSaturationAlarm(source)))
	}

	for i, source := range []string{"A", "B", "C"} {
		base := 7100 + i*200
		for ratio := 1; ratio <= 5; ratio++ {
			tables = append(tables, single(
				fmt.Sprintf("Oil Source %s Ratio %d Settings", source, ratio),
				base+(ratio-1)*20,
				oilSourceRatio(source, ratio),
			))
		}
	}

	analogStarts := []int{7998, 8050, 8100, 8150, 8200, 8250}
	for i, start := range analogStarts {
		tables = append(tables, single(fmt.Sprintf("Analog Input %d Last Record", i+1), start, analogInputLastRecord(i+1)))
	}
	tables = append(tables, single("TransOpto Last Record", 8298, transOptoLastRecord()))
	for input := 1; input <= 3; input++ {
		tables = append(tables, single(
			fmt.Sprintf("Digital Input %d Last Record", input),
			8348+(input-1)*50,
			digitalInputLastRecord(input),
		))
	}
	return tables
}

// Device builds the Kelman register map tables.
type Device struct {
	baseOffset int
}

// New creates the Kelman device. The optional base_offset setting replaces
// DefaultBaseOffset.
func New(settings map[string]interface{}) (devices.Device, error) {
	offset, err := devices.IntSetting(settings, "base_offset", DefaultBaseOffset)
	if err != nil {
		return nil, fmt.Errorf("kelman: %w", err)
	}
	for _, t := range catalogue() {
		for _, block := range t.blocks {
			if start := block.Start + offset; start < 0 {
				return nil, fmt.Errorf("kelman: table %q block %d: start register %d is negative after base_offset %d", t.title, block.Start, start, offset)
			}
		}
	}
	return &Device{baseOffset: offset}, nil
}

// Name implements devices.Device.
func (d *Device) Name() string { return Name }

// Tables implements devices.Device.
func (d *Device) Tables() ([]devices.Table, error) {
	catalog := catalogue()
	tables := make([]devices.Table, 0, len(catalog))
	for _, t := range catalog {
		blocks := make([]layout.Block, len(t.blocks))
		for i, block := range t.blocks {
			blocks[i] = layout.Block{Start: block.Start + d.baseOffset, Fields: block.Fields}
		}
		groups, err := layout.SplitBlocks(blocks)
		if err != nil {
			return nil, fmt.Errorf("kelman %s: %w", t.title, err)
		}
		tables = append(tables, devices.Table{Title: t.title, Groups: groups})
	}
	return tables, nil
}
