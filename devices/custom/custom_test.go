package custom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timzifer/regmapgen/layout"
	"github.com/timzifer/regmapgen/mapfile"
)

const yamlLayout = `
device: boiler
base_offset: -1
page_size: 6
units: pqube
unit_rules:
  - when: 'lower(name) contains "pressure"'
    unit: kPa
tables:
  - name: Boiler Status
    units:
      Burner Hours: h
    blocks:
      - start: 101
        fields:
          - 1
          - Burner State
          - [Flame Detected, Pump Running, Lockout]
          - Unused
          - 2
          - Supply Temperature
          - Water Pressure
          - Burner Hours[uint]
          - Apparent Power
`

const cueLayout = `package layouts

device: "meter"
tables: [{
	name: "Meter"
	blocks: [{
		start: 10
		fields: [2, "Line Frequency", 16, "Serial", 1, ["Relay A", "Relay B"]]
	}, {
		start: 40
		fields: [4, "Energy Counter"]
	}]
}]
`

func TestParseYAMLLayout(t *testing.T) {
	dev, err := Parse([]byte(yamlLayout), FormatYAML, "boiler.yaml")
	require.NoError(t, err)
	require.Equal(t, "boiler", dev.Name())
	require.Equal(t, "boiler.yaml", dev.Source())

	tables, err := dev.Tables()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	tbl := tables[0]
	require.Equal(t, "Boiler Status", tbl.Title)

	// Unused closes the first group; the float group spans 8 registers and
	// is paginated into 6-register pages.
	require.Len(t, tbl.Groups, 3)
	status := tbl.Groups[0]
	require.Len(t, status, 4)
	require.Equal(t, 100, status[0].Start)
	for _, flag := range status[1:] {
		require.True(t, flag.Packed)
		require.Equal(t, 101, flag.Start)
	}

	floats := append(append([]layout.Field{}, tbl.Groups[1]...), tbl.Groups[2]...)
	require.Len(t, floats, 4)
	require.Equal(t, 103, floats[0].Start)
	require.Equal(t, "Celsius", floats[0].Units)
	require.Equal(t, "kPa", floats[1].Units)
	require.Equal(t, "h", floats[2].Units)
	require.Equal(t, layout.Uint32, floats[2].Type)
	require.Equal(t, "VA", floats[3].Units)
	for _, group := range tbl.Groups[1:] {
		require.LessOrEqual(t, layout.RegisterSpan(group), 6)
	}

	v, err := mapfile.NewValidator()
	require.NoError(t, err)
	require.NoError(t, v.ValidateDocument(mapfile.NewDocument(tbl.Title, tbl.Groups)))
}

func TestParseCUELayout(t *testing.T) {
	dev, err := Parse([]byte(cueLayout), FormatCUE, "meter.cue")
	require.NoError(t, err)
	require.Equal(t, "meter", dev.Name())

	tables, err := dev.Tables()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	groups := tables[0].Groups
	require.Len(t, groups, 2)

	first := groups[0]
	require.Len(t, first, 4)
	require.Equal(t, "Single(HR10,HR11)", first[0].DerivedAddress())
	require.Empty(t, first[0].Units)
	require.Equal(t, layout.ASCII, first[1].Type)
	require.Equal(t, 12, first[1].Start)
	require.True(t, first[2].Packed)
	require.Equal(t, 28, first[3].Start)

	require.Equal(t, "Int64(HR40,HR41,HR42,HR43)", groups[1][0].DerivedAddress())
}

func TestCUESchemaRejectsInvalidLayouts(t *testing.T) {
	cases := map[string]string{
		"missing device":  `tables: [{name: "T", blocks: [{start: 0, fields: [1, "A"]}]}]`,
		"unknown field":   `device: "x", colour: "red", tables: []`,
		"negative width":  `device: "x", tables: [{name: "T", blocks: [{start: 0, fields: [-2, "A"]}]}]`,
		"bad units":       `device: "x", units: "imperial", tables: [{name: "T", blocks: [{start: 0, fields: [1, "A"]}]}]`,
		"syntax error":    `device: `,
		"negative start":  `device: "x", tables: [{name: "T", blocks: [{start: -5, fields: [1, "A"]}]}]`,
		"non concrete":    `device: string, tables: [{name: "T", blocks: [{start: 0, fields: [1, "A"]}]}]`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), FormatCUE, name+".cue")
			require.Error(t, err)
		})
	}
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]string{
		"no tables":        "device: x\n",
		"no device":        "tables: [{name: T, blocks: [{start: 0, fields: [1, A]}]}]\n",
		"duplicate table":  "device: x\ntables: [{name: T, blocks: [{start: 0, fields: [1, A]}]}, {name: T, blocks: [{start: 0, fields: [1, B]}]}]\n",
		"no blocks":        "device: x\ntables: [{name: T}]\n",
		"bool element":     "device: x\ntables: [{name: T, blocks: [{start: 0, fields: [1, true]}]}]\n",
		"bad packed entry": "device: x\ntables: [{name: T, blocks: [{start: 0, fields: [1, [A, 2]]}]}]\n",
		"bad rule":         "device: x\nunit_rules: [{when: 'name +', unit: V}]\ntables: [{name: T, blocks: [{start: 0, fields: [1, A]}]}]\n",
		"non bool rule":    "device: x\nunit_rules: [{when: 'name', unit: V}]\ntables: [{name: T, blocks: [{start: 0, fields: [1, A]}]}]\n",
		"negative start":   "device: x\nbase_offset: -1\ntables: [{name: T, blocks: [{start: 0, fields: [1, A]}]}]\n",
		"unknown units":    "device: x\nunits: metric\ntables: [{name: T, blocks: [{start: 0, fields: [1, A]}]}]\n",
		"invalid yaml":     "device: [\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), FormatYAML, name)
			require.Error(t, err)
		})
	}
}

func TestTablesReportExpansionErrors(t *testing.T) {
	dev, err := Parse([]byte("device: x\ntables: [{name: T, blocks: [{start: 0, fields: [A]}]}]\n"), FormatYAML, "x.yaml")
	require.NoError(t, err)
	_, err = dev.Tables()
	require.ErrorIs(t, err, layout.ErrNoWidth)
}

func TestLoadChoosesFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "boiler.yml")
	cuePath := filepath.Join(dir, "meter.cue")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlLayout), 0o600))
	require.NoError(t, os.WriteFile(cuePath, []byte(cueLayout), 0o600))

	dev, err := Load(yamlPath)
	require.NoError(t, err)
	require.Equal(t, "boiler", dev.Name())

	dev, err = Load(cuePath)
	require.NoError(t, err)
	require.Equal(t, "meter", dev.Name())

	_, err = Load(filepath.Join(dir, "layout.json"))
	require.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
