package cellwatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/layout"
	"github.com/timzifer/regmapgen/mapfile"
)

func tablesFor(t *testing.T, settings map[string]interface{}) []devices.Table {
	t.Helper()
	dev, err := devices.New(Name, settings)
	require.NoError(t, err)
	tables, err := dev.Tables()
	require.NoError(t, err)
	return tables
}

func TestDefaultCategories(t *testing.T) {
	tables := tablesFor(t, nil)
	titles := make([]string, 0, len(tables))
	for _, tbl := range tables {
		titles = append(titles, tbl.Title)
	}
	require.Equal(t, []string{
		"System Information", "String Summary", "Cell Voltages",
		"Cell Temperatures", "Cell Resistances", "Alarm Thresholds",
	}, titles)
}

func TestCellBlocksArePaginated(t *testing.T) {
	voltages := tablesFor(t, nil)[2]
	require.Len(t, voltages.Groups, DefaultStrings*3)

	sizes := make([]int, 0, 3)
	for _, group := range voltages.Groups[:3] {
		sizes = append(sizes, len(group))
		require.LessOrEqual(t, layout.RegisterSpan(group), DefaultPageSize)
	}
	require.Equal(t, []int{100, 100, 56}, sizes)

	first := voltages.Groups[0][0]
	require.Equal(t, voltageBase, first.Start)
	require.Equal(t, "mV", first.Units)
	require.Equal(t, "String 1 Cell 1 Voltage (mV)", first.Records()[0].Description)

	secondString := voltages.Groups[3][0]
	require.Equal(t, voltageBase+CellsPerString, secondString.Start)
	require.Equal(t, "String 2 Cell 1 Voltage", secondString.Name)
}

func TestSettingsChangeLayout(t *testing.T) {
	tables := tablesFor(t, map[string]interface{}{"strings": 2, "page_size": 128})
	require.Len(t, tables[1].Groups, 2)
	require.Len(t, tables[3].Groups, 4)
	require.Len(t, tables[3].Groups[0], 128)
}

func TestSettingsValidation(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"too few strings":   {"strings": 0},
		"too many strings":  {"strings": MaxStrings + 1},
		"zero page size":    {"page_size": 0},
		"non numeric value": {"strings": "four"},
	}
	for name, settings := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(settings)
			require.Error(t, err)
		})
	}
}

func TestPackedStatusFlags(t *testing.T) {
	summary := tablesFor(t, map[string]interface{}{"strings": 1})[1]
	require.Len(t, summary.Groups, 1)

	var flags []layout.Field
	for _, f := range summary.Groups[0] {
		if f.Packed {
			flags = append(flags, f)
		}
	}
	require.Len(t, flags, 5)
	for _, f := range flags {
		require.Equal(t, summaryBase+16, f.Start)
	}
	require.Equal(t, "String 1 Voltage", summary.Groups[0][0].Name)
	require.Equal(t, "V", summary.Groups[0][0].Units)
}

func TestSystemInformationGroups(t *testing.T) {
	info := tablesFor(t, nil)[0]
	require.Len(t, info.Groups, 2)
	uptime := info.Groups[1][0]
	require.Equal(t, layout.Uint32, uptime.Type)
	require.Equal(t, 29, uptime.Start)
	require.Equal(t, "Uint32(HR29,HR30)", uptime.DerivedAddress())
	require.Equal(t, "seconds", uptime.Units)
}

func TestDocumentsValidate(t *testing.T) {
	v, err := mapfile.NewValidator()
	require.NoError(t, err)
	for _, tbl := range tablesFor(t, map[string]interface{}{"strings": MaxStrings}) {
		require.NoError(t, v.ValidateDocument(mapfile.NewDocument(tbl.Title, tbl.Groups)), tbl.Title)
	}
}
