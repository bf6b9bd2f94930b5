package kelman

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/layout"
	"github.com/timzifer/regmapgen/mapfile"
)

func buildTables(t *testing.T) []devices.Table {
	t.Helper()
	dev, err := devices.New(Name, nil)
	require.NoError(t, err)
	tables, err := dev.Tables()
	require.NoError(t, err)
	return tables
}

func findTable(t *testing.T, tables []devices.Table, title string) devices.Table {
	t.Helper()
	for _, tbl := range tables {
		if tbl.Title == title {
			return tbl
		}
	}
	t.Fatalf("table %q not found", title)
	return devices.Table{}
}

func TestCatalogueTitles(t *testing.T) {
	tables := buildTables(t)
	require.Len(t, tables, 72)

	seen := make(map[string]bool, len(tables))
	for _, tbl := range tables {
		require.False(t, seen[tbl.Title], "duplicate title %s", tbl.Title)
		seen[tbl.Title] = true
	}

	require.Equal(t, "General Information", tables[0].Title)
	require.Equal(t, "Time", tables[1].Title)
	require.Equal(t, "Peripheral Device Scheduler Settings", tables[6].Title)
	require.Equal(t, "Oil Source A Settings", tables[17].Title)
	require.Equal(t, "Oil Source C Ratio 5 Settings", tables[61].Title)
	require.Equal(t, "Digital Input 3 Last Record", tables[71].Title)
}

func TestGeneralInformationGroups(t *testing.T) {
	tbl := findTable(t, buildTables(t), "General Information")
	require.Len(t, tbl.Groups, 6)

	first := tbl.Groups[0]
	require.Len(t, first, 3)
	require.Equal(t, layout.Field{Start: 999, Count: 16, Name: "Device ID", Type: layout.ASCII}, first[0])
	require.Equal(t, 1015, first[1].Start)
	require.Equal(t, 1022, first[1].End())
	require.Equal(t, 1023, first[2].Start)

	second := tbl.Groups[1]
	require.Len(t, second, 4)
	require.Equal(t, 1025, second[0].Start)
	firmware := second[3]
	require.Equal(t, "TRANSIFX Firmware Verion", firmware.Name)
	require.Equal(t, layout.Int32, firmware.Type)
	require.Equal(t, "Int32(HR1028,HR1029)", firmware.DerivedAddress())

	require.Equal(t, "Measurement Counter", tbl.Groups[2][0].Name)
	require.Equal(t, 1042, tbl.Groups[2][0].Start)
	require.Equal(t, 1044, tbl.Groups[3][0].Start)
	require.Equal(t, 1045, tbl.Groups[3][1].Start)
	require.Equal(t, 1050, tbl.Groups[4][0].Start)

	last := tbl.Groups[5]
	require.Len(t, last, 10)
	require.Equal(t, 1059, last[0].Start)
	require.Equal(t, "Alarm Reflash Enable", last[9].Name)
	require.Equal(t, 1068, last[9].Start)
}

func TestTimeGroups(t *testing.T) {
	tbl := findTable(t, buildTables(t), "Time")
	require.Len(t, tbl.Groups, 3)
	require.Equal(t, layout.Uint32, tbl.Groups[0][0].Type)
	require.Equal(t, "Time (UTC) in UNIX format", tbl.Groups[0][0].Name)
	require.Equal(t, 1196, tbl.Groups[0][0].Start)
	require.Equal(t, 1199, tbl.Groups[1][0].Start)
	require.Equal(t, 1265, tbl.Groups[2][0].Start)
	require.Equal(t, "Local Time: Seconds, Day of Week", tbl.Groups[2][3].Name)
}

func TestMultiBlockTable(t *testing.T) {
	tbl := findTable(t, buildTables(t), "Digital Input 2 Alarm 1, 2, and 3 Settings")
	require.Len(t, tbl.Groups, 3)
	for i, start := range []int{2859, 2879, 2899} {
		require.Len(t, tbl.Groups[i], 1)
		require.Equal(t, start, tbl.Groups[i][0].Start)
		require.Equal(t, layout.Float32, tbl.Groups[i][0].Type)
	}
	require.Equal(t, "Digital Input 2 Alarm 3 Max Level of Transition Count", tbl.Groups[2][0].Name)
}

func TestOilSourceAlarmLayout(t *testing.T) {
	tbl := findTable(t, buildTables(t), "Oil Source A Alarm 1 Settings")
	require.Len(t, tbl.Groups, 2)
	require.Len(t, tbl.Groups[0], 23)

	spare := tbl.Groups[0][11]
	require.Equal(t, "Spare Register", spare.Name)
	require.Equal(t, 4321, spare.Start)
	require.Equal(t, 18, spare.Count)
	require.Equal(t, layout.ASCII, spare.Type)

	output := tbl.Groups[1][0]
	require.Equal(t, "Oil Source: A Alarm: 1 Output", output.Name)
	require.Equal(t, 4379, output.Start)
}

func TestBaseOffsetSetting(t *testing.T) {
	dev, err := New(map[string]interface{}{"base_offset": 0})
	require.NoError(t, err)
	tables, err := dev.Tables()
	require.NoError(t, err)
	require.Equal(t, 1000, tables[0].Groups[0][0].Start)

	_, err = New(map[string]interface{}{"base_offset": "x"})
	require.Error(t, err)

	dev, err = New(map[string]interface{}{"base_offset": -1000})
	require.NoError(t, err)
	tables, err = dev.Tables()
	require.NoError(t, err)
	require.Equal(t, 0, tables[0].Groups[0][0].Start)

	_, err = New(map[string]interface{}{"base_offset": -1001})
	require.ErrorContains(t, err, "negative after base_offset")
}

func TestGeneratedDocumentsValidate(t *testing.T) {
	v, err := mapfile.NewValidator()
	require.NoError(t, err)
	for _, tbl := range buildTables(t) {
		doc := mapfile.NewDocument(tbl.Title, tbl.Groups)
		require.NoError(t, v.ValidateDocument(doc), tbl.Title)
	}
}

func TestTablesDeterministic(t *testing.T) {
	first := buildTables(t)
	second := buildTables(t)
	require.Equal(t, first, second)
}

func TestDocumentsMatchReferenceOutput(t *testing.T) {
	tables := buildTables(t)
	for _, title := range []string{
		"General Information",
		"Time",
		"Oil Source A Alarm 1 Settings",
		"Digital Input 2 Alarm 1, 2, and 3 Settings",
	} {
		t.Run(title, func(t *testing.T) {
			want, err := os.ReadFile(filepath.Join("testdata", mapfile.FileName(title)))
			require.NoError(t, err)

			tbl := findTable(t, tables, title)
			got, err := mapfile.Marshal(mapfile.NewDocument(tbl.Title, tbl.Groups))
			require.NoError(t, err)
			require.Equal(t, string(want), string(got))
		})
	}
}
