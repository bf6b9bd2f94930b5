package kelman

import (
	"fmt"

	"github.com/timzifer/regmapgen/layout"
)

func information() layout.Spec {
	return layout.Spec{
		16,
		"Device ID",

		8,
		"Serial Number",

		1,
		"Firmware Version", layout.Unused,
		"Number of Oil Sources Available", "TRANSFIX Class", "Chosen User Language",

		2,
		"TRANSIFX Firmware Verion[int]",

		12,
		layout.Unused,

		1,
		"Measurement Counter", layout.Unused, "Heartbeat", "Normal State",

		4,
		layout.Unused,

		1,
		"Measuring / Standby", "Scheduler Enable",

		7,
		layout.Unused,

		1,
		"Caution Indicator", "Alarm Indicator", "Service Indicator", "Relay 2", "Relay 3",
		"Relay 4", "Relay 5", "Relay 6", "Relay 7", "Alarm Reflash Enable",
	}
}

func clock() layout.Spec {
	return layout.Spec{
		2,
		"Time (UTC) in UNIX format[uint]",

		1,
		layout.Unused,

		1,
		"UTC Clock: Years", "UTC Clock: Months, Days", "UTC Clock: Hours, Minutes", "UTC Clock: Seconds, Day of Week",

		62,
		layout.Unused,

		1,
		"Local Time: Years", "Local Time: Months, Days", "Local Time: Hours, Minutes", "Local Time: Seconds, Day of Week",
	}
}

func transOptoAlarm(alarm int) layout.Spec {
	spec := layout.Spec{2}
	for _, limit := range []string{"Min Limit of Value", "Max Limit of Value", "Max Positive Limit of RoC"} {
		for channel := 1; channel <= 8; channel++ {
			spec = append(spec, fmt.Sprintf("TransOpto Channel %d %s", channel, limit))
		}
	}
	for i := 0; i < 8; i++ {
		spec = append(spec, "Spare")
	}
	// The alarm output register carries the alarm masks as one raw value.
	return append(spec,
		1,
		fmt.Sprintf("TransOpto Alarm %d Output", alarm),
		fmt.Sprintf("TransOpto Time Window for Alarm %d ROC Calculation (Hours)", alarm),
		fmt.Sprintf("TransOpto Minimum Number of Samples for Alarm %d ROC Calculation", alarm),
	)
}

func peripheralScheduler() layout.Spec {
	return layout.Spec{
		1,
		"Measurement Scheduling Mode for Peripheral Devices",
		"Measurement Schedule For Peripheral Devices in Normal Mode",
		"Measurement Schedule For Peripheral Devices in Caution Mode",
		"Measurement Schedule For Peripheral Devices in Alarm Mode",
		"Next Measurement: Years (GMT Time)",
		"Next Measurement: Month, Days (GMT Time)",
		"Next Measurement: Hours, Minutes (GMT Time)",
	}
}

func digitalInputAlarm(input, alarm int) layout.Spec {
	return layout.Spec{
		2,
		fmt.Sprintf("Digital Input %d Alarm %d Max Level of Transition Count", input, alarm),
	}
}

// Labels must stay byte-identical to previously generated files, including
// the missing space before "Max" and "Output".
func analogInputAlarm(input, alarm int) layout.Spec {
	prefix := fmt.Sprintf("Analog Input %d Alarm %d", input, alarm)
	return layout.Spec{
		2,
		prefix + " Min Limit of Value", prefix + "Max Limit of Value",
		prefix + "Max Positive Limit of RoC", "Spare",

		1,
		prefix + "Output Alerts", prefix + " Time Window (hours) for ROC Calculation",
		prefix + " Min Number of Samples for ROC Calculation",
	}
}

func o2Sensor(sensor int) layout.Spec {
	return layout.Spec{
		1,
		fmt.Sprintf("O2 Sensor %d Enable", sensor), fmt.Sprintf("O2 Sensor %d Modbus Address", sensor),
	}
}

var calibrationGases = []string{
	"Hydrogen", "Carbon Dioxide", "Carbon Monoxide", "Ethylene", "Ethane",
	"Methane", "Acetylene", "Water", "Oxygen", "Nitrogen",
}

func oilSourceSettings(source string) layout.Spec {
	spec := layout.Spec{
		8,
		"Oil Source " + source + " ID String",

		1,
		"Measurement Scheduling Mode for Oil Source " + source,
		"Measurement Schedule for Oil Source " + source + " in Normal Mode",
		"Measurement Schedule for Oil Source " + source + " in Caution Mode",
		"Measurement Schedule for Oil Source " + source + " in Alarm Mode",
		"Enables/Disables the Oil Source, Used in MultiTrans Only",
		"Oil Source " + source + " Scheduler Control",

		6,
		layout.Unused,

		1,
	}
	for _, gas := range calibrationGases {
		spec = append(spec,
			gas+" Conc. Calibration Gain in %",
			gas+" Conc. Calibration Offset in PPM",
		)
	}
	return append(spec,
		10,
		layout.Unused,

		1,
		"Next Measurement (UTC/Local): Years",
		"Next Measurement (UTC/Local): Month, Days",
		"Next Measurement (UTC/Local): Hours, Minutes",
	)
}

func oilSourceLastRecordFloat(source string) layout.Spec {
	spec := layout.Spec{
		2,
		"Record Date and Time(UTC) in UNIX Format[uint]",

		1,
		"Record Number", "Record Oil Source", "Record Date (UTC/Local): Years", "Record Date (UTC/Local): Months, Days",
		"Record Time (UTC/Local): Hours, Minutes", "PGA Firmware Version", "Host Firmware Version",
		"Gas Conc. Level Alarm Status", "Gas ROC Alarm Status", "Transfix Status", "Measurement Flags",
		"PGA State (If Error Occurred)",

		2,
		"PGA Error Codes",

		1,
		"Measurement Duration (Seconds)", "Ratio Alarm Status",

		2,
	}
	prefix := "Oil Source " + source + " "
	concentrations := []string{
		"Hydrogen", "Carbon Dioxide", "Carbon Monoxide", "Ethylene", "Ethane", "Methane", "Acetylene",
		"Water", "Oxygen", "Total Disolved Combustible Gas", "Nitrogen", "Total Dissolved Gas",
	}
	for _, c := range concentrations {
		spec = append(spec, prefix+c+" Conc. (PPM)")
	}
	for _, m := range []string{"Oil Pressure (kPa)", "Oil Temperature (C)", "Ambient Temperature (C)", "Normalisation Temperature (C)"} {
		spec = append(spec, prefix+m)
	}
	for i := 1; i <= 6; i++ {
		name := fmt.Sprintf("%sAnalog Input %d", prefix, i)
		if i == 1 {
			name += " (Transformer Load)"
		}
		spec = append(spec, name)
	}
	final := []string{
		"Spare Register", "ESHL (Estimated Safe Handling Limit) (%)",
		"Relative Saturation (%)", "TDH (Total Dissolved Hydrocarbons (PPM)",
	}
	for _, m := range final {
		spec = append(spec, prefix+m)
	}
	return spec
}

func oilSourceLastRecordInt(source string) layout.Spec {
	spec := layout.Spec{2, "Record Date and Time (UTC) Unix Format[int]", 1}
	prefix := "Oil Source " + source + " "

	head := []string{
		"Record Number", "Record Oil Source", "Record Date (UTC/Local): Years", "Record Date (UTC/Local): Monts, Days",
		"Record Date (UTC/Local): Hours, Minutes", "PGA Firmware Version", "Host Firmware Version",
		"Gas Conc. Level Alarm Status", "Gas ROC Alarm Status", "Transfix Status", "Measurement Flags",
		"PGA State (If Error Occured)",
	}
	for _, f := range head {
		spec = append(spec, prefix+f)
	}

	spec = append(spec, 2, "PGA Error Codes", 1, "Measurement Duration", "Ratio Alarm Status")

	gases := []string{
		"Hydrogen", "Carbon Dioxide", "Carbon Monoxide", "Ethylene", "Ethane", "Methane", "Acetylene",
		"Water", "Oxygen", "Total Disolved Combustible Gas", "Nitrogen", "TDG (Total Dissolved Gas)",
	}
	for _, gas := range gases {
		spec = append(spec, prefix+gas+" Conc. (PPM)")
	}

	tail := []string{
		"Oil Pressure (.1 kPa)", "Oil Temperature (.1 C)", "Ambient Temperature (.1 C)",
		"Normalisation Temperature (C)", "Analogue Input 1 (Transformer Load)", "Analogue Input 2",
		"Analogue Input 3", "Analogue Input 4", "Analogue Input 5", "Analogue Input 6", "Spare Registers",
		"ESHL (Estimated Safe Handling Limit) (%)", "Relative Saturation (.1 %)",
		"TDH (Total Dissolved Hydrocarbons) (PPM)", "Total Dissolved Gas Conc. (10 PPM)",
		"Nitrogen Conc. (10 PPM)", "TDG (Total Dissolved Gas (10 PPM)",
	}
	for _, f := range tail {
		spec = append(spec, prefix+f)
	}
	return spec
}

var alarmGases = []string{
	"Hydrogen", "Carbon Dioxide", "Carbon Monoxide", "Ethylene", "Ethane",
	"Methane", "Acetylene", "Water", "Oxygen", "Total Dissolved Combustible Gas",
	"Nitrogen",
}

func oilSourceAlarm(source string, alarm int) layout.Spec {
	prefix := fmt.Sprintf("Oil Source: %s Alarm: %d ", source, alarm)
	spec := layout.Spec{2}
	for _, gas := range alarmGases {
		spec = append(spec, prefix+gas+" Conc. Limit")
	}
	spec = append(spec, 18, "Spare Register", 2)
	for _, gas := range alarmGases {
		spec = append(spec, prefix+gas+" ROC Limit")
	}
	spec = append(spec, 18, layout.Unused, 1)
	for _, f := range []string{"Output", "Time Window (in hours) for ROC Calculation", "Minimum Number of Samples for ROC Calculation"} {
		spec = append(spec, prefix+f)
	}
	return spec
}

func relativeSaturationAlarm(source string) layout.Spec {
	return layout.Spec{
		2, "Oil Source " + source + " Relative Saturation Upper Limit in Percent",
		1, "Oil Source " + source + " Relative Saturation Alarm Output",
	}
}

func oilSourceRatio(source string, ratio int) layout.Spec {
	prefix := fmt.Sprintf("Oil Source %s Ratio %d ", source, ratio)
	return layout.Spec{
		8, prefix + "Name",
		1, prefix + "Numerator", prefix + "Denominator",
		2, prefix + "Upper Limit", prefix + "Lower Limit",
		1, prefix + "Enable", prefix + "Alarm Output",
		2, prefix + "Value From Last Measurement",
		1, prefix + "Output Flags From Last Measurement",
	}
}

func analogInputLastRecord(input int) layout.Spec {
	prefix := fmt.Sprintf("Analog Input %d ", input)
	return layout.Spec{
		2,
		prefix + "Record Date and Time (UTC) in Unix Format[int]",

		1,
		prefix + "Record Number", prefix + "Oil Source", prefix + "Record Date (UTC/Local) Year",
		prefix + "Record Date (UTC/Local) Month, Day", prefix + "Record Time (UTC/Local) Hours, Minutes",
		prefix + "Input Number", prefix + "Type of Analog Input",

		5,
		prefix + "Name",

		2,
		prefix + "Units",

		1,
		prefix + "Alarm Status (Reason for Alarm)", prefix + "Alarm Output",

		2,
		prefix + "PGA Value (Float)",

		1,
		prefix + "PGA Value (Int)",

		2,
		"Spare",
	}
}

func transOptoLastRecord() layout.Spec {
	spec := layout.Spec{
		2,
		"Record Date and Time (UTC) UNIX Format[uint]",

		1,
		"Record Number", "Record Oil Source", "Record Date (UTC/Local): Years", "Record Date (UTC/Local): Months, Days",
		"Record Time (UTC/Local): Hours, Minutes", "Spare", "Spare", "TransOpto Units", "TransOpto Calibration Type",
		"Alarm Status HI Word", "Alarm Status LO Word", "TransOpto Alarm Output Flags From Last Measurement",
	}
	for channel := 1; channel <= 8; channel++ {
		spec = append(spec, fmt.Sprintf("TransOpto Channel %d Current Value", channel))
	}
	return append(spec, "Spare")
}

func digitalInputLastRecord(input int) layout.Spec {
	source := fmt.Sprintf("Digital Input %d", input)
	return layout.Spec{
		2,
		"Record Date and Time (UTC) UNIX Format[uint]",

		1,
		"Record Number", "Record Oil Source", "Record Date (UTC/Local): Year", "Record Date (UTC/Local): Month, Day",
		"Record Time (UTC/Local): Hours, Minutes", "Input Number", source + " Type",

		5,
		source + " Name",

		1,
		source + " Result Status", source + " Output Flags", source + " Value (ON/OFF)",

		2,
		"Number of " + source + " Transition Since Last " + source + " Enable", "Spare", "Spare",
	}
}
