package layout

import "strings"

// UnitFunc resolves the physical unit of a field from its name.
type UnitFunc func(name string) (string, bool)

// FixedUnits assigns the same unit to every field.
func FixedUnits(unit string) UnitFunc {
	return func(string) (string, bool) {
		if unit == "" {
			return "", false
		}
		return unit, true
	}
}

// UnitTable assigns units by exact field name.
func UnitTable(table map[string]string) UnitFunc {
	return func(name string) (string, bool) {
		unit, ok := table[name]
		if !ok || unit == "" {
			return "", false
		}
		return unit, true
	}
}

// ChainUnits returns the first unit resolved by the provided functions.
func ChainUnits(fns ...UnitFunc) UnitFunc {
	return func(name string) (string, bool) {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if unit, ok := fn(name); ok {
				return unit, true
			}
		}
		return "", false
	}
}

// PQubeUnits infers units from keywords in the lower-cased field name. Rules
// are evaluated in order and the first match wins.
func PQubeUnits(name string) (string, bool) {
	n := strings.ToLower(name)
	has := func(keywords ...string) bool {
		for _, k := range keywords {
			if strings.Contains(n, k) {
				return true
			}
		}
		return false
	}

	switch {
	case has("frequency"):
		return "Hertz", true
	case has("temperature"):
		return "Celsius", true
	case has("humidity"):
		return "%RH", true
	case has("co2") && has("rate"):
		return "Grams per Hour", true
	case has("co2"):
		return "Grams", true
	case has("angle", "latitude", "longitude"):
		return "degrees", true
	case has("tdd", "thd"):
		if has("current") {
			return "RMS Amps", true
		}
		return "%", true
	case has("unbalance"):
		return "%", true
	case has("volt-amps reactive"):
		return "VAR", true
	case has("current") && !has("date"):
		return "RMS Amps", true
	case has("volt", " to ") && !has("multiplier"):
		return "RMS Volts", true
	case has("power") && !has("true", "configuration"):
		if has("apparent") {
			return "VA", true
		}
		return "Watts", true
	case has("energy"):
		if has("apparent") {
			return "VAh", true
		}
		return "Wh", true
	}
	return "", false
}
