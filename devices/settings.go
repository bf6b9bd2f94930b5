package devices

import (
	"fmt"
	"math"
)

// IntSetting reads an integer setting, returning def when the key is absent.
func IntSetting(settings map[string]interface{}, key string, def int) (int, error) {
	if settings == nil {
		return def, nil
	}
	raw, ok := settings[key]
	if !ok || raw == nil {
		return def, nil
	}
	if v, ok := AsInt(raw); ok {
		return v, nil
	}
	switch raw.(type) {
	case string:
		return 0, fmt.Errorf("setting %s must be numeric, got string", key)
	case float32, float64:
		return 0, fmt.Errorf("setting %s must be an integer, got %v", key, raw)
	default:
		return 0, fmt.Errorf("setting %s has unsupported type %T", key, raw)
	}
}

// AsInt converts decoded YAML, JSON or CUE numbers to int. Floating point
// values are accepted only when they hold an integral value.
func AsInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case int16:
		return int(v), true
	case int8:
		return int(v), true
	case uint64:
		return int(v), true
	case uint32:
		return int(v), true
	case uint16:
		return int(v), true
	case uint8:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}
