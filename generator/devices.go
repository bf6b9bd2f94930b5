package generator

import (
	"fmt"
	"sort"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/devices/custom"
	"github.com/timzifer/regmapgen/internal/config"
)

// Resolve instantiates the devices selected by the configuration: every
// registered device that is not disabled plus every custom layout. When
// names are given only those devices are returned, in the given order.
func Resolve(cfg *config.Config, names ...string) ([]devices.Device, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	registered := devices.RegisteredNames()
	known := make(map[string]bool, len(registered))
	for _, name := range registered {
		known[name] = true
	}
	for _, dev := range cfg.Devices {
		if !known[dev.Name] {
			return nil, fmt.Errorf("configured device %s is not registered", dev.Name)
		}
	}

	available := make(map[string]devices.Device)
	var order []string
	disabled := make(map[string]bool)
	for _, name := range registered {
		override, _ := cfg.Device(name)
		if override.Disable {
			disabled[name] = true
			continue
		}
		dev, err := devices.New(name, override.Settings)
		if err != nil {
			return nil, err
		}
		available[name] = dev
		order = append(order, name)
	}
	for _, path := range cfg.Layouts {
		dev, err := custom.Load(path)
		if err != nil {
			return nil, err
		}
		if _, exists := available[dev.Name()]; exists || known[dev.Name()] {
			return nil, fmt.Errorf("layout %s: device name %s already in use", path, dev.Name())
		}
		available[dev.Name()] = dev
		order = append(order, dev.Name())
	}

	if len(names) == 0 {
		out := make([]devices.Device, 0, len(order))
		for _, name := range order {
			out = append(out, available[name])
		}
		return out, nil
	}

	out := make([]devices.Device, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		dev, ok := available[name]
		if !ok {
			if disabled[name] {
				return nil, fmt.Errorf("device %s is disabled in the configuration", name)
			}
			return nil, fmt.Errorf("unknown device %s (available: %v)", name, sortedKeys(available))
		}
		out = append(out, dev)
	}
	return out, nil
}

func sortedKeys(m map[string]devices.Device) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
