package devices

import (
	"fmt"
	"sort"
	"sync"

	"github.com/timzifer/regmapgen/layout"
)

// Table is one output file: a title and the field groups that become its sequences.
type Table struct {
	Title  string
	Groups [][]layout.Field
}

// Device builds the register map tables of one hardware device.
//
// Builders are pure data expansions: calling Tables twice must return the
// same result so that regenerated files are byte-identical.
type Device interface {
	Name() string
	Tables() ([]Table, error)
}

// Factory creates a device from its configuration settings.
type Factory func(settings map[string]interface{}) (Device, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a device factory available under the provided name.
func Register(name string, factory Factory) {
	if name == "" {
		panic("device name must not be empty")
	}
	if factory == nil {
		panic("device factory must not be nil")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("device factory for %s already registered", name))
	}
	registry[name] = factory
}

// New instantiates a registered device.
func New(name string, settings map[string]interface{}) (Device, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("device %s not registered", name)
	}
	return factory(settings)
}

// RegisteredNames returns the sorted names of all registered devices.
func RegisteredNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
