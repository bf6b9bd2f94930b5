// Package custom loads user-defined register layouts from YAML or CUE files.
package custom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/timzifer/regmapgen/devices"
	"github.com/timzifer/regmapgen/layout"
)

// Format identifies the syntax of a layout file.
type Format string

const (
	// FormatYAML parses layouts written in YAML.
	FormatYAML Format = "yaml"
	// FormatCUE parses layouts written in CUE and checks them against the #Layout schema.
	FormatCUE Format = "cue"
)

// UnitsPQube enables the built-in PQube keyword inference.
const UnitsPQube = "pqube"

// Definition is the decoded form of a layout file.
type Definition struct {
	Device     string       `yaml:"device"`
	BaseOffset int          `yaml:"base_offset"`
	PageSize   int          `yaml:"page_size"`
	Units      string       `yaml:"units"`
	UnitRules  []UnitRule   `yaml:"unit_rules"`
	Tables     []TableEntry `yaml:"tables"`
}

// TableEntry describes one output file of a custom device.
type TableEntry struct {
	Name   string            `yaml:"name"`
	Units  map[string]string `yaml:"units"`
	Blocks []BlockEntry      `yaml:"blocks"`
}

// BlockEntry anchors compact fields at a start register. Fields holds ints,
// names, and nested name lists for packed flags.
type BlockEntry struct {
	Start  int           `yaml:"start"`
	Fields []interface{} `yaml:"fields"`
}

// Device expands a Definition into tables.
type Device struct {
	def    Definition
	blocks [][]layout.Block
	rules  *ruleSet
	source string
}

// Load reads a layout file, choosing the format from its extension.
func Load(path string) (*Device, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	return Parse(data, format, path)
}

// FormatOf maps a file extension to a layout format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("layout %s: unsupported file extension %q", path, filepath.Ext(path))
	}
}

// Parse decodes and validates a layout. source names the layout in errors.
func Parse(data []byte, format Format, source string) (*Device, error) {
	var def Definition
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("decode layout %s: %w", source, err)
		}
	case FormatCUE:
		normalized, err := evaluateCUE(data, source)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(normalized, &def); err != nil {
			return nil, fmt.Errorf("decode layout %s: %w", source, err)
		}
	default:
		return nil, fmt.Errorf("layout %s: unknown format %q", source, format)
	}
	dev, err := newDevice(def, source)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", source, err)
	}
	return dev, nil
}

func newDevice(def Definition, source string) (*Device, error) {
	def.Device = strings.TrimSpace(def.Device)
	if def.Device == "" {
		return nil, errors.New("device name is required")
	}
	if def.PageSize < 0 {
		return nil, fmt.Errorf("page_size must not be negative, got %d", def.PageSize)
	}
	switch def.Units {
	case "", UnitsPQube:
	default:
		return nil, fmt.Errorf("unknown units %q", def.Units)
	}
	if len(def.Tables) == 0 {
		return nil, errors.New("at least one table is required")
	}

	rules, err := compileRules(def.UnitRules)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(def.Tables))
	blocks := make([][]layout.Block, len(def.Tables))
	for i, table := range def.Tables {
		if strings.TrimSpace(table.Name) == "" {
			return nil, fmt.Errorf("table %d: name is required", i)
		}
		if _, dup := seen[table.Name]; dup {
			return nil, fmt.Errorf("table %q declared twice", table.Name)
		}
		seen[table.Name] = struct{}{}
		if len(table.Blocks) == 0 {
			return nil, fmt.Errorf("table %q: at least one block is required", table.Name)
		}
		for _, block := range table.Blocks {
			spec, err := toSpec(block.Fields)
			if err != nil {
				return nil, fmt.Errorf("table %q block %d: %w", table.Name, block.Start, err)
			}
			start := block.Start + def.BaseOffset
			if start < 0 {
				return nil, fmt.Errorf("table %q block %d: start register %d is negative after base_offset", table.Name, block.Start, start)
			}
			blocks[i] = append(blocks[i], layout.Block{Start: start, Fields: spec})
		}
	}
	return &Device{def: def, blocks: blocks, rules: rules, source: source}, nil
}

func toSpec(raw []interface{}) (layout.Spec, error) {
	spec := make(layout.Spec, 0, len(raw))
	for i, element := range raw {
		switch v := element.(type) {
		case string:
			spec = append(spec, v)
		case []interface{}:
			packed := make(layout.Packed, 0, len(v))
			for j, name := range v {
				s, ok := name.(string)
				if !ok {
					return nil, fmt.Errorf("field %d: packed entry %d must be a name, got %T", i, j, name)
				}
				packed = append(packed, s)
			}
			spec = append(spec, packed)
		default:
			width, ok := devices.AsInt(element)
			if !ok {
				return nil, fmt.Errorf("field %d: %w: %v (%T)", i, layout.ErrInvalidElement, element, element)
			}
			spec = append(spec, width)
		}
	}
	return spec, nil
}

// Name implements devices.Device.
func (d *Device) Name() string { return d.def.Device }

// Source returns the path or label the layout was loaded from.
func (d *Device) Source() string { return d.source }

// Tables implements devices.Device.
func (d *Device) Tables() ([]devices.Table, error) {
	tables := make([]devices.Table, 0, len(d.def.Tables))
	for i, entry := range d.def.Tables {
		units := d.unitsFor(entry)
		groups, err := layout.SplitBlocks(d.blocks[i], layout.WithUnits(units))
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", d.def.Device, entry.Name, err)
		}
		if d.rules.err != nil {
			return nil, fmt.Errorf("%s %s: %w", d.def.Device, entry.Name, d.rules.err)
		}
		if d.def.PageSize > 0 {
			groups, err = paginateGroups(groups, d.def.PageSize)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", d.def.Device, entry.Name, err)
			}
		}
		tables = append(tables, devices.Table{Title: entry.Name, Groups: groups})
	}
	return tables, nil
}

// unitsFor resolves explicit overrides first, then unit rules, then the
// built-in inference.
func (d *Device) unitsFor(entry TableEntry) layout.UnitFunc {
	chain := []layout.UnitFunc{layout.UnitTable(entry.Units), d.rules.resolve}
	if d.def.Units == UnitsPQube {
		chain = append(chain, layout.PQubeUnits)
	}
	return layout.ChainUnits(chain...)
}

func paginateGroups(groups [][]layout.Field, pageSize int) ([][]layout.Field, error) {
	out := make([][]layout.Field, 0, len(groups))
	for _, group := range groups {
		if len(group) == 0 {
			out = append(out, group)
			continue
		}
		pages, err := layout.Paginate(group, pageSize)
		if err != nil {
			return nil, err
		}
		out = append(out, pages...)
	}
	return out, nil
}
