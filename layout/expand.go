package layout

import (
	"errors"
	"fmt"
	"strings"
)

// Unused is the sentinel field name that reserves registers without emitting records.
const Unused = "Unused"

const (
	intMarker  = "[int]"
	uintMarker = "[uint]"
)

var (
	// ErrNoWidth reports a field name that appears before any width marker.
	ErrNoWidth = errors.New("field declared before registers-per-field width")
	// ErrInvalidWidth reports a width marker below one.
	ErrInvalidWidth = errors.New("registers-per-field width must be positive")
	// ErrPackedWidth reports a packed flag group outside of a width-1 section.
	ErrPackedWidth = errors.New("packed flags require a registers-per-field width of 1")
	// ErrInvalidElement reports a compact spec element of an unsupported kind.
	ErrInvalidElement = errors.New("invalid compact spec element")
)

// Spec is the compact layout notation: an int sets the number of registers
// per field for all following names, a string names a field, and a Packed
// group declares bit flags sharing a single register.
type Spec []any

// Packed lists flag names that share one register.
type Packed []string

// Block anchors a compact spec at an absolute start register.
type Block struct {
	Start  int
	Fields Spec
}

// Option customises the expansion of a compact spec.
type Option func(*options)

type options struct {
	units UnitFunc
}

// WithUnits assigns units to fields by name.
func WithUnits(fn UnitFunc) Option {
	return func(o *options) {
		o.units = fn
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// ExpandFields expands a compact spec starting at the given register into
// primitive and derived records.
func ExpandFields(start int, spec Spec, opts ...Option) ([]Record, error) {
	fields, err := Fields(start, spec, opts...)
	if err != nil {
		return nil, err
	}
	return Records(fields), nil
}

// Fields expands a compact spec into its fields, skipping unused ranges.
func Fields(start int, spec Spec, opts ...Option) ([]Field, error) {
	var fields []Field
	err := walk(start, spec, buildOptions(opts), func(f Field) {
		fields = append(fields, f)
	}, nil)
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// SplitFields expands a compact spec into groups of fields. Every Unused
// entry closes the current group, even when it is empty; a trailing group is
// kept only when it holds fields.
func SplitFields(start int, spec Spec, opts ...Option) ([][]Field, error) {
	var groups [][]Field
	current := []Field{}
	err := walk(start, spec, buildOptions(opts), func(f Field) {
		current = append(current, f)
	}, func() {
		groups = append(groups, current)
		current = []Field{}
	})
	if err != nil {
		return nil, err
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups, nil
}

// FieldsOf expands several blocks into one flat field list.
func FieldsOf(blocks []Block, opts ...Option) ([]Field, error) {
	var fields []Field
	for _, block := range blocks {
		expanded, err := Fields(block.Start, block.Fields, opts...)
		if err != nil {
			return nil, fmt.Errorf("block at %d: %w", block.Start, err)
		}
		fields = append(fields, expanded...)
	}
	return fields, nil
}

// SplitBlocks splits every block on its Unused entries and concatenates the groups.
func SplitBlocks(blocks []Block, opts ...Option) ([][]Field, error) {
	var groups [][]Field
	for _, block := range blocks {
		split, err := SplitFields(block.Start, block.Fields, opts...)
		if err != nil {
			return nil, fmt.Errorf("block at %d: %w", block.Start, err)
		}
		groups = append(groups, split...)
	}
	return groups, nil
}

func walk(start int, spec Spec, o options, emit func(Field), gap func()) error {
	current := start
	width := 0
	for i, element := range spec {
		switch v := element.(type) {
		case int:
			if v <= 0 {
				return fmt.Errorf("element %d: %w: %d", i, ErrInvalidWidth, v)
			}
			width = v
		case string:
			if width == 0 {
				return fmt.Errorf("element %d (%q): %w", i, v, ErrNoWidth)
			}
			if v == Unused {
				current += width
				if gap != nil {
					gap()
				}
				continue
			}
			field, err := newField(current, width, v, o)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			emit(field)
			current += width
		case Packed:
			if width == 0 {
				return fmt.Errorf("element %d: %w", i, ErrNoWidth)
			}
			if width != 1 {
				return fmt.Errorf("element %d: %w (width %d)", i, ErrPackedWidth, width)
			}
			if len(v) == 0 {
				return fmt.Errorf("element %d: %w: empty packed group", i, ErrInvalidElement)
			}
			for _, name := range v {
				field, err := newField(current, 1, name, o)
				if err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
				field.Packed = true
				emit(field)
			}
			current++
		default:
			return fmt.Errorf("element %d: %w: %T", i, ErrInvalidElement, element)
		}
	}
	return nil
}

func newField(start, width int, raw string, o options) (Field, error) {
	name, valueType := classify(raw, width)
	if strings.TrimSpace(name) == "" {
		return Field{}, fmt.Errorf("%w: empty field name", ErrInvalidElement)
	}
	field := Field{
		Start: start,
		Count: width,
		Name:  name,
		Type:  valueType,
	}
	if o.units != nil {
		if units, ok := o.units(name); ok {
			field.Units = units
		}
	}
	return field, nil
}

func classify(raw string, width int) (string, ValueType) {
	switch {
	case strings.Contains(raw, intMarker):
		return strings.ReplaceAll(raw, intMarker, ""), Int32
	case strings.Contains(raw, uintMarker):
		return strings.ReplaceAll(raw, uintMarker, ""), Uint32
	}
	switch width {
	case 1:
		return raw, Raw16
	case 2:
		return raw, Float32
	case 3:
		return raw, Grouped
	case 4:
		return raw, Int64
	default:
		return raw, ASCII
	}
}
