package layout

import (
	"strconv"
	"strings"
)

// ValueType describes how the registers of a field are combined.
type ValueType int

const (
	// Raw16 is a single 16-bit register without a derived value.
	Raw16 ValueType = iota
	// Float32 combines two registers into an IEEE-754 float.
	Float32
	// Int32 combines two registers into a signed integer.
	Int32
	// Uint32 combines two registers into an unsigned integer.
	Uint32
	// Int64 combines four registers into a signed integer.
	Int64
	// ASCII combines five or more registers into a string.
	ASCII
	// Grouped spans several registers without a dedicated value type.
	Grouped
)

// Tag returns the function name used in derived record addresses.
func (v ValueType) Tag() string {
	switch v {
	case Float32:
		return "Single"
	case Int32:
		return "Int32"
	case Uint32:
		return "Uint32"
	case Int64:
		return "Int64"
	case ASCII:
		return "String"
	default:
		return ""
	}
}

func (v ValueType) String() string {
	switch v {
	case Raw16:
		return "raw16"
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case ASCII:
		return "string"
	case Grouped:
		return "grouped"
	default:
		return "unknown"
	}
}

// RecordType distinguishes primitive register records from derived values.
type RecordType int

const (
	// PrimitiveRecord addresses a single holding register.
	PrimitiveRecord RecordType = 3
	// DerivedRecord combines several holding registers.
	DerivedRecord RecordType = 4
)

// Record is a single entry of an emitted sequence.
type Record struct {
	Type        RecordType `json:"recordType"`
	Address     string     `json:"address"`
	Description string     `json:"description"`
	DataValue   string     `json:"dataValue"`
}

// Field is one logical value in a device register map.
type Field struct {
	Start  int
	Count  int
	Name   string
	Type   ValueType
	Units  string
	Packed bool
}

// End returns the last register occupied by the field.
func (f Field) End() int {
	return f.Start + f.Count - 1
}

// Records renders the field as primitive records, followed by a derived
// record when the field spans more than one register.
func (f Field) Records() []Record {
	if f.Count <= 1 {
		return []Record{{
			Type:        PrimitiveRecord,
			Address:     strconv.Itoa(f.Start),
			Description: withUnits(f.Name, f.Units),
		}}
	}

	records := make([]Record, 0, f.Count+1)
	for i := 0; i < f.Count; i++ {
		records = append(records, Record{
			Type:        PrimitiveRecord,
			Address:     strconv.Itoa(f.Start + i),
			Description: f.Name + " " + positionSuffix(i, f.Count),
		})
	}
	records = append(records, Record{
		Type:        DerivedRecord,
		Address:     f.DerivedAddress(),
		Description: withUnits(f.Name, f.Units),
	})
	return records
}

// DerivedAddress returns the function expression that combines the field's
// registers, e.g. Int32(HR100,HR101).
func (f Field) DerivedAddress() string {
	var b strings.Builder
	b.WriteString(f.Type.Tag())
	b.WriteByte('(')
	for addr := f.Start; addr <= f.End(); addr++ {
		if addr != f.Start {
			b.WriteByte(',')
		}
		b.WriteString("HR")
		b.WriteString(strconv.Itoa(addr))
	}
	b.WriteByte(')')
	return b.String()
}

// Records renders all fields in order.
func Records(fields []Field) []Record {
	records := make([]Record, 0, len(fields))
	for _, field := range fields {
		records = append(records, field.Records()...)
	}
	return records
}

// RegisterSpan returns the number of registers between the first and the last
// register touched by the fields.
func RegisterSpan(fields []Field) int {
	if len(fields) == 0 {
		return 0
	}
	lo, hi := fields[0].Start, fields[0].End()
	for _, field := range fields[1:] {
		if field.Start < lo {
			lo = field.Start
		}
		if field.End() > hi {
			hi = field.End()
		}
	}
	return hi - lo + 1
}

func positionSuffix(index, count int) string {
	if count == 2 {
		if index == 0 {
			return "Low"
		}
		return "High"
	}
	return "[" + strconv.Itoa(index+1) + "]"
}

func withUnits(name, units string) string {
	if units == "" {
		return name
	}
	return name + " (" + units + ")"
}
