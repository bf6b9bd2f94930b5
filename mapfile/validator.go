package mapfile

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/timzifer/regmapgen/layout"
)

//go:embed schema/register-map-v1.json
var registerMapSchemaJSON string

// Validator checks register map documents against the embedded JSON schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded register map schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("register-map-v1.json",
		strings.NewReader(registerMapSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("register-map-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate checks encoded JSON against the schema.
func (v *Validator) Validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// ValidateDocument encodes the document and checks it against the schema
// and the record consistency rules.
func (v *Validator) ValidateDocument(doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := v.Validate(data); err != nil {
		return err
	}
	return Check(doc)
}

// Check verifies that every derived record references exactly the primitive
// records that precede it, in ascending register order.
func Check(doc Document) error {
	for _, seq := range doc.Sequences {
		for i, rec := range seq.Records {
			switch rec.Type {
			case layout.PrimitiveRecord:
				if _, err := strconv.Atoi(rec.Address); err != nil {
					return fmt.Errorf("sequence %q record %d: invalid register address %q", seq.Name, i, rec.Address)
				}
			case layout.DerivedRecord:
				if err := checkDerived(seq, i); err != nil {
					return err
				}
			default:
				return fmt.Errorf("sequence %q record %d: unknown record type %d", seq.Name, i, rec.Type)
			}
		}
	}
	return nil
}

func checkDerived(seq Sequence, index int) error {
	rec := seq.Records[index]
	_, registers, err := layout.ParseDerivedAddress(rec.Address)
	if err != nil {
		return fmt.Errorf("sequence %q record %d: %w", seq.Name, index, err)
	}
	first := index - len(registers)
	if first < 0 {
		return fmt.Errorf("sequence %q record %d: %d registers referenced but only %d records precede it", seq.Name, index, len(registers), index)
	}
	for k, reg := range registers {
		if k > 0 && reg != registers[k-1]+1 {
			return fmt.Errorf("sequence %q record %d: registers not contiguous at HR%d", seq.Name, index, reg)
		}
		prev := seq.Records[first+k]
		if prev.Type != layout.PrimitiveRecord || prev.Address != strconv.Itoa(reg) {
			return fmt.Errorf("sequence %q record %d: HR%d does not match preceding record %q", seq.Name, index, reg, prev.Address)
		}
	}
	return nil
}
