package custom

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema/layout.cue
var layoutSchema string

const schemaFile = "regmapgen/layout.cue"

var (
	cueOnce   sync.Once
	cueCtx    *cue.Context
	cueSchema cue.Value
	cueErr    error
	// cue.Context is not safe for concurrent use.
	cueMu sync.Mutex
)

func loadSchema() (*cue.Context, cue.Value, error) {
	cueOnce.Do(func() {
		cueCtx = cuecontext.New()
		root := cueCtx.CompileString(layoutSchema, cue.Filename(schemaFile))
		if err := root.Err(); err != nil {
			cueErr = fmt.Errorf("compile layout schema: %w", err)
			return
		}
		cueSchema = root.LookupPath(cue.ParsePath("#Layout"))
		if err := cueSchema.Err(); err != nil {
			cueErr = fmt.Errorf("lookup #Layout: %w", err)
		}
	})
	return cueCtx, cueSchema, cueErr
}

// evaluateCUE unifies a CUE layout with #Layout and returns the concrete
// result as JSON.
func evaluateCUE(data []byte, source string) ([]byte, error) {
	ctx, schema, err := loadSchema()
	if err != nil {
		return nil, err
	}
	cueMu.Lock()
	defer cueMu.Unlock()
	value := ctx.CompileBytes(data, cue.Filename(source))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile layout %s: %w", source, err)
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate layout %s: %w", source, err)
	}
	out, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export layout %s: %w", source, err)
	}
	return out, nil
}
