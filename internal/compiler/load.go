package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/criteria/internal/ir"
)

// CompileFiles compiles each CUE file on its own and concatenates the
// entities in file order. Files share no scope, so an entity may refer to
// types declared in another file by name only.
func CompileFiles(paths ...string) ([]ir.EntitySpec, error) {
	ctx := cuecontext.New()
	var specs []ir.EntitySpec
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		v := ctx.CompileBytes(data, cue.Filename(p))
		s, err := CompileSchema(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		specs = append(specs, s...)
	}
	return specs, nil
}
