package compiler

import (
	"fmt"

	"github.com/roach88/hpmdl/internal/ast"
	"github.com/roach88/hpmdl/internal/ir"
	"github.com/roach88/hpmdl/internal/lower"
	"github.com/roach88/hpmdl/internal/typecheck"
)

// Result is everything one successful compile produced.
type Result struct {
	Program     *ast.Program                  // as built from source
	Checked     *typecheck.TypeCheckedProgram // the copy lowering read
	IR          *ir.Program
	Diagnostics []ValidationError // lint findings; never fatal
}

// Compile runs the whole pipeline on src. On failure no partial result is
// returned; the error names the stage:
//
//	parse failed: syntax error at 3:7: ...
//	typecheck failed: operator H: matrix size 2x2 but data len 6
func Compile(src string) (*Result, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	checked, err := typecheck.Check(prog)
	if err != nil {
		return nil, fmt.Errorf("typecheck failed: %w", err)
	}
	return &Result{
		Program:     prog,
		Checked:     checked,
		IR:          lower.Lower(checked.Program),
		Diagnostics: Validate(prog),
	}, nil
}
