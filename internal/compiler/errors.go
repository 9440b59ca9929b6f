package compiler

import (
	"fmt"

	"github.com/roach88/hpmdl/internal/grammar"
)

// BuildError reports a parse tree the builder cannot turn into a program.
// The grammar accepts some shapes the data model does not, such as a
// second state declaration.
type BuildError struct {
	Field   string
	Message string
	Pos     grammar.Pos
}

func (e *BuildError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
