// Package typecheck performs the shallow shape checks HPM-DL needs before
// lowering: matrix literals must fill their declared size, and the initial
// state must have dimensions.
package typecheck

import (
	"fmt"
	"math"

	"github.com/roach88/hpmdl/internal/ast"
)

// TypeError is the first shape violation found. Line is the declaration
// line when known.
type TypeError struct {
	Subject string // operator name, or "initial state"
	Message string
	Line    int
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Message)
}

// OperatorShape is the declared matrix shape of one operator.
type OperatorShape struct {
	Name    string
	Rows    int
	Cols    int
	HasData bool
}

// TypeInfo is what the checker learned about the program.
type TypeInfo struct {
	Operators []OperatorShape // operators with a matrix item, in order
	StateDims []int           // nil when there is no initial state
}

// TypeCheckedProgram pairs a private copy of the checked program with its
// TypeInfo. Later edits to the input do not affect it.
type TypeCheckedProgram struct {
	Program  *ast.Program
	TypeInfo TypeInfo
}

// TypeChecker checks programs. It holds no state between calls.
type TypeChecker struct{}

// New returns a TypeChecker.
func New() *TypeChecker {
	return &TypeChecker{}
}

// Check is shorthand for New().Check(prog).
func Check(prog *ast.Program) (*TypeCheckedProgram, error) {
	return New().Check(prog)
}

// Check validates prog and returns a checked copy, or the first
// *TypeError found. Operators are checked in declaration order before the
// initial state.
func (tc *TypeChecker) Check(prog *ast.Program) (*TypeCheckedProgram, error) {
	if prog == nil {
		prog = &ast.Program{}
	}

	var info TypeInfo
	for _, op := range prog.Operators {
		m := op.Spec.Matrix
		if m == nil {
			continue
		}
		if m.Data != nil && !fills(m.Rows, m.Cols, len(m.Data)) {
			return nil, &TypeError{
				Subject: "operator " + op.Name,
				Message: fmt.Sprintf("matrix size %dx%d but data len %d", m.Rows, m.Cols, len(m.Data)),
				Line:    op.Line,
			}
		}
		info.Operators = append(info.Operators, OperatorShape{
			Name:    op.Name,
			Rows:    m.Rows,
			Cols:    m.Cols,
			HasData: m.Data != nil,
		})
	}

	if st := prog.InitialState; st != nil {
		if len(st.Psi0.Dimensions) == 0 {
			return nil, &TypeError{
				Subject: "initial state",
				Message: "dimensions missing",
				Line:    st.Line,
			}
		}
		info.StateDims = append([]int(nil), st.Psi0.Dimensions...)
	}

	return &TypeCheckedProgram{Program: prog.Clone(), TypeInfo: info}, nil
}

// fills reports whether a rows x cols matrix holds exactly n elements.
// A product that would overflow int can never match.
func fills(rows, cols, n int) bool {
	if rows < 0 || cols < 0 {
		return false
	}
	if cols != 0 && rows > math.MaxInt/cols {
		return false
	}
	return rows*cols == n
}
