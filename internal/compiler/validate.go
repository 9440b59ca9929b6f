package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/hpmdl/internal/ast"
)

// Lint diagnostic codes (E100-E199). None of them stop a compile.
const (
	ErrDuplicateAxiom      = "E101" // axiom name declared twice
	ErrDuplicateOperator   = "E102" // operator name declared twice
	ErrDuplicateConstraint = "E103" // constraint name declared twice
	ErrRepeatedBodyItem    = "E104" // body item kind repeated, last one wins
	ErrSparseLoweredDense  = "E105" // sparse storage declared, lowered as dense
	ErrUnresolvedRef       = "E106" // hamiltonian = NAME names no operator
	ErrAxiomCycle          = "E107" // axioms reference each other in a cycle
	ErrShadowedBackend     = "E108" // more than one backend kind declared
)

// ValidationError is one lint finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate lints a built program and returns every finding. It does not
// stop at the first one.
func Validate(prog *ast.Program) []ValidationError {
	if prog == nil {
		return nil
	}
	var errs []ValidationError

	seen := make(map[string]bool)
	for i, ax := range prog.Axioms {
		if seen[ax.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("axioms[%d].name", i),
				Message: fmt.Sprintf("duplicate axiom name: %q", ax.Name),
				Code:    ErrDuplicateAxiom,
				Line:    ax.Line,
			})
		}
		seen[ax.Name] = true
	}

	operators := make(map[string]bool)
	for i, op := range prog.Operators {
		if operators[op.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("operators[%d].name", i),
				Message: fmt.Sprintf("duplicate operator name: %q", op.Name),
				Code:    ErrDuplicateOperator,
				Line:    op.Line,
			})
		}
		operators[op.Name] = true
		errs = append(errs, validateOperator(i, op)...)
	}

	if st := prog.InitialState; st != nil {
		if ref := st.HamiltonianRef(); ref != "" && !operators[ref] {
			errs = append(errs, ValidationError{
				Field:   "initial_state.hamiltonian",
				Message: fmt.Sprintf("state %q references unknown operator %q", st.Name, ref),
				Code:    ErrUnresolvedRef,
				Line:    st.Line,
			})
		}
	}

	for _, w := range AnalyzeCycles(prog.Axioms) {
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("axioms[%d].expression", w.Index),
			Message: w.Message,
			Code:    ErrAxiomCycle,
			Line:    w.Line,
		})
	}

	clear(seen)
	for i, c := range prog.Constraints {
		if seen[c.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("constraints[%d].name", i),
				Message: fmt.Sprintf("duplicate constraint name: %q", c.Name),
				Code:    ErrDuplicateConstraint,
				Line:    c.Line,
			})
		}
		seen[c.Name] = true
	}

	return errs
}

func validateOperator(i int, op ast.Operator) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("operators[%d].spec", i)

	counts := make(map[ast.BackendKind]int)
	for _, k := range op.Spec.Items {
		counts[k]++
	}
	for _, k := range []ast.BackendKind{ast.BackendMatrix, ast.BackendTensorNetwork, ast.BackendGPUKernel} {
		if counts[k] > 1 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("operator %q declares %s %d times; the last one wins", op.Name, k, counts[k]),
				Code:    ErrRepeatedBodyItem,
				Line:    op.Line,
			})
		}
	}

	selected, ok := op.Spec.Backend()
	if ok && selected == ast.BackendMatrix && op.Spec.Matrix.Sparse {
		errs = append(errs, ValidationError{
			Field:   field + ".matrix",
			Message: fmt.Sprintf("operator %q declares sparse storage but is lowered as a dense matrix", op.Name),
			Code:    ErrSparseLoweredDense,
			Line:    op.Line,
		})
	}

	if declared := op.Spec.Declared(); ok && len(declared) > 1 {
		names := make([]string, len(declared))
		for j, k := range declared {
			names[j] = k.String()
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("operator %q declares %s; only %s is lowered", op.Name, strings.Join(names, ", "), selected),
			Code:    ErrShadowedBackend,
			Line:    op.Line,
		})
	}
	return errs
}
