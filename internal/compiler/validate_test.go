package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func mustParse(t *testing.T, src string) []ValidationError {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err)
	return Validate(prog)
}

func TestValidateCleanProgram(t *testing.T) {
	errs := mustParse(t, `
axiom a: x + y
operator H: hamiltonian { matrix(1, 1, dense) = [[1]] }
state psi: dense [2] hamiltonian = H
constraint c: entropy_bound x
`)
	assert.Empty(t, errs)
}

func TestValidateDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		codes []string
		msg   string
	}{
		{
			name:  "duplicate axiom",
			src:   "axiom a: x\naxiom a: y",
			codes: []string{ErrDuplicateAxiom},
			msg:   `duplicate axiom name: "a"`,
		},
		{
			name:  "duplicate operator",
			src:   "operator H: hamiltonian\noperator H: dissipative",
			codes: []string{ErrDuplicateOperator},
			msg:   `duplicate operator name: "H"`,
		},
		{
			name:  "duplicate constraint",
			src:   "constraint c: entropy_bound x\nconstraint c: human_force_gate y",
			codes: []string{ErrDuplicateConstraint},
			msg:   `duplicate constraint name: "c"`,
		},
		{
			name:  "repeated body item",
			src:   `operator K: hamiltonian { cuda_kernel("a"), cuda_kernel("b") }`,
			codes: []string{ErrRepeatedBodyItem},
			msg:   `operator "K" declares cuda_kernel 2 times; the last one wins`,
		},
		{
			name:  "sparse lowered dense",
			src:   "operator S: hamiltonian { matrix(1, 1, sparse) = [[1]] }",
			codes: []string{ErrSparseLoweredDense},
			msg:   `operator "S" declares sparse storage but is lowered as a dense matrix`,
		},
		{
			name:  "unresolved hamiltonian",
			src:   "state psi: dense [2] hamiltonian = H",
			codes: []string{ErrUnresolvedRef},
			msg:   `state "psi" references unknown operator "H"`,
		},
		{
			name:  "axiom cycle",
			src:   "axiom a: b + 1\naxiom b: a * 2",
			codes: []string{ErrAxiomCycle},
			msg:   "axiom reference cycle: a → b → a",
		},
		{
			name:  "shadowed backend",
			src:   `operator M: hamiltonian { tensor_net(mps, [2]), cuda_kernel("k") }`,
			codes: []string{ErrShadowedBackend},
			msg:   `operator "M" declares tensor_net, cuda_kernel; only tensor_net is lowered`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := mustParse(t, tt.src)
			require.Equal(t, tt.codes, codes(errs))
			assert.Equal(t, tt.msg, errs[0].Message)
			assert.Positive(t, errs[0].Line)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	errs := mustParse(t, `
axiom a: a
operator X: hamiltonian {
  matrix(1, 1, sparse) = [[1]],
  matrix(1, 1, sparse) = [[2]],
  tensor_net(peps, [2, 2]),
}
operator X: entropy_flow
state s: dense [1] hamiltonian = missing
constraint g: human_force_gate a
constraint g: human_force_gate a
`)
	assert.Equal(t, []string{
		ErrRepeatedBodyItem,
		ErrSparseLoweredDense,
		ErrShadowedBackend,
		ErrDuplicateOperator,
		ErrUnresolvedRef,
		ErrAxiomCycle,
		ErrDuplicateConstraint,
	}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	withLine := ValidationError{Field: "operators[0].name", Message: "bad", Code: ErrDuplicateOperator, Line: 4}
	assert.Equal(t, "[E102] line 4: operators[0].name: bad", withLine.Error())

	withoutLine := ValidationError{Field: "axioms[1].name", Message: "bad", Code: ErrDuplicateAxiom}
	assert.Equal(t, "[E101] axioms[1].name: bad", withoutLine.Error())
}

func TestValidateNil(t *testing.T) {
	assert.Nil(t, Validate(nil))
}
