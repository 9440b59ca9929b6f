package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpmdl/internal/testutil"
)

func boolPtr(b bool) *bool { return &b }

func TestRun_PassingScenario(t *testing.T) {
	s := &Scenario{
		Name:   "gates",
		Source: "operator H: hamiltonian\nconstraint g1: human_force_gate H\nconstraint b: entropy_bound x\nconstraint g2: human_force_gate H",
		Assertions: []Assertion{
			{Type: AssertGates, Names: []string{"g1", "g2"}},
			{Type: AssertEntropySafe, Safe: boolPtr(false)},
			{Type: AssertImplementation, Operator: "H", Kind: "DenseMatrix"},
		},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.CompileError)
	assert.Equal(t, testutil.DefaultJobID, result.Job.JobID)
	assert.Nil(t, result.Manifest, "nothing is packaged unless asked")
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	s := &Scenario{
		Name:   "wrong",
		Source: `operator K: dissipative { cuda_kernel("k") }`,
		Assertions: []Assertion{
			{Type: AssertImplementation, Operator: "K", Kind: "DenseMatrix"},
			{Type: AssertImplementation, Operator: "missing", Kind: "DenseMatrix"},
			{Type: AssertCompileError, Contains: "anything"},
			{Type: AssertDiagnostics, Codes: []string{"E101"}},
		},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "operator K lowered to CUDAKernel")
	assert.Contains(t, result.Errors[1], "no operator named missing")
	assert.Contains(t, result.Errors[2], "compilation succeeded")
	assert.Contains(t, result.Errors[3], "Expected: [E101]")
}

func TestRun_CompileErrorFailsOtherAssertions(t *testing.T) {
	s := &Scenario{
		Name:   "broken",
		Source: "state psi: dense []",
		Assertions: []Assertion{
			{Type: AssertCompileError, Contains: "dimensions missing"},
			{Type: AssertGates, Names: []string{}},
		},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.Contains(t, result.CompileError, "typecheck failed")
	assert.Nil(t, result.IR, "no partial IR on failure")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "successful compilation")
}

func TestRun_PackageWritesAndVerifiesBundle(t *testing.T) {
	s := &Scenario{
		Name:    "packaged",
		Source:  "operator H: hamiltonian { matrix(1, 1, dense) = [[1]] }",
		JobID:   "job-p",
		Package: true,
		Assertions: []Assertion{
			{Type: AssertArtifacts, Names: []string{"ir.json", "catalog.json", "catalog.cbor", "numeric.cbor", "job.json", "report.json"}},
		},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.NotNil(t, result.Manifest)
	for _, e := range result.Manifest.Artifacts {
		assert.Equal(t, testutil.Epoch, e.Metadata.CreatedAt)
	}

	again, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, result.Manifest, again.Manifest, "packaging is deterministic")
}

func TestRun_UnreadableProgram(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", File: "/nonexistent/p.hpm"})
	assert.Error(t, err)
}

func TestAssertionErrorFormat(t *testing.T) {
	err := &AssertionError{Type: "gates", Expected: "[a]", Actual: "[b]"}
	assert.Equal(t, "Assertion failed: gates\n  Expected: [a]\n  Actual: [b]", err.Error())
}
