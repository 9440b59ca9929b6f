package safety

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpmdl/internal/ast"
)

func constraint(name string, kind ast.ConstraintType) ast.Constraint {
	return ast.Constraint{Name: name, ConstraintType: kind, Expression: &ast.Variable{Name: "x"}}
}

func TestCheckWithoutConstraints(t *testing.T) {
	report := Check(&ast.Program{})

	assert.Empty(t, report.HumanForceGates)
	assert.True(t, report.Entropy.Safe)
	assert.True(t, report.Topology.Safe)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"human_force_gates": [],
		"warnings": [],
		"errors": [],
		"entropy": {"estimated_entropy": 0, "threshold": 0, "safe": true},
		"anomaly": {"anomalies": [], "threshold": 0},
		"topology": {"surgery_count": 0, "throttle_limit": 0, "safe": true}
	}`, string(data))
}

func TestEntropyBoundMarksProgramUnsafe(t *testing.T) {
	prog := &ast.Program{Constraints: []ast.Constraint{
		constraint("stable", ast.StabilityThreshold),
		constraint("bound", ast.EntropyBound),
	}}
	assert.False(t, NewChecker().EntropyBlowup(prog).Safe)

	prog.Constraints = prog.Constraints[:1]
	assert.True(t, NewChecker().EntropyBlowup(prog).Safe)
}

func TestHumanForceGatesOnlyFromGateConstraints(t *testing.T) {
	prog := &ast.Program{Constraints: []ast.Constraint{
		constraint("approve_H", ast.HumanForceGate),
		constraint("bound", ast.EntropyBound),
		constraint("surgery", ast.TopologySurgeryThreshold),
		constraint("approve_L", ast.HumanForceGate),
	}}

	report := Check(prog)
	assert.Equal(t, []HumanForceGate{
		{OperatorName: "approve_H", Reason: "marked as human_force_gate", RequiredApproval: true},
		{OperatorName: "approve_L", Reason: "marked as human_force_gate", RequiredApproval: true},
	}, report.HumanForceGates)
	assert.False(t, report.Entropy.Safe)
}

func TestCheckDoesNotModifyProgram(t *testing.T) {
	prog := &ast.Program{Constraints: []ast.Constraint{constraint("g", ast.HumanForceGate)}}
	before := prog.Clone()
	Check(prog)
	assert.Equal(t, before, prog.Clone())
}

func TestCheckNilProgram(t *testing.T) {
	report := Check(nil)
	assert.NotNil(t, report.HumanForceGates)
	assert.True(t, report.Entropy.Safe)
}

func TestReportEnumsRoundTrip(t *testing.T) {
	in := Report{
		HumanForceGates: []HumanForceGate{},
		Warnings:        []Warning{{Message: "near limit", Severity: High}},
		Errors:          []Finding{{Message: "too much", Code: TopologySurgeryThrottleExceeded}},
		Anomaly:         AnomalyReport{Anomalies: []Anomaly{}},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"High"`)
	assert.Contains(t, string(data), `"code":"TopologySurgeryThrottleExceeded"`)

	var out Report
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var sev Severity
	assert.Error(t, json.Unmarshal([]byte(`"Extreme"`), &sev))
}
