package codegen

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpmdl/internal/ir"
)

func TestJobBuilder(t *testing.T) {
	b := NewJobBuilder(NewSequenceGenerator("job-1"), DefaultJobOptions())
	job, err := b.Build(compile(t, chain))
	require.NoError(t, err)

	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, "MPS", job.InitialState.Representation)
	assert.Equal(t, []OperatorDescriptor{
		{Name: "H", SpecRef: "catalog#H"},
		{Name: "chain", SpecRef: "catalog#chain"},
		{Name: "L", SpecRef: "catalog#L"},
		{Name: "idle", SpecRef: "catalog#idle"},
	}, job.Operators)
	assert.Equal(t, TruncationParams{Method: "QR", MaxBondDim: 32, Tolerance: 1e-6}, job.EvolutionParams.Truncation,
		"declared truncation wins over the default")
	assert.Equal(t, 0.01, job.EvolutionParams.TimeStep)
	assert.Equal(t, 1000, job.EvolutionParams.MaxSteps)
	assert.True(t, job.OutputSpec.FinalCertificate)
}

func TestJobBuilderDefaults(t *testing.T) {
	opts := DefaultJobOptions()
	opts.Snapshots = []SnapshotSpec{{Time: 0.5, Format: "npy"}}
	b := NewJobBuilder(NewSequenceGenerator("job-2"), opts)

	job, err := b.Build(compile(t, "operator H: hamiltonian"))
	require.NoError(t, err)

	assert.Equal(t, "Dense", job.InitialState.Representation, "no state means dense")
	assert.Equal(t, opts.Truncation, job.EvolutionParams.Truncation)

	opts.Snapshots[0].Format = "mutated"
	assert.Equal(t, "npy", job.OutputSpec.Snapshots[0].Format, "snapshots are copied")
}

func TestJobJSONShape(t *testing.T) {
	b := NewJobBuilder(NewSequenceGenerator("j"), DefaultJobOptions())
	job, err := b.Build(compile(t, "operator H: hamiltonian"))
	require.NoError(t, err)

	data, err := json.Marshal(job)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"job_id": "j",
		"initial_state": {"representation": "Dense", "data": ""},
		"operators": [{"name": "H", "spec_ref": "catalog#H"}],
		"evolution_params": {
			"time_step": 0.01, "max_steps": 1000, "tolerance": 1e-8,
			"truncation": {"method": "SVD", "max_bond_dim": 64, "tolerance": 1e-10}
		},
		"output_spec": {"snapshots": [], "final_certificate": true, "topology_analysis": true}
	}`, string(data))
}

func TestJobBuilderNeedsEntryModule(t *testing.T) {
	b := NewJobBuilder(NewSequenceGenerator("x"), DefaultJobOptions())
	_, err := b.Build(&ir.Program{EntryPoint: "main"})
	assert.Error(t, err)
}

func TestJobOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultJobOptions().Validate())

	tests := []struct {
		name   string
		mutate func(*JobOptions)
		msg    string
	}{
		{"time step", func(o *JobOptions) { o.TimeStep = 0 }, "time_step"},
		{"max steps", func(o *JobOptions) { o.MaxSteps = -1 }, "max_steps"},
		{"tolerance", func(o *JobOptions) { o.Tolerance = -1 }, "tolerance"},
		{"method", func(o *JobOptions) { o.Truncation.Method = "" }, "truncation.method"},
		{"bond dim", func(o *JobOptions) { o.Truncation.MaxBondDim = 0 }, "max_bond_dim"},
		{"snapshot time", func(o *JobOptions) { o.Snapshots = []SnapshotSpec{{Time: -1, Format: "npy"}} }, "snapshots[0].time"},
		{"snapshot format", func(o *JobOptions) { o.Snapshots = []SnapshotSpec{{Time: 1}} }, "snapshots[0].format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultJobOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestUUIDv7Generator(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
