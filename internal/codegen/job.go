package codegen

import (
	"errors"
	"fmt"

	"github.com/roach88/hpmdl/internal/ir"
)

// CatalogRefPrefix prefixes every OperatorDescriptor.SpecRef.
const CatalogRefPrefix = "catalog#"

// JobDescriptor is the evolution job handed to the runtime.
type JobDescriptor struct {
	JobID           string               `json:"job_id"`
	InitialState    StateDescriptor      `json:"initial_state"`
	Operators       []OperatorDescriptor `json:"operators"`
	EvolutionParams EvolutionParams      `json:"evolution_params"`
	OutputSpec      OutputSpec           `json:"output_spec"`
}

// StateDescriptor names the representation of the initial state. Data is
// the serialized state; the compiler never materialises amplitudes, so it
// is always empty.
type StateDescriptor struct {
	Representation string `json:"representation"`
	Data           []byte `json:"data"`
}

// OperatorDescriptor references one catalog entry.
type OperatorDescriptor struct {
	Name    string `json:"name"`
	SpecRef string `json:"spec_ref"`
}

// EvolutionParams controls time stepping.
type EvolutionParams struct {
	TimeStep   float64          `json:"time_step"`
	MaxSteps   int              `json:"max_steps"`
	Tolerance  float64          `json:"tolerance"`
	Truncation TruncationParams `json:"truncation"`
}

// TruncationParams bounds tensor-network bond growth during evolution.
type TruncationParams struct {
	Method     string  `json:"method"`
	MaxBondDim int     `json:"max_bond_dim"`
	Tolerance  float64 `json:"tolerance"`
}

// OutputSpec selects what the runtime reports.
type OutputSpec struct {
	Snapshots        []SnapshotSpec `json:"snapshots"`
	FinalCertificate bool           `json:"final_certificate"`
	TopologyAnalysis bool           `json:"topology_analysis"`
}

// SnapshotSpec requests the state at Time in Format.
type SnapshotSpec struct {
	Time   float64 `json:"time"`
	Format string  `json:"format"`
}

// JobOptions are the evolution defaults applied to every job.
type JobOptions struct {
	TimeStep         float64
	MaxSteps         int
	Tolerance        float64
	Truncation       TruncationParams
	Snapshots        []SnapshotSpec
	FinalCertificate bool
	TopologyAnalysis bool
}

// DefaultJobOptions returns the options used when nothing is configured.
func DefaultJobOptions() JobOptions {
	return JobOptions{
		TimeStep:  0.01,
		MaxSteps:  1000,
		Tolerance: 1e-8,
		Truncation: TruncationParams{
			Method:     "SVD",
			MaxBondDim: 64,
			Tolerance:  1e-10,
		},
		FinalCertificate: true,
		TopologyAnalysis: true,
	}
}

// Validate reports the first option that cannot produce a runnable job.
func (o JobOptions) Validate() error {
	switch {
	case o.TimeStep <= 0:
		return fmt.Errorf("time_step must be positive, got %g", o.TimeStep)
	case o.MaxSteps <= 0:
		return fmt.Errorf("max_steps must be positive, got %d", o.MaxSteps)
	case o.Tolerance < 0:
		return fmt.Errorf("tolerance must not be negative, got %g", o.Tolerance)
	case o.Truncation.Method == "":
		return errors.New("truncation.method is required")
	case o.Truncation.MaxBondDim <= 0:
		return fmt.Errorf("truncation.max_bond_dim must be positive, got %d", o.Truncation.MaxBondDim)
	}
	for i, s := range o.Snapshots {
		if s.Time < 0 {
			return fmt.Errorf("snapshots[%d].time must not be negative, got %g", i, s.Time)
		}
		if s.Format == "" {
			return fmt.Errorf("snapshots[%d].format is required", i)
		}
	}
	return nil
}

// JobBuilder assembles job descriptors.
type JobBuilder struct {
	ids  IDGenerator
	opts JobOptions
}

// NewJobBuilder returns a builder that takes job ids from ids and
// evolution parameters from opts.
func NewJobBuilder(ids IDGenerator, opts JobOptions) *JobBuilder {
	return &JobBuilder{ids: ids, opts: opts}
}

// Build returns the job descriptor for prog. It fails only when prog has
// no entry module.
//
// The initial state representation is taken from the entry module's
// state, defaulting to "Dense". The truncation comes from the first
// tensor-network operator that declares one and otherwise from the
// builder's options.
func (b *JobBuilder) Build(prog *ir.Program) (*JobDescriptor, error) {
	mod := prog.Entry()
	if mod == nil {
		return nil, errors.New("job: program has no entry module")
	}

	repr := "Dense"
	if mod.InitialState != nil && mod.InitialState.Representation != "" {
		repr = mod.InitialState.Representation
	}

	ops := make([]OperatorDescriptor, len(mod.Operators))
	for i, op := range mod.Operators {
		ops[i] = OperatorDescriptor{Name: op.Name, SpecRef: CatalogRefPrefix + op.Name}
	}

	snapshots := make([]SnapshotSpec, len(b.opts.Snapshots))
	copy(snapshots, b.opts.Snapshots)

	return &JobDescriptor{
		JobID:        b.ids.Generate(),
		InitialState: StateDescriptor{Representation: repr, Data: []byte{}},
		Operators:    ops,
		EvolutionParams: EvolutionParams{
			TimeStep:   b.opts.TimeStep,
			MaxSteps:   b.opts.MaxSteps,
			Tolerance:  b.opts.Tolerance,
			Truncation: truncationFor(mod, b.opts.Truncation),
		},
		OutputSpec: OutputSpec{
			Snapshots:        snapshots,
			FinalCertificate: b.opts.FinalCertificate,
			TopologyAnalysis: b.opts.TopologyAnalysis,
		},
	}, nil
}

func truncationFor(mod *ir.Module, fallback TruncationParams) TruncationParams {
	for _, op := range mod.Operators {
		tn := op.Spec.Implementation.TensorNetwork
		if tn == nil || tn.Truncation == nil {
			continue
		}
		return TruncationParams{
			Method:     tn.Truncation.Method,
			MaxBondDim: tn.Truncation.MaxBondDim,
			Tolerance:  tn.Truncation.Tolerance,
		}
	}
	return fallback
}
