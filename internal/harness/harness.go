package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/hpmdl/internal/artifact"
	"github.com/roach88/hpmdl/internal/codegen"
	"github.com/roach88/hpmdl/internal/compiler"
	"github.com/roach88/hpmdl/internal/grammar"
	"github.com/roach88/hpmdl/internal/ir"
	"github.com/roach88/hpmdl/internal/safety"
	"github.com/roach88/hpmdl/internal/testutil"
)

// Harness runs scenarios with a fixed job id and a stopped clock.
type Harness struct {
	ids    *testutil.FixedIDGenerator
	clock  *testutil.StoppedClock
	job    codegen.JobOptions
	logger *slog.Logger
}

// Run executes a scenario with default job options and returns the result.
//
// Run fails only when the scenario itself cannot be executed (unreadable
// program, unwritable temp dir). A program that fails to compile is a
// result, checked by compile_error assertions.
//
// Execution flow:
// 1. Read the program
// 2. Compile, check safety and build the job descriptor
// 3. Optionally write and verify the artifact bundle
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	h := &Harness{
		ids:    testutil.NewFixedIDGenerator(scenario.JobID),
		clock:  testutil.NewStoppedClock(),
		job:    codegen.DefaultJobOptions(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(scenario)
}

func (h *Harness) run(scenario *Scenario) (*Result, error) {
	src, err := scenario.program()
	if err != nil {
		return nil, err
	}

	result := NewResult()
	res, err := compiler.Compile(src)
	if err != nil {
		result.CompileError = err.Error()
	} else {
		report := safety.Check(res.Program)
		job, err := codegen.NewJobBuilder(h.ids, h.job).Build(res.IR)
		if err != nil {
			return nil, fmt.Errorf("failed to build job: %w", err)
		}
		result.IR = res.IR
		result.Report = &report
		result.Job = job
		result.Diagnostics = res.Diagnostics

		if scenario.Package {
			m, err := h.pack(src, res, job, &report)
			if err != nil {
				return nil, err
			}
			result.Manifest = m
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// pack writes the full bundle to a temporary directory, verifies every
// checksum and removes the directory.
func (h *Harness) pack(src string, res *compiler.Result, job *codegen.JobDescriptor, report *safety.Report) (*artifact.Manifest, error) {
	dir, err := os.MkdirTemp("", "hpmc-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	defer os.RemoveAll(dir)

	p, err := artifact.NewPackager(h.logger)
	if err != nil {
		return nil, err
	}
	numeric, err := codegen.BuildNumericSpecs(res.Program, res.IR)
	if err != nil {
		return nil, err
	}
	m, err := p.WithClock(h.clock.Now).Write(dir, artifact.Bundle{
		SourceHash: ir.SourceHash(grammar.Normalize(src)),
		IR:         res.IR,
		Catalog:    codegen.BuildCatalog(res.IR),
		CBOR:       true,
		Numeric:    numeric,
		Job:        job,
		Report:     report,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to package artifacts: %w", err)
	}

	bad, err := m.Verify(func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify artifacts: %w", err)
	}
	if bad != "" {
		return nil, fmt.Errorf("artifact %s does not match its manifest checksum", bad)
	}
	return m, nil
}
