package harness

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/hpmdl/internal/artifact"
	"github.com/roach88/hpmdl/internal/codegen"
	"github.com/roach88/hpmdl/internal/compiler"
	"github.com/roach88/hpmdl/internal/ir"
	"github.com/roach88/hpmdl/internal/safety"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// CompileError is the pipeline error, or "" when compilation succeeded.
	CompileError string `json:"compile_error,omitempty"`

	// IR, Report, Job and Diagnostics are set when compilation succeeded.
	IR          *ir.Program                `json:"ir,omitempty"`
	Report      *safety.Report             `json:"report,omitempty"`
	Job         *codegen.JobDescriptor     `json:"job,omitempty"`
	Diagnostics []compiler.ValidationError `json:"diagnostics,omitempty"`

	// Manifest is set when the scenario packages artifacts.
	Manifest *artifact.Manifest `json:"manifest,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// compiled reports whether the pipeline produced a program.
func (r *Result) compiled() bool {
	return r.IR != nil
}

// GoldenBytes is the golden-file encoding of the result: its IR as
// indented JSON.
func (r *Result) GoldenBytes() ([]byte, error) {
	if !r.compiled() {
		return nil, fmt.Errorf("did not compile: %s", r.CompileError)
	}
	return json.MarshalIndent(r.IR, "", "  ")
}
