package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hpmdl/internal/artifact"
	"github.com/roach88/hpmdl/internal/codegen"
)

// Finding is one validation problem in one input.
type Finding struct {
	Source  string `json:"source"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool      `json:"valid"`
	Files  int       `json:"files"`
	Errors []Finding `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <input...>",
		Short: "Validate programs without writing artifacts",
		Long: `Validate HPM-DL programs without writing any files.

Runs the parser, type checker and validator diagnostics (E101-E108), then
encodes the artifacts in memory and checks them against their schemas.
Every input is checked; all findings are reported.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}

	inputs, err := LoadInputs(args)
	if err != nil {
		return s.out.Fail(ExitCommandError, err)
	}
	packager, err := artifact.NewPackager(s.logger)
	if err != nil {
		return s.out.Fail(ExitCommandError, err)
	}

	var findings []Finding
	for _, path := range inputs {
		s.out.VerboseLog("Validating %s", path)
		findings = append(findings, validateFile(path, packager, s.cfg.JobOptions())...)
	}

	if len(findings) > 0 {
		return outputValidationErrors(s.out, len(inputs), findings)
	}
	return outputValidateSuccess(s.out, len(inputs))
}

// validateFile collects every finding for one input.
func validateFile(path string, packager *artifact.Packager, jobOpts codegen.JobOptions) []Finding {
	unit, err := CompileFile(path)
	if err != nil {
		return []Finding{findingFromError(path, err)}
	}

	var findings []Finding
	for _, d := range unit.Result.Diagnostics {
		findings = append(findings, Finding{
			Source:  path,
			Code:    d.Code,
			Field:   d.Field,
			Message: d.Message,
			Line:    d.Line,
		})
	}

	prog := unit.Result.IR
	bundle := artifact.Bundle{
		SourceHash: unit.SourceHash,
		IR:         prog,
		Catalog:    codegen.BuildCatalog(prog),
		CBOR:       true,
		Report:     &unit.Report,
	}
	job, err := codegen.NewJobBuilder(codegen.UUIDv7Generator{}, jobOpts).Build(prog)
	if err != nil {
		return append(findings, findingFromError(path, err))
	}
	bundle.Job = job
	numeric, err := codegen.BuildNumericSpecs(unit.Result.Program, prog)
	if err != nil {
		return append(findings, findingFromError(path, err))
	}
	bundle.Numeric = numeric
	if err := packager.Check(bundle); err != nil {
		findings = append(findings, findingFromError(path, err))
	}
	return findings
}

func findingFromError(path string, err error) Finding {
	f := Finding{Source: path, Code: ErrorCode(err), Message: err.Error()}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		f.Message = loadErr.Message
		f.Line = loadErr.Line
	}
	return f
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d file(s) valid\n", files)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []Finding) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Files: files, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", err.Source, err.Line)
		} else {
			fmt.Fprintln(formatter.Writer, err.Source)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
