package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hpmdl/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	if a.Type == AssertCompileError {
		return assertCompileError(result, a)
	}
	if !result.compiled() {
		return &AssertionError{
			Type:     a.Type,
			Expected: "successful compilation",
			Actual:   result.CompileError,
		}
	}

	switch a.Type {
	case AssertImplementation:
		return assertImplementation(result.IR, a)
	case AssertImplementations:
		return assertImplementations(result.IR, a)
	case AssertGates:
		var names []string
		for _, g := range result.Report.HumanForceGates {
			names = append(names, g.OperatorName)
		}
		return assertList(a.Type, a.Names, names)
	case AssertEntropySafe:
		if result.Report.Entropy.Safe != *a.Safe {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("entropy.safe = %t", *a.Safe),
				Actual:   fmt.Sprintf("entropy.safe = %t", result.Report.Entropy.Safe),
			}
		}
	case AssertDiagnostics:
		var codes []string
		for _, d := range result.Diagnostics {
			codes = append(codes, d.Code)
		}
		return assertList(a.Type, a.Codes, codes)
	case AssertJobTruncation:
		got := result.Job.EvolutionParams.Truncation.Method
		if got != a.Method {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("truncation method %s", a.Method),
				Actual:   fmt.Sprintf("truncation method %s", got),
			}
		}
	case AssertArtifacts:
		var names []string
		if result.Manifest != nil {
			for _, e := range result.Manifest.Artifacts {
				names = append(names, e.Name)
			}
		}
		return assertList(a.Type, a.Names, names)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertCompileError(result *Result, a Assertion) error {
	if result.CompileError == "" {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("error containing %q", a.Contains),
			Actual:   "compilation succeeded",
		}
	}
	if !strings.Contains(result.CompileError, a.Contains) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("error containing %q", a.Contains),
			Actual:   result.CompileError,
		}
	}
	return nil
}

func assertImplementation(prog *ir.Program, a Assertion) error {
	mod := prog.Entry()
	if mod != nil {
		for _, op := range mod.Operators {
			if op.Name != a.Operator {
				continue
			}
			got := string(op.Spec.Implementation.Kind())
			if got == a.Kind {
				return nil
			}
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("operator %s lowered to %s", a.Operator, a.Kind),
				Actual:   fmt.Sprintf("operator %s lowered to %s", a.Operator, got),
			}
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("operator %s lowered to %s", a.Operator, a.Kind),
		Actual:   fmt.Sprintf("no operator named %s", a.Operator),
	}
}

func assertImplementations(prog *ir.Program, a Assertion) error {
	var kinds []string
	if mod := prog.Entry(); mod != nil {
		for _, op := range mod.Operators {
			kinds = append(kinds, string(op.Spec.Implementation.Kind()))
		}
	}
	return assertList(a.Type, a.Kinds, kinds)
}

// assertList compares two ordered lists; nil and empty are equal.
func assertList(typ string, want, got []string) error {
	if len(want) == 0 && len(got) == 0 {
		return nil
	}
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("[%s]", strings.Join(want, ", ")),
		Actual:   fmt.Sprintf("[%s]", strings.Join(got, ", ")),
	}
}
