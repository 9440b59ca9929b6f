package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hpmdl/internal/safety"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Output string // report file; empty prints the report
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Source string        `json:"source"`
	Report safety.Report `json:"report"`
	Output string        `json:"output,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <input>",
		Short: "Run the safety checks on a program",
		Long: `Compile a program and report its safety findings: human-force gates,
the entropy verdict, anomalies and the topology-surgery throttle.

Findings are data, not failures: check exits 0 whenever the program
compiles. The report is printed, or written as JSON with --output.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the report to this file")

	return cmd
}

func runCheck(opts *CheckOptions, input string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	inputs, err := LoadInputs([]string{input})
	if err != nil {
		return s.out.Fail(ExitCommandError, err)
	}
	if len(inputs) != 1 {
		return s.out.Fail(ExitCommandError, &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("check needs a single input, %s matches %d", input, len(inputs)),
		})
	}

	unit, err := CompileFile(inputs[0])
	if err != nil {
		return s.out.Fail(ExitCommandError, err)
	}
	s.logger.Debug("safety check complete",
		"source", unit.Path,
		"gates", len(unit.Report.HumanForceGates),
		"entropy_safe", unit.Report.Entropy.Safe)

	result := &CheckResult{Source: unit.Path, Report: unit.Report}
	data, err := json.MarshalIndent(unit.Report, "", "  ")
	if err != nil {
		return s.out.Fail(ExitCommandError, err)
	}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return s.out.Fail(ExitCommandError, &LoadError{
				Code:    ErrCodeWriteFailed,
				Message: fmt.Sprintf("writing report: %v", err),
				Err:     err,
			})
		}
		result.Output = opts.Output
	}

	if s.out.Format == "json" {
		return s.out.Success(result)
	}
	if opts.Output == "" {
		fmt.Fprintln(s.out.Writer, string(data))
		return nil
	}
	outputCheckSummary(s.out, result)
	return nil
}

// outputCheckSummary prints a short text summary of a written report.
func outputCheckSummary(formatter *OutputFormatter, result *CheckResult) {
	r := result.Report
	w := formatter.Writer
	fmt.Fprintf(w, "✓ Safety report for %s written to %s\n", result.Source, result.Output)

	if len(r.HumanForceGates) == 0 {
		fmt.Fprintln(w, "  Human-force gates: none")
	} else {
		names := make([]string, len(r.HumanForceGates))
		for i, g := range r.HumanForceGates {
			names[i] = g.OperatorName
		}
		fmt.Fprintf(w, "  Human-force gates: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "  Entropy: %s\n", verdict(r.Entropy.Safe))
	fmt.Fprintf(w, "  Topology: %s (%d/%d surgeries)\n", verdict(r.Topology.Safe), r.Topology.SurgeryCount, r.Topology.ThrottleLimit)
	if n := len(r.Anomaly.Anomalies); n > 0 {
		fmt.Fprintf(w, "  Anomalies: %d\n", n)
	}
}

func verdict(safe bool) string {
	if safe {
		return "safe"
	}
	return "unsafe"
}
