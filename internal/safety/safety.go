// Package safety scans a program for the governance information a job
// runner needs before it may start: approval gates, entropy limits,
// anomaly thresholds and topology-surgery throttles.
//
// The scans are read-only and never fail. Their results are data in a
// Report; deciding whether to run is the caller's business.
package safety

import "github.com/roach88/hpmdl/internal/ast"

// GateReason is the reason recorded for every human-force gate.
const GateReason = "marked as human_force_gate"

// Checker runs the safety scans. It holds no state between calls.
type Checker struct{}

// NewChecker returns a Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Check runs every scan and aggregates the results.
func Check(prog *ast.Program) Report {
	c := NewChecker()
	report := c.HumanForceGates(prog)
	report.Entropy = c.EntropyBlowup(prog)
	report.Anomaly = c.AnomalyThresholds(prog)
	report.Topology = c.TopologySurgeryThrottle(prog)
	return report
}

// HumanForceGates lists one gate per HumanForceGate constraint, in
// declaration order. Only the gate fields of the returned Report are
// filled; the list fields are non-nil.
func (c *Checker) HumanForceGates(prog *ast.Program) Report {
	report := Report{
		HumanForceGates: []HumanForceGate{},
		Warnings:        []Warning{},
		Errors:          []Finding{},
		Anomaly:         AnomalyReport{Anomalies: []Anomaly{}},
	}
	if prog == nil {
		return report
	}
	for _, con := range prog.Constraints {
		if con.ConstraintType != ast.HumanForceGate {
			continue
		}
		report.HumanForceGates = append(report.HumanForceGates, HumanForceGate{
			OperatorName:     con.Name,
			Reason:           GateReason,
			RequiredApproval: true,
		})
	}
	return report
}

// EntropyBlowup reports safe only when no EntropyBound constraint exists.
// Entropy is not estimated; both figures are zero.
func (c *Checker) EntropyBlowup(prog *ast.Program) EntropyReport {
	safe := true
	if prog != nil {
		for _, con := range prog.Constraints {
			if con.ConstraintType == ast.EntropyBound {
				safe = false
				break
			}
		}
	}
	return EntropyReport{Safe: safe}
}

// AnomalyThresholds reports no anomalies. Detecting them needs numerical
// evaluation, which the compiler does not do.
func (c *Checker) AnomalyThresholds(*ast.Program) AnomalyReport {
	return AnomalyReport{Anomalies: []Anomaly{}}
}

// TopologySurgeryThrottle reports no surgeries against a zero limit.
func (c *Checker) TopologySurgeryThrottle(*ast.Program) TopologyReport {
	return TopologyReport{Safe: true}
}
