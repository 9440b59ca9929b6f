// Package harness runs conformance scenarios against the compiler.
//
// A scenario is a YAML file naming an HPM-DL program (inline or by path)
// and a list of assertions about what compiling it must produce: the
// error it fails with, the implementation each operator lowers to, the
// human-force gates and entropy verdict of the safety report, validator
// diagnostics, job descriptor fields and written artifacts.
//
//	name: ising_chain
//	description: matrix beats tensor network
//	file: ../programs/ising.hpm
//	job_id: test-job-ising
//	assertions:
//	  - type: implementations
//	    kinds: [DenseMatrix, TensorNetwork]
//	  - type: gates
//	    names: [gate]
//
// Scenarios are deterministic: job ids come from a FixedIDGenerator and
// artifact timestamps from a StoppedClock, so RunWithGolden can compare
// the lowered IR against testdata/golden.
package harness
