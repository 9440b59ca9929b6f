package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioDir holds the shared conformance scenarios. Tests run from the
// package directory, so it is two levels up.
const scenarioDir = "../../testdata/scenarios"

func TestConformanceScenarios(t *testing.T) {
	scenarios, err := LoadScenarios(scenarioDir)
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err, "scenario execution failed")
			assert.True(t, result.Pass, "scenario should pass: errors=%v", result.Errors)
		})
	}
}

func TestIsingChainGolden(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "ising_chain.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestScenarioReplayIsDeterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "ising_chain.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.IR, second.IR)
	assert.Equal(t, first.Job, second.Job)
	assert.Equal(t, first.Manifest.Checksums, second.Manifest.Checksums)
	assert.Equal(t, "test-job-ising", first.Job.JobID)
}

func TestAssertGoldenRejectsFailedCompilation(t *testing.T) {
	err := AssertGolden(t, "never", &Result{CompileError: "parse failed"})
	assert.ErrorContains(t, err, "did not compile")
}
