package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIR(t *testing.T) {
	s, err := LoadSchemas()
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  string
		ok   bool
	}{
		{"minimal", `{"modules": [{"name": "main", "operators": []}], "entry_point": "main"}`, true},
		{"dense", `{"modules": [{"name": "main", "operators": [
			{"name": "H", "operator_type": "Hamiltonian", "spec": {"target": "CPU", "implementation": {"DenseMatrix": {"data": [0, 1.5, -2e-08]}}}}
		]}], "entry_point": "main"}`, true},
		{"no modules", `{"modules": [], "entry_point": "main"}`, false},
		{"unknown operator type", `{"modules": [{"name": "main", "operators": [
			{"name": "H", "operator_type": "Unitary", "spec": {"target": "CPU", "implementation": {"DenseMatrix": {"data": []}}}}
		]}], "entry_point": "main"}`, false},
		{"two implementations", `{"modules": [{"name": "main", "operators": [
			{"name": "H", "operator_type": "Hamiltonian", "spec": {"target": "CPU", "implementation": {"DenseMatrix": {"data": []}, "CUDAKernel": {"kernel_name": "k"}}}}
		]}], "entry_point": "main"}`, false},
		{"unknown field", `{"modules": [{"name": "main", "operators": [], "functions": []}], "entry_point": "main"}`, false},
		{"not json", `{"modules": `, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ValidateIR([]byte(tt.doc))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, IRFile, schemaErr.Artifact)
		})
	}
}

func TestValidateJob(t *testing.T) {
	s, err := LoadSchemas()
	require.NoError(t, err)

	valid := `{
		"job_id": "j",
		"initial_state": {"representation": "Dense", "data": ""},
		"operators": [{"name": "H", "spec_ref": "catalog#H"}],
		"evolution_params": {"time_step": 0.01, "max_steps": 10, "tolerance": 0,
			"truncation": {"method": "SVD", "max_bond_dim": 4, "tolerance": 1e-10}},
		"output_spec": {"snapshots": [], "final_certificate": true, "topology_analysis": false}
	}`
	assert.NoError(t, s.ValidateJob([]byte(valid)))

	for name, doc := range map[string]string{
		"missing job id": `{"initial_state": {"representation": "Dense", "data": ""}, "operators": [],
			"evolution_params": {"time_step": 1, "max_steps": 1, "tolerance": 0, "truncation": {"method": "SVD", "max_bond_dim": 1, "tolerance": 0}},
			"output_spec": {"snapshots": [], "final_certificate": true, "topology_analysis": true}}`,
		"bad spec ref": `{"job_id": "j", "initial_state": {"representation": "Dense", "data": ""}, "operators": [{"name": "H", "spec_ref": "H"}],
			"evolution_params": {"time_step": 1, "max_steps": 1, "tolerance": 0, "truncation": {"method": "SVD", "max_bond_dim": 1, "tolerance": 0}},
			"output_spec": {"snapshots": [], "final_certificate": true, "topology_analysis": true}}`,
		"zero time step": `{"job_id": "j", "initial_state": {"representation": "Dense", "data": ""}, "operators": [],
			"evolution_params": {"time_step": 0, "max_steps": 1, "tolerance": 0, "truncation": {"method": "SVD", "max_bond_dim": 1, "tolerance": 0}},
			"output_spec": {"snapshots": [], "final_certificate": true, "topology_analysis": true}}`,
	} {
		t.Run(name, func(t *testing.T) {
			var schemaErr *SchemaError
			require.ErrorAs(t, s.ValidateJob([]byte(doc)), &schemaErr)
			assert.Equal(t, JobFile, schemaErr.Artifact)
		})
	}
}
