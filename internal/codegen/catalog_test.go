package codegen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpmdl/internal/compiler"
	"github.com/roach88/hpmdl/internal/ir"
)

const chain = `
operator H: hamiltonian { matrix(2, 2, dense) = [[0, 1], [1, 0]] }
operator chain: dissipative { tensor_net(mera, [4, 4], trunc(qr, 32, 1e-6)) }
operator L: entropy_flow { cuda_kernel("lindblad_step") }
operator idle: topological_mutation
state psi: mps [2, 2] hamiltonian = H
`

func compile(t *testing.T, src string) *ir.Program {
	t.Helper()
	res, err := compiler.Compile(src)
	require.NoError(t, err)
	return res.IR
}

func TestBuildCatalog(t *testing.T) {
	cat := BuildCatalog(compile(t, chain))
	require.Len(t, cat.Operators, 4)

	tests := []struct {
		name string
		desc string
		tags []string
	}{
		{"H", "Hamiltonian (unitary) evolution via dense matrix (4 elements)", []string{"hamiltonian", "dense_matrix", "target:cpu"}},
		{"chain", "dissipative (Lindblad) evolution via tensor network (MERA, 2 bonds)", []string{"dissipative", "tensor_network", "target:cpu"}},
		{"L", "entropy flow via CUDA kernel (lindblad_step)", []string{"entropy_flow", "cuda_kernel", "target:cpu"}},
		{"idle", "topological mutation via dense matrix", []string{"topological_mutation", "dense_matrix", "target:cpu"}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := cat.Operators[i]
			assert.Equal(t, tt.name, e.Name)
			assert.Equal(t, tt.desc, e.Metadata.Description)
			assert.Equal(t, tt.tags, e.Metadata.Tags)
			assert.Empty(t, e.Spec)
		})
	}
}

func TestCatalogJSONShape(t *testing.T) {
	cat := BuildCatalog(compile(t, "operator K: hamiltonian { cuda_kernel(\"k\") }"))
	data, err := json.Marshal(cat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"operators": [{
		"name": "K",
		"spec": {},
		"metadata": {"description": "Hamiltonian (unitary) evolution via CUDA kernel (k)", "tags": ["hamiltonian", "cuda_kernel", "target:cpu"]}
	}]}`, string(data))
}

func TestBuildCatalogWithoutEntryModule(t *testing.T) {
	assert.Empty(t, BuildCatalog(nil).Operators)
	assert.NotNil(t, BuildCatalog(&ir.Program{}).Operators)
}

func TestCatalogLookup(t *testing.T) {
	cat := BuildCatalog(compile(t, chain))
	e, ok := cat.Lookup("chain")
	require.True(t, ok)
	assert.Equal(t, "chain", e.Name)

	_, ok = cat.Lookup("missing")
	assert.False(t, ok)
}

func TestTagify(t *testing.T) {
	for in, want := range map[string]string{
		"Hamiltonian":         "hamiltonian",
		"TopologicalMutation": "topological_mutation",
		"CUDAKernel":          "cuda_kernel",
		"DenseMatrix":         "dense_matrix",
		"MPS":                 "mps",
		"":                    "",
	} {
		assert.Equal(t, want, tagify(in), in)
	}
}
