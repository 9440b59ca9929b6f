package codegen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpmdl/internal/compiler"
)

func numericSpecs(t *testing.T, src string) *NumericSpecs {
	t.Helper()
	res, err := compiler.Compile(src)
	require.NoError(t, err)
	specs, err := BuildNumericSpecs(res.Program, res.IR)
	require.NoError(t, err)
	return specs
}

func TestBuildNumericSpecs(t *testing.T) {
	res, err := compiler.Compile(chain)
	require.NoError(t, err)
	specs, err := BuildNumericSpecs(res.Program, res.IR)
	require.NoError(t, err)

	// L is a kernel and idle has no backend.
	require.Len(t, specs.Specs, 2)

	h, ok := specs.Lookup("H")
	require.True(t, ok)
	assert.Equal(t, &DenseNumeric{Rows: 2, Cols: 2, Data: []float64{0, 1, 1, 0}}, h.Representation.DenseMatrix)
	assert.Nil(t, h.Representation.SparseMatrix)
	assert.Nil(t, h.Representation.TensorNetwork)

	c, ok := specs.Lookup("chain")
	require.True(t, ok)
	assert.Equal(t, res.IR.Entry().Operators[1].Spec.Implementation.TensorNetwork, c.Representation.TensorNetwork)

	_, ok = specs.Lookup("L")
	assert.False(t, ok)
	_, ok = specs.Lookup("idle")
	assert.False(t, ok)
}

func TestBuildNumericSpecsSparseStorage(t *testing.T) {
	specs := numericSpecs(t, "operator Z: hamiltonian { matrix(2, 3, sparse) = [[1, 0, 0], [0, 0, -2.5]] }")
	require.Len(t, specs.Specs, 1)

	rep := specs.Specs[0].Representation
	assert.Nil(t, rep.DenseMatrix)
	assert.Equal(t, &SparseNumeric{
		Rows:    2,
		Cols:    3,
		NNZ:     2,
		Indices: [][2]int{{0, 0}, {1, 2}},
		Values:  []float64{1, -2.5},
	}, rep.SparseMatrix)
}

func TestBuildNumericSpecsAllZeroSparse(t *testing.T) {
	specs := numericSpecs(t, "operator Z: hamiltonian { matrix(2, 2, sparse) = [[0, 0], [0, 0]] }")
	require.Len(t, specs.Specs, 1)
	rep := specs.Specs[0].Representation.SparseMatrix
	require.NotNil(t, rep)
	assert.Zero(t, rep.NNZ)
	assert.Empty(t, rep.Indices)
	assert.NotNil(t, rep.Values, "encodes as an empty list, not null")
}

func TestBuildNumericSpecsWithoutBackends(t *testing.T) {
	specs := numericSpecs(t, "operator idle: topological_mutation\noperator K: entropy_flow { cuda_kernel(\"step\") }")
	assert.NotNil(t, specs.Specs)
	assert.Empty(t, specs.Specs)
}

func TestBuildNumericSpecsRejectsMismatchedPrograms(t *testing.T) {
	a, err := compiler.Compile("operator H: hamiltonian { matrix(1, 1, dense) = [[1]] }")
	require.NoError(t, err)
	b, err := compiler.Compile("operator K: hamiltonian { matrix(1, 1, dense) = [[1]] }")
	require.NoError(t, err)
	c, err := compiler.Compile(chain)
	require.NoError(t, err)

	_, err = BuildNumericSpecs(a.Program, b.IR)
	assert.ErrorContains(t, err, "H in source but K in IR")

	_, err = BuildNumericSpecs(a.Program, c.IR)
	assert.ErrorContains(t, err, "1 source operators but 4 lowered")
}

func TestNumericSpecsJSONShape(t *testing.T) {
	specs := numericSpecs(t, "operator H: hamiltonian { matrix(1, 2, dense) = [[1, 2]] }")
	data, err := json.Marshal(specs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"specs": [{
		"operator_name": "H",
		"numeric_representation": {"DenseMatrix": {"rows": 1, "cols": 2, "data": [1, 2]}}
	}]}`, string(data))
}
