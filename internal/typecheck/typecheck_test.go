package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpmdl/internal/ast"
)

func matrixOp(name string, rows, cols int, data []float64) ast.Operator {
	return ast.Operator{
		Name: name,
		Spec: ast.OperatorSpec{Matrix: &ast.MatrixSpec{Rows: rows, Cols: cols, Data: data}},
		Line: 3,
	}
}

func TestCheckMatrixShapes(t *testing.T) {
	tests := []struct {
		name    string
		op      ast.Operator
		wantErr string
	}{
		{"2x3 with six entries", matrixOp("A", 2, 3, []float64{1, 2, 3, 4, 5, 6}), ""},
		{"2x2 with six entries", matrixOp("H", 2, 2, []float64{1, 2, 3, 4, 5, 6}), "operator H: matrix size 2x2 but data len 6"},
		{"no data is not checked", matrixOp("B", 4, 4, nil), ""},
		{"0x0 with empty data", matrixOp("Z", 0, 0, []float64{}), ""},
		{"size product overflows", matrixOp("O", 3, 6148914691236517206, []float64{1, 2}),
			"operator O: matrix size 3x6148914691236517206 but data len 2"},
		{"zero rows with data", matrixOp("R", 0, 5, []float64{1}), "operator R: matrix size 0x5 but data len 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checked, err := Check(&ast.Program{Operators: []ast.Operator{tt.op}})
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, checked)
				return
			}
			require.EqualError(t, err, tt.wantErr)
			var typeErr *TypeError
			require.ErrorAs(t, err, &typeErr)
			assert.Equal(t, 3, typeErr.Line)
			assert.Nil(t, checked)
		})
	}
}

func TestCheckStopsAtFirstBadOperator(t *testing.T) {
	prog := &ast.Program{Operators: []ast.Operator{
		matrixOp("ok", 1, 1, []float64{1}),
		matrixOp("first", 1, 2, []float64{1}),
		matrixOp("second", 3, 3, []float64{1}),
	}}
	_, err := Check(prog)
	require.EqualError(t, err, "operator first: matrix size 1x2 but data len 1")
}

func TestCheckInitialState(t *testing.T) {
	_, err := Check(&ast.Program{InitialState: &ast.InitialState{
		Name: "psi",
		Psi0: ast.StateSpec{Representation: ast.StateDense, Dimensions: []int{}},
		Line: 7,
	}})
	require.EqualError(t, err, "initial state: dimensions missing")

	checked, err := Check(&ast.Program{InitialState: &ast.InitialState{
		Psi0: ast.StateSpec{Representation: ast.StateMPS, Dimensions: []int{2, 2}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, checked.TypeInfo.StateDims)
}

func TestCheckEmptyProgram(t *testing.T) {
	checked, err := Check(&ast.Program{})
	require.NoError(t, err)
	assert.Empty(t, checked.TypeInfo.Operators)
	assert.Nil(t, checked.TypeInfo.StateDims)

	checked, err = Check(nil)
	require.NoError(t, err)
	assert.NotNil(t, checked.Program)
}

func TestCheckRecordsShapesAndCopiesProgram(t *testing.T) {
	prog := &ast.Program{Operators: []ast.Operator{
		matrixOp("A", 2, 1, []float64{1, 2}),
		{Name: "K", Spec: ast.OperatorSpec{GPUKernel: "k"}},
		matrixOp("B", 3, 3, nil),
	}}
	checked, err := Check(prog)
	require.NoError(t, err)

	assert.Equal(t, []OperatorShape{
		{Name: "A", Rows: 2, Cols: 1, HasData: true},
		{Name: "B", Rows: 3, Cols: 3, HasData: false},
	}, checked.TypeInfo.Operators)

	prog.Operators[0].Spec.Matrix.Data[0] = 99
	prog.Operators[0].Name = "renamed"
	assert.Equal(t, 1.0, checked.Program.Operators[0].Spec.Matrix.Data[0])
	assert.Equal(t, "A", checked.Program.Operators[0].Name)
}
