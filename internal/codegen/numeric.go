package codegen

import (
	"fmt"

	"github.com/roach88/hpmdl/internal/ast"
	"github.com/roach88/hpmdl/internal/ir"
)

// NumericSpecs carries the numeric data a runtime needs to instantiate
// operators. Operators without numeric data are absent.
type NumericSpecs struct {
	Specs []NumericSpec `json:"specs" cbor:"specs"`
}

// NumericSpec is the numeric representation of one operator.
type NumericSpec struct {
	OperatorName   string                `json:"operator_name" cbor:"operator_name"`
	Representation NumericRepresentation `json:"numeric_representation" cbor:"numeric_representation"`
}

// NumericRepresentation holds exactly one of its variants, keyed by the
// variant name like ir.Implementation.
type NumericRepresentation struct {
	DenseMatrix   *DenseNumeric     `json:"DenseMatrix,omitempty" cbor:"DenseMatrix,omitempty"`
	SparseMatrix  *SparseNumeric    `json:"SparseMatrix,omitempty" cbor:"SparseMatrix,omitempty"`
	TensorNetwork *ir.TensorNetwork `json:"TensorNetwork,omitempty" cbor:"TensorNetwork,omitempty"`
}

// DenseNumeric is a row-major matrix with its shape.
type DenseNumeric struct {
	Rows int       `json:"rows" cbor:"rows"`
	Cols int       `json:"cols" cbor:"cols"`
	Data []float64 `json:"data" cbor:"data"`
}

// SparseNumeric is a coordinate-format matrix. Indices are (row, col)
// pairs in row-major order; only nonzero entries are listed.
type SparseNumeric struct {
	Rows    int       `json:"rows" cbor:"rows"`
	Cols    int       `json:"cols" cbor:"cols"`
	NNZ     int       `json:"nnz" cbor:"nnz"`
	Indices [][2]int  `json:"indices" cbor:"indices"`
	Values  []float64 `json:"values" cbor:"values"`
}

// Lookup returns the spec for the named operator.
func (n *NumericSpecs) Lookup(name string) (NumericSpec, bool) {
	for _, s := range n.Specs {
		if s.OperatorName == name {
			return s, true
		}
	}
	return NumericSpec{}, false
}

// BuildNumericSpecs pairs each source operator with its lowered form and
// emits the numeric data of the chosen backend. Matrix shapes and the
// declared storage only survive in the AST; the tensor network comes from
// the IR. GPU kernels and operators without a backend carry no numeric
// data and are skipped.
func BuildNumericSpecs(prog *ast.Program, lowered *ir.Program) (*NumericSpecs, error) {
	specs := &NumericSpecs{Specs: []NumericSpec{}}
	mod := lowered.Entry()
	if mod == nil {
		return specs, nil
	}
	if len(mod.Operators) != len(prog.Operators) {
		return nil, fmt.Errorf("numeric specs: %d source operators but %d lowered", len(prog.Operators), len(mod.Operators))
	}

	for i, op := range mod.Operators {
		src := prog.Operators[i]
		if src.Name != op.Name {
			return nil, fmt.Errorf("numeric specs: operator %d is %s in source but %s in IR", i, src.Name, op.Name)
		}

		var rep NumericRepresentation
		switch op.Spec.Implementation.Kind() {
		case ir.KindDenseMatrix:
			m := src.Spec.Matrix
			if m == nil || m.Data == nil {
				continue
			}
			if m.Sparse {
				rep.SparseMatrix = sparse(m)
			} else {
				rep.DenseMatrix = dense(m)
			}
		case ir.KindSparseMatrix:
			sm := op.Spec.Implementation.SparseMatrix
			rep.SparseMatrix = &SparseNumeric{NNZ: len(sm.Values), Indices: sm.Indices, Values: sm.Values}
		case ir.KindTensorNetwork:
			rep.TensorNetwork = op.Spec.Implementation.TensorNetwork
		default:
			continue
		}
		specs.Specs = append(specs.Specs, NumericSpec{OperatorName: op.Name, Representation: rep})
	}
	return specs, nil
}

func dense(m *ast.MatrixSpec) *DenseNumeric {
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return &DenseNumeric{Rows: m.Rows, Cols: m.Cols, Data: data}
}

func sparse(m *ast.MatrixSpec) *SparseNumeric {
	out := &SparseNumeric{Rows: m.Rows, Cols: m.Cols, Indices: [][2]int{}, Values: []float64{}}
	for i, v := range m.Data {
		if v == 0 {
			continue
		}
		out.Indices = append(out.Indices, [2]int{i / m.Cols, i % m.Cols})
		out.Values = append(out.Values, v)
	}
	out.NNZ = len(out.Values)
	return out
}
