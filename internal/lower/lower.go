// Package lower turns a type-checked AST into IR.
//
// Lowering cannot fail. Each operator gets exactly one implementation,
// chosen by priority: a matrix with data becomes DenseMatrix (declared
// sparsity is not carried), otherwise a tensor network becomes
// TensorNetwork, otherwise a GPU kernel becomes CUDAKernel, otherwise the
// operator gets an empty DenseMatrix. The target is always CPU.
package lower

import (
	"github.com/roach88/hpmdl/internal/ast"
	"github.com/roach88/hpmdl/internal/ir"
)

// placeholderTensor names the tensor every synthetic bond attaches to.
const placeholderTensor = "t"

var operatorTypes = map[ast.OperatorType]ir.OperatorType{
	ast.Hamiltonian:         ir.Hamiltonian,
	ast.Dissipative:         ir.Dissipative,
	ast.TopologicalMutation: ir.TopologicalMutation,
	ast.EntropyFlow:         ir.EntropyFlow,
}

// Lower converts prog into a single-module IR program named "main". The
// input is not modified and shares no memory with the result.
func Lower(prog *ast.Program) *ir.Program {
	mod := ir.Module{Name: ir.EntryModule, Operators: []ir.Operator{}}
	if prog != nil {
		for _, op := range prog.Operators {
			mod.Operators = append(mod.Operators, lowerOperator(op))
		}
		mod.InitialState = lowerState(prog.InitialState)
	}
	return &ir.Program{Modules: []ir.Module{mod}, EntryPoint: ir.EntryModule}
}

func lowerOperator(op ast.Operator) ir.Operator {
	t, ok := operatorTypes[op.OperatorType]
	if !ok {
		t = ir.OperatorType(op.OperatorType.String())
	}
	return ir.Operator{
		Name:         op.Name,
		OperatorType: t,
		Spec: ir.OperatorSpec{
			Target:         ir.CPU,
			Implementation: lowerImplementation(op.Spec),
		},
	}
}

func lowerImplementation(spec ast.OperatorSpec) ir.Implementation {
	kind, ok := spec.Backend()
	if !ok {
		return ir.Implementation{DenseMatrix: &ir.DenseMatrix{Data: []float64{}}}
	}
	switch kind {
	case ast.BackendTensorNetwork:
		return ir.Implementation{TensorNetwork: lowerTensorNetwork(spec.TensorNetwork)}
	case ast.BackendGPUKernel:
		return ir.Implementation{CUDAKernel: &ir.CUDAKernel{KernelName: spec.GPUKernel}}
	default:
		data := make([]float64, len(spec.Matrix.Data))
		copy(data, spec.Matrix.Data)
		return ir.Implementation{DenseMatrix: &ir.DenseMatrix{Data: data}}
	}
}

// lowerTensorNetwork keeps only the bond topology: bond i joins index i to
// index i+1 of the placeholder tensor. Tensor shapes are not carried.
func lowerTensorNetwork(tn *ast.TensorNetworkSpec) *ir.TensorNetwork {
	out := &ir.TensorNetwork{
		NetworkType: tn.NetworkType.String(),
		Tensors:     []ir.Tensor{},
		Bonds:       make([]ir.Bond, 0, len(tn.BondDimensions)),
	}
	for i, dim := range tn.BondDimensions {
		out.Bonds = append(out.Bonds, ir.Bond{
			Tensor1:   placeholderTensor,
			Index1:    i,
			Tensor2:   placeholderTensor,
			Index2:    i + 1,
			Dimension: dim,
		})
	}
	if tr := tn.Truncation; tr != nil {
		out.Truncation = &ir.Truncation{
			Method:     tr.Method.String(),
			MaxBondDim: tr.MaxBondDim,
			Tolerance:  tr.Tolerance,
		}
	}
	return out
}

func lowerState(st *ast.InitialState) *ir.State {
	if st == nil {
		return nil
	}
	out := &ir.State{
		Name:           st.Name,
		Representation: st.Psi0.Representation.String(),
		Dimensions:     append([]int{}, st.Psi0.Dimensions...),
		Hamiltonian:    st.HamiltonianRef(),
	}
	for _, tc := range st.TopologyConstraints {
		topo := ir.Topology{}
		if len(tc.BettiNumbers) > 0 {
			topo.BettiNumbers = append([]int(nil), tc.BettiNumbers...)
		}
		for _, g := range tc.HomologyGenerators {
			topo.Generators = append(topo.Generators, ir.Generator{
				Dimension:      g.Dimension,
				Representation: g.Representation,
			})
		}
		out.Topology = append(out.Topology, topo)
	}
	return out
}
