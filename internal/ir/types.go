package ir

// EntryModule is the name of the single module lowering produces.
const EntryModule = "main"

// Program is a lowered compilation unit.
type Program struct {
	Modules    []Module `json:"modules"`
	EntryPoint string   `json:"entry_point"`
}

// Module groups operators. Only one module is produced today.
type Module struct {
	Name         string     `json:"name"`
	Operators    []Operator `json:"operators"`
	InitialState *State     `json:"initial_state,omitempty"`
}

// Entry returns the module named by EntryPoint, or nil.
func (p *Program) Entry() *Module {
	if p == nil {
		return nil
	}
	for i := range p.Modules {
		if p.Modules[i].Name == p.EntryPoint {
			return &p.Modules[i]
		}
	}
	return nil
}

// Operator is a lowered operator with one chosen implementation.
type Operator struct {
	Name         string       `json:"name"`
	OperatorType OperatorType `json:"operator_type"`
	Spec         OperatorSpec `json:"spec"`
}

// OperatorType mirrors ast.OperatorType by name.
type OperatorType string

const (
	Hamiltonian         OperatorType = "Hamiltonian"
	Dissipative         OperatorType = "Dissipative"
	TopologicalMutation OperatorType = "TopologicalMutation"
	EntropyFlow         OperatorType = "EntropyFlow"
)

// OperatorSpec is where and how an operator runs.
type OperatorSpec struct {
	Target         Target         `json:"target"`
	Implementation Implementation `json:"implementation"`
}

// Target is the execution target class.
type Target string

const (
	CPU      Target = "CPU"
	GPU      Target = "GPU"
	MultiGPU Target = "MultiGPU"
)

// Implementation holds exactly one of its variants. The JSON form is
// keyed by the variant name.
type Implementation struct {
	DenseMatrix   *DenseMatrix   `json:"DenseMatrix,omitempty"`
	SparseMatrix  *SparseMatrix  `json:"SparseMatrix,omitempty"`
	TensorNetwork *TensorNetwork `json:"TensorNetwork,omitempty"`
	CUDAKernel    *CUDAKernel    `json:"CUDAKernel,omitempty"`
}

// ImplementationKind names an Implementation variant.
type ImplementationKind string

const (
	KindDenseMatrix   ImplementationKind = "DenseMatrix"
	KindSparseMatrix  ImplementationKind = "SparseMatrix"
	KindTensorNetwork ImplementationKind = "TensorNetwork"
	KindCUDAKernel    ImplementationKind = "CUDAKernel"
)

// Kind reports the populated variant, or "" when none is set.
func (i Implementation) Kind() ImplementationKind {
	switch {
	case i.DenseMatrix != nil:
		return KindDenseMatrix
	case i.SparseMatrix != nil:
		return KindSparseMatrix
	case i.TensorNetwork != nil:
		return KindTensorNetwork
	case i.CUDAKernel != nil:
		return KindCUDAKernel
	}
	return ""
}

// DenseMatrix is row-major matrix data.
type DenseMatrix struct {
	Data []float64 `json:"data"`
}

// SparseMatrix is coordinate-format matrix data. Lowering does not emit it
// yet; it is part of the contract with the runtime.
type SparseMatrix struct {
	Indices [][2]int  `json:"indices"`
	Values  []float64 `json:"values"`
}

// TensorNetwork is the structure of a tensor-network decomposition.
type TensorNetwork struct {
	NetworkType string      `json:"network_type"`
	Tensors     []Tensor    `json:"tensors"`
	Bonds       []Bond      `json:"bonds"`
	Truncation  *Truncation `json:"truncation,omitempty"`
}

// Tensor is one node of a tensor network.
type Tensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data,omitempty"`
}

// Bond joins index Index1 of Tensor1 to index Index2 of Tensor2.
type Bond struct {
	Tensor1   string `json:"tensor1"`
	Index1    int    `json:"index1"`
	Tensor2   string `json:"tensor2"`
	Index2    int    `json:"index2"`
	Dimension int    `json:"dimension"`
}

// Truncation bounds the bond dimension of a tensor network.
type Truncation struct {
	Method     string  `json:"method"`
	MaxBondDim int     `json:"max_bond_dim"`
	Tolerance  float64 `json:"tolerance"`
}

// CUDAKernel names a GPU kernel implementation.
type CUDAKernel struct {
	KernelName string `json:"kernel_name"`
}

// State is the lowered initial state.
type State struct {
	Name           string     `json:"name"`
	Representation string     `json:"representation"`
	Dimensions     []int      `json:"dimensions"`
	Hamiltonian    string     `json:"hamiltonian,omitempty"`
	Topology       []Topology `json:"topology,omitempty"`
}

// Topology is one topology constraint of the initial state.
type Topology struct {
	BettiNumbers []int       `json:"betti_numbers,omitempty"`
	Generators   []Generator `json:"generators,omitempty"`
}

// Generator is one homology generator.
type Generator struct {
	Dimension      int    `json:"dimension"`
	Representation string `json:"representation"`
}
