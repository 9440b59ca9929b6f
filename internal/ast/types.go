package ast

// Program is the root of an HPM-DL compilation unit.
type Program struct {
	Axioms       []Axiom
	Operators    []Operator
	InitialState *InitialState // at most one
	Constraints  []Constraint
}

// Axiom is a named algebraic statement with a safety classification.
type Axiom struct {
	Name       string
	Expression Expr
	Metadata   AxiomMetadata
	Line       int // declaration line, 0 if unknown
}

// AxiomMetadata carries the optional annotations of an axiom.
type AxiomMetadata struct {
	Description string // never populated by the grammar yet
	Tags        []string
	SafetyLevel SafetyLevel
}

// Operator is a named physical transformation.
type Operator struct {
	Name         string
	OperatorType OperatorType
	Spec         OperatorSpec
	Line         int
}

// OperatorSpec holds up to three alternative backend descriptions.
// They are not mutually exclusive; lowering picks one by priority.
type OperatorSpec struct {
	Matrix        *MatrixSpec
	TensorNetwork *TensorNetworkSpec
	GPUKernel     string // empty when absent

	// Raw is the verbatim declaration text, kept for diagnostics.
	Raw string

	// Items lists the body items in declaration order. Repeated kinds
	// overwrite earlier ones in the fields above (last write wins).
	Items []BackendKind
}

// HasGPUKernel reports whether a cuda_kernel item was declared.
func (s OperatorSpec) HasGPUKernel() bool {
	return s.GPUKernel != ""
}

// Backend returns the representation lowering uses: a matrix with data,
// then a tensor network, then a GPU kernel. ok is false when none applies.
func (s OperatorSpec) Backend() (kind BackendKind, ok bool) {
	switch {
	case s.Matrix != nil && s.Matrix.Data != nil:
		return BackendMatrix, true
	case s.TensorNetwork != nil:
		return BackendTensorNetwork, true
	case s.HasGPUKernel():
		return BackendGPUKernel, true
	}
	return BackendMatrix, false
}

// Declared returns the distinct backend kinds present, in priority order.
func (s OperatorSpec) Declared() []BackendKind {
	var kinds []BackendKind
	if s.Matrix != nil {
		kinds = append(kinds, BackendMatrix)
	}
	if s.TensorNetwork != nil {
		kinds = append(kinds, BackendTensorNetwork)
	}
	if s.HasGPUKernel() {
		kinds = append(kinds, BackendGPUKernel)
	}
	return kinds
}

// MatrixSpec is an explicit matrix representation.
type MatrixSpec struct {
	Rows   int
	Cols   int
	Sparse bool
	Data   []float64 // row-major, nil when no literal was given
}

// TensorNetworkSpec describes a tensor-network decomposition.
type TensorNetworkSpec struct {
	NetworkType    NetworkType
	BondDimensions []int
	Truncation     *TruncationSpec
}

// TruncationSpec bounds the size of a tensor network.
type TruncationSpec struct {
	Method     TruncationMethod
	MaxBondDim int
	Tolerance  float64
}

// InitialState is the state a job starts from.
type InitialState struct {
	Name                string
	Psi0                StateSpec
	H0                  *OperatorSpec // reference Hamiltonian; Raw holds the referenced name
	TopologyConstraints []TopologyConstraint
	Line                int
}

// HamiltonianRef returns the name of the referenced Hamiltonian, if any.
func (s *InitialState) HamiltonianRef() string {
	if s == nil || s.H0 == nil {
		return ""
	}
	return s.H0.Raw
}

// StateSpec is the representation and shape of a state.
type StateSpec struct {
	Representation StateRepresentation
	Dimensions     []int
}

// TopologyConstraint restricts the topology of a state.
type TopologyConstraint struct {
	BettiNumbers       []int               // nil when absent
	HomologyGenerators []HomologyGenerator // nil when absent
}

// HomologyGenerator is one generator of a homology group.
type HomologyGenerator struct {
	Dimension      int
	Representation string
}

// Constraint is a named safety or stability constraint.
type Constraint struct {
	Name           string
	ConstraintType ConstraintType
	Expression     Expr
	Line           int
}
