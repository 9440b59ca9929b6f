package ast

// SafetyLevel classifies how dangerous an axiom is.
type SafetyLevel int

const (
	Safe SafetyLevel = iota
	RequiresHumanForce
	Dangerous
)

func (l SafetyLevel) String() string {
	switch l {
	case Safe:
		return "Safe"
	case RequiresHumanForce:
		return "RequiresHumanForce"
	case Dangerous:
		return "Dangerous"
	}
	return "SafetyLevel(?)"
}

// OperatorType is the physical role of an operator.
type OperatorType int

const (
	Hamiltonian OperatorType = iota
	Dissipative
	TopologicalMutation
	EntropyFlow
)

func (t OperatorType) String() string {
	switch t {
	case Hamiltonian:
		return "Hamiltonian"
	case Dissipative:
		return "Dissipative"
	case TopologicalMutation:
		return "TopologicalMutation"
	case EntropyFlow:
		return "EntropyFlow"
	}
	return "OperatorType(?)"
}

// BackendKind identifies one of the alternative operator backends.
type BackendKind int

const (
	BackendMatrix BackendKind = iota
	BackendTensorNetwork
	BackendGPUKernel
)

func (k BackendKind) String() string {
	switch k {
	case BackendMatrix:
		return "matrix"
	case BackendTensorNetwork:
		return "tensor_net"
	case BackendGPUKernel:
		return "cuda_kernel"
	}
	return "backend(?)"
}

// NetworkType is the shape of a tensor network.
type NetworkType int

const (
	MPS NetworkType = iota
	PEPS
	MERA
)

func (t NetworkType) String() string {
	switch t {
	case MPS:
		return "MPS"
	case PEPS:
		return "PEPS"
	case MERA:
		return "MERA"
	}
	return "NetworkType(?)"
}

// TruncationMethod is the decomposition used to truncate bonds.
type TruncationMethod int

const (
	SVD TruncationMethod = iota
	QR
	RG
)

func (m TruncationMethod) String() string {
	switch m {
	case SVD:
		return "SVD"
	case QR:
		return "QR"
	case RG:
		return "RG"
	}
	return "TruncationMethod(?)"
}

// StateRepresentation is the storage form of a state.
type StateRepresentation int

const (
	StateDense StateRepresentation = iota
	StateSparse
	StateMPS
	StatePEPS
)

func (r StateRepresentation) String() string {
	switch r {
	case StateDense:
		return "Dense"
	case StateSparse:
		return "Sparse"
	case StateMPS:
		return "MPS"
	case StatePEPS:
		return "PEPS"
	}
	return "StateRepresentation(?)"
}

// ConstraintType is the kind of governance a constraint expresses.
type ConstraintType int

const (
	EntropyBound ConstraintType = iota
	StabilityThreshold
	TopologySurgeryThreshold
	HumanForceGate
)

func (t ConstraintType) String() string {
	switch t {
	case EntropyBound:
		return "EntropyBound"
	case StabilityThreshold:
		return "StabilityThreshold"
	case TopologySurgeryThreshold:
		return "TopologySurgeryThreshold"
	case HumanForceGate:
		return "HumanForceGate"
	}
	return "ConstraintType(?)"
}
