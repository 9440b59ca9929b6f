package codegen

import (
	"fmt"
	"strings"

	"github.com/roach88/hpmdl/internal/ir"
)

// Catalog lists the operators a job may reference.
type Catalog struct {
	Operators []CatalogEntry `json:"operators" cbor:"operators"`
}

// CatalogEntry describes one operator. Spec is always an empty object;
// numeric data is carried separately by NumericSpecs.
type CatalogEntry struct {
	Name     string           `json:"name" cbor:"name"`
	Spec     map[string]any   `json:"spec" cbor:"spec"`
	Metadata OperatorMetadata `json:"metadata" cbor:"metadata"`
}

// OperatorMetadata is human-facing information about an operator.
type OperatorMetadata struct {
	Description string   `json:"description" cbor:"description"`
	Tags        []string `json:"tags" cbor:"tags"`
}

var typeDescriptions = map[ir.OperatorType]string{
	ir.Hamiltonian:         "Hamiltonian (unitary) evolution",
	ir.Dissipative:         "dissipative (Lindblad) evolution",
	ir.TopologicalMutation: "topological mutation",
	ir.EntropyFlow:         "entropy flow",
}

var kindDescriptions = map[ir.ImplementationKind]string{
	ir.KindDenseMatrix:   "dense matrix",
	ir.KindSparseMatrix:  "sparse matrix",
	ir.KindTensorNetwork: "tensor network",
	ir.KindCUDAKernel:    "CUDA kernel",
}

// BuildCatalog returns one entry per operator of the entry module, in IR
// order. A program without an entry module yields an empty catalog.
func BuildCatalog(prog *ir.Program) *Catalog {
	cat := &Catalog{Operators: []CatalogEntry{}}
	mod := prog.Entry()
	if mod == nil {
		return cat
	}
	for _, op := range mod.Operators {
		cat.Operators = append(cat.Operators, CatalogEntry{
			Name:     op.Name,
			Spec:     map[string]any{},
			Metadata: describe(op),
		})
	}
	return cat
}

// Lookup returns the entry with the given name.
func (c *Catalog) Lookup(name string) (CatalogEntry, bool) {
	for _, e := range c.Operators {
		if e.Name == name {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

func describe(op ir.Operator) OperatorMetadata {
	kind := op.Spec.Implementation.Kind()

	desc := typeDescriptions[op.OperatorType]
	if desc == "" {
		desc = string(op.OperatorType)
	}
	if k := kindDescriptions[kind]; k != "" {
		desc = fmt.Sprintf("%s via %s", desc, k)
	}
	switch impl := op.Spec.Implementation; kind {
	case ir.KindDenseMatrix:
		if n := len(impl.DenseMatrix.Data); n > 0 {
			desc += fmt.Sprintf(" (%d elements)", n)
		}
	case ir.KindTensorNetwork:
		desc += fmt.Sprintf(" (%s, %d bonds)", impl.TensorNetwork.NetworkType, len(impl.TensorNetwork.Bonds))
	case ir.KindCUDAKernel:
		desc += fmt.Sprintf(" (%s)", impl.CUDAKernel.KernelName)
	}

	tags := []string{tagify(string(op.OperatorType))}
	if kind != "" {
		tags = append(tags, tagify(string(kind)))
	}
	if op.Spec.Target != "" {
		tags = append(tags, "target:"+strings.ToLower(string(op.Spec.Target)))
	}
	return OperatorMetadata{Description: desc, Tags: tags}
}

// tagify turns a PascalCase name into snake_case: "TensorNetwork" becomes
// "tensor_network" and "CUDAKernel" becomes "cuda_kernel".
func tagify(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevUpper := runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
