package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/hpmdl/internal/ast"
	"github.com/roach88/hpmdl/internal/grammar"
)

var (
	safetyLevels = map[string]ast.SafetyLevel{
		"safe":                 ast.Safe,
		"requires_human_force": ast.RequiresHumanForce,
		"dangerous":            ast.Dangerous,
	}
	operatorTypes = map[string]ast.OperatorType{
		"hamiltonian":          ast.Hamiltonian,
		"dissipative":          ast.Dissipative,
		"topological_mutation": ast.TopologicalMutation,
		"entropy_flow":         ast.EntropyFlow,
	}
	networkTypes = map[string]ast.NetworkType{
		"mps":  ast.MPS,
		"peps": ast.PEPS,
		"mera": ast.MERA,
	}
	truncationMethods = map[string]ast.TruncationMethod{
		"svd": ast.SVD,
		"qr":  ast.QR,
		"rg":  ast.RG,
	}
	stateRepresentations = map[string]ast.StateRepresentation{
		"mps":    ast.StateMPS,
		"peps":   ast.StatePEPS,
		"dense":  ast.StateDense,
		"sparse": ast.StateSparse,
	}
	constraintTypes = map[string]ast.ConstraintType{
		"entropy_bound":              ast.EntropyBound,
		"stability_threshold":        ast.StabilityThreshold,
		"topology_surgery_threshold": ast.TopologySurgeryThreshold,
		"human_force_gate":           ast.HumanForceGate,
	}
)

// Parse recognises src and builds its AST.
func Parse(src string) (*ast.Program, error) {
	root, err := grammar.Recognize(src)
	if err != nil {
		return nil, err
	}
	return Build(root)
}

// Build converts a RuleFile parse tree into a Program.
//
// Absent optional parts take their defaults: safety Safe, operator kind
// Hamiltonian, state representation Dense, constraint kind EntropyBound.
func Build(root *grammar.Node) (*ast.Program, error) {
	if root == nil || root.Rule != grammar.RuleFile {
		return nil, &BuildError{Field: "file", Message: "parse tree is not rooted at a file"}
	}

	prog := &ast.Program{}
	var stateAt grammar.Pos
	for _, stmt := range root.Children {
		switch stmt.Rule {
		case grammar.RuleAxiom:
			prog.Axioms = append(prog.Axioms, buildAxiom(stmt))
		case grammar.RuleOperator:
			prog.Operators = append(prog.Operators, buildOperator(stmt))
		case grammar.RuleStateDecl:
			if prog.InitialState != nil {
				return nil, &BuildError{
					Field:   "state",
					Message: "only one state declaration is allowed, first declared at line " + strconv.Itoa(stateAt.Line),
					Pos:     stmt.Pos,
				}
			}
			prog.InitialState = buildState(stmt)
			stateAt = stmt.Pos
		case grammar.RuleConstraint:
			prog.Constraints = append(prog.Constraints, buildConstraint(stmt))
		default:
			return nil, &BuildError{
				Field:   stmt.Rule.String(),
				Message: "not a statement",
				Pos:     stmt.Pos,
			}
		}
	}
	return prog, nil
}

func buildAxiom(n *grammar.Node) ast.Axiom {
	ax := ast.Axiom{
		Name:       n.ChildText(grammar.RuleIdent),
		Expression: buildExpr(n.Child(grammar.RuleExpr)),
		Metadata:   ast.AxiomMetadata{SafetyLevel: ast.Safe},
		Line:       n.Pos.Line,
	}
	if tags := n.Child(grammar.RuleTags); tags != nil {
		for _, id := range tags.ChildrenOf(grammar.RuleIdent) {
			ax.Metadata.Tags = append(ax.Metadata.Tags, id.Text)
		}
	}
	if safety := n.Child(grammar.RuleSafety); safety != nil {
		if level, ok := safetyLevels[safety.ChildText(grammar.RuleSafetyLevel)]; ok {
			ax.Metadata.SafetyLevel = level
		}
	}
	return ax
}

func buildOperator(n *grammar.Node) ast.Operator {
	op := ast.Operator{
		Name:         n.ChildText(grammar.RuleIdent),
		OperatorType: ast.Hamiltonian,
		Spec:         ast.OperatorSpec{Raw: n.Text},
		Line:         n.Pos.Line,
	}
	if t, ok := operatorTypes[n.ChildText(grammar.RuleOpKind)]; ok {
		op.OperatorType = t
	}

	body := n.Child(grammar.RuleOpBody)
	if body == nil {
		return op
	}
	for _, item := range body.Children {
		switch item.Rule {
		case grammar.RuleMatrixSpec:
			op.Spec.Matrix = buildMatrix(item)
			op.Spec.Items = append(op.Spec.Items, ast.BackendMatrix)
		case grammar.RuleTensorNetSpec:
			op.Spec.TensorNetwork = buildTensorNetwork(item)
			op.Spec.Items = append(op.Spec.Items, ast.BackendTensorNetwork)
		case grammar.RuleGPUKernelSpec:
			op.Spec.GPUKernel = unquote(item.ChildText(grammar.RuleString))
			op.Spec.Items = append(op.Spec.Items, ast.BackendGPUKernel)
		}
	}
	return op
}

func buildMatrix(n *grammar.Node) *ast.MatrixSpec {
	m := &ast.MatrixSpec{Sparse: n.ChildText(grammar.RuleStorage) == "sparse"}
	if dims := n.ChildrenOf(grammar.RuleInt); len(dims) == 2 {
		m.Rows = parseInt(dims[0].Text)
		m.Cols = parseInt(dims[1].Text)
	}
	if lit := n.Child(grammar.RuleMatrixLit); lit != nil {
		m.Data = []float64{}
		for _, row := range lit.ChildrenOf(grammar.RuleRow) {
			for _, num := range row.Children {
				m.Data = append(m.Data, parseNumber(num.Text))
			}
		}
	}
	return m
}

func buildTensorNetwork(n *grammar.Node) *ast.TensorNetworkSpec {
	tn := &ast.TensorNetworkSpec{
		NetworkType:    networkTypes[n.ChildText(grammar.RuleNetKind)],
		BondDimensions: intList(n.Child(grammar.RuleBondDims)),
	}
	if tr := n.Child(grammar.RuleTruncSpec); tr != nil && len(tr.Children) == 3 {
		tn.Truncation = &ast.TruncationSpec{
			Method:     truncationMethods[tr.ChildText(grammar.RuleTruncMethod)],
			MaxBondDim: parseInt(tr.Children[1].Text),
			Tolerance:  parseNumber(tr.Children[2].Text),
		}
	}
	return tn
}

func buildState(n *grammar.Node) *ast.InitialState {
	st := &ast.InitialState{
		Name: n.ChildText(grammar.RuleIdent),
		Psi0: ast.StateSpec{
			Representation: ast.StateDense,
			Dimensions:     intList(n.Child(grammar.RuleDims)),
		},
		Line: n.Pos.Line,
	}
	if r, ok := stateRepresentations[n.ChildText(grammar.RuleStateRepr)]; ok {
		st.Psi0.Representation = r
	}
	if ref := n.Child(grammar.RuleHamiltonianRef); ref != nil {
		st.H0 = &ast.OperatorSpec{Raw: ref.ChildText(grammar.RuleIdent)}
	}
	if topo := n.Child(grammar.RuleTopoConstraints); topo != nil {
		st.TopologyConstraints = []ast.TopologyConstraint{buildTopology(topo)}
	}
	return st
}

// buildTopology merges the items of one topology block. A repeated item
// replaces the earlier one.
func buildTopology(n *grammar.Node) ast.TopologyConstraint {
	var tc ast.TopologyConstraint
	for _, item := range n.Children {
		switch item.Rule {
		case grammar.RuleBetti:
			tc.BettiNumbers = intList(item)
		case grammar.RuleGenerators:
			tc.HomologyGenerators = []ast.HomologyGenerator{}
			for _, g := range item.ChildrenOf(grammar.RuleGenerator) {
				tc.HomologyGenerators = append(tc.HomologyGenerators, ast.HomologyGenerator{
					Dimension:      parseInt(g.ChildText(grammar.RuleInt)),
					Representation: unquote(g.ChildText(grammar.RuleString)),
				})
			}
		}
	}
	return tc
}

func buildConstraint(n *grammar.Node) ast.Constraint {
	c := ast.Constraint{
		Name:           n.ChildText(grammar.RuleIdent),
		ConstraintType: ast.EntropyBound,
		Expression:     buildExpr(n.Child(grammar.RuleExpr)),
		Line:           n.Pos.Line,
	}
	if t, ok := constraintTypes[n.ChildText(grammar.RuleConstraintKind)]; ok {
		c.ConstraintType = t
	}
	return c
}

// intList reads the RuleInt children of n. It returns an empty, non-nil
// slice for an empty list.
func intList(n *grammar.Node) []int {
	out := []int{}
	if n == nil {
		return out
	}
	for _, c := range n.ChildrenOf(grammar.RuleInt) {
		out = append(out, parseInt(c.Text))
	}
	return out
}

// parseNumber reads an int or float literal, possibly signed. Malformed
// or out-of-range text yields 0.
func parseNumber(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(text string) int {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return v
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
