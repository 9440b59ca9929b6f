package grammar

import "fmt"

// Rule tags a parse-tree node with the grammar rule that produced it.
//
// The set is closed. When adding a rule, add it before ruleCount and give
// it a name in ruleNames; the builder in package compiler must handle it.
type Rule uint8

const (
	RuleFile Rule = iota

	// Statements
	RuleAxiom
	RuleOperator
	RuleStateDecl
	RuleConstraint

	// Shared leaves
	RuleIdent
	RuleInt
	RuleFloat
	RuleString

	// Operator declarations
	RuleOpKind
	RuleOpBody
	RuleMatrixSpec
	RuleStorage
	RuleMatrixLit
	RuleRow
	RuleTensorNetSpec
	RuleNetKind
	RuleBondDims
	RuleTruncSpec
	RuleTruncMethod
	RuleGPUKernelSpec

	// State declarations
	RuleStateRepr
	RuleDims
	RuleHamiltonianRef
	RuleTopoConstraints
	RuleBetti
	RuleGenerators
	RuleGenerator

	// Constraint and axiom annotations
	RuleConstraintKind
	RuleTags
	RuleSafety
	RuleSafetyLevel

	// Expressions
	RuleExpr
	RuleAddExpr
	RuleAddOp
	RuleMulExpr
	RuleMulOp
	RuleUnaryExpr
	RuleUnaryOp
	RulePrimary
	RuleCall
	RuleArgList
	RuleGrouped

	ruleCount
)

var ruleNames = [ruleCount]string{
	RuleFile:            "file",
	RuleAxiom:           "axiom",
	RuleOperator:        "operator",
	RuleStateDecl:       "state_decl",
	RuleConstraint:      "constraint",
	RuleIdent:           "ident",
	RuleInt:             "int",
	RuleFloat:           "float",
	RuleString:          "string",
	RuleOpKind:          "op_kind",
	RuleOpBody:          "op_body",
	RuleMatrixSpec:      "matrix_spec",
	RuleStorage:         "storage",
	RuleMatrixLit:       "matrix_lit",
	RuleRow:             "row",
	RuleTensorNetSpec:   "tensor_net_spec",
	RuleNetKind:         "net_kind",
	RuleBondDims:        "bond_dims",
	RuleTruncSpec:       "trunc_spec",
	RuleTruncMethod:     "trunc_method",
	RuleGPUKernelSpec:   "gpu_kernel_spec",
	RuleStateRepr:       "state_repr",
	RuleDims:            "dims",
	RuleHamiltonianRef:  "hamiltonian_ref",
	RuleTopoConstraints: "topo_constraints",
	RuleBetti:           "betti",
	RuleGenerators:      "generators",
	RuleGenerator:       "generator",
	RuleConstraintKind:  "constraint_kind",
	RuleTags:            "tags",
	RuleSafety:          "safety",
	RuleSafetyLevel:     "safety_level",
	RuleExpr:            "expr",
	RuleAddExpr:         "add_expr",
	RuleAddOp:           "add_op",
	RuleMulExpr:         "mul_expr",
	RuleMulOp:           "mul_op",
	RuleUnaryExpr:       "unary_expr",
	RuleUnaryOp:         "unary_op",
	RulePrimary:         "primary",
	RuleCall:            "call",
	RuleArgList:         "arg_list",
	RuleGrouped:         "grouped",
}

func (r Rule) String() string {
	if r < ruleCount && ruleNames[r] != "" {
		return ruleNames[r]
	}
	return fmt.Sprintf("Rule(%d)", uint8(r))
}

// Rules returns every rule in declaration order.
func Rules() []Rule {
	rules := make([]Rule, ruleCount)
	for i := range rules {
		rules[i] = Rule(i)
	}
	return rules
}

// Node is a parse-tree node. Text is the source slice the node spans.
type Node struct {
	Rule     Rule
	Text     string
	Pos      Pos
	Children []*Node
}

// Child returns the first direct child tagged r, or nil.
func (n *Node) Child(r Rule) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Rule == r {
			return c
		}
	}
	return nil
}

// ChildrenOf returns the direct children tagged r.
func (n *Node) ChildrenOf(r Rule) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Rule == r {
			out = append(out, c)
		}
	}
	return out
}

// ChildText returns the text of the first child tagged r, or "".
func (n *Node) ChildText(r Rule) string {
	if c := n.Child(r); c != nil {
		return c.Text
	}
	return ""
}
