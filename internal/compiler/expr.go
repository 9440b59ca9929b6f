package compiler

import (
	"github.com/roach88/hpmdl/internal/ast"
	"github.com/roach88/hpmdl/internal/grammar"
)

var (
	mulOps = map[string]ast.BinaryOp{
		"*":      ast.Mul,
		"/":      ast.Div,
		"·":      ast.Dot,
		"dot":    ast.Dot,
		"⊗":      ast.Cross,
		"otimes": ast.Cross,
		"tensor": ast.Cross,
		"x":      ast.Cross,
	}
	unaryOps = map[string]ast.UnaryOp{
		"-":         ast.Neg,
		"†":         ast.Conjugate,
		"dagger":    ast.Conjugate,
		"conj":      ast.Conjugate,
		"T":         ast.Transpose,
		"transpose": ast.Transpose,
		"trace":     ast.Trace,
	}
)

// buildExpr converts an expression subtree. Every rule has a case; rules
// with no expression meaning become Unparsed with their source text.
func buildExpr(n *grammar.Node) ast.Expr {
	if n == nil {
		return &ast.Unparsed{}
	}

	switch n.Rule {
	case grammar.RuleExpr, grammar.RulePrimary, grammar.RuleGrouped:
		if len(n.Children) != 1 {
			return &ast.Unparsed{Text: n.Text}
		}
		return buildExpr(n.Children[0])

	case grammar.RuleAddExpr:
		return foldBinary(n, func(op string) ast.BinaryOp {
			if op == "-" {
				return ast.Sub
			}
			return ast.Add
		})

	case grammar.RuleMulExpr:
		return foldBinary(n, func(op string) ast.BinaryOp {
			if b, ok := mulOps[op]; ok {
				return b
			}
			return ast.Mul
		})

	case grammar.RuleUnaryExpr:
		return buildUnary(n)

	case grammar.RuleInt, grammar.RuleFloat:
		return &ast.Constant{Value: parseNumber(n.Text)}

	case grammar.RuleIdent:
		return &ast.Variable{Name: n.Text}

	case grammar.RuleCall:
		call := &ast.Call{Name: n.ChildText(grammar.RuleIdent)}
		if args := n.Child(grammar.RuleArgList); args != nil {
			for _, a := range args.Children {
				call.Args = append(call.Args, buildExpr(a))
			}
		}
		return call

	case grammar.RuleFile, grammar.RuleAxiom, grammar.RuleOperator, grammar.RuleStateDecl,
		grammar.RuleConstraint, grammar.RuleString, grammar.RuleOpKind, grammar.RuleOpBody,
		grammar.RuleMatrixSpec, grammar.RuleStorage, grammar.RuleMatrixLit, grammar.RuleRow,
		grammar.RuleTensorNetSpec, grammar.RuleNetKind, grammar.RuleBondDims, grammar.RuleTruncSpec,
		grammar.RuleTruncMethod, grammar.RuleGPUKernelSpec, grammar.RuleStateRepr, grammar.RuleDims,
		grammar.RuleHamiltonianRef, grammar.RuleTopoConstraints, grammar.RuleBetti,
		grammar.RuleGenerators, grammar.RuleGenerator, grammar.RuleConstraintKind, grammar.RuleTags,
		grammar.RuleSafety, grammar.RuleSafetyLevel, grammar.RuleAddOp, grammar.RuleMulOp,
		grammar.RuleUnaryOp, grammar.RuleArgList:
		return &ast.Unparsed{Text: n.Text}
	}
	return &ast.Unparsed{Text: n.Text}
}

// foldBinary left-folds operand (op operand)* children.
func foldBinary(n *grammar.Node, opFor func(string) ast.BinaryOp) ast.Expr {
	if len(n.Children) == 0 {
		return &ast.Unparsed{Text: n.Text}
	}
	acc := buildExpr(n.Children[0])
	for i := 1; i+1 < len(n.Children); i += 2 {
		acc = &ast.Binary{
			Op:    opFor(n.Children[i].Text),
			Left:  acc,
			Right: buildExpr(n.Children[i+1]),
		}
	}
	return acc
}

// buildUnary applies the collected prefix operators right to left, so the
// operator nearest the operand ends up innermost.
func buildUnary(n *grammar.Node) ast.Expr {
	if len(n.Children) == 0 {
		return &ast.Unparsed{Text: n.Text}
	}
	last := len(n.Children) - 1
	e := buildExpr(n.Children[last])
	for i := last - 1; i >= 0; i-- {
		op, ok := unaryOps[n.Children[i].Text]
		if !ok {
			return &ast.Unparsed{Text: n.Text}
		}
		e = &ast.Unary{Op: op, Operand: e}
	}
	return e
}
