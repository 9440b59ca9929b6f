package grammar

import "slices"

// expr = add_expr
func (p *parser) expr() (*Node, error) {
	if err := p.nest(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	start := p.cur()
	add, err := p.addExpr()
	if err != nil {
		return nil, err
	}
	return p.span(RuleExpr, start, add), nil
}

// add_expr = mul_expr (add_op mul_expr)*
func (p *parser) addExpr() (*Node, error) {
	start := p.cur()
	first, err := p.mulExpr()
	if err != nil {
		return nil, err
	}
	children := []*Node{first}
	for p.cur().is(TokOp, "+") || p.cur().is(TokOp, "-") {
		op := p.leaf(RuleAddOp)
		operand, err := p.mulExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, op, operand)
	}
	return p.span(RuleAddExpr, start, children...), nil
}

// mul_expr = unary_expr (mul_op unary_expr)*
func (p *parser) mulExpr() (*Node, error) {
	start := p.cur()
	first, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	children := []*Node{first}
	for p.atMulOp() {
		op := p.leaf(RuleMulOp)
		operand, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, op, operand)
	}
	return p.span(RuleMulExpr, start, children...), nil
}

// atMulOp reports whether the current token is a multiplicative operator.
// Word operators (dot, otimes, tensor, x) only count when an operand
// follows, so a trailing "x" is left for the caller to reject.
func (p *parser) atMulOp() bool {
	tok := p.cur()
	switch tok.Kind {
	case TokOp:
		switch tok.Text {
		case "*", "/", "·", "⊗":
			return true
		}
	case TokIdent:
		return slices.Contains(mulOpWords, tok.Text) && canStartOperand(p.peek(1))
	}
	return false
}

// unary_expr = unary_op* primary
func (p *parser) unaryExpr() (*Node, error) {
	start := p.cur()
	depth := p.depth
	defer func() { p.depth = depth }()

	var children []*Node
	for p.atUnaryOp() {
		if err := p.nest(); err != nil {
			return nil, err
		}
		children = append(children, p.leaf(RuleUnaryOp))
	}
	prim, err := p.primary()
	if err != nil {
		return nil, err
	}
	children = append(children, prim)
	return p.span(RuleUnaryExpr, start, children...), nil
}

func (p *parser) atUnaryOp() bool {
	tok := p.cur()
	switch tok.Kind {
	case TokOp:
		return tok.Text == "-" || tok.Text == "†"
	case TokIdent:
		return slices.Contains(unaryOpWords, tok.Text) && canStartOperand(p.peek(1))
	}
	return false
}

// canStartOperand reports whether tok can begin a unary expression.
func canStartOperand(tok Token) bool {
	switch tok.Kind {
	case TokInt, TokFloat:
		return true
	case TokIdent:
		return !slices.Contains(trailerKeywords, tok.Text)
	case TokPunct:
		return tok.Text == "("
	case TokOp:
		return tok.Text == "-" || tok.Text == "†"
	}
	return false
}

// primary = number | call | ident | grouped
func (p *parser) primary() (*Node, error) {
	start := p.cur()
	var inner *Node
	switch {
	case start.Kind == TokInt:
		inner = p.leaf(RuleInt)
	case start.Kind == TokFloat:
		inner = p.leaf(RuleFloat)
	case start.Kind == TokIdent && p.peek(1).is(TokPunct, "("):
		call, err := p.call()
		if err != nil {
			return nil, err
		}
		inner = call
	case start.Kind == TokIdent:
		inner = p.leaf(RuleIdent)
	case start.is(TokPunct, "("):
		p.take()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.punct(")"); err != nil {
			return nil, err
		}
		inner = p.span(RuleGrouped, start, e)
	default:
		return nil, p.fail("expression", nil)
	}
	return p.span(RulePrimary, start, inner), nil
}

// call = ident "(" arg_list? ")" ; arg_list = expr ("," expr)*
func (p *parser) call() (*Node, error) {
	start := p.cur()
	name := p.leaf(RuleIdent)
	p.take() // "("
	children := []*Node{name}
	if !p.cur().is(TokPunct, ")") {
		argStart := p.cur()
		var args []*Node
		for {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.acceptPunct(",") {
				break
			}
		}
		children = append(children, p.span(RuleArgList, argStart, args...))
	}
	if err := p.punct(")"); err != nil {
		return nil, err
	}
	return p.span(RuleCall, start, children...), nil
}
