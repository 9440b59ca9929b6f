package ast

import "slices"

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	if p == nil {
		return nil
	}
	out := &Program{
		Axioms:      make([]Axiom, len(p.Axioms)),
		Operators:   make([]Operator, len(p.Operators)),
		Constraints: make([]Constraint, len(p.Constraints)),
	}
	for i, a := range p.Axioms {
		a.Expression = CloneExpr(a.Expression)
		a.Metadata.Tags = slices.Clone(a.Metadata.Tags)
		out.Axioms[i] = a
	}
	for i, op := range p.Operators {
		op.Spec = op.Spec.Clone()
		out.Operators[i] = op
	}
	for i, c := range p.Constraints {
		c.Expression = CloneExpr(c.Expression)
		out.Constraints[i] = c
	}
	if p.InitialState != nil {
		st := *p.InitialState
		st.Psi0.Dimensions = slices.Clone(st.Psi0.Dimensions)
		if st.H0 != nil {
			h0 := st.H0.Clone()
			st.H0 = &h0
		}
		if st.TopologyConstraints != nil {
			st.TopologyConstraints = make([]TopologyConstraint, len(p.InitialState.TopologyConstraints))
			for i, tc := range p.InitialState.TopologyConstraints {
				st.TopologyConstraints[i] = TopologyConstraint{
					BettiNumbers:       slices.Clone(tc.BettiNumbers),
					HomologyGenerators: slices.Clone(tc.HomologyGenerators),
				}
			}
		}
		out.InitialState = &st
	}
	return out
}

// Clone returns a deep copy of the spec.
func (s OperatorSpec) Clone() OperatorSpec {
	out := s
	out.Items = slices.Clone(s.Items)
	if s.Matrix != nil {
		m := *s.Matrix
		m.Data = slices.Clone(s.Matrix.Data)
		out.Matrix = &m
	}
	if s.TensorNetwork != nil {
		tn := *s.TensorNetwork
		tn.BondDimensions = slices.Clone(s.TensorNetwork.BondDimensions)
		if s.TensorNetwork.Truncation != nil {
			tr := *s.TensorNetwork.Truncation
			tn.Truncation = &tr
		}
		out.TensorNetwork = &tn
	}
	return out
}

// CloneExpr returns a deep copy of an expression tree.
func CloneExpr(e Expr) Expr {
	switch n := e.(type) {
	case *Variable:
		return &Variable{Name: n.Name}
	case *Constant:
		return &Constant{Value: n.Value}
	case *Binary:
		return &Binary{Op: n.Op, Left: CloneExpr(n.Left), Right: CloneExpr(n.Right)}
	case *Unary:
		return &Unary{Op: n.Op, Operand: CloneExpr(n.Operand)}
	case *Call:
		var args []Expr
		if n.Args != nil {
			args = make([]Expr, len(n.Args))
			for i, arg := range n.Args {
				args[i] = CloneExpr(arg)
			}
		}
		return &Call{Name: n.Name, Args: args}
	case *Unparsed:
		return &Unparsed{Text: n.Text}
	}
	return nil
}
