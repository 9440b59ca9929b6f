package ast

import (
	"strconv"
	"strings"
)

// Expr is an HPM-DL expression. The set of implementations is closed:
// Variable, Constant, Binary, Unary, Call and Unparsed.
type Expr interface {
	exprNode()
}

// Variable references a name.
type Variable struct {
	Name string
}

// Constant is a numeric literal.
type Constant struct {
	Value float64
}

// Binary applies an infix operator.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Unary applies a prefix operator.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

// Call is a function application.
type Call struct {
	Name string
	Args []Expr
}

// Unparsed holds source text that had no dedicated expression form.
type Unparsed struct {
	Text string
}

func (*Variable) exprNode() {}
func (*Constant) exprNode() {}
func (*Binary) exprNode()   {}
func (*Unary) exprNode()    {}
func (*Call) exprNode()     {}
func (*Unparsed) exprNode() {}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Pow // reserved, no surface syntax yet
	Dot
	Cross
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "Add"
	case Sub:
		return "Sub"
	case Mul:
		return "Mul"
	case Div:
		return "Div"
	case Pow:
		return "Pow"
	case Dot:
		return "Dot"
	case Cross:
		return "Cross"
	}
	return "BinaryOp(?)"
}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	Neg UnaryOp = iota
	Transpose
	Conjugate
	Trace
)

func (op UnaryOp) String() string {
	switch op {
	case Neg:
		return "Neg"
	case Transpose:
		return "Transpose"
	case Conjugate:
		return "Conjugate"
	case Trace:
		return "Trace"
	}
	return "UnaryOp(?)"
}

// Format renders an expression in prefix form, e.g. "Add(a, Mul(b, c))".
// Calls render as "name(args)" and unparsed text as Unparsed("text").
func Format(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Variable:
		b.WriteString(n.Name)
	case *Constant:
		b.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case *Binary:
		b.WriteString(n.Op.String())
		b.WriteByte('(')
		writeExpr(b, n.Left)
		b.WriteString(", ")
		writeExpr(b, n.Right)
		b.WriteByte(')')
	case *Unary:
		b.WriteString(n.Op.String())
		b.WriteByte('(')
		writeExpr(b, n.Operand)
		b.WriteByte(')')
	case *Call:
		b.WriteString(n.Name)
		b.WriteByte('(')
		for i, arg := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, arg)
		}
		b.WriteByte(')')
	case *Unparsed:
		b.WriteString("Unparsed(")
		b.WriteString(strconv.Quote(n.Text))
		b.WriteByte(')')
	}
}

// Variables returns the variable names referenced by e in first-seen order.
func Variables(e Expr) []string {
	seen := make(map[string]bool)
	var names []string
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Variable:
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		case *Binary:
			walk(n.Left)
			walk(n.Right)
		case *Unary:
			walk(n.Operand)
		case *Call:
			for _, arg := range n.Args {
				walk(arg)
			}
		}
	}
	walk(e)
	return names
}
