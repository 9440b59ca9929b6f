package grammar

import (
	"slices"

	"golang.org/x/text/unicode/norm"
)

// Keyword sets. Membership is by exact, case-sensitive match.
var (
	statementKeywords = []string{"axiom", "operator", "state", "constraint"}
	opKinds           = []string{"hamiltonian", "dissipative", "topological_mutation", "entropy_flow"}
	bodyItems         = []string{"matrix", "tensor_net", "cuda_kernel"}
	storageKinds      = []string{"dense", "sparse"}
	netKinds          = []string{"mps", "peps", "mera"}
	truncMethods      = []string{"svd", "qr", "rg"}
	stateReprs        = []string{"mps", "peps", "dense", "sparse"}
	topoItems         = []string{"betti", "generators"}
	constraintKinds   = []string{"entropy_bound", "stability_threshold", "topology_surgery_threshold", "human_force_gate"}
	safetyLevels      = []string{"safe", "requires_human_force", "dangerous"}

	// Words that may follow an expression without being part of it.
	trailerKeywords = []string{"axiom", "operator", "state", "constraint", "tags", "safety"}

	mulOpWords   = []string{"dot", "otimes", "tensor", "x"}
	unaryOpWords = []string{"dagger", "conj", "T", "transpose", "trace"}
)

// Normalize returns src in Unicode normal form C. Recognize applies it
// before lexing; callers that render snippets should use the same text.
func Normalize(src string) string {
	return norm.NFC.String(src)
}

// Recognize checks src against the HPM-DL grammar and returns the parse
// tree rooted at a RuleFile node. A program must contain at least one
// statement.
func Recognize(src string) (*Node, error) {
	src = Normalize(src)
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	return p.file()
}

// maxNesting bounds how deeply expressions may nest through groups,
// call arguments and prefix operators.
const maxNesting = 1000

type parser struct {
	src   string
	toks  []Token
	i     int
	end   int // byte offset just past the last consumed token
	depth int // current expression nesting
}

// nest records one more level of expression nesting at the current token.
// Callers undo it by decrementing p.depth.
func (p *parser) nest() error {
	p.depth++
	if p.depth > maxNesting {
		return &SyntaxError{Pos: p.cur().Pos, Msg: "expression nested too deeply"}
	}
	return nil
}

func (p *parser) cur() Token {
	return p.toks[p.i]
}

func (p *parser) peek(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) take() Token {
	tok := p.toks[p.i]
	if tok.Kind != TokEOF {
		p.i++
		p.end = tok.End
	}
	return tok
}

// leaf consumes the current token as a node tagged r.
func (p *parser) leaf(r Rule) *Node {
	tok := p.take()
	return &Node{Rule: r, Text: tok.Text, Pos: tok.Pos}
}

// span builds a node covering everything consumed since start.
func (p *parser) span(r Rule, start Token, children ...*Node) *Node {
	end := p.end
	if end < start.Pos.Offset {
		end = start.Pos.Offset
	}
	return &Node{Rule: r, Text: p.src[start.Pos.Offset:end], Pos: start.Pos, Children: children}
}

func (p *parser) fail(expected string, candidates []string) *SyntaxError {
	tok := p.cur()
	err := &SyntaxError{Pos: tok.Pos, Expected: expected, Found: tok.describe()}
	if tok.Kind == TokIdent {
		err.Suggestion = suggest(tok.Text, candidates)
	}
	return err
}

func (p *parser) punct(text string) error {
	if !p.cur().is(TokPunct, text) {
		return p.fail(quote(text), nil)
	}
	p.take()
	return nil
}

func (p *parser) acceptPunct(text string) bool {
	if p.cur().is(TokPunct, text) {
		p.take()
		return true
	}
	return false
}

func (p *parser) word(text string) error {
	if !p.cur().isWord(text) {
		return p.fail(quote(text), []string{text})
	}
	p.take()
	return nil
}

// keyword consumes one of the candidate words as a node tagged r.
func (p *parser) keyword(r Rule, what string, candidates []string) (*Node, error) {
	tok := p.cur()
	if tok.Kind != TokIdent || !slices.Contains(candidates, tok.Text) {
		return nil, p.fail(what, candidates)
	}
	return p.leaf(r), nil
}

func (p *parser) ident() (*Node, error) {
	if p.cur().Kind != TokIdent {
		return nil, p.fail("identifier", nil)
	}
	return p.leaf(RuleIdent), nil
}

func (p *parser) integer() (*Node, error) {
	if p.cur().Kind != TokInt {
		return nil, p.fail("integer", nil)
	}
	return p.leaf(RuleInt), nil
}

func (p *parser) str() (*Node, error) {
	if p.cur().Kind != TokString {
		return nil, p.fail("string", nil)
	}
	return p.leaf(RuleString), nil
}

// signedNumber accepts an optional leading '-' before an int or float.
// The node text is the sign joined to the literal, without any trivia
// between them.
func (p *parser) signedNumber() (*Node, error) {
	start := p.cur()
	neg := start.is(TokOp, "-")
	if neg {
		p.take()
	}
	tok := p.cur()
	var r Rule
	switch tok.Kind {
	case TokInt:
		r = RuleInt
	case TokFloat:
		r = RuleFloat
	default:
		return nil, p.fail("number", nil)
	}
	p.take()
	text := tok.Text
	if neg {
		text = "-" + text
	}
	return &Node{Rule: r, Text: text, Pos: start.Pos}, nil
}

// intList parses '[' int (',' int)* ']'. With allowEmpty, '[' ']' is accepted.
func (p *parser) intList(r Rule, allowEmpty bool) (*Node, error) {
	start := p.cur()
	if err := p.punct("["); err != nil {
		return nil, err
	}
	var items []*Node
	if !(allowEmpty && p.cur().is(TokPunct, "]")) {
		for {
			n, err := p.integer()
			if err != nil {
				return nil, err
			}
			items = append(items, n)
			if !p.acceptPunct(",") {
				break
			}
		}
	}
	if err := p.punct("]"); err != nil {
		return nil, err
	}
	return p.span(r, start, items...), nil
}

// file = stmt+ EOF
func (p *parser) file() (*Node, error) {
	start := p.cur()
	var stmts []*Node
	for p.cur().Kind != TokEOF {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if len(stmts) == 0 {
		return nil, p.fail("statement (axiom, operator, state or constraint)", statementKeywords)
	}
	return p.span(RuleFile, start, stmts...), nil
}

func (p *parser) statement() (*Node, error) {
	tok := p.cur()
	if tok.Kind == TokIdent {
		switch tok.Text {
		case "axiom":
			return p.axiom()
		case "operator":
			return p.operator()
		case "state":
			return p.stateDecl()
		case "constraint":
			return p.constraint()
		}
	}
	return nil, p.fail("statement (axiom, operator, state or constraint)", statementKeywords)
}

// declHead parses KEYWORD NAME ':' and returns the name node.
func (p *parser) declHead(keyword string) (*Node, error) {
	if err := p.word(keyword); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if err := p.punct(":"); err != nil {
		return nil, err
	}
	return name, nil
}

// axiom = "axiom" ident ":" expr tags? safety?
func (p *parser) axiom() (*Node, error) {
	start := p.cur()
	name, err := p.declHead("axiom")
	if err != nil {
		return nil, err
	}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	children := []*Node{name, expr}

	if p.cur().isWord("tags") {
		tags, err := p.tags()
		if err != nil {
			return nil, err
		}
		children = append(children, tags)
	}
	if p.cur().isWord("safety") {
		safetyStart := p.take()
		level, err := p.keyword(RuleSafetyLevel, "safety level", safetyLevels)
		if err != nil {
			return nil, err
		}
		children = append(children, p.span(RuleSafety, safetyStart, level))
	}
	return p.span(RuleAxiom, start, children...), nil
}

// tags = "tags" "[" ident ("," ident)* "]"
func (p *parser) tags() (*Node, error) {
	start := p.take()
	if err := p.punct("["); err != nil {
		return nil, err
	}
	var ids []*Node
	for {
		id, err := p.ident()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.punct("]"); err != nil {
		return nil, err
	}
	return p.span(RuleTags, start, ids...), nil
}

// operator = "operator" ident ":" op_kind op_body?
func (p *parser) operator() (*Node, error) {
	start := p.cur()
	name, err := p.declHead("operator")
	if err != nil {
		return nil, err
	}
	kind, err := p.keyword(RuleOpKind, "operator kind", opKinds)
	if err != nil {
		return nil, err
	}
	children := []*Node{name, kind}
	if p.cur().is(TokPunct, "{") {
		body, err := p.opBody()
		if err != nil {
			return nil, err
		}
		children = append(children, body)
	}
	return p.span(RuleOperator, start, children...), nil
}

// op_body = "{" (op_item ("," op_item)* ","?)? "}"
func (p *parser) opBody() (*Node, error) {
	start := p.take()
	var items []*Node
	for !p.cur().is(TokPunct, "}") {
		item, err := p.opItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.punct("}"); err != nil {
		return nil, err
	}
	return p.span(RuleOpBody, start, items...), nil
}

func (p *parser) opItem() (*Node, error) {
	tok := p.cur()
	if tok.Kind == TokIdent {
		switch tok.Text {
		case "matrix":
			return p.matrixSpec()
		case "tensor_net":
			return p.tensorNetSpec()
		case "cuda_kernel":
			return p.gpuKernelSpec()
		}
	}
	return nil, p.fail("operator item (matrix, tensor_net or cuda_kernel)", bodyItems)
}

// matrix_spec = "matrix" "(" int "," int "," storage ")" "=" matrix_lit
func (p *parser) matrixSpec() (*Node, error) {
	start := p.take()
	if err := p.punct("("); err != nil {
		return nil, err
	}
	rows, err := p.integer()
	if err != nil {
		return nil, err
	}
	if err := p.punct(","); err != nil {
		return nil, err
	}
	cols, err := p.integer()
	if err != nil {
		return nil, err
	}
	if err := p.punct(","); err != nil {
		return nil, err
	}
	storage, err := p.keyword(RuleStorage, "matrix storage", storageKinds)
	if err != nil {
		return nil, err
	}
	if err := p.punct(")"); err != nil {
		return nil, err
	}
	if err := p.punct("="); err != nil {
		return nil, err
	}
	lit, err := p.matrixLit()
	if err != nil {
		return nil, err
	}
	return p.span(RuleMatrixSpec, start, rows, cols, storage, lit), nil
}

// matrix_lit = "[" row ("," row)* "]" ; row = "[" number ("," number)* "]"
func (p *parser) matrixLit() (*Node, error) {
	start := p.cur()
	if err := p.punct("["); err != nil {
		return nil, err
	}
	var rows []*Node
	for {
		rowStart := p.cur()
		if err := p.punct("["); err != nil {
			return nil, err
		}
		var nums []*Node
		for {
			n, err := p.signedNumber()
			if err != nil {
				return nil, err
			}
			nums = append(nums, n)
			if !p.acceptPunct(",") {
				break
			}
		}
		if err := p.punct("]"); err != nil {
			return nil, err
		}
		rows = append(rows, p.span(RuleRow, rowStart, nums...))
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.punct("]"); err != nil {
		return nil, err
	}
	return p.span(RuleMatrixLit, start, rows...), nil
}

// tensor_net_spec = "tensor_net" "(" net_kind "," bond_dims ("," trunc_spec)? ")"
func (p *parser) tensorNetSpec() (*Node, error) {
	start := p.take()
	if err := p.punct("("); err != nil {
		return nil, err
	}
	kind, err := p.keyword(RuleNetKind, "network kind", netKinds)
	if err != nil {
		return nil, err
	}
	if err := p.punct(","); err != nil {
		return nil, err
	}
	dims, err := p.intList(RuleBondDims, false)
	if err != nil {
		return nil, err
	}
	children := []*Node{kind, dims}
	if p.acceptPunct(",") {
		trunc, err := p.truncSpec()
		if err != nil {
			return nil, err
		}
		children = append(children, trunc)
	}
	if err := p.punct(")"); err != nil {
		return nil, err
	}
	return p.span(RuleTensorNetSpec, start, children...), nil
}

// trunc_spec = "trunc" "(" trunc_method "," int "," number ")"
func (p *parser) truncSpec() (*Node, error) {
	start := p.cur()
	if err := p.word("trunc"); err != nil {
		return nil, err
	}
	if err := p.punct("("); err != nil {
		return nil, err
	}
	method, err := p.keyword(RuleTruncMethod, "truncation method", truncMethods)
	if err != nil {
		return nil, err
	}
	if err := p.punct(","); err != nil {
		return nil, err
	}
	maxDim, err := p.integer()
	if err != nil {
		return nil, err
	}
	if err := p.punct(","); err != nil {
		return nil, err
	}
	tol, err := p.signedNumber()
	if err != nil {
		return nil, err
	}
	if err := p.punct(")"); err != nil {
		return nil, err
	}
	return p.span(RuleTruncSpec, start, method, maxDim, tol), nil
}

// gpu_kernel_spec = "cuda_kernel" "(" string ")"
func (p *parser) gpuKernelSpec() (*Node, error) {
	start := p.take()
	if err := p.punct("("); err != nil {
		return nil, err
	}
	name, err := p.str()
	if err != nil {
		return nil, err
	}
	if err := p.punct(")"); err != nil {
		return nil, err
	}
	return p.span(RuleGPUKernelSpec, start, name), nil
}

// state_decl = "state" ident ":" state_repr dims hamiltonian_ref? topo_constraints?
func (p *parser) stateDecl() (*Node, error) {
	start := p.cur()
	name, err := p.declHead("state")
	if err != nil {
		return nil, err
	}
	repr, err := p.keyword(RuleStateRepr, "state representation", stateReprs)
	if err != nil {
		return nil, err
	}
	dims, err := p.intList(RuleDims, true)
	if err != nil {
		return nil, err
	}
	children := []*Node{name, repr, dims}

	if p.cur().isWord("hamiltonian") {
		refStart := p.take()
		if err := p.punct("="); err != nil {
			return nil, err
		}
		ref, err := p.ident()
		if err != nil {
			return nil, err
		}
		children = append(children, p.span(RuleHamiltonianRef, refStart, ref))
	}
	if p.cur().isWord("topology") {
		topo, err := p.topoConstraints()
		if err != nil {
			return nil, err
		}
		children = append(children, topo)
	}
	return p.span(RuleStateDecl, start, children...), nil
}

// topo_constraints = "topology" "{" (topo_item ("," topo_item)* ","?)? "}"
func (p *parser) topoConstraints() (*Node, error) {
	start := p.take()
	if err := p.punct("{"); err != nil {
		return nil, err
	}
	var items []*Node
	for !p.cur().is(TokPunct, "}") {
		var item *Node
		var err error
		switch {
		case p.cur().isWord("betti"):
			item, err = p.betti()
		case p.cur().isWord("generators"):
			item, err = p.generators()
		default:
			err = p.fail("topology item (betti or generators)", topoItems)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.punct("}"); err != nil {
		return nil, err
	}
	return p.span(RuleTopoConstraints, start, items...), nil
}

// betti = "betti" "=" "[" int ("," int)* "]"
func (p *parser) betti() (*Node, error) {
	start := p.take()
	if err := p.punct("="); err != nil {
		return nil, err
	}
	list, err := p.intList(RuleBetti, false)
	if err != nil {
		return nil, err
	}
	return p.span(RuleBetti, start, list.Children...), nil
}

// generators = "generators" "=" "[" generator ("," generator)* "]"
// generator  = "(" "dim" "=" int "," "repr" "=" string ")"
func (p *parser) generators() (*Node, error) {
	start := p.take()
	if err := p.punct("="); err != nil {
		return nil, err
	}
	if err := p.punct("["); err != nil {
		return nil, err
	}
	var gens []*Node
	for {
		genStart := p.cur()
		if err := p.punct("("); err != nil {
			return nil, err
		}
		if err := p.word("dim"); err != nil {
			return nil, err
		}
		if err := p.punct("="); err != nil {
			return nil, err
		}
		dim, err := p.integer()
		if err != nil {
			return nil, err
		}
		if err := p.punct(","); err != nil {
			return nil, err
		}
		if err := p.word("repr"); err != nil {
			return nil, err
		}
		if err := p.punct("="); err != nil {
			return nil, err
		}
		repr, err := p.str()
		if err != nil {
			return nil, err
		}
		if err := p.punct(")"); err != nil {
			return nil, err
		}
		gens = append(gens, p.span(RuleGenerator, genStart, dim, repr))
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.punct("]"); err != nil {
		return nil, err
	}
	return p.span(RuleGenerators, start, gens...), nil
}

// constraint = "constraint" ident ":" constraint_kind expr
func (p *parser) constraint() (*Node, error) {
	start := p.cur()
	name, err := p.declHead("constraint")
	if err != nil {
		return nil, err
	}
	kind, err := p.keyword(RuleConstraintKind, "constraint kind", constraintKinds)
	if err != nil {
		return nil, err
	}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	return p.span(RuleConstraint, start, name, kind, expr), nil
}

func quote(s string) string {
	return "'" + s + "'"
}
