package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullProgram = `
// Transverse-field Ising chain
axiom commute: H ⊗ I - I ⊗ H tags [symmetry, core] safety requires_human_force

operator H: hamiltonian {
    matrix(2, 2, dense) = [[0, 1], [1, 0]],
    tensor_net(mps, [2, 4, 2], trunc(svd, 16, 1e-8)),
}

operator L: dissipative { cuda_kernel("lindblad_step") }

state psi: mps [2, 2, 2] hamiltonian = H topology { betti = [1, 0], generators = [(dim = 1, repr = "loop")] }

constraint gate: human_force_gate approve(H)
constraint bound: entropy_bound 0.5 * log(2)
`

func rulesOf(nodes []*Node) []Rule {
	out := make([]Rule, len(nodes))
	for i, n := range nodes {
		out[i] = n.Rule
	}
	return out
}

func TestRecognizeFullProgram(t *testing.T) {
	root, err := Recognize(fullProgram)
	require.NoError(t, err)
	require.Equal(t, RuleFile, root.Rule)

	assert.Equal(t, []Rule{RuleAxiom, RuleOperator, RuleOperator, RuleStateDecl, RuleConstraint, RuleConstraint}, rulesOf(root.Children))

	axiom := root.Children[0]
	assert.Equal(t, "commute", axiom.ChildText(RuleIdent))
	require.NotNil(t, axiom.Child(RuleTags))
	assert.Len(t, axiom.Child(RuleTags).ChildrenOf(RuleIdent), 2)
	assert.Equal(t, "requires_human_force", axiom.Child(RuleSafety).ChildText(RuleSafetyLevel))

	op := root.Children[1]
	assert.Equal(t, "hamiltonian", op.ChildText(RuleOpKind))
	body := op.Child(RuleOpBody)
	require.NotNil(t, body)
	assert.Equal(t, []Rule{RuleMatrixSpec, RuleTensorNetSpec}, rulesOf(body.Children))
	assert.Contains(t, op.Text, "operator H: hamiltonian {")
	assert.True(t, len(op.Text) > 0 && op.Text[len(op.Text)-1] == '}', "raw text spans the whole declaration")

	trunc := body.Children[1].Child(RuleTruncSpec)
	require.NotNil(t, trunc)
	assert.Equal(t, []Rule{RuleTruncMethod, RuleInt, RuleFloat}, rulesOf(trunc.Children))

	state := root.Children[3]
	assert.Equal(t, "mps", state.ChildText(RuleStateRepr))
	assert.Len(t, state.Child(RuleDims).Children, 3)
	assert.Equal(t, "H", state.Child(RuleHamiltonianRef).ChildText(RuleIdent))
	topo := state.Child(RuleTopoConstraints)
	assert.Equal(t, []Rule{RuleBetti, RuleGenerators}, rulesOf(topo.Children))

	gate := root.Children[4]
	assert.Equal(t, "human_force_gate", gate.ChildText(RuleConstraintKind))
	assert.Equal(t, "approve(H)", gate.ChildText(RuleExpr))
}

func TestRecognizeUnaryOperatorsAreCollected(t *testing.T) {
	root, err := Recognize("axiom a: - trace a")
	require.NoError(t, err)

	unary := root.Children[0].Child(RuleExpr).Child(RuleAddExpr).Child(RuleMulExpr).Child(RuleUnaryExpr)
	require.NotNil(t, unary)
	assert.Equal(t, []Rule{RuleUnaryOp, RuleUnaryOp, RulePrimary}, rulesOf(unary.Children))
	assert.Equal(t, "-", unary.Children[0].Text)
	assert.Equal(t, "trace", unary.Children[1].Text)
}

func TestRecognizeWordOperatorsNeedAnOperand(t *testing.T) {
	root, err := Recognize("axiom a: x x y")
	require.NoError(t, err)
	mul := root.Children[0].Child(RuleExpr).Child(RuleAddExpr).Child(RuleMulExpr)
	assert.Equal(t, []Rule{RuleUnaryExpr, RuleMulOp, RuleUnaryExpr}, rulesOf(mul.Children))

	// "T" with nothing after it is a plain identifier.
	root, err = Recognize("axiom b: T")
	require.NoError(t, err)
	unary := root.Children[0].Child(RuleExpr).Child(RuleAddExpr).Child(RuleMulExpr).Child(RuleUnaryExpr)
	assert.Equal(t, []Rule{RulePrimary}, rulesOf(unary.Children))
}

func TestRecognizeExpressionStopsAtNextStatement(t *testing.T) {
	root, err := Recognize("constraint c: entropy_bound s x\nstate psi: dense [4]")
	require.Error(t, err, "a dangling word operator is not an expression")
	assert.Nil(t, root)

	root, err = Recognize("constraint c: entropy_bound s\nstate psi: dense [4]")
	require.NoError(t, err)
	assert.Equal(t, []Rule{RuleConstraint, RuleStateDecl}, rulesOf(root.Children))
}

func TestRecognizeCallsAndGrouping(t *testing.T) {
	root, err := Recognize("axiom a: f(x, (y + z), g())")
	require.NoError(t, err)
	prim := root.Children[0].Child(RuleExpr).Child(RuleAddExpr).Child(RuleMulExpr).Child(RuleUnaryExpr).Child(RulePrimary)
	call := prim.Child(RuleCall)
	require.NotNil(t, call)
	assert.Equal(t, "f", call.ChildText(RuleIdent))
	assert.Len(t, call.Child(RuleArgList).Children, 3)
}

func TestRecognizeOperatorBodies(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		items int
	}{
		{"no body", "operator A: entropy_flow", 0},
		{"empty body", "operator A: entropy_flow {}", 0},
		{"trailing comma", `operator A: topological_mutation { cuda_kernel("k"), }`, 1},
		{"negative matrix entries", "operator Z: hamiltonian { matrix(2,2,sparse)=[[1,0],[0,-1]] }", 1},
		{"repeated items", "operator A: hamiltonian { matrix(1,1,dense)=[[1]], matrix(1,1,dense)=[[2]] }", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Recognize(tt.src)
			require.NoError(t, err)
			var items []*Node
			if body := root.Children[0].Child(RuleOpBody); body != nil {
				items = body.Children
			}
			assert.Len(t, items, tt.items)
		})
	}
}

func TestRecognizeEmptyDimsIsSyntacticallyValid(t *testing.T) {
	root, err := Recognize("state psi: dense []")
	require.NoError(t, err)
	assert.Empty(t, root.Children[0].Child(RuleDims).Children)
}

func TestRecognizeNormalisesUnicode(t *testing.T) {
	root, err := Recognize("state s: dense [1] topology { generators = [(dim = 1, repr = \"e\u0301\")] }")
	require.NoError(t, err)
	gen := root.Children[0].Child(RuleTopoConstraints).Child(RuleGenerators).Child(RuleGenerator)
	require.NotNil(t, gen)
	assert.Equal(t, "\"\u00e9\"", gen.ChildText(RuleString))
}

func TestRecognizeUnicodeOperators(t *testing.T) {
	root, err := Recognize("axiom a: b · c ⊗ † d")
	require.NoError(t, err)
	mul := root.Children[0].Child(RuleExpr).Child(RuleAddExpr).Child(RuleMulExpr)
	assert.Equal(t, []Rule{RuleUnaryExpr, RuleMulOp, RuleUnaryExpr, RuleMulOp, RuleUnaryExpr}, rulesOf(mul.Children))
}

func TestRecognizeErrors(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		expected   string
		found      string
		suggestion string
		pos        Pos
	}{
		{"empty", "", "statement (axiom, operator, state or constraint)", "end of input", "", Pos{Offset: 0, Line: 1, Col: 1}},
		{"whitespace only", "  \n // nothing\n", "statement (axiom, operator, state or constraint)", "end of input", "", Pos{Offset: 15, Line: 3, Col: 1}},
		{"misspelled kind", "operator H: hamiltonain", "operator kind", `"hamiltonain"`, "hamiltonian", Pos{Offset: 12, Line: 1, Col: 13}},
		{"misspelled statement", "axoim a: x", "statement (axiom, operator, state or constraint)", `"axoim"`, "axiom", Pos{Offset: 0, Line: 1, Col: 1}},
		{"abbreviated constraint kind", "constraint c: entropy x", "constraint kind", `"entropy"`, "entropy_bound", Pos{Offset: 14, Line: 1, Col: 15}},
		{"missing paren", "axiom a: (x + y", "')'", "end of input", "", Pos{Offset: 15, Line: 1, Col: 16}},
		{"missing expression", "axiom a:", "expression", "end of input", "", Pos{Offset: 8, Line: 1, Col: 9}},
		{"bad item", "operator A: hamiltonian { vector(1) }", "operator item (matrix, tensor_net or cuda_kernel)", `"vector"`, "", Pos{Offset: 26, Line: 1, Col: 27}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Recognize(tt.src)
			require.Nil(t, root)
			var synErr *SyntaxError
			require.ErrorAs(t, err, &synErr)
			assert.Equal(t, tt.expected, synErr.Expected)
			assert.Equal(t, tt.found, synErr.Found)
			assert.Equal(t, tt.suggestion, synErr.Suggestion)
			assert.Equal(t, tt.pos, synErr.Pos)
		})
	}
}

func TestRecognizeNestingLimit(t *testing.T) {
	nested := func(n int) string {
		return "axiom a: " + strings.Repeat("(", n) + "x" + strings.Repeat(")", n)
	}

	_, err := Recognize(nested(maxNesting - 1))
	require.NoError(t, err)

	_, err = Recognize(nested(maxNesting))
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Equal(t, "expression nested too deeply", synErr.Msg)
	assert.Equal(t, len("axiom a: ")+maxNesting, synErr.Pos.Offset, "reported at the innermost operand")

	_, err = Recognize(nested(2_000_000))
	require.ErrorAs(t, err, &synErr)
}

func TestRecognizePrefixOperatorLimit(t *testing.T) {
	_, err := Recognize("axiom a: " + strings.Repeat("- ", maxNesting-1) + "x")
	require.NoError(t, err)

	_, err = Recognize("axiom a: " + strings.Repeat("- ", 500_000) + "x")
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Equal(t, "expression nested too deeply", synErr.Msg)
}

func TestRecognizeNestingResetsBetweenExpressions(t *testing.T) {
	deep := strings.Repeat("(", maxNesting-1) + "x" + strings.Repeat(")", maxNesting-1)
	_, err := Recognize("axiom a: " + deep + "\naxiom b: " + deep + " + f(" + deep + ")")
	require.Error(t, err, "call arguments add a level")

	_, err = Recognize("axiom a: " + deep + "\naxiom b: " + deep)
	require.NoError(t, err)
}

func TestSyntaxErrorMessage(t *testing.T) {
	_, err := Recognize("operator H: hamiltonain")
	require.Error(t, err)
	assert.Equal(t, `syntax error at 1:13: expected operator kind, found "hamiltonain" (did you mean "hamiltonian"?)`, err.Error())
}

func TestSnippet(t *testing.T) {
	src := "axiom a: x\noperator H: hamiltonain\nstate s: dense [2]"
	got := Snippet(src, Pos{Line: 2, Col: 13})
	want := "  1 | axiom a: x\n" +
		"  2 | operator H: hamiltonain\n" +
		"    |             ^\n" +
		"  3 | state s: dense [2]\n"
	assert.Equal(t, want, got)
}

func TestRuleNamesAreComplete(t *testing.T) {
	seen := make(map[string]Rule)
	for _, r := range Rules() {
		name := r.String()
		assert.NotContains(t, name, "Rule(", "rule %d has no name", r)
		if prev, dup := seen[name]; dup {
			t.Errorf("rules %d and %d share name %q", prev, r, name)
		}
		seen[name] = r
	}
}
