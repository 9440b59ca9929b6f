package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hpmdl/internal/ast"
)

// CycleWarning describes axioms whose expressions refer to each other.
//
// Axiom expansion is not performed, so a cycle is harmless to the
// compiler; it is reported because any later expansion would not
// terminate.
type CycleWarning struct {
	Path    []string `json:"path"`    // ["a", "b", "a"]
	Message string   `json:"message"` // human-readable description
	Index   int      `json:"index"`   // declaration index of Path[0]
	Line    int      `json:"line,omitempty"`
}

// AnalyzeCycles finds reference cycles among axioms. An axiom refers to
// another when a variable in its expression has the other's name.
//
// Strongly connected components are found with Tarjan's algorithm; each
// component with more than one axiom, or a single self-referencing axiom,
// yields one warning. Warnings and paths follow declaration order.
func AnalyzeCycles(axioms []ast.Axiom) []CycleWarning {
	if len(axioms) == 0 {
		return nil
	}

	graph, order := buildReferenceGraph(axioms)
	index := make(map[string]int, len(order))
	for i, name := range order {
		index[name] = i
	}

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) == 1 && !slices.Contains(graph[scc[0]], scc[0]) {
			continue
		}
		slices.SortFunc(scc, func(a, b string) int { return index[a] - index[b] })
		path := reconstructCyclePath(scc, graph)
		first := firstDeclaration(axioms, scc[0])
		warnings = append(warnings, CycleWarning{
			Path:    path,
			Message: fmt.Sprintf("axiom reference cycle: %s", strings.Join(path, " → ")),
			Index:   first,
			Line:    axioms[first].Line,
		})
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int { return a.Index - b.Index })
	return warnings
}

// referenceGraph maps an axiom name to the axiom names its expression uses.
type referenceGraph map[string][]string

// buildReferenceGraph returns the graph and the distinct axiom names in
// declaration order. Duplicate names merge into one node.
func buildReferenceGraph(axioms []ast.Axiom) (referenceGraph, []string) {
	graph := make(referenceGraph)
	var order []string
	for _, ax := range axioms {
		if _, ok := graph[ax.Name]; !ok {
			graph[ax.Name] = []string{}
			order = append(order, ax.Name)
		}
	}
	for _, ax := range axioms {
		for _, v := range ast.Variables(ax.Expression) {
			if _, isAxiom := graph[v]; isAxiom && !slices.Contains(graph[ax.Name], v) {
				graph[ax.Name] = append(graph[ax.Name], v)
			}
		}
	}
	return graph, order
}

func firstDeclaration(axioms []ast.Axiom, name string) int {
	for i, ax := range axioms {
		if ax.Name == name {
			return i
		}
	}
	return 0
}

// tarjanSCC finds strongly connected components, visiting roots in order.
func tarjanSCC(graph referenceGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside the component from its first
// member until it returns there. A self-loop yields [a, a].
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true

		// Unvisited members first; close the loop only when stuck.
		next := ""
		for _, w := range graph[current] {
			if members[w] && !visited[w] {
				next = w
				break
			}
		}
		if next == "" && slices.Contains(graph[current], start) {
			next = start
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
