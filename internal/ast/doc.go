// Package ast defines the typed syntax tree for HPM-DL programs.
//
// The tree is built once per compile by package compiler and is not mutated
// afterwards. Every downstream stage (typecheck, safety, lower) reads it.
//
// Key design constraints:
//   - Declaration order is preserved for axioms, operators and constraints
//   - Expressions form a strict tree: no sharing, no cycles
//   - Numeric literals are float64 regardless of their source spelling
package ast
