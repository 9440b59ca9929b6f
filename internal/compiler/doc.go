// Package compiler turns HPM-DL source into a typed AST and drives the rest
// of the front-end pipeline.
//
// The stages are:
//
//	grammar.Recognize -> Build -> typecheck.Check -> lower.Lower
//
// Parse runs the first two; Compile runs all four and also collects the
// non-fatal lint diagnostics from Validate. Syntax and type errors are
// fatal and come back wrapped with the stage that failed, so callers can
// use errors.As to recover *grammar.SyntaxError, *BuildError or
// *typecheck.TypeError.
package compiler
