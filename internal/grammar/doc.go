// Package grammar recognises HPM-DL source text.
//
// Recognition assigns no meaning: it checks the surface syntax and produces
// a generic parse tree whose nodes are tagged with a Rule. Package compiler
// walks that tree to build the typed AST.
//
// Source is NFC-normalised before lexing, so composed and decomposed
// spellings of the Unicode operators (·, ⊗, †) are equivalent. Whitespace
// and // line comments may separate any two tokens.
//
// Any failure is reported as a single *SyntaxError; there is no recovery.
package grammar
