package grammar

import "fmt"

// Pos is a source position. Line and Col are 1-based; Col counts runes.
type Pos struct {
	Offset int
	Line   int
	Col    int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokFloat
	TokString
	TokPunct // : , [ ] ( ) { } =
	TokOp    // + - * / · ⊗ †
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "end of input"
	case TokIdent:
		return "identifier"
	case TokInt:
		return "integer"
	case TokFloat:
		return "float"
	case TokString:
		return "string"
	case TokPunct:
		return "punctuation"
	case TokOp:
		return "operator"
	}
	return "token"
}

// Token is a lexical token. Text is the exact source slice.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Pos
	End  int // byte offset just past the token
}

// describe renders the token for error messages.
func (t Token) describe() string {
	if t.Kind == TokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}

func (t Token) is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}

func (t Token) isWord(text string) bool {
	return t.is(TokIdent, text)
}
