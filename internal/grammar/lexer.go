package grammar

import (
	"unicode/utf8"
)

// lexer scans normalised source into tokens.
type lexer struct {
	src  string
	off  int
	line int
	col  int
}

// Lex splits src into tokens, ending with a TokEOF token.
// The source is expected to be NFC-normalised already.
func Lex(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var toks []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) pos() Pos {
	return Pos{Offset: lx.off, Line: lx.line, Col: lx.col}
}

func (lx *lexer) peekRune(ahead int) rune {
	off := lx.off
	for i := 0; ; i++ {
		if off >= len(lx.src) {
			return utf8.RuneError
		}
		r, size := utf8.DecodeRuneInString(lx.src[off:])
		if i == ahead {
			return r
		}
		off += size
	}
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	lx.off += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) atEnd() bool {
	return lx.off >= len(lx.src)
}

// skipTrivia consumes whitespace and // comments.
func (lx *lexer) skipTrivia() {
	for !lx.atEnd() {
		r := lx.peekRune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			lx.advance()
		case r == '/' && lx.peekRune(1) == '/':
			for !lx.atEnd() && lx.peekRune(0) != '\n' {
				lx.advance()
			}
		default:
			return
		}
	}
}

func (lx *lexer) next() (Token, error) {
	lx.skipTrivia()
	start := lx.pos()
	if lx.atEnd() {
		return Token{Kind: TokEOF, Pos: start, End: lx.off}, nil
	}

	r := lx.peekRune(0)
	switch {
	case isDigit(r) || (r == '.' && isDigit(lx.peekRune(1))):
		return lx.number(start), nil
	case isIdentStart(r):
		for !lx.atEnd() && isIdentPart(lx.peekRune(0)) {
			lx.advance()
		}
		return lx.token(TokIdent, start), nil
	case r == '"':
		lx.advance()
		for !lx.atEnd() && lx.peekRune(0) != '"' {
			lx.advance()
		}
		if lx.atEnd() {
			return Token{}, &SyntaxError{Pos: start, Msg: "unterminated string literal"}
		}
		lx.advance()
		return lx.token(TokString, start), nil
	case r == ':' || r == ',' || r == '[' || r == ']' || r == '(' || r == ')' || r == '{' || r == '}' || r == '=':
		lx.advance()
		return lx.token(TokPunct, start), nil
	case r == '+' || r == '-' || r == '*' || r == '/' || r == '·' || r == '⊗' || r == '†':
		lx.advance()
		return lx.token(TokOp, start), nil
	}

	return Token{}, &SyntaxError{Pos: start, Msg: "unexpected character " + quoteRune(r)}
}

// number scans int | float. A float has a fraction, an exponent, or both.
func (lx *lexer) number(start Pos) Token {
	kind := TokInt
	for isDigit(lx.peekRune(0)) {
		lx.advance()
	}
	if lx.peekRune(0) == '.' && !lx.atEnd() {
		kind = TokFloat
		lx.advance()
		for isDigit(lx.peekRune(0)) {
			lx.advance()
		}
	}
	if e := lx.peekRune(0); e == 'e' || e == 'E' {
		n := 1
		if s := lx.peekRune(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(lx.peekRune(n)) {
			kind = TokFloat
			for i := 0; i < n; i++ {
				lx.advance()
			}
			for isDigit(lx.peekRune(0)) {
				lx.advance()
			}
		}
	}
	return lx.token(kind, start)
}

func (lx *lexer) token(kind TokenKind, start Pos) Token {
	return Token{Kind: kind, Text: lx.src[start.Offset:lx.off], Pos: start, End: lx.off}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func quoteRune(r rune) string {
	if r == utf8.RuneError {
		return "(invalid UTF-8)"
	}
	return "'" + string(r) + "'"
}
