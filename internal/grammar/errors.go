package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SyntaxError reports the first point where the source stopped matching
// the grammar.
type SyntaxError struct {
	Pos        Pos
	Expected   string // what the grammar wanted, e.g. "operator kind"
	Found      string // the offending token, quoted, or "end of input"
	Suggestion string // closest keyword, when one is near enough
	Msg        string // lexical errors set Msg instead of Expected/Found
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "syntax error at %s: ", e.Pos)
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		fmt.Fprintf(&b, "expected %s, found %s", e.Expected, e.Found)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	return b.String()
}

// suggest returns the candidate closest to word, or "" if none is close.
func suggest(word string, candidates []string) string {
	if word == "" || len(candidates) == 0 {
		return ""
	}

	// Subsequence matches catch abbreviations; short words match too much.
	if len(word) >= 3 {
		if ranks := fuzzy.RankFindFold(word, candidates); len(ranks) > 0 {
			sort.Sort(ranks)
			return ranks[0].Target
		}
	}

	best, bestDist := "", len(word)/2+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(word), c); d <= bestDist {
			if d < bestDist || best == "" {
				best, bestDist = c, d
			}
		}
	}
	return best
}

// Snippet renders the source line at pos with one line of context on each
// side and a caret under the column:
//
//	   2 | operator H: hamiltonain
//	     |             ^
func Snippet(src string, pos Pos) string {
	lines := strings.Split(src, "\n")
	if len(lines) == 0 {
		return ""
	}
	line := pos.Line
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	col := pos.Col
	if col < 1 {
		col = 1
	}

	width := len(fmt.Sprint(min(line+1, len(lines))))
	var b strings.Builder
	for n := max(1, line-1); n <= min(len(lines), line+1); n++ {
		fmt.Fprintf(&b, "%*d | %s\n", width+2, n, strings.TrimRight(lines[n-1], "\r"))
		if n == line {
			fmt.Fprintf(&b, "%*s | %s^\n", width+2, "", strings.Repeat(" ", col-1))
		}
	}
	return b.String()
}
