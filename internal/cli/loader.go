package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/hpmdl/internal/artifact"
	"github.com/roach88/hpmdl/internal/compiler"
	"github.com/roach88/hpmdl/internal/grammar"
	"github.com/roach88/hpmdl/internal/ir"
	"github.com/roach88/hpmdl/internal/safety"
	"github.com/roach88/hpmdl/internal/typecheck"
)

// LoadError is an input or compilation error with the position it
// refers to, when known.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Line    int
	Column  int
	Snippet string // source excerpt with a caret, for syntax errors
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s%s: %s", e.where(), e.Code, e.Message)
}

// where is the "path:line:col: " prefix, or "" without a path.
func (e *LoadError) where() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: ", e.Path, e.Line, e.Column)
	case e.Path != "":
		return e.Path + ": "
	}
	return ""
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Details is the structured error payload for JSON output.
func (e *LoadError) Details() map[string]any {
	d := map[string]any{}
	if e.Path != "" {
		d["path"] = e.Path
	}
	if e.Line > 0 {
		d["line"] = e.Line
		d["column"] = e.Column
	}
	if e.Snippet != "" {
		d["snippet"] = e.Snippet
	}
	var syn *grammar.SyntaxError
	if errors.As(e.Err, &syn) && syn.Suggestion != "" {
		d["suggestion"] = syn.Suggestion
	}
	if len(d) == 0 {
		return nil
	}
	return d
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Input or registry not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeSyntax      = "E010" // Source does not match the grammar
	ErrCodeBuild       = "E011" // Parse tree cannot become a program
	ErrCodeType        = "E012" // Shape violation found by the type checker
	ErrCodeSchema      = "E013" // Artifact does not match its schema
)

// ErrorCode maps an error to its CLI error code.
func ErrorCode(err error) string {
	var loadErr *LoadError
	var syn *grammar.SyntaxError
	var build *compiler.BuildError
	var typ *typecheck.TypeError
	var schema *artifact.SchemaError
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case errors.As(err, &syn):
		return ErrCodeSyntax
	case errors.As(err, &build):
		return ErrCodeBuild
	case errors.As(err, &typ):
		return ErrCodeType
	case errors.As(err, &schema):
		return ErrCodeSchema
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// hasMeta reports whether pattern uses glob syntax.
func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// LoadInputs expands input arguments into program files. Arguments may be
// plain paths or doublestar patterns ("models/**/*.hpm"). Each pattern's
// matches are sorted; duplicates keep their first position.
func LoadInputs(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if !hasMeta(arg) {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("input not found: %s", arg), Err: err}
			}
			if info.IsDir() {
				return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("input is a directory: %s (use a pattern such as %s)", arg, filepath.Join(arg, "**", "*.hpm"))}
			}
			add(arg)
			continue
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("bad pattern %q: %v", arg, err), Err: err}
		}
		if len(matches) == 0 {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no files match %s", arg), Err: fs.ErrNotExist}
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}

	if len(out) == 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "no inputs"}
	}
	return out, nil
}

// Unit is one compiled input.
type Unit struct {
	Path       string
	Source     string
	SourceHash string
	IRHash     string
	Result     *compiler.Result
	Report     safety.Report
}

// CompileFile reads and compiles one input. Failures are *LoadError
// values carrying the error code and source position.
func CompileFile(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, &LoadError{Code: code, Message: fmt.Sprintf("reading input: %v", err), Path: path, Err: err}
	}
	src := string(data)

	res, err := compiler.Compile(src)
	if err != nil {
		return nil, convertCompileError(path, src, err)
	}
	irHash, err := ir.ProgramHash(res.IR)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("hashing IR: %v", err), Path: path, Err: err}
	}
	return &Unit{
		Path:       path,
		Source:     src,
		SourceHash: ir.SourceHash(grammar.Normalize(src)),
		IRHash:     irHash,
		Result:     res,
		Report:     safety.Check(res.Program),
	}, nil
}

// convertCompileError converts a pipeline error to a LoadError with
// position info.
func convertCompileError(path, src string, err error) *LoadError {
	le := &LoadError{Code: ErrorCode(err), Message: err.Error(), Path: path, Err: err}

	var syn *grammar.SyntaxError
	var build *compiler.BuildError
	var typ *typecheck.TypeError
	switch {
	case errors.As(err, &syn):
		le.Line, le.Column = syn.Pos.Line, syn.Pos.Col
		le.Snippet = grammar.Snippet(grammar.Normalize(src), syn.Pos)
	case errors.As(err, &build):
		le.Line, le.Column = build.Pos.Line, build.Pos.Col
	case errors.As(err, &typ):
		le.Line, le.Column = typ.Line, 1
	}
	if le.Line <= 0 {
		le.Line, le.Column = 0, 0
	}
	return le
}
