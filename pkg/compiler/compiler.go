// Package compiler wires the phases together behind one pure contract:
// source text in, assembly text or a diagnostic out. One compile is one
// pass (lex fully, parse fully, generate fully) with no ambient state;
// all tables live in the Parser and Generator values created per call.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sable-lang/sable/pkg/codegen/amd64"
	"github.com/sable-lang/sable/pkg/lexer"
	"github.com/sable-lang/sable/pkg/logger"
	"github.com/sable-lang/sable/pkg/parser"
)

// Phase identifies which stage of the pipeline failed.
type Phase int

const (
	PhaseLex Phase = iota
	PhaseParse
	PhaseCodegen
)

func (p Phase) String() string {
	switch p {
	case PhaseLex:
		return "lex"
	case PhaseParse:
		return "parse"
	case PhaseCodegen:
		return "codegen"
	default:
		return "unknown"
	}
}

// Error wraps a phase failure. The first error wins: no phase recovers or
// continues past its first failure, and output is all-or-nothing.
type Error struct {
	Phase Phase
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Compile translates one Sable source text into a complete x86-64 assembly
// listing, or returns the first diagnostic encountered.
func Compile(source string) (string, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return "", &Error{Phase: PhaseLex, Err: err}
	}
	logger.LogLexing(len(toks))

	p := parser.New()
	nodes, err := p.Program(lexer.NewCursor(toks))
	if err != nil {
		return "", &Error{Phase: PhaseParse, Err: err}
	}
	logger.LogParsing(len(nodes), len(p.Literals()))

	var buf strings.Builder
	gen := amd64.NewGenerator(&buf)
	if err := gen.Generate(nodes, p.Literals()); err != nil {
		return "", &Error{Phase: PhaseCodegen, Err: err}
	}
	return buf.String(), nil
}

// Offset extracts the source byte offset from a compile error, or -1 when
// the failure carries no position (codegen context errors).
func Offset(err error) int {
	var le *lexer.Error
	if errors.As(err, &le) {
		return le.Offset
	}
	var pe *parser.Error
	if errors.As(err, &pe) {
		return pe.Offset
	}
	return -1
}

// RenderDiagnostic formats a compile error for the terminal: the message,
// the offending source line and a caret under the failing byte. Errors
// without a source position render as the bare message.
func RenderDiagnostic(source string, err error) string {
	off := Offset(err)
	if off < 0 {
		return "error: " + err.Error()
	}

	line, col, text := locate(source, off)

	var b strings.Builder
	fmt.Fprintf(&b, "error: %s\n", err.Error())
	fmt.Fprintf(&b, "  --> offset %d (line %d)\n", off, line)
	fmt.Fprintf(&b, "   | %s\n", text)
	fmt.Fprintf(&b, "   | %s^\n", strings.Repeat(" ", col))
	return b.String()
}

// locate maps a byte offset to its 1-based line, 0-based column within the
// line, and the line's text.
func locate(source string, off int) (line, col int, text string) {
	if off > len(source) {
		off = len(source)
	}
	line = 1
	start := 0
	for i := 0; i < off; i++ {
		if source[i] == '\n' {
			line++
			start = i + 1
		}
	}
	end := strings.IndexByte(source[start:], '\n')
	if end < 0 {
		text = source[start:]
	} else {
		text = source[start : start+end]
	}
	return line, off - start, text
}
