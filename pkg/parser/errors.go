package parser

import "fmt"

// ErrorKind enumerates every way a parse can fail.
type ErrorKind int

const (
	NumberExpected ErrorKind = iota
	VariableExpected
	TypeExpected
	ArgumentsExpected
	ParenNotClosed
	SemicolonMissing
	ColonMissing
	BlockExpected
	InvalidType
	UnknownVariable
	NotAllowedAtTopLevel
	InvalidExpression
)

var errorMessages = map[ErrorKind]string{
	NumberExpected:       "number expected",
	VariableExpected:     "variable name expected",
	TypeExpected:         "type expected",
	ArgumentsExpected:    "argument list expected",
	ParenNotClosed:       "parenthesis not closed",
	SemicolonMissing:     "semicolon missing",
	ColonMissing:         "colon missing",
	BlockExpected:        "block expected",
	InvalidType:          "invalid type",
	UnknownVariable:      "unknown variable",
	NotAllowedAtTopLevel: "not allowed at top level",
	InvalidExpression:    "invalid expression",
}

// Error is a parse failure carrying the source byte offset it occurred at.
// Parsing aborts on the first error; there is no recovery or partial AST.
type Error struct {
	Kind   ErrorKind
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (offset %d)", errorMessages[e.Kind], e.Offset)
}
