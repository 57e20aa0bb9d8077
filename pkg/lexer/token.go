// Package lexer turns Sable source text into a position-tagged token
// stream, consumed by the parser through a monotonically advancing Cursor.
package lexer

// Kind discriminates the token variants.
type Kind int

const (
	// Op is a punctuation or operator token ("+", "==", "->", ...).
	Op Kind = iota
	// Num is an unsigned integer literal.
	Num
	// Ident is a user-defined name.
	Ident
	// Str is a string literal (raw contents, quotes stripped).
	Str
	// Reserved is a language keyword or builtin type name.
	Reserved
	// End marks the end of the token stream.
	End
)

// Token is one lexeme with the byte offset it starts at. Tokens are
// immutable; the lexer produces the full stream once.
type Token struct {
	Kind   Kind
	Text   string // Op, Ident, Str, Reserved
	Num    uint32 // Num
	Offset int
}

// reserved holds every keyword, including the builtin type names.
var reserved = map[string]bool{
	"fn":     true,
	"let":    true,
	"static": true,
	"if":     true,
	"else":   true,
	"while":  true,
	"return": true,
	"true":   true,
	"false":  true,
	"i8":     true,
	"i16":    true,
	"i32":    true,
	"i64":    true,
	"bool":   true,
	"str":    true,
}
