package lexer

import (
	"fmt"
	"strconv"
)

// Error is a tokenization failure at a byte offset.
type Error struct {
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot tokenize (offset %d)", e.Offset)
}

// twoCharOps are matched before the single-character operators.
var twoCharOps = []string{"==", "!=", "<=", ">=", "->"}

const singleCharOps = "+-*/(){}[]<>=!;:,&"

// Tokenize scans the full source and returns the token stream, terminated
// by an End token carrying the source length as its offset.
func Tokenize(source string) ([]Token, error) {
	var toks []Token
	i := 0
	n := len(source)

	for i < n {
		c := source[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '/' && i+1 < n && source[i+1] == '/':
			for i < n && source[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && source[i+1] == '*':
			start := i
			i += 2
			for {
				if i+1 >= n {
					return nil, &Error{Offset: start}
				}
				if source[i] == '*' && source[i+1] == '/' {
					i += 2
					break
				}
				i++
			}

		case c >= '0' && c <= '9':
			start := i
			for i < n && source[i] >= '0' && source[i] <= '9' {
				i++
			}
			val, err := strconv.ParseUint(source[start:i], 10, 32)
			if err != nil {
				return nil, &Error{Offset: start}
			}
			toks = append(toks, Token{Kind: Num, Num: uint32(val), Offset: start})

		case isNameStart(c):
			start := i
			for i < n && isNamePart(source[i]) {
				i++
			}
			word := source[start:i]
			if reserved[word] {
				toks = append(toks, Token{Kind: Reserved, Text: word, Offset: start})
			} else {
				toks = append(toks, Token{Kind: Ident, Text: word, Offset: start})
			}

		case c == '"':
			start := i
			i++
			for {
				if i >= n {
					return nil, &Error{Offset: start}
				}
				if source[i] == '"' {
					break
				}
				i++
			}
			toks = append(toks, Token{Kind: Str, Text: source[start+1 : i], Offset: start})
			i++

		default:
			if op, ok := scanOp(source, i); ok {
				toks = append(toks, Token{Kind: Op, Text: op, Offset: i})
				i += len(op)
			} else {
				return nil, &Error{Offset: i}
			}
		}
	}

	toks = append(toks, Token{Kind: End, Offset: n})
	return toks, nil
}

// scanOp matches the longest operator at position i.
func scanOp(source string, i int) (string, bool) {
	for _, op := range twoCharOps {
		if i+len(op) <= len(source) && source[i:i+len(op)] == op {
			return op, true
		}
	}
	for j := 0; j < len(singleCharOps); j++ {
		if source[i] == singleCharOps[j] {
			return string(singleCharOps[j]), true
		}
	}
	return "", false
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
