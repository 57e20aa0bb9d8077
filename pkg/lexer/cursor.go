package lexer

// Cursor is the parser's view of the token stream: a monotonically
// advancing index with consume-if-matches operations. The final End token
// is never consumed, so every accessor is in bounds.
type Cursor struct {
	toks    []Token
	current int
}

// NewCursor wraps a token stream produced by Tokenize.
func NewCursor(toks []Token) *Cursor {
	return &Cursor{toks: toks}
}

func (c *Cursor) cur() *Token {
	return &c.toks[c.current]
}

// Offset returns the byte offset of the current token, used for every
// diagnostic the parser emits.
func (c *Cursor) Offset() int {
	return c.cur().Offset
}

// HasNext reports whether the stream end has not been reached.
func (c *Cursor) HasNext() bool {
	return c.cur().Kind != End
}

// ConsumeOp advances past the current token when it is the given operator.
func (c *Cursor) ConsumeOp(op string) bool {
	t := c.cur()
	if t.Kind == Op && t.Text == op {
		c.current++
		return true
	}
	return false
}

// PeekOp reports whether the current token is the given operator.
func (c *Cursor) PeekOp(op string) bool {
	t := c.cur()
	return t.Kind == Op && t.Text == op
}

// ConsumeReserved advances past the current token when it is the given
// keyword.
func (c *Cursor) ConsumeReserved(word string) bool {
	t := c.cur()
	if t.Kind == Reserved && t.Text == word {
		c.current++
		return true
	}
	return false
}

// PeekReserved reports whether the current token is the given keyword.
func (c *Cursor) PeekReserved(word string) bool {
	t := c.cur()
	return t.Kind == Reserved && t.Text == word
}

// ConsumeNum returns the current integer literal, if any, and advances.
func (c *Cursor) ConsumeNum() (uint32, bool) {
	t := c.cur()
	if t.Kind == Num {
		c.current++
		return t.Num, true
	}
	return 0, false
}

// ConsumeIdent returns the current identifier, if any, and advances.
func (c *Cursor) ConsumeIdent() (string, bool) {
	t := c.cur()
	if t.Kind == Ident {
		c.current++
		return t.Text, true
	}
	return "", false
}

// ConsumeStr returns the current string literal, if any, and advances.
func (c *Cursor) ConsumeStr() (string, bool) {
	t := c.cur()
	if t.Kind == Str {
		c.current++
		return t.Text, true
	}
	return "", false
}
