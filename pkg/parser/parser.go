package parser

import (
	"github.com/sable-lang/sable/pkg/lexer"
	"github.com/sable-lang/sable/pkg/types"
)

// Parser owns all state of one compilation unit's syntax analysis: the
// symbol tables and the string literal pool. No state is ambient; a fresh
// Parser is used per compilation.
//
// Grammar:
//
//	program    = (function | staticDecl)*
//	function   = "fn" IDENT "(" params? ")" ("->" type)? block
//	staticDecl = "static" IDENT ":" type ";"
//	block      = "{" statement* "}"
//	statement  = "if" expr block ("else" block)?
//	           | "while" expr (block | statement)
//	           | "let" IDENT ":" type ";"
//	           | "return" expr ";"
//	           | expr ";"
//	expr       = assign
//	assign     = equality ("=" assign)?
//	equality   = relational (("==" | "!=") relational)*
//	relational = additive (("<" | "<=" | ">" | ">=") additive)*
//	additive   = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/") unary)*
//	unary      = ("&" | "*") unary | "-" primary | primary
//	primary    = NUM | "true" | "false" | STRING
//	           | IDENT "(" args? ")" | IDENT "[" NUM "]" | IDENT
//	           | "(" expr ")"
//	type       = "&" type | "[" type ";" NUM "]"
//	           | "i8" | "i16" | "i32" | "i64" | "bool" | "str"
type Parser struct {
	locals      []LocalVar
	globals     []GlobalVar
	funcs       []FuncSig
	literals    []string
	frameOffset int
}

// New returns an empty Parser.
func New() *Parser {
	return &Parser{}
}

// Literals returns the string literal pool in insertion order. A literal's
// index is its permanent assembly label id.
func (p *Parser) Literals() []string {
	return p.literals
}

// Program consumes the whole token stream and returns every top-level
// declaration in source order. The first error anywhere aborts the parse.
func (p *Parser) Program(c *lexer.Cursor) ([]Node, error) {
	var nodes []Node
	for c.HasNext() {
		switch {
		case c.PeekReserved("fn"):
			fn, err := p.function(c)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, fn)
		case c.PeekReserved("static"):
			g, err := p.staticDecl(c)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, g)
		default:
			return nil, errAt(NotAllowedAtTopLevel, c)
		}
	}
	return nodes, nil
}

func errAt(kind ErrorKind, c *lexer.Cursor) error {
	return &Error{Kind: kind, Offset: c.Offset()}
}

func (p *Parser) function(c *lexer.Cursor) (Node, error) {
	c.ConsumeReserved("fn")

	name, ok := c.ConsumeIdent()
	if !ok {
		return nil, errAt(VariableExpected, c)
	}
	if !c.ConsumeOp("(") {
		return nil, errAt(ArgumentsExpected, c)
	}

	// Parameters are ordinary locals; the local table and frame restart
	// at every function boundary.
	p.locals = p.locals[:0]
	p.frameOffset = 0

	var params []Node
	if !c.PeekOp(")") {
		for {
			pname, ok := c.ConsumeIdent()
			if !ok {
				return nil, errAt(VariableExpected, c)
			}
			if !c.ConsumeOp(":") {
				return nil, errAt(ColonMissing, c)
			}
			typeOff := c.Offset()
			ty, err := p.typeDecl(c)
			if err != nil {
				return nil, err
			}
			if ty.Kind == types.Str {
				return nil, &Error{Kind: InvalidType, Offset: typeOff}
			}
			lv := p.addLocal(pname, ty)
			params = append(params, &LocalVarRef{Offset: lv.Offset, Type: lv.Type})
			if !c.ConsumeOp(",") {
				break
			}
		}
	}
	if !c.ConsumeOp(")") {
		return nil, errAt(ParenNotClosed, c)
	}

	retType := types.TypeInt8
	if c.ConsumeOp("->") {
		var err error
		retType, err = p.typeDecl(c)
		if err != nil {
			return nil, err
		}
	}

	// Recorded before the body so recursive calls resolve their own
	// signature. Calls to functions defined later still default.
	p.funcs = append(p.funcs, FuncSig{Name: name, ReturnType: retType})

	body, err := p.block(c)
	if err != nil {
		return nil, err
	}

	return &FunctionDecl{
		Name:      name,
		Params:    params,
		FrameSize: types.AlignTo(p.frameOffset, 16),
		Body:      body,
	}, nil
}

func (p *Parser) staticDecl(c *lexer.Cursor) (Node, error) {
	c.ConsumeReserved("static")

	name, ok := c.ConsumeIdent()
	if !ok {
		return nil, errAt(VariableExpected, c)
	}
	if !c.ConsumeOp(":") {
		return nil, errAt(ColonMissing, c)
	}
	typeOff := c.Offset()
	ty, err := p.typeDecl(c)
	if err != nil {
		return nil, err
	}
	if ty.Kind == types.Str {
		return nil, &Error{Kind: InvalidType, Offset: typeOff}
	}
	if !c.ConsumeOp(";") {
		return nil, errAt(SemicolonMissing, c)
	}

	p.globals = append(p.globals, GlobalVar{Name: name, Type: ty})
	return &GlobalVarDecl{Name: name, Size: ty.Size(), Type: ty}, nil
}

func (p *Parser) block(c *lexer.Cursor) (Node, error) {
	if !c.ConsumeOp("{") {
		return nil, errAt(BlockExpected, c)
	}
	var stmts []Node
	for !c.ConsumeOp("}") {
		if !c.HasNext() {
			return nil, errAt(BlockExpected, c)
		}
		s, err := p.statement(c)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return &Block{Stmts: stmts}, nil
}

func (p *Parser) statement(c *lexer.Cursor) (Node, error) {
	switch {
	case c.ConsumeReserved("if"):
		cond, err := p.expr(c)
		if err != nil {
			return nil, err
		}
		then, err := p.block(c)
		if err != nil {
			return nil, err
		}
		if c.ConsumeReserved("else") {
			els, err := p.block(c)
			if err != nil {
				return nil, err
			}
			return &IfElse{Cond: cond, Then: then, Else: els}, nil
		}
		return &If{Cond: cond, Then: then}, nil

	case c.ConsumeReserved("while"):
		cond, err := p.expr(c)
		if err != nil {
			return nil, err
		}
		// Body is a brace-block or a single statement.
		var body Node
		if c.PeekOp("{") {
			body, err = p.block(c)
		} else {
			body, err = p.statement(c)
		}
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body}, nil

	case c.ConsumeReserved("let"):
		name, ok := c.ConsumeIdent()
		if !ok {
			return nil, errAt(VariableExpected, c)
		}
		if !c.ConsumeOp(":") {
			return nil, errAt(ColonMissing, c)
		}
		typeOff := c.Offset()
		ty, err := p.typeDecl(c)
		if err != nil {
			return nil, err
		}
		if ty.Kind == types.Str {
			return nil, &Error{Kind: InvalidType, Offset: typeOff}
		}
		if !c.ConsumeOp(";") {
			return nil, errAt(SemicolonMissing, c)
		}
		lv := p.addLocal(name, ty)
		return &LocalVarDecl{Offset: lv.Offset, Type: lv.Type}, nil

	case c.ConsumeReserved("return"):
		val, err := p.expr(c)
		if err != nil {
			return nil, err
		}
		if !c.ConsumeOp(";") {
			return nil, errAt(SemicolonMissing, c)
		}
		return &Return{Value: val, Type: TypeOf(val)}, nil

	default:
		node, err := p.expr(c)
		if err != nil {
			return nil, err
		}
		if !c.ConsumeOp(";") {
			return nil, errAt(SemicolonMissing, c)
		}
		return node, nil
	}
}

func (p *Parser) expr(c *lexer.Cursor) (Node, error) {
	return p.assign(c)
}

// assign is right-associative with a single optional trailing assignment.
// The stored value is not re-pushed by the generator, so assignment cannot
// be chained as a sub-expression value.
func (p *Parser) assign(c *lexer.Cursor) (Node, error) {
	node, err := p.equality(c)
	if err != nil {
		return nil, err
	}
	if c.ConsumeOp("=") {
		rhs, err := p.assign(c)
		if err != nil {
			return nil, err
		}
		node = &BinaryOp{Kind: OpAssign, LHS: node, RHS: rhs}
	}
	return node, nil
}

func (p *Parser) equality(c *lexer.Cursor) (Node, error) {
	node, err := p.relational(c)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case c.ConsumeOp("=="):
			rhs, err := p.relational(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpEq, LHS: node, RHS: rhs}
		case c.ConsumeOp("!="):
			rhs, err := p.relational(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpNe, LHS: node, RHS: rhs}
		default:
			return node, nil
		}
	}
}

// relational normalizes ">" and ">=" by swapping operands, so the AST only
// ever contains less and less-or-equal comparison nodes.
func (p *Parser) relational(c *lexer.Cursor) (Node, error) {
	node, err := p.additive(c)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case c.ConsumeOp("<"):
			rhs, err := p.additive(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpLt, LHS: node, RHS: rhs}
		case c.ConsumeOp("<="):
			rhs, err := p.additive(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpLe, LHS: node, RHS: rhs}
		case c.ConsumeOp(">"):
			lhs, err := p.additive(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpLt, LHS: lhs, RHS: node}
		case c.ConsumeOp(">="):
			lhs, err := p.additive(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpLe, LHS: lhs, RHS: node}
		default:
			return node, nil
		}
	}
}

func (p *Parser) additive(c *lexer.Cursor) (Node, error) {
	node, err := p.multiplicative(c)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case c.ConsumeOp("+"):
			rhs, err := p.multiplicative(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpAdd, LHS: node, RHS: rhs}
		case c.ConsumeOp("-"):
			rhs, err := p.multiplicative(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpSub, LHS: node, RHS: rhs}
		default:
			return node, nil
		}
	}
}

func (p *Parser) multiplicative(c *lexer.Cursor) (Node, error) {
	node, err := p.unary(c)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case c.ConsumeOp("*"):
			rhs, err := p.unary(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpMul, LHS: node, RHS: rhs}
		case c.ConsumeOp("/"):
			rhs, err := p.unary(c)
			if err != nil {
				return nil, err
			}
			node = &BinaryOp{Kind: OpDiv, LHS: node, RHS: rhs}
		default:
			return node, nil
		}
	}
}

func (p *Parser) unary(c *lexer.Cursor) (Node, error) {
	switch {
	case c.ConsumeOp("&"):
		operand, err := p.unary(c)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Kind: OpRef, Operand: operand, Type: refType(TypeOf(operand))}, nil

	case c.ConsumeOp("*"):
		operand, err := p.unary(c)
		if err != nil {
			return nil, err
		}
		var ty *types.Type
		if t := TypeOf(operand); t != nil && t.Kind == types.Pointer {
			ty = t.Elem
		}
		// A nil type marks a dereference of a non-pointer; the code
		// generator rejects it with a structured error.
		return &UnaryOp{Kind: OpDeref, Operand: operand, Type: ty}, nil

	case c.ConsumeOp("-"):
		// Unary minus rewrites to 0 - primary.
		operand, err := p.primary(c)
		if err != nil {
			return nil, err
		}
		return &BinaryOp{Kind: OpSub, LHS: &NumberLiteral{Val: 0}, RHS: operand}, nil

	default:
		return p.primary(c)
	}
}

// refType maps an operand type to the type of a reference to it:
// referencing a string or an array decays to a fat-pointer slice,
// everything else yields a plain pointer.
func refType(t *types.Type) *types.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case types.Array:
		return types.SliceOf(t.Elem)
	case types.Str:
		return types.SliceOf(types.TypeStr)
	default:
		return types.PointerTo(t)
	}
}

func (p *Parser) primary(c *lexer.Cursor) (Node, error) {
	if n, ok := c.ConsumeNum(); ok {
		return &NumberLiteral{Val: n}, nil
	}
	if c.ConsumeReserved("true") {
		return &BoolLiteral{Val: true}, nil
	}
	if c.ConsumeReserved("false") {
		return &BoolLiteral{Val: false}, nil
	}
	if s, ok := c.ConsumeStr(); ok {
		id := len(p.literals)
		p.literals = append(p.literals, s)
		return &StringLiteral{Text: s, LabelID: id}, nil
	}

	identOff := c.Offset()
	if name, ok := c.ConsumeIdent(); ok {
		if c.ConsumeOp("(") {
			return p.callExpr(c, name)
		}
		if c.ConsumeOp("[") {
			return p.indexRef(c, name, identOff)
		}
		return p.variableRef(name, identOff)
	}

	if c.ConsumeOp("(") {
		node, err := p.expr(c)
		if err != nil {
			return nil, err
		}
		if !c.ConsumeOp(")") {
			return nil, errAt(ParenNotClosed, c)
		}
		return node, nil
	}

	return nil, errAt(InvalidExpression, c)
}

func (p *Parser) callExpr(c *lexer.Cursor, name string) (Node, error) {
	var args []Node
	if !c.PeekOp(")") {
		for {
			a, err := p.expr(c)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !c.ConsumeOp(",") {
				break
			}
		}
	}
	if !c.ConsumeOp(")") {
		return nil, errAt(ParenNotClosed, c)
	}

	// The signature table only holds functions parsed so far; a forward
	// reference silently defaults to a 1-byte integer result.
	retType := types.TypeInt8
	if sig, ok := p.findFunc(name); ok {
		retType = sig.ReturnType
	}
	return &Call{Name: name, Args: args, ReturnType: retType}, nil
}

// indexRef resolves "name[idx]". The index must be a literal integer; the
// element displacement is folded into the reference at parse time.
func (p *Parser) indexRef(c *lexer.Cursor, name string, identOff int) (Node, error) {
	idx, ok := c.ConsumeNum()
	if !ok {
		return nil, errAt(NumberExpected, c)
	}
	if !c.ConsumeOp("]") {
		return nil, errAt(ParenNotClosed, c)
	}

	if lv, ok := p.findLocal(name); ok {
		if lv.Type.Kind != types.Array {
			return nil, &Error{Kind: InvalidType, Offset: identOff}
		}
		elem := lv.Type.Elem
		return &LocalVarRef{Offset: lv.Offset - elem.Size()*int(idx), Type: elem}, nil
	}
	if gv, ok := p.findGlobal(name); ok {
		if gv.Type.Kind != types.Array {
			return nil, &Error{Kind: InvalidType, Offset: identOff}
		}
		elem := gv.Type.Elem
		return &GlobalVarRef{Name: name, Offset: elem.Size() * int(idx), Type: elem}, nil
	}
	return nil, &Error{Kind: UnknownVariable, Offset: identOff}
}

func (p *Parser) variableRef(name string, identOff int) (Node, error) {
	if lv, ok := p.findLocal(name); ok {
		return &LocalVarRef{Offset: lv.Offset, Type: lv.Type}, nil
	}
	if gv, ok := p.findGlobal(name); ok {
		return &GlobalVarRef{Name: name, Type: gv.Type}, nil
	}
	return nil, &Error{Kind: UnknownVariable, Offset: identOff}
}

func (p *Parser) typeDecl(c *lexer.Cursor) (*types.Type, error) {
	if c.ConsumeOp("&") {
		inner, err := p.typeDecl(c)
		if err != nil {
			return nil, err
		}
		return refType(inner), nil
	}

	if c.ConsumeOp("[") {
		elem, err := p.typeDecl(c)
		if err != nil {
			return nil, err
		}
		if !c.ConsumeOp(";") {
			return nil, errAt(InvalidType, c)
		}
		n, ok := c.ConsumeNum()
		if !ok {
			return nil, errAt(NumberExpected, c)
		}
		if !c.ConsumeOp("]") {
			return nil, errAt(ParenNotClosed, c)
		}
		return types.ArrayOf(elem, int(n)), nil
	}

	for _, s := range scalarTypes {
		if c.ConsumeReserved(s.word) {
			return s.ty, nil
		}
	}
	return nil, errAt(TypeExpected, c)
}

var scalarTypes = []struct {
	word string
	ty   *types.Type
}{
	{"i8", types.TypeInt8},
	{"i16", types.TypeInt16},
	{"i32", types.TypeInt32},
	{"i64", types.TypeInt64},
	{"bool", types.TypeBool},
	{"str", types.TypeStr},
}
