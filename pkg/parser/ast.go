// Package parser implements syntax analysis for Sable: a single pass over
// the token cursor that produces a typed AST, symbol tables and the string
// literal pool. There is no separate semantic-analysis phase; names and
// types are resolved inline while parsing.
package parser

import "github.com/sable-lang/sable/pkg/types"

// Node is the closed set of AST node kinds. Each composite node exclusively
// owns its children; the tree is built once and never mutated afterwards.
type Node interface {
	node()
}

// BinOpKind discriminates binary operator nodes. There are no greater-than
// kinds: the parser normalizes ">" and ">=" by swapping operands, so only
// Lt and Le comparison nodes ever exist in the tree.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpAssign
)

// UnaryOpKind discriminates unary operator nodes.
type UnaryOpKind int

const (
	// OpRef is address-of ("&").
	OpRef UnaryOpKind = iota
	// OpDeref is pointer dereference ("*").
	OpDeref
)

// BinaryOp is an infix operation over two sub-expressions.
type BinaryOp struct {
	Kind BinOpKind
	LHS  Node
	RHS  Node
}

// UnaryOp is address-of or dereference. Type is the result type: a Pointer
// or Slice for OpRef, the pointee for OpDeref, or nil when dereferencing a
// value that is not a pointer (rejected later by the code generator).
type UnaryOp struct {
	Kind    UnaryOpKind
	Operand Node
	Type    *types.Type
}

// NumberLiteral is an unsigned integer literal.
type NumberLiteral struct {
	Val uint32
}

// BoolLiteral is "true" or "false".
type BoolLiteral struct {
	Val bool
}

// StringLiteral references an entry in the literal pool. LabelID is the
// literal's insertion index, which is its permanent assembly label id.
type StringLiteral struct {
	Text    string
	LabelID int
}

// LocalVarRef is a resolved reference to a local variable slot. Offset is
// measured down from the frame base; indexed array accesses fold the
// element displacement into it at parse time.
type LocalVarRef struct {
	Offset int
	Type   *types.Type
}

// LocalVarDecl records a "let" declaration. It reserves the slot but emits
// no code.
type LocalVarDecl struct {
	Offset int
	Type   *types.Type
}

// GlobalVarRef is a resolved reference to a global symbol. Offset is the
// intra-symbol byte displacement for indexed array accesses.
type GlobalVarRef struct {
	Name   string
	Offset int
	Type   *types.Type
}

// GlobalVarDecl records a "static" declaration: a zero-filled block of
// Size bytes.
type GlobalVarDecl struct {
	Name string
	Size int
	Type *types.Type
}

// Block is a brace-delimited statement sequence.
type Block struct {
	Stmts []Node
}

// FunctionDecl is one function definition. Params are the parameters'
// lvalue nodes in declaration order; the generator copies the argument
// registers into them at entry, after which parameters are ordinary
// locals. FrameSize is the 16-byte-aligned local storage size.
type FunctionDecl struct {
	Name      string
	Params    []Node
	FrameSize int
	Body      Node
}

// Call is a function call expression. ReturnType comes from the signature
// table as populated so far; a call to a function defined later in the
// source defaults to a 1-byte integer.
type Call struct {
	Name       string
	Args       []Node
	ReturnType *types.Type
}

// If is a conditional without an else branch.
type If struct {
	Cond Node
	Then Node
}

// IfElse is a conditional with both branches.
type IfElse struct {
	Cond Node
	Then Node
	Else Node
}

// While is a pre-test loop.
type While struct {
	Cond Node
	Body Node
}

// Return evaluates Value and tears down the frame. Type is the value's
// static type, consulted for two-register slice returns.
type Return struct {
	Value Node
	Type  *types.Type
}

func (*BinaryOp) node()      {}
func (*UnaryOp) node()       {}
func (*NumberLiteral) node() {}
func (*BoolLiteral) node()   {}
func (*StringLiteral) node() {}
func (*LocalVarRef) node()   {}
func (*LocalVarDecl) node()  {}
func (*GlobalVarRef) node()  {}
func (*GlobalVarDecl) node() {}
func (*Block) node()         {}
func (*FunctionDecl) node()  {}
func (*Call) node()          {}
func (*If) node()            {}
func (*IfElse) node()        {}
func (*While) node()         {}
func (*Return) node()        {}

// TypeOf returns the static type of an expression node, or nil when the
// node has no value type (declarations, statements, malformed derefs).
func TypeOf(n Node) *types.Type {
	switch e := n.(type) {
	case *NumberLiteral:
		return types.TypeInt64
	case *BoolLiteral:
		return types.TypeBool
	case *StringLiteral:
		return types.SliceOf(types.TypeStr)
	case *LocalVarRef:
		return e.Type
	case *GlobalVarRef:
		return e.Type
	case *UnaryOp:
		return e.Type
	case *Call:
		return e.ReturnType
	case *BinaryOp:
		switch e.Kind {
		case OpEq, OpNe, OpLt, OpLe:
			return types.TypeBool
		case OpAssign:
			return TypeOf(e.LHS)
		default:
			return TypeOf(e.LHS)
		}
	default:
		return nil
	}
}
