// Package amd64 implements x86-64 code generation for Sable.
//
// Design: direct textual assembly emission (Intel syntax, GNU-as
// compatible), no intermediate representation. Every expression is lowered
// under a stack-machine model: it leaves exactly one machine word on the
// runtime stack (two words, pointer then length, for slice-typed
// expressions), and every consumer pops its operands in reverse push order
// into fixed scratch registers. System V calling convention.
package amd64

import (
	"fmt"
	"io"
	"strings"

	"github.com/sable-lang/sable/pkg/logger"
	"github.com/sable-lang/sable/pkg/parser"
	"github.com/sable-lang/sable/pkg/types"
)

// Generator emits one assembly listing for one compilation. Label ids are
// strictly increasing for the generator's lifetime, so jump targets of
// nested and sibling control constructs never collide.
type Generator struct {
	w          io.Writer
	labelCount int
	werr       error
}

// NewGenerator returns a Generator writing to w.
func NewGenerator(w io.Writer) *Generator {
	return &Generator{w: w}
}

// Generate walks the AST once and writes the full listing: the header
// directive, the read-only literal pool, then every top-level declaration
// in source order. The AST is never mutated.
func (g *Generator) Generate(nodes []parser.Node, literals []string) error {
	g.raw(".intel_syntax noprefix")
	g.blank()

	if len(literals) > 0 {
		g.raw(".section .rodata")
		for i, lit := range literals {
			g.raw(fmt.Sprintf(".LC%d:", i))
			g.op(".ascii \"%s\"", lit)
		}
		g.blank()
	}

	for _, n := range nodes {
		if err := g.genNode(n); err != nil {
			return err
		}
	}
	return g.werr
}

// GenerateWithValidation generates into a buffer and runs the structural
// validator over the result before returning it.
func (g *Generator) GenerateWithValidation(nodes []parser.Node, literals []string) (string, error) {
	var buf strings.Builder
	g.w = &buf

	if err := g.Generate(nodes, literals); err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	assembly := buf.String()
	if err := ValidateProgram(assembly); err != nil {
		logger.Error("Assembly validation failed", "error", err)
		return assembly, fmt.Errorf("validation failed: %w", err)
	}
	return assembly, nil
}

func (g *Generator) nextLabel() int {
	n := g.labelCount
	g.labelCount++
	return n
}

// op writes one indented instruction or data directive.
func (g *Generator) op(format string, args ...any) {
	if g.werr != nil {
		return
	}
	_, g.werr = fmt.Fprintf(g.w, "    "+format+"\n", args...)
}

// raw writes one unindented line (labels, section directives).
func (g *Generator) raw(line string) {
	if g.werr != nil {
		return
	}
	_, g.werr = io.WriteString(g.w, line+"\n")
}

func (g *Generator) blank() {
	g.raw("")
}

// genLval pushes the address of an lvalue. Dereference lowers to the
// pointer's value (which is the target address); anything else that is not
// a variable reference has no address and is rejected, naming the
// requesting construct in the error.
func (g *Generator) genLval(node parser.Node, context string) error {
	switch n := node.(type) {
	case *parser.LocalVarRef:
		g.op("mov rax, rbp")
		g.op("sub rax, %d", n.Offset)
		g.op("push rax")
		return nil

	case *parser.GlobalVarRef:
		g.op("lea rax, %s[rip]", n.Name)
		if n.Offset != 0 {
			g.op("add rax, %d", n.Offset)
		}
		g.op("push rax")
		return nil

	case *parser.UnaryOp:
		if n.Kind != parser.OpDeref {
			return &ContextError{Context: context}
		}
		if n.Type == nil {
			return &DerefError{}
		}
		return g.genNode(n.Operand)

	default:
		return &ContextError{Context: context}
	}
}

// loadPush pops an address and pushes the value stored at it. The
// instruction width follows the declared type; narrow loads sign-extend
// into the full register so later arithmetic is correct. Slices load both
// words.
func (g *Generator) loadPush(ty *types.Type) {
	g.op("pop rax")
	if ty.Kind == types.Slice {
		g.op("mov rdi, QWORD PTR [rax]")
		g.op("mov rsi, QWORD PTR [rax+8]")
		g.op("push rdi")
		g.op("push rsi")
		return
	}
	switch ty.Size() {
	case 1:
		g.op("movsx rax, BYTE PTR [rax]")
	case 2:
		g.op("movsx rax, WORD PTR [rax]")
	case 4:
		g.op("movsxd rax, DWORD PTR [rax]")
	default:
		g.op("mov rax, QWORD PTR [rax]")
	}
	g.op("push rax")
}

func (g *Generator) genNode(node parser.Node) error {
	switch n := node.(type) {
	case *parser.NumberLiteral:
		g.op("push %d", n.Val)
		return nil

	case *parser.BoolLiteral:
		if n.Val {
			g.op("push 1")
		} else {
			g.op("push 0")
		}
		return nil

	case *parser.StringLiteral:
		// A string literal evaluates to a slice: pointer, then length.
		g.op("lea rax, .LC%d[rip]", n.LabelID)
		g.op("push rax")
		g.op("push %d", len(n.Text))
		return nil

	case *parser.LocalVarRef:
		if err := g.genLval(n, "load"); err != nil {
			return err
		}
		g.loadPush(n.Type)
		return nil

	case *parser.GlobalVarRef:
		if err := g.genLval(n, "load"); err != nil {
			return err
		}
		g.loadPush(n.Type)
		return nil

	case *parser.LocalVarDecl:
		// Slot was reserved at parse time; no code.
		return nil

	case *parser.UnaryOp:
		return g.genUnary(n)

	case *parser.BinaryOp:
		return g.genBinary(n)

	case *parser.Block:
		for _, s := range n.Stmts {
			if err := g.genNode(s); err != nil {
				return err
			}
		}
		return nil

	case *parser.FunctionDecl:
		return g.genFunction(n)

	case *parser.Call:
		return g.genCall(n)

	case *parser.If:
		lcnt := g.nextLabel()
		if err := g.genNode(n.Cond); err != nil {
			return err
		}
		g.op("pop rax")
		g.op("cmp rax, 0")
		g.op("je .Lend%d", lcnt)
		if err := g.genNode(n.Then); err != nil {
			return err
		}
		g.raw(fmt.Sprintf(".Lend%d:", lcnt))
		return nil

	case *parser.IfElse:
		lcnt := g.nextLabel()
		if err := g.genNode(n.Cond); err != nil {
			return err
		}
		g.op("pop rax")
		g.op("cmp rax, 0")
		g.op("je .Lelse%d", lcnt)
		if err := g.genNode(n.Then); err != nil {
			return err
		}
		g.op("jmp .Lend%d", lcnt)
		g.raw(fmt.Sprintf(".Lelse%d:", lcnt))
		if err := g.genNode(n.Else); err != nil {
			return err
		}
		g.raw(fmt.Sprintf(".Lend%d:", lcnt))
		return nil

	case *parser.While:
		// Pre-test loop: the condition re-runs at the top of every
		// iteration.
		lcnt := g.nextLabel()
		g.raw(fmt.Sprintf(".Lbegin%d:", lcnt))
		if err := g.genNode(n.Cond); err != nil {
			return err
		}
		g.op("pop rax")
		g.op("cmp rax, 0")
		g.op("je .Lend%d", lcnt)
		if err := g.genNode(n.Body); err != nil {
			return err
		}
		g.op("jmp .Lbegin%d", lcnt)
		g.raw(fmt.Sprintf(".Lend%d:", lcnt))
		return nil

	case *parser.Return:
		if err := g.genNode(n.Value); err != nil {
			return err
		}
		if n.Type != nil && n.Type.Kind == types.Slice {
			g.op("pop rdx")
			g.op("pop rax")
		} else {
			g.op("pop rax")
		}
		g.epilogue()
		return nil

	case *parser.GlobalVarDecl:
		g.raw(".bss")
		g.raw(".global " + n.Name)
		g.raw(n.Name + ":")
		g.op(".zero %d", n.Size)
		g.blank()
		return nil

	default:
		return &ContextError{}
	}
}

func (g *Generator) genUnary(n *parser.UnaryOp) error {
	switch n.Kind {
	case parser.OpRef:
		// Address-of generates the address-computation path directly,
		// skipping the trailing load.
		if err := g.genLval(n.Operand, "address-of"); err != nil {
			return err
		}
		// Referencing an array decays to a fat pointer: the element
		// count rides along as the second word.
		if t := parser.TypeOf(n.Operand); t != nil && t.Kind == types.Array {
			g.op("push %d", t.Len)
		}
		return nil

	case parser.OpDeref:
		if n.Type == nil {
			return &DerefError{}
		}
		if err := g.genNode(n.Operand); err != nil {
			return err
		}
		g.loadPush(n.Type)
		return nil

	default:
		return &ContextError{}
	}
}

func (g *Generator) genBinary(n *parser.BinaryOp) error {
	if n.Kind == parser.OpAssign {
		return g.genAssign(n)
	}

	if err := g.genNode(n.LHS); err != nil {
		return err
	}
	if err := g.genNode(n.RHS); err != nil {
		return err
	}
	g.op("pop rdi")
	g.op("pop rax")

	switch n.Kind {
	case parser.OpAdd:
		g.op("add rax, rdi")
	case parser.OpSub:
		g.op("sub rax, rdi")
	case parser.OpMul:
		g.op("imul rax, rdi")
	case parser.OpDiv:
		g.op("cqo")
		g.op("idiv rdi")
	case parser.OpEq:
		g.op("cmp rax, rdi")
		g.op("sete al")
		g.op("movzx rax, al")
	case parser.OpNe:
		g.op("cmp rax, rdi")
		g.op("setne al")
		g.op("movzx rax, al")
	case parser.OpLt:
		g.op("cmp rax, rdi")
		g.op("setl al")
		g.op("movzx rax, al")
	case parser.OpLe:
		g.op("cmp rax, rdi")
		g.op("setle al")
		g.op("movzx rax, al")
	}
	g.op("push rax")
	return nil
}

// genAssign stores the right-hand value through the left-hand address. The
// store consumes the value and the result is not re-pushed, so assignment
// has no value of its own and cannot be chained as a sub-expression.
func (g *Generator) genAssign(n *parser.BinaryOp) error {
	if err := g.genLval(n.LHS, "assignment"); err != nil {
		return err
	}
	if err := g.genNode(n.RHS); err != nil {
		return err
	}

	ty := lvalueType(n.LHS)
	if ty != nil && ty.Kind == types.Slice {
		g.op("pop rsi")
		g.op("pop rdi")
		g.op("pop rax")
		g.op("mov QWORD PTR [rax], rdi")
		g.op("mov QWORD PTR [rax+8], rsi")
		return nil
	}

	size := types.WordSize
	if ty != nil {
		size = ty.Size()
	}
	g.op("pop rdi")
	g.op("pop rax")
	g.op("mov %s [rax], %s", ptrDirective(size), subReg("rdi", size))
	return nil
}

// lvalueType returns the declared type behind an lvalue node.
func lvalueType(node parser.Node) *types.Type {
	switch n := node.(type) {
	case *parser.LocalVarRef:
		return n.Type
	case *parser.GlobalVarRef:
		return n.Type
	case *parser.UnaryOp:
		if n.Kind == parser.OpDeref {
			return n.Type
		}
	}
	return nil
}

func (g *Generator) genFunction(fn *parser.FunctionDecl) error {
	g.raw(".text")
	g.raw(".global " + fn.Name)
	g.raw(fn.Name + ":")

	g.op("push rbp")
	g.op("mov rbp, rsp")
	g.op("sub rsp, %d", fn.FrameSize)

	// Copy the incoming arguments into their frame slots; parameters are
	// ordinary locals from here on.
	regIdx := 0
	for _, pn := range fn.Params {
		lv, ok := pn.(*parser.LocalVarRef)
		if !ok {
			return &ContextError{}
		}
		need := 1
		if lv.Type.Kind == types.Slice {
			need = 2
		}
		if regIdx+need > len(ArgRegs) {
			return fmt.Errorf("too many parameters in function %s", fn.Name)
		}
		if err := g.genLval(pn, "parameter copy"); err != nil {
			return err
		}
		g.op("pop rax")
		if lv.Type.Kind == types.Slice {
			g.op("mov QWORD PTR [rax], %s", ArgRegs[regIdx])
			g.op("mov QWORD PTR [rax+8], %s", ArgRegs[regIdx+1])
		} else {
			size := lv.Type.Size()
			g.op("mov %s [rax], %s", ptrDirective(size), subReg(ArgRegs[regIdx], size))
		}
		regIdx += need
	}

	if err := g.genNode(fn.Body); err != nil {
		return err
	}

	// Implicit function end tears the frame down exactly like return.
	g.epilogue()
	g.blank()

	logger.LogCodeGen("amd64", fn.Name)
	return nil
}

func (g *Generator) epilogue() {
	g.op("mov rsp, rbp")
	g.op("pop rbp")
	g.op("ret")
}

func (g *Generator) genCall(n *parser.Call) error {
	// Assign each argument its register index up front; a slice argument
	// takes two consecutive registers (pointer, then length).
	regIdx := make([]int, len(n.Args))
	next := 0
	for i, a := range n.Args {
		regIdx[i] = next
		if isSlice(a) {
			next += 2
		} else {
			next++
		}
	}
	if next > len(ArgRegs) {
		return fmt.Errorf("too many arguments in call to %s", n.Name)
	}

	// Evaluate left-to-right, parking every result on the runtime stack:
	// loading a register eagerly would let a later argument's evaluation
	// clobber it. The pops below run in reverse, so the first argument
	// reaches its final register last.
	for _, a := range n.Args {
		if err := g.genNode(a); err != nil {
			return err
		}
	}
	for i := len(n.Args) - 1; i >= 0; i-- {
		if isSlice(n.Args[i]) {
			g.op("pop %s", ArgRegs[regIdx[i]+1])
			g.op("pop %s", ArgRegs[regIdx[i]])
		} else {
			g.op("pop %s", ArgRegs[regIdx[i]])
		}
	}

	g.op("call %s@PLT", n.Name)

	if n.ReturnType != nil && n.ReturnType.Kind == types.Slice {
		g.op("push rax")
		g.op("push rdx")
	} else {
		g.op("push rax")
	}
	return nil
}

func isSlice(n parser.Node) bool {
	t := parser.TypeOf(n)
	return t != nil && t.Kind == types.Slice
}
