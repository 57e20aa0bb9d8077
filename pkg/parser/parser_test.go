package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/sable-lang/sable/pkg/lexer"
	"github.com/sable-lang/sable/pkg/types"
)

func parseProgram(t *testing.T, src string) ([]Node, *Parser) {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	p := New()
	nodes, err := p.Program(lexer.NewCursor(toks))
	if err != nil {
		t.Fatalf("Program failed: %v", err)
	}
	return nodes, p
}

func parseError(t *testing.T, src string) *Error {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	_, err = New().Program(lexer.NewCursor(toks))
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want *parser.Error", err)
	}
	return pe
}

// mainStmts returns the statements of the first function's body, skipping
// any static declarations that precede it.
func mainStmts(t *testing.T, nodes []Node) []Node {
	t.Helper()
	for _, n := range nodes {
		if fn, ok := n.(*FunctionDecl); ok {
			return fn.Body.(*Block).Stmts
		}
	}
	t.Fatal("no function declaration in program")
	return nil
}

func returnValue(t *testing.T, src string) Node {
	t.Helper()
	nodes, _ := parseProgram(t, src)
	stmts := mainStmts(t, nodes)
	ret, ok := stmts[len(stmts)-1].(*Return)
	if !ok {
		t.Fatalf("last stmt is %T, want *Return", stmts[len(stmts)-1])
	}
	return ret.Value
}

func TestPrecedence(t *testing.T) {
	val := returnValue(t, "fn main() { return 2*3 + 6/2; }")

	add, ok := val.(*BinaryOp)
	if !ok || add.Kind != OpAdd {
		t.Fatalf("root = %#v, want add", val)
	}
	mul, ok := add.LHS.(*BinaryOp)
	if !ok || mul.Kind != OpMul {
		t.Errorf("lhs = %#v, want mul", add.LHS)
	}
	div, ok := add.RHS.(*BinaryOp)
	if !ok || div.Kind != OpDiv {
		t.Errorf("rhs = %#v, want div", add.RHS)
	}
}

func TestParenGrouping(t *testing.T) {
	val := returnValue(t, "fn main() { return 2*(3+6)/3; }")

	div, ok := val.(*BinaryOp)
	if !ok || div.Kind != OpDiv {
		t.Fatalf("root = %#v, want div", val)
	}
	mul, ok := div.LHS.(*BinaryOp)
	if !ok || mul.Kind != OpMul {
		t.Fatalf("lhs = %#v, want mul", div.LHS)
	}
	if add, ok := mul.RHS.(*BinaryOp); !ok || add.Kind != OpAdd {
		t.Errorf("mul rhs = %#v, want add", mul.RHS)
	}
}

// Greater-than comparisons are normalized by swapping operands, so the AST
// only ever holds less and less-or-equal nodes.
func TestComparisonNormalization(t *testing.T) {
	tests := []struct {
		src      string
		wantKind BinOpKind
		wantLHS  uint32
		wantRHS  uint32
	}{
		{"fn main() { return 1 < 2; }", OpLt, 1, 2},
		{"fn main() { return 1 <= 2; }", OpLe, 1, 2},
		{"fn main() { return 1 > 2; }", OpLt, 2, 1},
		{"fn main() { return 1 >= 2; }", OpLe, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			val := returnValue(t, tt.src)
			cmp, ok := val.(*BinaryOp)
			if !ok || cmp.Kind != tt.wantKind {
				t.Fatalf("root = %#v, want kind %v", val, tt.wantKind)
			}
			if n := cmp.LHS.(*NumberLiteral); n.Val != tt.wantLHS {
				t.Errorf("lhs = %d, want %d", n.Val, tt.wantLHS)
			}
			if n := cmp.RHS.(*NumberLiteral); n.Val != tt.wantRHS {
				t.Errorf("rhs = %d, want %d", n.Val, tt.wantRHS)
			}
		})
	}
}

func TestUnaryMinusRewrite(t *testing.T) {
	val := returnValue(t, "fn main() { return -1 + 2; }")

	add := val.(*BinaryOp)
	if add.Kind != OpAdd {
		t.Fatalf("root kind = %v, want add", add.Kind)
	}
	sub, ok := add.LHS.(*BinaryOp)
	if !ok || sub.Kind != OpSub {
		t.Fatalf("lhs = %#v, want 0-1", add.LHS)
	}
	if z := sub.LHS.(*NumberLiteral); z.Val != 0 {
		t.Errorf("rewrite lhs = %d, want 0", z.Val)
	}
}

func TestFrameLayout(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn main() {
			let a: i32;
			let b: i8;
			let c: i64;
			return 0;
		}`)

	fn := nodes[0].(*FunctionDecl)
	stmts := fn.Body.(*Block).Stmts

	wantOffsets := []int{4, 5, 16}
	for i, want := range wantOffsets {
		decl := stmts[i].(*LocalVarDecl)
		if decl.Offset != want {
			t.Errorf("local %d offset = %d, want %d", i, decl.Offset, want)
		}
		if decl.Offset%decl.Type.Align() != 0 {
			t.Errorf("local %d offset %d not aligned to %d", i, decl.Offset, decl.Type.Align())
		}
	}
	if fn.FrameSize != 16 {
		t.Errorf("frame size = %d, want 16", fn.FrameSize)
	}
}

func TestFrameSizeRoundsTo16(t *testing.T) {
	nodes, _ := parseProgram(t, "fn main() { let a: i8; return 0; }")
	if fs := nodes[0].(*FunctionDecl).FrameSize; fs != 16 {
		t.Errorf("frame size = %d, want 16", fs)
	}
}

func TestScopeIsolation(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn foo() {
			let a: i64;
			return a;
		}
		fn bar() {
			let a: i8;
			return a;
		}`)

	fooRet := nodes[0].(*FunctionDecl).Body.(*Block).Stmts[1].(*Return)
	barRet := nodes[1].(*FunctionDecl).Body.(*Block).Stmts[1].(*Return)

	if ty := fooRet.Value.(*LocalVarRef).Type; ty.Kind != types.Int64 {
		t.Errorf("foo's a = %s, want i64", ty)
	}
	if ty := barRet.Value.(*LocalVarRef).Type; ty.Kind != types.Int8 {
		t.Errorf("bar's a = %s, want i8", ty)
	}
	if off := barRet.Value.(*LocalVarRef).Offset; off != 1 {
		t.Errorf("bar's a offset = %d, want 1 (scope reset)", off)
	}
}

// Duplicate local names resolve to the oldest slot: the scan is linear and
// first match wins, so the re-declaration's slot is unreachable.
func TestDuplicateLocalFirstMatch(t *testing.T) {
	val := returnValue(t, `
		fn main() {
			let a: i32;
			let a: i64;
			return a;
		}`)

	ref := val.(*LocalVarRef)
	if ref.Type.Kind != types.Int32 {
		t.Errorf("duplicate resolves to %s, want first declaration (i32)", ref.Type)
	}
	if ref.Offset != 4 {
		t.Errorf("offset = %d, want 4", ref.Offset)
	}
}

func TestGlobalResolution(t *testing.T) {
	nodes, _ := parseProgram(t, `
		static g: i16;
		fn main() {
			let l: i32;
			return g + l;
		}`)

	decl := nodes[0].(*GlobalVarDecl)
	if decl.Name != "g" || decl.Size != 2 {
		t.Errorf("global decl = %+v", decl)
	}

	add := nodes[1].(*FunctionDecl).Body.(*Block).Stmts[1].(*Return).Value.(*BinaryOp)
	if _, ok := add.LHS.(*GlobalVarRef); !ok {
		t.Errorf("g resolved to %T, want *GlobalVarRef", add.LHS)
	}
	if _, ok := add.RHS.(*LocalVarRef); !ok {
		t.Errorf("l resolved to %T, want *LocalVarRef", add.RHS)
	}
}

func TestLocalShadowsGlobal(t *testing.T) {
	val := returnValue(t, `
		static a: i64;
		fn main() {
			let a: i8;
			return a;
		}`)
	if _, ok := val.(*LocalVarRef); !ok {
		t.Errorf("a resolved to %T, want local before global", val)
	}
}

// A call to a function parsed later defaults its result to a 1-byte
// integer; the signature table only knows what has been parsed so far.
func TestForwardCallDefaultsReturnType(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn main() { return helper(); }
		fn helper() -> i64 { return 1; }`)

	call := mainStmts(t, nodes)[0].(*Return).Value.(*Call)
	if call.ReturnType.Kind != types.Int8 {
		t.Errorf("forward call type = %s, want default i8", call.ReturnType)
	}
}

func TestCallAfterDefinitionUsesSignature(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn helper() -> i64 { return 1; }
		fn main() { return helper(); }`)

	call := nodes[1].(*FunctionDecl).Body.(*Block).Stmts[0].(*Return).Value.(*Call)
	if call.ReturnType.Kind != types.Int64 {
		t.Errorf("call type = %s, want i64", call.ReturnType)
	}
}

func TestRecursiveCallSeesOwnSignature(t *testing.T) {
	nodes, _ := parseProgram(t, "fn f() -> i32 { return f(); }")
	call := mainStmts(t, nodes)[0].(*Return).Value.(*Call)
	if call.ReturnType.Kind != types.Int32 {
		t.Errorf("recursive call type = %s, want i32", call.ReturnType)
	}
}

func TestArrayIndexing(t *testing.T) {
	nodes, _ := parseProgram(t, `
		static g: [i8; 4];
		fn main() {
			let a: [i32; 10];
			a[8] = 1;
			g[3] = 2;
			return a[8];
		}`)

	stmts := nodes[1].(*FunctionDecl).Body.(*Block).Stmts

	// Base offset 40, element 8 at displacement 32: slot 40-32=8.
	local := stmts[1].(*BinaryOp).LHS.(*LocalVarRef)
	if local.Offset != 8 {
		t.Errorf("a[8] offset = %d, want 8", local.Offset)
	}
	if local.Type.Kind != types.Int32 {
		t.Errorf("a[8] type = %s, want element type i32", local.Type)
	}

	global := stmts[2].(*BinaryOp).LHS.(*GlobalVarRef)
	if global.Offset != 3 {
		t.Errorf("g[3] offset = %d, want 3", global.Offset)
	}
}

func TestStringLiteralPool(t *testing.T) {
	nodes, p := parseProgram(t, `
		fn main() {
			let a: &str;
			let b: &str;
			a = "first";
			b = "second";
			return 0;
		}`)

	lits := p.Literals()
	if len(lits) != 2 || lits[0] != "first" || lits[1] != "second" {
		t.Fatalf("pool = %v", lits)
	}

	stmts := mainStmts(t, nodes)
	first := stmts[2].(*BinaryOp).RHS.(*StringLiteral)
	second := stmts[3].(*BinaryOp).RHS.(*StringLiteral)
	if first.LabelID != 0 || second.LabelID != 1 {
		t.Errorf("label ids = %d, %d, want 0, 1", first.LabelID, second.LabelID)
	}
}

func TestTypeGrammar(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn main() {
			let p: &i32;
			let s: &str;
			let v: &[i64; 8];
			let a: [i16; 6];
			return 0;
		}`)

	stmts := mainStmts(t, nodes)

	p := stmts[0].(*LocalVarDecl).Type
	if p.Kind != types.Pointer || p.Elem.Kind != types.Int32 {
		t.Errorf("&i32 parsed as %s", p)
	}

	s := stmts[1].(*LocalVarDecl).Type
	if s.Kind != types.Slice || s.Elem.Kind != types.Str {
		t.Errorf("&str parsed as %s, want slice of str", s)
	}

	v := stmts[2].(*LocalVarDecl).Type
	if v.Kind != types.Slice || v.Elem.Kind != types.Int64 {
		t.Errorf("&[i64; 8] parsed as %s, want slice of i64", v)
	}

	a := stmts[3].(*LocalVarDecl).Type
	if a.Kind != types.Array || a.Len != 6 || a.Elem.Kind != types.Int16 {
		t.Errorf("[i16; 6] parsed as %s", a)
	}
}

func TestAddressOfTypes(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn main() {
			let n: i32;
			let a: [i32; 4];
			&n;
			&a;
			return 0;
		}`)

	stmts := mainStmts(t, nodes)

	refScalar := stmts[2].(*UnaryOp)
	if refScalar.Type.Kind != types.Pointer {
		t.Errorf("&n type = %s, want pointer", refScalar.Type)
	}
	refArray := stmts[3].(*UnaryOp)
	if refArray.Type.Kind != types.Slice {
		t.Errorf("&a type = %s, want slice (array decay)", refArray.Type)
	}
}

func TestDerefTypes(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn main() {
			let p: &i32;
			let n: i32;
			*p;
			*n;
			return 0;
		}`)

	stmts := mainStmts(t, nodes)

	good := stmts[2].(*UnaryOp)
	if good.Type == nil || good.Type.Kind != types.Int32 {
		t.Errorf("*p type = %v, want i32", good.Type)
	}
	// Dereferencing a non-pointer has no type; the generator rejects it.
	bad := stmts[3].(*UnaryOp)
	if bad.Type != nil {
		t.Errorf("*n type = %v, want nil", bad.Type)
	}
}

func TestAssignNesting(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn main() {
			let a: i32;
			let b: i32;
			a = b = 1;
			return 0;
		}`)

	outer := mainStmts(t, nodes)[2].(*BinaryOp)
	if outer.Kind != OpAssign {
		t.Fatalf("outer kind = %v", outer.Kind)
	}
	inner, ok := outer.RHS.(*BinaryOp)
	if !ok || inner.Kind != OpAssign {
		t.Errorf("assignment is not right-associative: rhs = %#v", outer.RHS)
	}
}

func TestWhileSingleStatementBody(t *testing.T) {
	nodes, _ := parseProgram(t, `
		fn main() {
			let a: i32;
			while a != 10 a = a + 1;
			return a;
		}`)

	loop := mainStmts(t, nodes)[1].(*While)
	if _, ok := loop.Body.(*BinaryOp); !ok {
		t.Errorf("single-statement body = %T", loop.Body)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantKind ErrorKind
		// offset of this substring's first occurrence; empty means 0
		at string
	}{
		{"top-level expression", "1 + 2;", NotAllowedAtTopLevel, "1"},
		{"unknown variable", "fn main() { return x; }", UnknownVariable, "x"},
		{"colon missing", "fn main() { let a; }", ColonMissing, ";"},
		{"type expected", "fn main() { let a: i77; }", TypeExpected, "i77"},
		{"bare str type", "fn main() { let a: str; }", InvalidType, "str"},
		{"paren not closed", "fn main() { return (1; }", ParenNotClosed, ";"},
		{"invalid expression", "fn main() { return ; }", InvalidExpression, ";"},
		{"arguments expected", "fn main { }", ArgumentsExpected, "{"},
		{"block expected", "fn main() return 1;", BlockExpected, "return"},
		{"array length missing", "fn main() { let a: [i32; x]; }", NumberExpected, "x"},
		{"static in function body", "fn main() { static a: i32; }", InvalidExpression, "static"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := parseError(t, tt.src)
			if pe.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v (err: %v)", pe.Kind, tt.wantKind, pe)
			}
			want := strings.Index(tt.src, tt.at)
			if pe.Offset != want {
				t.Errorf("offset = %d, want %d", pe.Offset, want)
			}
		})
	}
}

// The recorded offset of a missing semicolon is the offset of the token
// immediately following the malformed statement.
func TestSemicolonMissingOffset(t *testing.T) {
	src := "fn main() { return 1 }"
	pe := parseError(t, src)
	if pe.Kind != SemicolonMissing {
		t.Fatalf("kind = %v, want SemicolonMissing", pe.Kind)
	}
	if want := strings.LastIndex(src, "}"); pe.Offset != want {
		t.Errorf("offset = %d, want %d (the following token)", pe.Offset, want)
	}
}

func TestIndexErrors(t *testing.T) {
	pe := parseError(t, `
		fn main() {
			let a: [i32; 4];
			let i: i32;
			return a[i];
		}`)
	if pe.Kind != NumberExpected {
		t.Errorf("computed index: kind = %v, want NumberExpected", pe.Kind)
	}

	pe = parseError(t, `
		fn main() {
			let n: i32;
			return n[0];
		}`)
	if pe.Kind != InvalidType {
		t.Errorf("indexing non-array: kind = %v, want InvalidType", pe.Kind)
	}
}
