package lexer

import (
	"errors"
	"testing"
)

func TestTokenizeOffsets(t *testing.T) {
	toks, err := Tokenize("a = 12;")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	want := []Token{
		{Kind: Ident, Text: "a", Offset: 0},
		{Kind: Op, Text: "=", Offset: 2},
		{Kind: Num, Num: 12, Offset: 4},
		{Kind: Op, Text: ";", Offset: 6},
		{Kind: End, Offset: 7},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i] != w {
			t.Errorf("token %d: got %+v, want %+v", i, toks[i], w)
		}
	}
}

func TestTokenizeOperators(t *testing.T) {
	tests := []struct {
		source string
		want   []string
	}{
		{"== != <= >= ->", []string{"==", "!=", "<=", ">=", "->"}},
		{"a<b", []string{"<"}},
		{"a<=b", []string{"<="}},
		{"x=-1", []string{"=", "-"}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			toks, err := Tokenize(tt.source)
			if err != nil {
				t.Fatalf("Tokenize failed: %v", err)
			}
			var ops []string
			for _, tok := range toks {
				if tok.Kind == Op {
					ops = append(ops, tok.Text)
				}
			}
			if len(ops) != len(tt.want) {
				t.Fatalf("got ops %v, want %v", ops, tt.want)
			}
			for i := range ops {
				if ops[i] != tt.want[i] {
					t.Errorf("op %d: got %q, want %q", i, ops[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeReservedWords(t *testing.T) {
	toks, err := Tokenize("fn foo() { let a: i32; return true; }")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	wantReserved := map[string]bool{"fn": true, "let": true, "i32": true, "return": true, "true": true}
	seen := make(map[string]bool)
	for _, tok := range toks {
		if tok.Kind == Reserved {
			seen[tok.Text] = true
		}
		if tok.Kind == Ident && wantReserved[tok.Text] {
			t.Errorf("keyword %q lexed as identifier", tok.Text)
		}
	}
	for w := range wantReserved {
		if !seen[w] {
			t.Errorf("keyword %q not lexed as reserved", w)
		}
	}
}

func TestTokenizeComments(t *testing.T) {
	toks, err := Tokenize("1 // comment\n/* multi\nline */ 2 /**/ 3")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	var nums []uint32
	for _, tok := range toks {
		if tok.Kind == Num {
			nums = append(nums, tok.Num)
		}
	}
	if len(nums) != 3 || nums[0] != 1 || nums[1] != 2 || nums[2] != 3 {
		t.Errorf("got numbers %v, want [1 2 3]", nums)
	}
}

func TestTokenizeString(t *testing.T) {
	toks, err := Tokenize(`s = "hello";`)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	found := false
	for _, tok := range toks {
		if tok.Kind == Str {
			found = true
			if tok.Text != "hello" {
				t.Errorf("got string %q, want %q", tok.Text, "hello")
			}
			if tok.Offset != 4 {
				t.Errorf("got offset %d, want 4", tok.Offset)
			}
		}
	}
	if !found {
		t.Error("no string token produced")
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		wantOffset int
	}{
		{"bad byte", "1 + @", 4},
		{"unterminated string", `x = "abc`, 4},
		{"unterminated comment", "1 /* abc", 2},
		{"number overflow", "99999999999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.source)
			var le *Error
			if !errors.As(err, &le) {
				t.Fatalf("got %v, want *lexer.Error", err)
			}
			if le.Offset != tt.wantOffset {
				t.Errorf("got offset %d, want %d", le.Offset, tt.wantOffset)
			}
		})
	}
}

func TestCursor(t *testing.T) {
	toks, err := Tokenize("fn main ( ) 42")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	c := NewCursor(toks)

	if !c.PeekReserved("fn") {
		t.Fatal("PeekReserved(fn) = false")
	}
	if c.ConsumeOp("(") {
		t.Fatal("ConsumeOp must not advance past a keyword")
	}
	if !c.ConsumeReserved("fn") {
		t.Fatal("ConsumeReserved(fn) = false")
	}
	name, ok := c.ConsumeIdent()
	if !ok || name != "main" {
		t.Fatalf("ConsumeIdent = %q, %v", name, ok)
	}
	if !c.ConsumeOp("(") || !c.ConsumeOp(")") {
		t.Fatal("parens not consumed")
	}
	n, ok := c.ConsumeNum()
	if !ok || n != 42 {
		t.Fatalf("ConsumeNum = %d, %v", n, ok)
	}
	if c.HasNext() {
		t.Error("HasNext after final token")
	}
	// The End token is never consumed and keeps its offset.
	if c.Offset() != len("fn main ( ) 42") {
		t.Errorf("end offset = %d", c.Offset())
	}
}
