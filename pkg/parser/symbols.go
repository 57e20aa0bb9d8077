package parser

import "github.com/sable-lang/sable/pkg/types"

// LocalVar is one frame slot, scoped to the function being parsed. The
// local list is cleared at every function boundary.
type LocalVar struct {
	Name   string
	Type   *types.Type
	Offset int
}

// GlobalVar lives for the whole compilation unit.
type GlobalVar struct {
	Name string
	Type *types.Type
}

// FuncSig is recorded as each function header is parsed and consulted by
// later call expressions.
type FuncSig struct {
	Name       string
	ReturnType *types.Type
}

// findLocal scans the current function's locals in insertion order. First
// match wins: a same-named re-declaration creates an unreachable second
// slot rather than shadowing the first.
func (p *Parser) findLocal(name string) (LocalVar, bool) {
	for _, lv := range p.locals {
		if lv.Name == name {
			return lv, true
		}
	}
	return LocalVar{}, false
}

func (p *Parser) findGlobal(name string) (GlobalVar, bool) {
	for _, gv := range p.globals {
		if gv.Name == name {
			return gv, true
		}
	}
	return GlobalVar{}, false
}

func (p *Parser) findFunc(name string) (FuncSig, bool) {
	for _, fs := range p.funcs {
		if fs.Name == name {
			return fs, true
		}
	}
	return FuncSig{}, false
}

// addLocal reserves an aligned frame slot below the ones already taken and
// returns it. Offsets grow downward from the frame base: the slot occupies
// [rbp-Offset, rbp-Offset+Size), so Offset is always a multiple of the
// type's natural alignment.
func (p *Parser) addLocal(name string, ty *types.Type) LocalVar {
	off := types.AlignTo(p.frameOffset, ty.Align()) + ty.Size()
	p.frameOffset = off
	lv := LocalVar{Name: name, Type: ty, Offset: off}
	p.locals = append(p.locals, lv)
	return lv
}
