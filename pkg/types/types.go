// Package types implements the Sable type system.
//
// Design: one closed, recursive value type. Sizes are byte-accurate and
// drive both frame layout in the parser and operand-width selection in the
// code generator.
package types

import "fmt"

// WordSize is the machine word size on x86-64.
const WordSize = 8

// Kind enumerates every type the language can express.
type Kind int

const (
	Int8 Kind = iota
	Int16
	Int32
	Int64
	Bool
	// Str is the element type of string data. It never stands alone as a
	// variable's type: referencing a string produces a Slice of Str.
	Str
	Pointer
	Slice
	Array
)

// Type is a structural type value. Elem is set for Pointer, Slice and
// Array; Len is set for Array only.
type Type struct {
	Kind Kind
	Elem *Type
	Len  int
}

// Convenience constructors for the scalar types.
var (
	TypeInt8  = &Type{Kind: Int8}
	TypeInt16 = &Type{Kind: Int16}
	TypeInt32 = &Type{Kind: Int32}
	TypeInt64 = &Type{Kind: Int64}
	TypeBool  = &Type{Kind: Bool}
	TypeStr   = &Type{Kind: Str}
)

// PointerTo returns a pointer type to elem.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem}
}

// SliceOf returns a fat-pointer slice type over elem.
func SliceOf(elem *Type) *Type {
	return &Type{Kind: Slice, Elem: elem}
}

// ArrayOf returns a fixed array type of n elements of elem.
func ArrayOf(elem *Type, n int) *Type {
	return &Type{Kind: Array, Elem: elem, Len: n}
}

// Size returns the byte size of a value of this type.
func (t *Type) Size() int {
	switch t.Kind {
	case Int8, Bool, Str:
		return 1
	case Int16:
		return 2
	case Int32:
		return 4
	case Int64:
		return 8
	case Pointer:
		return WordSize
	case Slice:
		// Pointer plus element count.
		return 2 * WordSize
	case Array:
		return t.Elem.Size() * t.Len
	default:
		return 0
	}
}

// Align returns the natural alignment of this type. Scalars align to their
// size, fat pointers to the word size, arrays to their element alignment.
func (t *Type) Align() int {
	switch t.Kind {
	case Pointer, Slice:
		return WordSize
	case Array:
		return t.Elem.Align()
	default:
		return t.Size()
	}
}

// String renders the type in source syntax, for diagnostics.
func (t *Type) String() string {
	switch t.Kind {
	case Int8:
		return "i8"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Bool:
		return "bool"
	case Str:
		return "str"
	case Pointer:
		return "&" + t.Elem.String()
	case Slice:
		return "&[" + t.Elem.String() + "]"
	case Array:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
	default:
		return "<invalid>"
	}
}

// AlignTo rounds n up to the next multiple of align.
func AlignTo(n, align int) int {
	return (n + align - 1) / align * align
}
