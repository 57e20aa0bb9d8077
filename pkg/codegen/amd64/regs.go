// Package amd64 - System V register tables and operand-width helpers
package amd64

// System V calling convention.
var (
	// Argument registers (order matters). A slice argument consumes two
	// consecutive registers: pointer, then length.
	ArgRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}
	// Return register; rdx carries the second word of a slice return.
	RetReg = "rax"
)

// subRegs maps a 64-bit register to its 1/2/4/8-byte aliases.
var subRegs = map[string][4]string{
	"rax": {"al", "ax", "eax", "rax"},
	"rdi": {"dil", "di", "edi", "rdi"},
	"rsi": {"sil", "si", "esi", "rsi"},
	"rdx": {"dl", "dx", "edx", "rdx"},
	"rcx": {"cl", "cx", "ecx", "rcx"},
	"r8":  {"r8b", "r8w", "r8d", "r8"},
	"r9":  {"r9b", "r9w", "r9d", "r9"},
}

// subReg returns the alias of reg for an operand of the given byte size.
func subReg(reg string, size int) string {
	aliases, ok := subRegs[reg]
	if !ok {
		return reg
	}
	switch size {
	case 1:
		return aliases[0]
	case 2:
		return aliases[1]
	case 4:
		return aliases[2]
	default:
		return aliases[3]
	}
}

// ptrDirective returns the Intel-syntax memory operand size specifier.
func ptrDirective(size int) string {
	switch size {
	case 1:
		return "BYTE PTR"
	case 2:
		return "WORD PTR"
	case 4:
		return "DWORD PTR"
	default:
		return "QWORD PTR"
	}
}
