// Package amd64 - structural validation of the generated assembly
package amd64

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents an assembly validation error
type ValidationError struct {
	Line    int
	Message string
	Code    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s\n  %s", e.Line, e.Message, e.Code)
}

// Validator validates generated x86-64 assembly text.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new assembly validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateProgram runs a fresh validator over one listing.
func ValidateProgram(assembly string) error {
	return NewValidator().Validate(assembly)
}

// knownMnemonics is the full instruction set this generator emits.
var knownMnemonics = map[string]bool{
	"mov": true, "movsx": true, "movsxd": true, "movzx": true,
	"lea": true, "push": true, "pop": true,
	"add": true, "sub": true, "imul": true, "idiv": true, "cqo": true,
	"cmp": true, "sete": true, "setne": true, "setl": true, "setle": true,
	"je": true, "jmp": true, "call": true, "ret": true,
}

var branchPattern = regexp.MustCompile(`^(je|jmp)\s+(\S+)$`)

// Validate checks the listing's structure: the syntax header directive,
// label well-formedness, branch-target resolution, and that every emitted
// mnemonic is one the generator is allowed to produce.
func (v *Validator) Validate(assembly string) error {
	lines := strings.Split(assembly, "\n")

	v.validateHeader(lines)
	v.validateLabels(lines)
	v.validateBranchTargets(lines)
	v.validateMnemonics(lines)

	if len(v.errors) > 0 {
		return v.formatErrors()
	}
	return nil
}

func (v *Validator) validateHeader(lines []string) {
	for _, line := range lines {
		if strings.TrimSpace(line) == ".intel_syntax noprefix" {
			return
		}
	}
	v.addError(1, "missing .intel_syntax noprefix directive", "")
}

func (v *Validator) validateLabels(lines []string) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, ":") && strings.Contains(trimmed, " ") {
			v.addError(i+1, "invalid label format (contains spaces)", trimmed)
		}
	}
}

func (v *Validator) validateBranchTargets(lines []string) {
	defined := make(map[string]bool)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasSuffix(trimmed, ":") {
			defined[strings.TrimSuffix(trimmed, ":")] = true
		}
	}

	for i, line := range lines {
		m := branchPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		target := m[2]
		if !defined[target] {
			v.addError(i+1, fmt.Sprintf("branch to undefined label %s", target), line)
		}
	}
}

func (v *Validator) validateMnemonics(lines []string) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ".") || strings.HasSuffix(trimmed, ":") {
			continue
		}
		mnemonic := trimmed
		if idx := strings.IndexByte(trimmed, ' '); idx > 0 {
			mnemonic = trimmed[:idx]
		}
		if !knownMnemonics[mnemonic] {
			v.addError(i+1, fmt.Sprintf("unexpected mnemonic %q", mnemonic), line)
		}
	}
}

func (v *Validator) addError(line int, msg, code string) {
	v.errors = append(v.errors, ValidationError{Line: line, Message: msg, Code: code})
}

func (v *Validator) formatErrors() error {
	var b strings.Builder
	fmt.Fprintf(&b, "assembly validation failed with %d error(s):\n", len(v.errors))
	for _, e := range v.errors {
		fmt.Fprintf(&b, "  %s\n", e.Error())
	}
	return fmt.Errorf("%s", b.String())
}
