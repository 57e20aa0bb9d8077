// Package linker handles assembly output files and final linking.
//
// Design: lean on the system toolchain. The generated listing is GNU-as
// compatible, so one gcc invocation assembles and links it against the
// platform C runtime in a single step.
package linker

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sable-lang/sable/pkg/logger"
)

const tempSuffixLen = 8

const tempChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789"

// TempAsmPath returns a fresh tmp<random>.s path in dir.
func TempAsmPath(dir string) string {
	b := make([]byte, tempSuffixLen)
	for i := range b {
		b[i] = tempChars[rand.Intn(len(tempChars))]
	}
	return filepath.Join(dir, fmt.Sprintf("tmp%s.s", b))
}

// WriteAsm writes one assembly listing to path.
func WriteAsm(path, assembly string) error {
	return os.WriteFile(path, []byte(assembly), 0644)
}

// AssembleAndLink produces an executable from the assembly file using the
// system toolchain.
func AssembleAndLink(asmPath, output string) error {
	logger.LogAssembleStart(asmPath)

	cmd := exec.Command("gcc", asmPath, "-o", output)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("gcc failed: %w\n%s", err, out)
	}

	logger.LogAssembleComplete(output)
	return nil
}

// KeepAsm moves the temporary listing to its final name (the -s path).
func KeepAsm(asmPath, output string) error {
	return os.Rename(asmPath, output)
}

// RemoveAsm deletes the temporary listing on every exit path; a missing
// file is not an error.
func RemoveAsm(asmPath string) {
	if err := os.Remove(asmPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove temporary assembly", "path", asmPath, "error", err)
	}
}
