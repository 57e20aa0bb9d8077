// Package main implements the Sable compiler binary.
//
// The binary is thin glue: it parses flags, reads the source file, calls
// the compiler's pure source-to-assembly contract, and drives the system
// assembler/linker on the result.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sable-lang/sable/pkg/compiler"
	"github.com/sable-lang/sable/pkg/linker"
	"github.com/sable-lang/sable/pkg/logger"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintln(os.Stderr, `Sable Compiler - Compile Sable source to native code

Usage:
    sable <source.sb> [options]

Options:
    -o, --output <file>  Output file name (default: source name)
    -s, --asm            Keep the assembly listing instead of linking
    -v                   Verbose (debug) logging
    -version             Show compiler version
    -h, --help           Show this help message`)
}

func main() {
	var (
		output      string
		asmOnly     bool
		verbose     bool
		showVersion bool
	)
	flag.StringVar(&output, "o", "", "output file name")
	flag.StringVar(&output, "output", "", "output file name")
	flag.BoolVar(&asmOnly, "s", false, "keep assembly listing")
	flag.BoolVar(&asmOnly, "asm", false, "keep assembly listing")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.BoolVar(&showVersion, "version", false, "show version")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("sable compiler version %s\n", version)
		return
	}

	if verbose {
		logger.InitDev()
	} else {
		_ = logger.Init(logger.DefaultConfig())
	}

	input := flag.Arg(0)
	if input == "" {
		fmt.Fprintln(os.Stderr, "error: no input file")
		usage()
		os.Exit(1)
	}

	os.Exit(run(input, output, asmOnly))
}

func run(input, output string, asmOnly bool) int {
	start := time.Now()
	logger.LogCompilerStart(os.Args)
	logger.LogFileProcessing(input)

	if output == "" {
		stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		if asmOnly {
			output = stem + ".s"
		} else {
			output = stem
		}
	}

	// Environment errors are reported raw, without source context.
	source, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	assembly, err := compiler.Compile(string(source))
	if err != nil {
		fmt.Fprint(os.Stderr, compiler.RenderDiagnostic(string(source), err))
		logger.LogCompilerComplete(false, time.Since(start).String())
		return 1
	}

	if asmOnly {
		if err := linker.WriteAsm(output, assembly); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		logger.LogCompilerComplete(true, time.Since(start).String())
		return 0
	}

	tmp := linker.TempAsmPath(filepath.Dir(output))
	if err := linker.WriteAsm(tmp, assembly); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer linker.RemoveAsm(tmp)

	if err := linker.AssembleAndLink(tmp, output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.LogCompilerComplete(false, time.Since(start).String())
		return 1
	}

	logger.LogCompilerComplete(true, time.Since(start).String())
	return 0
}
