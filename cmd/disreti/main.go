// Command disreti disassembles a little-endian binary ReTI code image,
// printing one mnemonic line per word (including ILLEGAL words) so the
// assemble/disassemble round trip can be checked from the shell.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/k0kubun/pp/v3"

	"github.com/arminbiere/reticode/internal/cliutil"
	"github.com/arminbiere/reticode/internal/emu"
	"github.com/arminbiere/reticode/internal/isa"
)

const usage = "usage: disreti [ -h | --help | --debug ] [ <code> [ <output> ] ]\n"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var codePath, outputPath string
	debug := false
	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Print(usage)
			return 0
		case arg == "--debug":
			debug = true
		case len(arg) > 0 && arg[0] == '-' && arg != "-":
			fmt.Fprintf(os.Stderr, "disreti: error: invalid option '%s' (try '-h')\n", arg)
			return 1
		case codePath == "":
			codePath = arg
		case outputPath == "":
			outputPath = arg
		default:
			fmt.Fprintln(os.Stderr, "disreti: error: too many files (try '-h')")
			return 1
		}
	}

	in, _, err := cliutil.OpenInput(codePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "disreti: error: could not read code file '%s'\n", codePath)
		return 1
	}
	defer in.Close()

	out, _, err := cliutil.OpenOutput(outputPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "disreti: error: could not write output file '%s'\n", outputPath)
		return 1
	}
	defer out.Close()

	words, err := emu.LoadCodeImage(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "disreti: error: could not read code file '%s': %v\n", codePath, err)
		return 1
	}

	bw := bufio.NewWriter(out)
	for addr, word := range words {
		d := isa.Decode(word)
		if debug {
			pp.Fprintf(os.Stderr, "%08x: ", addr)
			pp.Fprintln(os.Stderr, d)
			continue
		}
		if _, err := fmt.Fprintf(bw, "%08x %08x %s\n", addr, word, d.Text); err != nil {
			fmt.Fprintf(os.Stderr, "disreti: error: %v\n", err)
			return 1
		}
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "disreti: error: %v\n", err)
		return 1
	}
	return 0
}
