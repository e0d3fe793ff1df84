// Command asreti assembles ReTI mnemonic source into a little-endian
// binary code image, one instruction word per source line.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/arminbiere/reticode/internal/asm"
	"github.com/arminbiere/reticode/internal/cliutil"
	"github.com/arminbiere/reticode/internal/diag"
)

const usage = "usage: asreti [ -h | --help ] [ <assembler> [ <code> ] ]\n"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var assemblerPath, codePath string
	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Print(usage)
			return 0
		case len(arg) > 0 && arg[0] == '-' && arg != "-":
			fmt.Fprintf(os.Stderr, "asreti: error: invalid option '%s' (try '-h')\n", arg)
			return 1
		case assemblerPath == "":
			assemblerPath = arg
		case codePath == "":
			codePath = arg
		default:
			fmt.Fprintf(os.Stderr, "asreti: error: too many files (try '-h')\n")
			return 1
		}
	}

	in, inName, err := cliutil.OpenInput(assemblerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asreti: error: could not read assembler file '%s'\n", assemblerPath)
		return 1
	}
	defer in.Close()

	out, _, err := cliutil.OpenOutput(codePath, true)
	if err != nil {
		if err == cliutil.ErrTerminalRefused {
			fmt.Fprintln(os.Stderr, "asreti: error: will not write binary code to terminal")
		} else {
			fmt.Fprintf(os.Stderr, "asreti: error: could not write code file '%s'\n", codePath)
		}
		return 1
	}
	defer out.Close()

	d := diag.New("asreti", os.Stderr)
	d.File = inName
	a := asm.New("asreti", inName, in)
	a.SetDiag(d)

	bw := bufio.NewWriter(out)
	var buf [4]byte
	for {
		inst, err := a.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		binary.LittleEndian.PutUint32(buf[:], inst.Word)
		if _, err := bw.Write(buf[:]); err != nil {
			fmt.Fprintf(os.Stderr, "asreti: error: %v\n", err)
			return 1
		}
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "asreti: error: %v\n", err)
		return 1
	}
	return 0
}
