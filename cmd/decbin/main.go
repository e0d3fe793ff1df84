// Command decbin decodes a little-endian binary ReTI word stream into
// "{address:08x} {data:08x}" hex text, enchex's inverse; a trailing byte
// count that is not a multiple of 4 is a parse error.
package main

import (
	"fmt"
	"os"

	"github.com/arminbiere/reticode/internal/cliutil"
	"github.com/arminbiere/reticode/internal/hexfmt"
)

const usage = "usage: decbin [ -h | --help ] [ <input> [ <output> ] ]\n"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var inputPath, outputPath string
	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Print(usage)
			return 0
		case len(arg) > 0 && arg[0] == '-' && arg != "-":
			fmt.Fprintf(os.Stderr, "decbin: error: invalid option '%s' (try '-h')\n", arg)
			return 1
		case inputPath == "":
			inputPath = arg
		case outputPath == "":
			outputPath = arg
		default:
			fmt.Fprintln(os.Stderr, "decbin: error: too many files (try '-h')")
			return 1
		}
	}

	in, _, err := cliutil.OpenInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decbin: error: could not read input file '%s'\n", inputPath)
		return 1
	}
	defer in.Close()

	out, _, err := cliutil.OpenOutput(outputPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decbin: error: could not write output file '%s'\n", outputPath)
		return 1
	}
	defer out.Close()

	if err := hexfmt.EncodeHex("decbin", in, out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
