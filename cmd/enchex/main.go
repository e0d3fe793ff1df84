// Command enchex reads the human-readable "{address:08x} {data:08x}"
// hex text format and encodes it into a little-endian binary ReTI word
// stream, filling any gap between addresses with zero words.
package main

import (
	"fmt"
	"os"

	"github.com/arminbiere/reticode/internal/cliutil"
	"github.com/arminbiere/reticode/internal/hexfmt"
)

const usage = "usage: enchex [ -h | --help ] [ <input> [ <output> ] ]\n"

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
			fmt.Fprintf(os.Stderr, "enchex: error: invalid option '%s' (try '-h')\n", arg)
			return 1
		case inputPath == "":
			inputPath = arg
		case outputPath == "":
			outputPath = arg
		default:
			fmt.Fprintln(os.Stderr, "enchex: error: too many files (try '-h')")
			return 1
		}
	}

	in, _, err := cliutil.OpenInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "enchex: error: could not read input file '%s'\n", inputPath)
		return 1
	}
	defer in.Close()

	out, _, err := cliutil.OpenOutput(outputPath, true)
	if err != nil {
		if err == cliutil.ErrTerminalRefused {
			fmt.Fprintln(os.Stderr, "enchex: error: will not write binary data to terminal")
		} else {
			fmt.Fprintf(os.Stderr, "enchex: error: could not write output file '%s'\n", outputPath)
		}
		return 1
	}
	defer out.Close()

	if err := hexfmt.DecodeHex("enchex", in, out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
