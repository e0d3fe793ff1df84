// Command ranreti generates a random but always legal ReTI program and
// prints it in assembler-comment form: one disassembled instruction per
// line followed by its address and machine code.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/arminbiere/reticode/internal/genprog"
	"github.com/arminbiere/reticode/internal/isa"
)

const usage = "usage: ranreti [ -h | --help ] [ <seed> [ <instructions> ] ]\n" +
	"where '<seed>' is the starting seed of the random number generator\n" +
	"(default 0) and '<instructions>' is how many words to generate\n" +
	"(default a random count between 1 and 511).\n"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var seedString, countString string
	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Print(usage)
			return 0
		case len(arg) > 0 && arg[0] == '-' && seedString == "":
			fmt.Fprintf(os.Stderr, "ranreti: error: invalid option '%s' (try '-h')\n", arg)
			return 1
		case seedString == "":
			seedString = arg
		case countString == "":
			countString = arg
		default:
			fmt.Fprintf(os.Stderr, "ranreti: error: too many arguments '%s', '%s' and '%s'\n",
				seedString, countString, arg)
			return 1
		}
	}

	var seed uint64
	if seedString != "" {
		parsed, err := strconv.ParseUint(seedString, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ranreti: error: invalid seed '%s'\n", seedString)
			return 1
		}
		seed = parsed
	}

	g := genprog.NewGenerator(seed)

	var instructions uint64
	if countString != "" {
		parsed, err := strconv.ParseInt(countString, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ranreti: error: invalid instructions '%s'\n", countString)
			return 1
		}
		if parsed < 0 {
			instructions = uint64(g.Pick(0, uint32(-parsed)))
		} else {
			instructions = uint64(parsed)
		}
	} else {
		logInstructions := g.Pick(0, 10)
		instructions = uint64(g.Pick(1, 1<<logInstructions))
	}
	if instructions == 0 {
		instructions = 1
	}

	bw := bufio.NewWriter(os.Stdout)
	fmt.Fprintf(bw, "; ranreti %d %d\n", seed, instructions)
	words := genprog.Generate(g, instructions)
	for pc, word := range words {
		text := isa.Decode(word).Text
		fmt.Fprintf(bw, "%-21s ; %08x %08x\n", text, uint32(pc), word)
	}
	if err := bw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "ranreti: error: %v\n", err)
		return 1
	}
	return 0
}
