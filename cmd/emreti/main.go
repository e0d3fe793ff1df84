// Command emreti loads a code image and a data image and simulates the
// resulting ReTI machine, printing the final data dump (or, with -s, a
// full stepping trace) to stdout.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/k0kubun/pp/v3"

	"github.com/arminbiere/reticode/internal/diag"
	"github.com/arminbiere/reticode/internal/emu"
)

const usage = "usage: emreti [ -h | --help | -s | --step | --debug ] [ --strict | --quiet ]\n" +
	"              [ --max-steps <n> ] <code> [ <data> ]\n"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var codePath, dataPath string
	var maxSteps uint64
	step := false
	debug := false
	mode := emu.ReadModeDefault
	wantMaxSteps := false
	for _, arg := range args {
		if wantMaxSteps {
			parsed, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "emreti: error: invalid --max-steps value '%s'\n", arg)
				return 1
			}
			maxSteps = parsed
			wantMaxSteps = false
			continue
		}
		switch arg {
		case "-h", "--help":
			fmt.Print(usage)
			return 0
		case "-s", "--step":
			step = true
			continue
		case "--debug":
			debug = true
			continue
		case "--strict":
			mode = emu.ReadModeStrict
			continue
		case "--quiet":
			mode = emu.ReadModeQuiet
			continue
		case "--max-steps":
			wantMaxSteps = true
			continue
		}
		if len(arg) > 0 && arg[0] == '-' && arg != "-" {
			fmt.Fprintf(os.Stderr, "emreti: error: invalid option '%s' (try '-h')\n", arg)
			return 1
		}
		switch {
		case codePath == "":
			codePath = arg
		case dataPath == "":
			dataPath = arg
		default:
			fmt.Fprintf(os.Stderr, "emreti: error: more than two files specified (try '-h')\n")
			return 1
		}
	}
	if wantMaxSteps {
		fmt.Fprintln(os.Stderr, "emreti: error: --max-steps requires a value")
		return 1
	}
	if codePath == "" {
		fmt.Fprintln(os.Stderr, "emreti: error: no code file specified")
		return 1
	}

	codeFile, err := os.Open(codePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emreti: error: could not read code file '%s'\n", codePath)
		return 1
	}
	defer codeFile.Close()
	code, err := emu.LoadCodeImage(codeFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emreti: error: could not read code file '%s'\n", codePath)
		return 1
	}

	m := emu.NewMachine(code)

	// The data image is optional (spec.md §4.3): an emulator invoked with
	// code only simply starts with an empty data region.
	if dataPath != "" {
		dataFile, err := os.Open(dataPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "emreti: error: could not read data file '%s'\n", dataPath)
			return 1
		}
		defer dataFile.Close()
		if err := emu.LoadDataImage(m.Data, dataFile); err != nil {
			fmt.Fprintf(os.Stderr, "emreti: error: could not read data file '%s'\n", dataPath)
			return 1
		}
	}

	d := diag.New("emreti", os.Stderr)
	bw := bufio.NewWriter(os.Stdout)
	defer bw.Flush()

	// Step limit, illegal instruction, capacity overflow and a strict-mode
	// uninitialized read are spec.md §7's "runtime errors": the run is
	// reported to the diagnostic stream and the tool exits nonzero. A
	// self-loop or PC running off the end of the code image are ordinary
	// termination, not errors.
	exitCode := 0
	var steps uint64
	for {
		if maxSteps != 0 && steps >= maxSteps {
			d.Warnf("step limit of %d reached", maxSteps)
			exitCode = 1
			break
		}
		res, err := m.Step(mode)
		if step {
			fmt.Fprintln(bw, emu.FormatRow(steps, res))
		}
		if res.UninitializedRead && mode == emu.ReadModeDefault {
			d.Warnf("read of uninitialized data[0x%08x] at pc=0x%08x", res.Address, res.PC)
		}
		steps++
		if res.Halted {
			switch res.Reason {
			case emu.HaltCodeEnd:
				if res.PC > m.CodeLen {
					d.Warnf("stopping above code image: pc=0x%08x code_len=0x%08x", res.PC, m.CodeLen)
				}
			case emu.HaltSelfLoop:
				// Clean halt, spec.md §4.3 point 8: no diagnostic, exit 0.
			default:
				if err != nil {
					d.Errf("%v", err)
				}
				exitCode = 1
			}
			break
		}
		if err != nil {
			d.Warnf("%v", err)
		}
	}

	if err := emu.DumpData(bw, m, step); err != nil {
		fmt.Fprintf(os.Stderr, "emreti: error: %v\n", err)
		return 1
	}
	if debug {
		pp.Fprintln(os.Stderr, m)
	}
	return exitCode
}
