// Command retiquiz drills ReTI machine-code encoding: it shows a
// disassembled instruction and its 32-bit code word with one hex digit
// blanked out, and scores the player's guess. With -n it degrades to a
// pure pipe, printing one question per line instead of touching the
// terminal, the same fallback retiquiz.c offered for scripted use.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/arminbiere/reticode/internal/genprog"
	"github.com/arminbiere/reticode/internal/quiz"
)

const usage = "usage: retiquiz [ -h | --help ] [ -n | --non-interactive ]\n" +
	"                 [ <seed> [ <questions> ] ]\n" +
	"where '<seed>' seeds the random number generator (default 0)\n" +
	"and '<questions>' is how many rounds to ask (default 10 in\n" +
	"interactive mode, 1000 in -n mode).\n"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	nonInteractive := false
	var seedString, countString string
	for _, arg := range args {
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Print(usage)
			return 0
		case arg == "-n" || arg == "--non-interactive":
			nonInteractive = true
		case len(arg) > 0 && arg[0] == '-':
			fmt.Fprintf(os.Stderr, "retiquiz: error: invalid option '%s' (try '-h')\n", arg)
			return 1
		case seedString == "":
			seedString = arg
		case countString == "":
			countString = arg
		default:
			fmt.Fprintf(os.Stderr, "retiquiz: error: too many arguments '%s', '%s' and '%s'\n",
				seedString, countString, arg)
			return 1
		}
	}

	var seed uint64
	if seedString != "" {
		parsed, err := strconv.ParseUint(seedString, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "retiquiz: error: invalid seed '%s'\n", seedString)
			return 1
		}
		seed = parsed
	}

	questions := uint64(10)
	if countString != "" {
		parsed, err := strconv.ParseUint(countString, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "retiquiz: error: invalid question count '%s'\n", countString)
			return 1
		}
		questions = parsed
	} else if nonInteractive {
		questions = 0 // runNonInteractive turns 0 into its default of 1000 rounds
	}

	g := genprog.NewGenerator(seed)
	if nonInteractive {
		return runNonInteractive(g, questions)
	}
	return runInteractive(g, questions)
}

// runNonInteractive prints "INSTRUCTION ; PC QUERY SOLUTION CODE" rows,
// matching the original's "-n" flag which disables all termios handling.
func runNonInteractive(g *genprog.Generator, questions uint64) int {
	bw := bufio.NewWriter(os.Stdout)
	defer bw.Flush()
	if questions == 0 {
		questions = 1000
	}
	for pc := uint64(0); pc != questions; pc++ {
		q := quiz.Generate(g, uint32(pc))
		fmt.Fprintf(bw, "%-21s ; %08x %s %s %08x\n",
			q.Instruction, q.PC, q.Query(), q.Solution(), q.Code)
	}
	return 0
}

func runInteractive(g *genprog.Generator, questions uint64) int {
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "retiquiz: error: could not open terminal: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "retiquiz: error: could not initialize terminal: %v\n", err)
		return 1
	}
	defer screen.Fini()

	correct, asked := playQuiz(screen, g, questions)
	screen.Fini()
	printScore(correct, asked)
	return 0
}

// printScore prints the final tally to stdout, in green when every
// question was answered correctly and red otherwise, through
// go-colorable so the color survives a Windows console the same way
// retiquiz.c's raw ANSI HEADER/GREEN/RED escapes never could.
func printScore(correct, asked uint64) {
	out := colorable.NewColorable(os.Stdout)
	color := "\033[32m"
	if correct != asked {
		color = "\033[31m"
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintf(out, "score: %d/%d correct\n", correct, asked)
		return
	}
	fmt.Fprintf(out, "%sscore: %d/%d correct\033[0m\n", color, correct, asked)
}

var (
	styleHeader = tcell.StyleDefault.Bold(true)
	styleNormal = tcell.StyleDefault
	styleGreen  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleRed    = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

// playQuiz runs rounds until questions is reached (0 means until the
// player quits with 'q') and returns the tally.
func playQuiz(screen tcell.Screen, g *genprog.Generator, questions uint64) (correct, asked uint64) {
	for pc := uint64(0); questions == 0 || pc != questions; pc++ {
		q := quiz.Generate(g, uint32(pc))
		answer, quit := askOne(screen, q)
		if quit {
			break
		}
		asked++
		if answer == q.Solution() {
			correct++
		}
		showResult(screen, q, answer)
		screen.PollEvent()
	}
	return correct, asked
}

// askOne draws the question and collects hex digits for the blanked
// nibble, backspace-to-blank matching retiquiz.c's line editing; 'q'
// aborts the whole session.
func askOne(screen tcell.Screen, q quiz.Question) (answer string, quit bool) {
	digit := byte(0)
	haveDigit := false
	for {
		drawQuestion(screen, q, digit, haveDigit)
		ev := screen.PollEvent()
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		switch {
		case key.Key() == tcell.KeyEscape || key.Rune() == 'q':
			return "", true
		case key.Key() == tcell.KeyEnter && haveDigit:
			digits := []byte(q.Query())
			digits[q.BlankNibble] = digit
			return string(digits), false
		case key.Key() == tcell.KeyBackspace || key.Key() == tcell.KeyBackspace2:
			haveDigit = false
		case isHexDigit(key.Rune()):
			digit = byte(key.Rune())
			haveDigit = true
		}
	}
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func drawQuestion(screen tcell.Screen, q quiz.Question, digit byte, haveDigit bool) {
	screen.Clear()
	drawText(screen, 0, 0, styleHeader, "retiquiz — fill in the blank hex digit ('q' to quit)")
	drawText(screen, 0, 2, styleNormal, fmt.Sprintf("instruction: %s", q.Instruction))
	drawText(screen, 0, 3, styleNormal, fmt.Sprintf("pc:          0x%08x", q.PC))

	query := []byte(q.Query())
	if haveDigit {
		query[q.BlankNibble] = digit
	}
	drawText(screen, 0, 5, styleNormal, fmt.Sprintf("code:        %s", string(query)))
	screen.Show()
}

func showResult(screen tcell.Screen, q quiz.Question, answer string) {
	style := styleGreen
	verdict := "correct"
	if answer != q.Solution() {
		style = styleRed
		verdict = fmt.Sprintf("wrong, solution was %s", q.Solution())
	}
	drawText(screen, 0, 7, style, verdict)
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
