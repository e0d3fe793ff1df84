// Package diag centralizes the line-tracking and message formatting
// shared by the ReTI text parsers: asreti and enchex both report
// "at line N in 'file'" errors the same way the original C sources did
// with their hand-rolled die/warn/error helpers.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Diag tracks the current line number of an input stream and formats
// warnings, parse errors and fatal messages with a tool-name prefix.
type Diag struct {
	Tool string
	File string

	out       io.Writer
	colorized bool

	line           uint64
	lastWasNewline bool
}

// New returns a Diag reporting on behalf of toolName, writing to w
// (wrapped with go-colorable so ANSI survives on Windows consoles).
// Color is only emitted when w is in fact a terminal.
func New(toolName string, w *os.File) *Diag {
	return &Diag{
		Tool:      toolName,
		File:      "<stdin>",
		out:       colorable.NewColorable(w),
		colorized: isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()),
		line:      1,
	}
}

// NewFor is New but for an arbitrary writer (used by tests), never colorized.
func NewFor(toolName string, w io.Writer) *Diag {
	return &Diag{Tool: toolName, File: "<stdin>", out: w, line: 1}
}

// TrackRune feeds one consumed input rune into the line counter, mirroring
// asreti.c's read_char: a newline increments the counter and is remembered
// so a trailing error can blame the line that just ended.
func (d *Diag) TrackRune(r rune) {
	if r == '\n' {
		d.line++
	}
	d.lastWasNewline = r == '\n'
}

// Line returns the line number an error occurring right now should be
// attributed to: the counter decremented by one if the last consumed
// character was a newline, per spec.md's diagnostics rule.
func (d *Diag) Line() uint64 {
	if d.lastWasNewline {
		return d.line - 1
	}
	return d.line
}

const (
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

func (d *Diag) tag(label, color string) string {
	if d.colorized {
		return fmt.Sprintf("%s: %s%s%s: ", d.Tool, color, label, colorReset)
	}
	return fmt.Sprintf("%s: %s: ", d.Tool, label)
}

// Warnf prints "<tool>: warning: <msg>" and continues execution.
func (d *Diag) Warnf(format string, args ...any) {
	fmt.Fprint(d.out, d.tag("warning", colorYellow))
	fmt.Fprintf(d.out, format, args...)
	fmt.Fprintln(d.out)
}

// Errf prints "<tool>: error: <msg>" and continues execution, for
// runtime conditions that are fatal to the run but where the caller
// still wants to finish its own cleanup (e.g. printing a partial dump)
// rather than unwind through a returned error.
func (d *Diag) Errf(format string, args ...any) {
	fmt.Fprint(d.out, d.tag("error", colorRed))
	fmt.Fprintf(d.out, format, args...)
	fmt.Fprintln(d.out)
}

// ParseErrorf formats a parse error referencing the current line and
// file, matching asreti.c's error(): "<tool>: parse error: at line N
// in '<file>': <msg>".
func (d *Diag) ParseErrorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: parse error: at line %d in '%s': %s", d.Tool, d.Line(), d.File, msg)
}

// Errorf formats a plain runtime error, "<tool>: error: <msg>", matching
// die() for non-parse fatal conditions (capacity exceeded, illegal
// instruction, I/O failure).
func (d *Diag) Errorf(format string, args ...any) error {
	return fmt.Errorf("%s: error: %s", d.Tool, fmt.Sprintf(format, args...))
}

// Fatalf prints an error to the diagnostic stream and returns the exit
// code the caller's main should use.
func Fatalf(toolName string, err error) int {
	fmt.Fprintf(os.Stderr, "%s: error: %s\n", toolName, err)
	return 1
}
