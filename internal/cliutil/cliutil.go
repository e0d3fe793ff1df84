// Package cliutil factors the "open path or stdin/stdout, '-' means the
// same, refuse writing binary to a terminal" boilerplate that asreti.c,
// enchex.c, decbin.c and emreti.c each repeat around their own
// file_exists/fopen calls.
package cliutil

import (
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ErrTerminalRefused is returned by OpenOutput when refuseTerminal is
// set and stdout is an interactive terminal.
var ErrTerminalRefused = errors.New("will not write binary data to a terminal")

// OpenInput opens path for reading, treating "" and "-" as stdin.
func OpenInput(path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), "<stdin>", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

// OpenOutput opens path for writing, treating "" and "-" as stdout. When
// refuseTerminal is set and the resolved destination is stdout attached
// to a terminal, it returns ErrTerminalRefused instead of a writer.
func OpenOutput(path string, refuseTerminal bool) (io.WriteCloser, string, error) {
	if path == "" || path == "-" {
		if refuseTerminal && isatty.IsTerminal(os.Stdout.Fd()) {
			return nil, "<stdout>", ErrTerminalRefused
		}
		return nopWriteCloser{os.Stdout}, "<stdout>", nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
