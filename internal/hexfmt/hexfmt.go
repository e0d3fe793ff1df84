// Package hexfmt converts between the little-endian binary word stream
// ReTI tools exchange and its human-readable hex-text form, as enchex.c
// and decbin.c do character-at-a-time and with the same diagnostics.
package hexfmt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arminbiere/reticode/internal/diag"
)

// DecodeHex reads "{address:08x} {data:08x}" lines (monotonic
// addresses, gaps filled with zero words, ';' comments, blank lines
// rejected) and writes the corresponding little-endian binary stream.
func DecodeHex(toolName string, r io.Reader, w io.Writer) error {
	d := diag.NewFor(toolName, io.Discard)
	br := bufio.NewReader(r)
	var words uint64

	next := func() (rune, bool) {
		ch, _, err := br.ReadRune()
		if err != nil {
			return 0, false
		}
		d.TrackRune(ch)
		return ch, true
	}

	readHex8 := func(first rune, what string) (uint32, rune, error) {
		ch := first
		var value uint32
		for i := 0; i != 8; i++ {
			digit, ok := hexDigit(ch)
			if !ok {
				return 0, 0, d.ParseErrorf("invalid %s", what)
			}
			value = value<<4 | uint32(digit)
			var ok2 bool
			if ch, ok2 = next(); !ok2 {
				ch = 0
			}
		}
		return value, ch, nil
	}

	for {
		ch, ok := next()
		if !ok {
			break
		}
		if ch == '\n' {
			return d.ParseErrorf("invalid empty line")
		}
		if ch == ';' {
			if err := skipComment(d, next); err != nil {
				return err
			}
			continue
		}

		address, ch, err := readHex8(ch, "address")
		if err != nil {
			return err
		}
		if ch != ' ' {
			return d.ParseErrorf("expected space after address")
		}
		if words > uint64(address) {
			return d.ParseErrorf("address 0x%08x below parsed words 0x%08x", address, words-1)
		}
		for words < uint64(address) {
			if err := writeWord(w, 0); err != nil {
				return err
			}
			words++
		}

		firstDataRune, ok := next()
		if !ok {
			return d.ParseErrorf("invalid data")
		}
		data, ch, err := readHex8(firstDataRune, "data")
		if err != nil {
			return err
		}
		if ch != ' ' && ch != '\t' && ch != ';' && ch != '\n' {
			return d.ParseErrorf("expected white-space after data")
		}
		for ch == ' ' || ch == '\t' {
			if ch, ok = next(); !ok {
				ch = '\n'
				break
			}
		}
		if ch == ';' {
			if err := skipComment(d, next); err != nil {
				return err
			}
			ch = '\n'
		}
		if ch != '\n' {
			return d.ParseErrorf("expected new-line")
		}
		if err := writeWord(w, data); err != nil {
			return err
		}
		words++
	}
	return nil
}

func skipComment(d *diag.Diag, next func() (rune, bool)) error {
	for {
		ch, ok := next()
		if !ok {
			return d.ParseErrorf("unexpected end-of-file in comment")
		}
		if ch == '\n' {
			return nil
		}
	}
}

func hexDigit(ch rune) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10, true
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10, true
	default:
		return 0, false
	}
}

func writeWord(w io.Writer, word uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], word)
	_, err := w.Write(buf[:])
	return err
}

// EncodeHex is DecodeHex's inverse: it reads a little-endian binary
// word stream and writes "{address:08x} {data:08x}" lines, rejecting a
// trailing byte count that is not a multiple of 4.
func EncodeHex(toolName string, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	var address uint32
	for {
		var buf [4]byte
		n, err := io.ReadFull(br, buf[:])
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%s: error: incomplete word (%d trailing byte(s))", toolName, n)
		}
		if err != nil {
			return err
		}
		word := binary.LittleEndian.Uint32(buf[:])
		if _, err := fmt.Fprintf(bw, "%08x %08x\n", address, word); err != nil {
			return err
		}
		address++
	}
	return bw.Flush()
}
