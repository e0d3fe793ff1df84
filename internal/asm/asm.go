// Package asm implements the one-pass ReTI assembler: it reads
// mnemonic source text and emits machine words through internal/isa,
// following the same single-token-lookahead parsing strategy as the
// original asreti.c (no labels, no macros, no multi-file linking).
package asm

import (
	"bufio"
	"io"

	"github.com/arminbiere/reticode/internal/diag"
	"github.com/arminbiere/reticode/internal/isa"
)

const maxSignedImmediateMagnitude = 0x800000

// Assembler reads ReTI assembler source rune by rune, mirroring the
// read_char/lineno bookkeeping of the original asreti.c.
type Assembler struct {
	d    *diag.Diag
	r    *bufio.Reader
	last rune
	eof  bool
}

// New returns an Assembler reading from r, reporting diagnostics under
// the given tool name (normally "asreti").
func New(toolName, fileName string, r io.Reader) *Assembler {
	d := diag.NewFor(toolName, nopWriter{})
	d.File = fileName
	return &Assembler{d: d, r: bufio.NewReader(r)}
}

// SetDiag lets callers substitute a pre-built Diag (e.g. one writing to
// a colorized stderr) instead of the private no-op sink New creates.
func (a *Assembler) SetDiag(d *diag.Diag) { a.d = d }

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func (a *Assembler) readRune() (rune, error) {
	r, _, err := a.r.ReadRune()
	if err != nil {
		a.eof = true
		return 0, err
	}
	// Normalize DOS line endings: "\r\n" reads as a single '\n'. A lone
	// '\r' not followed by '\n' is left as-is; no parse state accepts it,
	// so whichever state reads it reports a parse error rather than
	// silently accepting it.
	if r == '\r' {
		peek, peekErr := a.r.Peek(1)
		if peekErr == nil && len(peek) == 1 && peek[0] == '\n' {
			a.r.ReadByte()
			r = '\n'
		}
	}
	a.d.TrackRune(r)
	a.last = r
	return r, nil
}

// next reads one rune, returning 0 at end of file instead of an error,
// matching asreti.c's use of EOF as an ordinary sentinel value.
func (a *Assembler) next() rune {
	r, err := a.readRune()
	if err != nil {
		return 0
	}
	return r
}

func (a *Assembler) expectLiteral(word string) error {
	for _, want := range word {
		got := a.next()
		if a.eof || got != want {
			return a.invalidInstruction()
		}
	}
	return nil
}

func (a *Assembler) invalidInstruction() error { return a.d.ParseErrorf("invalid instruction") }
func (a *Assembler) invalidSource() error      { return a.d.ParseErrorf("invalid source register") }
func (a *Assembler) invalidDestination() error { return a.d.ParseErrorf("invalid destination register") }
func (a *Assembler) invalidImmediate() error   { return a.d.ParseErrorf("invalid immediate") }

// shape is the opcode the letter-trie recognized; the
// parse_source/parse_destination/parse_immediate flags asreti.c derives
// alongside it are instead looked up from isa.Applies once parsing is
// done, so the two don't have to be kept in sync by hand per mnemonic.
type shape struct {
	op isa.Opcode
}

// Instruction is one fully parsed assembler line.
type Instruction struct {
	Word uint32
	Text string
}

// Next parses and assembles the next instruction, returning io.EOF once
// the input is exhausted with no further instruction to parse.
func (a *Assembler) Next() (Instruction, error) {
	for {
		ch := a.next()
		if a.eof {
			return Instruction{}, io.EOF
		}
		switch ch {
		case ' ', '\t':
			continue
		case ';':
			if err := a.skipLineComment(); err != nil {
				return Instruction{}, err
			}
			continue
		case '\n':
			return Instruction{}, a.d.ParseErrorf("unexpected empty line")
		default:
			return a.parseInstruction(ch)
		}
	}
}

func (a *Assembler) skipLineComment() error {
	for {
		ch := a.next()
		if a.eof {
			return a.d.ParseErrorf("unexpected end-of-file in comment")
		}
		if ch == '\n' {
			return nil
		}
	}
}

func (a *Assembler) parseInstruction(first rune) (Instruction, error) {
	sh, ch, err := a.parseMnemonic(first)
	if err != nil {
		return Instruction{}, err
	}
	parseSource, parseDestination, parseImmediate := isa.Applies(sh.op)

	var s, d isa.Register
	var imm uint32

	if parseSource {
		if ch != ' ' {
			return Instruction{}, a.invalidInstruction()
		}
		reg, nextCh, err := a.parseRegister(a.invalidSource)
		if err != nil {
			return Instruction{}, err
		}
		s, ch = reg, nextCh
	}

	if parseDestination {
		if ch != ' ' {
			if parseSource {
				return Instruction{}, a.invalidSource()
			}
			return Instruction{}, a.invalidInstruction()
		}
		reg, nextCh, err := a.parseRegister(a.invalidDestination)
		if err != nil {
			return Instruction{}, err
		}
		d, ch = reg, nextCh
	}

	if parseImmediate {
		if ch != ' ' {
			if parseDestination {
				return Instruction{}, a.invalidDestination()
			}
			return Instruction{}, a.invalidInstruction()
		}
		value, nextCh, err := a.parseImmediate()
		if err != nil {
			return Instruction{}, err
		}
		imm, ch = value, nextCh
	}

	if ch != ' ' && ch != '\t' && ch != ';' && ch != '\n' {
		switch {
		case parseImmediate:
			return Instruction{}, a.invalidImmediate()
		case parseDestination:
			return Instruction{}, a.invalidDestination()
		default:
			return Instruction{}, a.invalidSource()
		}
	}

	for ch == ' ' || ch == '\t' {
		ch = a.next()
	}
	if ch == ';' {
		if err := a.skipLineComment(); err != nil {
			return Instruction{}, err
		}
		ch = '\n'
	}
	if ch != '\n' {
		return Instruction{}, a.d.ParseErrorf("expected new-line")
	}

	word, err := isa.Encode(sh.op, s, d, imm)
	if err != nil {
		return Instruction{}, a.d.ParseErrorf("%s", err)
	}
	return Instruction{Word: word, Text: isa.Decode(word).Text}, nil
}

// parseRegister reads one of PC, IN1, IN2 or ACC and returns the
// register together with the rune that follows it.
func (a *Assembler) parseRegister(invalid func() error) (isa.Register, rune, error) {
	ch := a.next()
	switch ch {
	case 'A':
		if err := a.expectLiteral("CC"); err != nil {
			return 0, 0, invalid()
		}
		return isa.ACC, a.next(), nil
	case 'I':
		if a.next() != 'N' {
			return 0, 0, invalid()
		}
		switch a.next() {
		case '1':
			return isa.IN1, a.next(), nil
		case '2':
			return isa.IN2, a.next(), nil
		default:
			return 0, 0, invalid()
		}
	case 'P':
		if a.next() != 'C' {
			return 0, 0, invalid()
		}
		return isa.PC, a.next(), nil
	default:
		return 0, 0, invalid()
	}
}

// parseImmediate reads a decimal (optionally negative) or 0x-prefixed
// hexadecimal immediate. Decimal accumulation mirrors asreti.c's
// overflow-checked digit loop; hex support is a SPEC_FULL addition the
// original assembler never offered.
func (a *Assembler) parseImmediate() (uint32, rune, error) {
	ch := a.next()
	negative := false
	if ch == '-' {
		negative = true
		ch = a.next()
	}
	if ch == '0' {
		peek, err := a.r.Peek(1)
		if err == nil && len(peek) == 1 && (peek[0] == 'x' || peek[0] == 'X') {
			a.next() // consume 'x'
			return a.parseHexImmediate(negative)
		}
	}
	return a.parseDecimalImmediate(ch, negative)
}

func (a *Assembler) parseDecimalImmediate(ch rune, negative bool) (uint32, rune, error) {
	if negative {
		if ch == '0' || !isDigit(ch) {
			return 0, 0, a.invalidImmediate()
		}
		value := uint32(ch - '0')
		for {
			ch = a.next()
			if !isDigit(ch) {
				break
			}
			if maxSignedImmediateMagnitude/10 < value {
				return 0, 0, a.invalidImmediate()
			}
			value *= 10
			digit := uint32(ch - '0')
			if maxSignedImmediateMagnitude-digit < value {
				return 0, 0, a.invalidImmediate()
			}
			value += digit
		}
		return (^value + 1) & 0xffffff, ch, nil
	}
	if !isDigit(ch) {
		return 0, 0, a.invalidImmediate()
	}
	value := uint32(ch - '0')
	for {
		ch = a.next()
		if !isDigit(ch) {
			break
		}
		if 0xffffff/10 < value {
			return 0, 0, a.invalidImmediate()
		}
		value *= 10
		digit := uint32(ch - '0')
		if 0xffffff-digit < value {
			return 0, 0, a.invalidImmediate()
		}
		value += digit
	}
	return value, ch, nil
}

func (a *Assembler) parseHexImmediate(negative bool) (uint32, rune, error) {
	ch := a.next()
	if !isHexDigit(ch) {
		return 0, 0, a.invalidImmediate()
	}
	bound := uint64(0xffffff)
	if negative {
		bound = maxSignedImmediateMagnitude
	}
	var value uint64
	for isHexDigit(ch) {
		value = value*16 + uint64(hexDigitValue(ch))
		if value > bound {
			return 0, 0, a.invalidImmediate()
		}
		ch = a.next()
	}
	if negative {
		if value == 0 {
			return 0, 0, a.invalidImmediate()
		}
		return uint32((^value + 1) & 0xffffff), ch, nil
	}
	return uint32(value), ch, nil
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func hexDigitValue(ch rune) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	default:
		return int(ch-'A') + 10
	}
}

// parseMnemonic dispatches on the first character read, reproducing the
// letter-trie switch of asreti.c's main loop. It returns the shape of
// the recognized instruction and the rune immediately following it.
func (a *Assembler) parseMnemonic(first rune) (shape, rune, error) {
	switch first {
	case 'A':
		return a.parseA()
	case 'J':
		return a.parseJ()
	case 'L':
		return a.parseL()
	case 'M':
		return a.parseM()
	case 'N':
		return a.parseN()
	case 'O':
		return a.parseO()
	case 'S':
		return a.parseS()
	default:
		if first >= 0x20 && first < 0x7f {
			return shape{}, 0, a.d.ParseErrorf("unexpected character '%c'", first)
		}
		return shape{}, 0, a.d.ParseErrorf("unexpected character code '0x%02x'", first)
	}
}

func (a *Assembler) parseA() (shape, rune, error) {
	ch := a.next()
	switch ch {
	case 'D':
		if a.next() != 'D' {
			return shape{}, 0, a.invalidInstruction()
		}
		ch = a.next()
		if ch == ' ' {
			return shape{op: isa.ADD}, ch, nil
		}
		if ch == 'I' {
			return shape{op: isa.ADDI}, a.next(), nil
		}
		return shape{}, 0, a.invalidInstruction()
	case 'N':
		if a.next() != 'D' {
			return shape{}, 0, a.invalidInstruction()
		}
		ch = a.next()
		if ch == ' ' {
			return shape{op: isa.AND}, ch, nil
		}
		if ch == 'I' {
			return shape{op: isa.ANDI}, a.next(), nil
		}
		return shape{}, 0, a.invalidInstruction()
	default:
		return shape{}, 0, a.invalidInstruction()
	}
}

func (a *Assembler) parseJ() (shape, rune, error) {
	if err := a.expectLiteral("UMP"); err != nil {
		return shape{}, 0, err
	}
	ch := a.next()
	switch ch {
	case ' ':
		return shape{op: isa.JUMP}, ch, nil
	case '>':
		ch = a.next()
		if ch == ' ' {
			return shape{op: isa.JUMPGT}, ch, nil
		}
		if ch == '=' {
			return shape{op: isa.JUMPGE}, a.next(), nil
		}
		return shape{}, 0, a.invalidInstruction()
	case '=':
		return shape{op: isa.JUMPEQ}, a.next(), nil
	case '<':
		ch = a.next()
		if ch == ' ' {
			return shape{op: isa.JUMPLT}, ch, nil
		}
		if ch == '=' {
			return shape{op: isa.JUMPLE}, a.next(), nil
		}
		return shape{}, 0, a.invalidInstruction()
	case '!':
		if a.next() != '=' {
			return shape{}, 0, a.invalidInstruction()
		}
		return shape{op: isa.JUMPNE}, a.next(), nil
	default:
		return shape{}, 0, a.invalidInstruction()
	}
}

func (a *Assembler) parseL() (shape, rune, error) {
	if err := a.expectLiteral("OAD"); err != nil {
		return shape{}, 0, err
	}
	ch := a.next()
	if ch == ' ' {
		return shape{op: isa.LOAD}, ch, nil
	}
	if ch != 'I' {
		return shape{}, 0, a.invalidInstruction()
	}
	ch = a.next()
	if ch == ' ' {
		return shape{op: isa.LOADI}, ch, nil
	}
	if ch != 'N' {
		return shape{}, 0, a.invalidInstruction()
	}
	var op isa.Opcode
	switch a.next() {
	case '1':
		op = isa.LOADIN1
	case '2':
		op = isa.LOADIN2
	default:
		return shape{}, 0, a.invalidInstruction()
	}
	return shape{op: op}, a.next(), nil
}

func (a *Assembler) parseM() (shape, rune, error) {
	if err := a.expectLiteral("OVE"); err != nil {
		return shape{}, 0, err
	}
	return shape{op: isa.MOVE}, a.next(), nil
}

func (a *Assembler) parseN() (shape, rune, error) {
	if err := a.expectLiteral("OP"); err != nil {
		return shape{}, 0, err
	}
	return shape{op: isa.NOP}, a.next(), nil
}

func (a *Assembler) parseO() (shape, rune, error) {
	ch := a.next()
	switch ch {
	case 'P':
		if err := a.expectLiteral("LUS"); err != nil {
			return shape{}, 0, err
		}
		ch = a.next()
		if ch == ' ' {
			return shape{op: isa.OPLUS}, ch, nil
		}
		if ch == 'I' {
			return shape{op: isa.OPLUSI}, a.next(), nil
		}
		return shape{}, 0, a.invalidInstruction()
	case 'R':
		ch = a.next()
		if ch == ' ' {
			return shape{op: isa.OR}, ch, nil
		}
		if ch == 'I' {
			return shape{op: isa.ORI}, a.next(), nil
		}
		return shape{}, 0, a.invalidInstruction()
	default:
		return shape{}, 0, a.invalidInstruction()
	}
}

func (a *Assembler) parseS() (shape, rune, error) {
	ch := a.next()
	switch ch {
	case 'T':
		if err := a.expectLiteral("ORE"); err != nil {
			return shape{}, 0, err
		}
		ch = a.next()
		if ch == ' ' {
			return shape{op: isa.STORE}, ch, nil
		}
		if ch != 'I' {
			return shape{}, 0, a.invalidInstruction()
		}
		if a.next() != 'N' {
			return shape{}, 0, a.invalidInstruction()
		}
		var op isa.Opcode
		switch a.next() {
		case '1':
			op = isa.STOREIN1
		case '2':
			op = isa.STOREIN2
		default:
			return shape{}, 0, a.invalidInstruction()
		}
		return shape{op: op}, a.next(), nil
	case 'U':
		if a.next() != 'B' {
			return shape{}, 0, a.invalidInstruction()
		}
		ch = a.next()
		if ch == ' ' {
			return shape{op: isa.SUB}, ch, nil
		}
		if ch == 'I' {
			return shape{op: isa.SUBI}, a.next(), nil
		}
		return shape{}, 0, a.invalidInstruction()
	default:
		return shape{}, 0, a.invalidInstruction()
	}
}
