// Package quiz generates ReTI machine-code questions: a random legal
// instruction word with one hex nibble blanked out, the same drill
// retiquiz.c ran over raw termios, reproduced here as plain data so both
// the interactive and non-interactive front-ends can render it.
package quiz

import (
	"github.com/arminbiere/reticode/internal/genprog"
	"github.com/arminbiere/reticode/internal/isa"
)

// Question is everything one quiz round needs to print or to grade an
// answer against.
type Question struct {
	Instruction string
	PC          uint32
	Code        uint32
	BlankNibble int // 0 = most significant hex digit, 7 = least significant
}

// Query renders Code as an 8-digit hex string with BlankNibble replaced
// by '_', the string retiquiz.c calls query.
func (q Question) Query() string {
	digits := []byte(hex8(q.Code))
	digits[q.BlankNibble] = '_'
	return string(digits)
}

// Solution is the filled-in 8-digit hex string.
func (q Question) Solution() string { return hex8(q.Code) }

func hex8(v uint32) string {
	const digits = "0123456789abcdef"
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = digits[v&0xf]
		v >>= 4
	}
	return string(b)
}

var computeOpcodes = []isa.Opcode{
	isa.SUBI, isa.ADDI, isa.OPLUSI, isa.ORI, isa.ANDI,
	isa.SUB, isa.ADD, isa.OPLUS, isa.OR, isa.AND,
}
var loadOpcodes = []isa.Opcode{isa.LOAD, isa.LOADIN1, isa.LOADIN2, isa.LOADI}
var storeOpcodes = []isa.Opcode{isa.STORE, isa.STOREIN1, isa.STOREIN2}
var conditionalJumps = []isa.Opcode{
	isa.JUMPGT, isa.JUMPEQ, isa.JUMPGE, isa.JUMPLT, isa.JUMPNE, isa.JUMPLE,
}
var registers = []isa.Register{isa.PC, isa.IN1, isa.IN2, isa.ACC}

// Generate produces one question for the instruction at pc. The
// constraints it reproduces are observable ones only: no nonzero S on
// LOAD, no nonzero S/D on STORE, no nonzero immediate on MOVE, NOP or
// the unconditional JUMP, and compute/jump immediates kept small so a
// blanked nibble has a findable answer. Reusing isa.Encode to build the
// word gets the "irrelevant fields are zero" half of that for free: the
// encoder already refuses a nonzero field an opcode's class doesn't
// carry, so there is no separate bitmask to get right here.
func Generate(g *genprog.Generator, pc uint32) Question {
	word, immediate := generateWord(g)
	d := isa.Decode(word)
	return Question{
		Instruction: d.Text,
		PC:          pc,
		Code:        word,
		BlankNibble: blankNibble(g, d.Opcode, immediate),
	}
}

func generateWord(g *genprog.Generator) (word uint32, immediate uint32) {
	switch g.Pick(0, 4) {
	case 0:
		op := loadOpcodes[g.Pick(0, uint32(len(loadOpcodes)))]
		d := registers[g.Pick(0, 4)]
		imm := g.Pick(0, 0x1000000)
		w, err := isa.Encode(op, isa.PC, d, imm)
		if err != nil {
			return mustEncode(isa.NOP, isa.PC, isa.PC, 0), 0
		}
		return w, imm
	case 1:
		op := storeOpcodes[g.Pick(0, uint32(len(storeOpcodes)))]
		imm := g.Pick(0, 0x1000000)
		return mustEncode(op, isa.PC, isa.PC, imm), imm
	case 2:
		if g.Pick(0, 8) == 0 {
			s := registers[g.Pick(0, 4)]
			d := registers[g.Pick(0, 4)]
			return mustEncode(isa.MOVE, s, d, 0), 0
		}
		op := computeOpcodes[g.Pick(0, uint32(len(computeOpcodes)))]
		d := registers[g.Pick(0, 4)]
		imm := smallMagnitudeImmediate(g)
		return mustEncode(op, isa.PC, d, imm), imm
	default:
		if g.Pick(0, 8) == 0 {
			return mustEncode(isa.NOP, isa.PC, isa.PC, 0), 0
		}
		if g.Pick(0, 8) == 0 {
			return mustEncode(isa.JUMP, isa.PC, isa.PC, 0), 0
		}
		op := conditionalJumps[g.Pick(0, uint32(len(conditionalJumps)))]
		imm := smallMagnitudeImmediate(g)
		return mustEncode(op, isa.PC, isa.PC, imm), imm
	}
}

func mustEncode(op isa.Opcode, s, d isa.Register, imm uint32) uint32 {
	w, err := isa.Encode(op, s, d, imm)
	if err != nil {
		w, _ = isa.Encode(isa.NOP, isa.PC, isa.PC, 0)
	}
	return w
}

// smallMagnitudeImmediate picks a 5-bit magnitude and sign-extends it
// across the full 24-bit field, matching retiquiz.c's
// "code|=0x00ffffe0"/"code&=0xff00001f" restriction: enough variation in
// the low nibble to make a quiz question, with the rest of the field
// fully determined by the sign.
func smallMagnitudeImmediate(g *genprog.Generator) uint32 {
	magnitude := g.Pick(0, 32)
	if g.Pick(0, 2) == 0 {
		return magnitude & 0x1f
	}
	return (magnitude & 0x1f) | 0xffffe0
}

// blankNibble mirrors retiquiz.c's position selection: a negative
// immediate (sign bit set) can blank any of the 8 hex digits since nearly
// all of them carry information; MOVE only has two live digits; STORE
// variants blank either the leading (class/mode) digit or digit 6;
// NOP and JUMP blank one of the two leading digits; everything else
// blanks one of the two leading digits (opcode/class bits) or one of the
// two trailing ones, never digits 2 to 5.
func blankNibble(g *genprog.Generator, op isa.Opcode, immediate uint32) int {
	if immediate&0x800000 != 0 {
		return int(g.Pick(0, 8))
	}
	if op == isa.MOVE {
		return int(g.Pick(0, 2))
	}
	if op == isa.STORE || op == isa.STOREIN1 || op == isa.STOREIN2 {
		pos := int(g.Pick(0, 2))
		if pos != 0 {
			pos += 5
		}
		return pos
	}
	if op == isa.NOP || op == isa.JUMP {
		return int(g.Pick(0, 3)) & 1
	}
	pos := int(g.Pick(0, 4))
	if pos > 1 {
		pos += 4
	}
	return pos
}
