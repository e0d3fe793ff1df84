// Package genprog generates random but always legal ReTI programs,
// enforcing the instruction-legality constraints of spec.md §4.4 that
// ranreti.c's own usage text promises but the reference tool never
// actually checks (ranreti.c draws raw instruction words straight from
// the C library's rand() and only filters by legality after the fact).
//
// The spec places ranreti's CLI and its exact byte stream out of
// scope (spec.md §1); this package is not a byte-exact port of
// ranreti.c and does not reproduce its seed-to-instruction-sequence
// mapping (see DESIGN.md). It reuses ranreti.c's next_random/pick_random
// linear congruential generator for the same purpose the original uses
// it for outside of instruction sampling itself — e.g. picking an
// instruction count and a jump target window — because that is the
// generator the reference source shows for "pick a random value in a
// range", and spec.md §4.4 calls for exactly that shape of constraint.
package genprog

import (
	"github.com/arminbiere/reticode/internal/isa"
)

// Generator is Donald Knuth's linear congruential generator, the same
// state transition as ranreti.c's next_random/pick_random pair. It is
// not, by itself, a reproduction of ranreti.c's instruction stream: see
// the package doc comment.
type Generator struct {
	state uint64
}

// NewGenerator seeds a Generator the way ranreti invokes "generator = seed".
func NewGenerator(seed uint64) *Generator {
	return &Generator{state: seed}
}

// Next advances the generator and returns the raw 64-bit state.
func (g *Generator) Next() uint64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state
}

// Uint32 returns the low 32 bits of the next state, matching
// ranreti.c's pick_random: "const unsigned tmp = next_random();" truncates
// the 64-bit state down to its low word via the implicit C conversion.
func (g *Generator) Uint32() uint32 {
	return uint32(g.Next())
}

// Pick returns a value uniformly distributed in [l, r), following
// ranreti.c's pick_random: scale a fraction of the generator's output
// by the interval width rather than use an integer modulo.
func (g *Generator) Pick(l, r uint32) uint32 {
	if l == r {
		return l
	}
	delta := r - l
	fraction := float64(g.Uint32()) / 4294967296.0
	scaled := uint32(float64(delta) * fraction)
	if scaled >= delta {
		scaled = delta - 1
	}
	return l + scaled
}

const (
	maxForwardDelta  = 0x7fffff
	maxBackwardDelta = 0x800000
)

var jumpOpcodes = []isa.Opcode{
	isa.JUMPGT, isa.JUMPEQ, isa.JUMPGE, isa.JUMPLT, isa.JUMPNE, isa.JUMPLE,
}

var computeOpcodes = []isa.Opcode{
	isa.SUBI, isa.ADDI, isa.OPLUSI, isa.ORI, isa.ANDI,
	isa.SUB, isa.ADD, isa.OPLUS, isa.OR, isa.AND,
}

var loadOpcodes = []isa.Opcode{isa.LOAD, isa.LOADIN1, isa.LOADIN2, isa.LOADI}
var storeOpcodes = []isa.Opcode{isa.STORE, isa.STOREIN1, isa.STOREIN2}

var registers = []isa.Register{isa.PC, isa.IN1, isa.IN2, isa.ACC}

// category picks a coarse instruction family, weighting the four
// instruction classes evenly since each of the four top-level bit
// patterns of the word is equally likely a priori.
type category int

const (
	categoryLoad category = iota
	categoryStore
	categoryCompute
	categoryJump
)

// Generate produces exactly n legal machine words for a program of n
// instructions, honoring every constraint of spec.md's generator
// section: zeroed "don't care" register fields, and jump targets chosen
// within a window that can neither self-loop nor escape the legal
// one-past-end halt address.
func Generate(g *Generator, n uint64) []uint32 {
	words := make([]uint32, 0, n)
	for pc := uint64(0); pc != n; pc++ {
		words = append(words, generateOne(g, uint32(pc), uint32(n)))
	}
	return words
}

func generateOne(g *Generator, pc, n uint32) uint32 {
	switch category(g.Pick(0, 4)) {
	case categoryLoad:
		op := loadOpcodes[g.Pick(0, uint32(len(loadOpcodes)))]
		d := registers[g.Pick(0, 4)]
		imm := g.Pick(0, 0x1000000)
		word, err := isa.Encode(op, isa.PC, d, imm)
		if err != nil {
			return wordOrNOP(word, err)
		}
		return word
	case categoryStore:
		op := storeOpcodes[g.Pick(0, uint32(len(storeOpcodes)))]
		imm := g.Pick(0, 0x1000000)
		word, err := isa.Encode(op, isa.PC, isa.PC, imm)
		return wordOrNOP(word, err)
	case categoryCompute:
		if g.Pick(0, 8) == 0 {
			s := registers[g.Pick(0, 4)]
			d := registers[g.Pick(0, 4)]
			word, _ := isa.Encode(isa.MOVE, s, d, 0)
			return word
		}
		op := computeOpcodes[g.Pick(0, uint32(len(computeOpcodes)))]
		d := registers[g.Pick(0, 4)]
		imm := g.Pick(0, 0x1000000)
		word, err := isa.Encode(op, isa.PC, d, imm)
		return wordOrNOP(word, err)
	default:
		return generateJump(g, pc, n)
	}
}

func wordOrNOP(word uint32, err error) uint32 {
	if err != nil {
		word, _ = isa.Encode(isa.NOP, isa.PC, isa.PC, 0)
	}
	return word
}

// generateJump never emits the unconditional JUMP opcode: spec.md
// requires its immediate to be zero, which would make it target
// itself, contradicting the surrounding no-self-loop guarantee for
// generated code. Conditional jumps always get a windowed, never-self
// target instead; NOP gets its separate zero-immediate carve-out since
// it never writes PC at all.
func generateJump(g *Generator, pc, n uint32) uint32 {
	if g.Pick(0, 8) == 0 {
		word, _ := isa.Encode(isa.NOP, isa.PC, isa.PC, 0)
		return word
	}
	op := jumpOpcodes[g.Pick(0, uint32(len(jumpOpcodes)))]
	target := jumpTarget(g, pc, n)
	delta := target - pc
	imm := delta & 0xffffff
	word, _ := isa.Encode(op, isa.PC, isa.PC, imm)
	return word
}

// jumpTarget picks either a backward or forward target relative to pc
// within a program of n instructions, matching spec.md's 50%-weighted
// backward/forward window exactly.
func jumpTarget(g *Generator, pc, n uint32) uint32 {
	backward := pc > 0 && g.Pick(0, 2) == 0
	if backward {
		lo := uint32(0)
		if pc > maxBackwardDelta {
			lo = pc - maxBackwardDelta
		}
		return g.Pick(lo, pc)
	}
	hi := n
	if uint64(pc)+maxForwardDelta < uint64(n) {
		hi = pc + maxForwardDelta
	}
	return g.Pick(pc+1, hi+1)
}
