package isa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		op   Opcode
		s, d Register
		imm  uint32
	}{
		{"loadi-acc-42", LOADI, PC, ACC, 42},
		{"load-in1-0", LOAD, PC, IN1, 0},
		{"store-1000", STORE, PC, PC, 1000},
		{"move-acc-in2", MOVE, ACC, IN2, 0},
		{"subi-acc-neg1", SUBI, PC, ACC, 0xffffff},
		{"addi-acc-5", ADDI, PC, ACC, 5},
		{"oplusi-hex", OPLUSI, PC, ACC, 0xbc4285},
		{"and-d-5", AND, PC, ACC, 5},
		{"nop", NOP, PC, PC, 0},
		{"jump", JUMP, PC, PC, 100},
		{"jumpeq", JUMPEQ, PC, PC, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			word, err := Encode(c.op, c.s, c.d, c.imm)
			require.NoError(t, err)
			decoded := Decode(word)
			require.True(t, decoded.Legal)
			require.Equal(t, c.op, decoded.Opcode)
		})
	}
}

func TestLoadiRoundTrip(t *testing.T) {
	word, err := Encode(LOADI, PC, ACC, 42)
	require.NoError(t, err)
	// prefix 011100 (LOADI) at bits 31..26, D=ACC=11 at bits 25..24, i=42.
	require.Equal(t, uint32(0x7300002a), word)
	decoded := Decode(word)
	require.Equal(t, "LOADI ACC 42", decoded.Text)
}

func TestNegativeImmediateEncoding(t *testing.T) {
	// SUBI ACC -1: prefix 000010 (SUBI), D=11, i=0xFFFFFF.
	word, err := Encode(SUBI, PC, ACC, 0xffffff)
	require.NoError(t, err)
	require.Equal(t, uint32(0x0bffffff), word)
}

func TestIllegalComputePrefix(t *testing.T) {
	word := uint32(0b000000) << 26 // class-00 subcode 000000 is illegal
	decoded := Decode(word)
	require.False(t, decoded.Legal)
	require.Equal(t, "ILLEGAL", decoded.Text)
	require.Equal(t, Illegal, decoded.Opcode)
}

func TestSignExtend(t *testing.T) {
	require.Equal(t, int32(-1), SignExtend(0xffffff))
	require.Equal(t, int32(1), SignExtend(1))
	require.Equal(t, int32(-0x800000), SignExtend(0x800000))
}

func TestDisassembleTextMatchesTable(t *testing.T) {
	neg5 := int32(-5)
	word, err := Encode(JUMPGT, PC, PC, uint32(neg5)&0xffffff)
	require.NoError(t, err)
	d := Decode(word)
	require.Equal(t, "JUMP> -5", d.Text)
}

func TestDisassembleHexImmediate(t *testing.T) {
	word, err := Encode(ANDI, PC, ACC, 0xabc)
	require.NoError(t, err)
	d := Decode(word)
	require.Equal(t, "ANDI ACC 0xabc", d.Text)
}

func TestEncodeRejectsForeignSource(t *testing.T) {
	_, err := Encode(LOAD, IN1, ACC, 0)
	require.Error(t, err)
}

func TestEncodeRejectsOverflowImmediate(t *testing.T) {
	_, err := Encode(LOADI, PC, ACC, 0x1000000)
	require.Error(t, err)
}
