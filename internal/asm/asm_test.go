package asm

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func assembleOne(t *testing.T, src string) Instruction {
	t.Helper()
	a := New("asreti", "<test>", strings.NewReader(src))
	instr, err := a.Next()
	require.NoError(t, err)
	return instr
}

func TestAssembleLoadi(t *testing.T) {
	instr := assembleOne(t, "LOADI ACC 42\n")
	require.Equal(t, uint32(0x7300002a), instr.Word)
	require.Equal(t, "LOADI ACC 42", instr.Text)
}

func TestAssembleMove(t *testing.T) {
	instr := assembleOne(t, "MOVE ACC IN1\n")
	require.Equal(t, "MOVE ACC IN1", instr.Text)
}

func TestAssembleNop(t *testing.T) {
	instr := assembleOne(t, "NOP\n")
	require.Equal(t, uint32(0xc0000000), instr.Word)
}

func TestAssembleJumpVariants(t *testing.T) {
	cases := map[string]string{
		"JUMP 5\n":    "JUMP 5",
		"JUMP> 5\n":   "JUMP> 5",
		"JUMP>= 5\n":  "JUMP>= 5",
		"JUMP= 5\n":   "JUMP= 5",
		"JUMP< 5\n":   "JUMP< 5",
		"JUMP<= 5\n":  "JUMP<= 5",
		"JUMP!= 5\n":  "JUMP!= 5",
	}
	for src, text := range cases {
		instr := assembleOne(t, src)
		require.Equal(t, text, instr.Text, "source %q", src)
	}
}

func TestAssembleNegativeImmediate(t *testing.T) {
	instr := assembleOne(t, "SUBI ACC -1\n")
	require.Equal(t, uint32(0x0bffffff), instr.Word)
}

func TestAssembleHexImmediate(t *testing.T) {
	instr := assembleOne(t, "ANDI ACC 0xabc\n")
	require.Equal(t, "ANDI ACC 0xabc", instr.Text)
}

func TestAssembleMultipleInstructions(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("NOP\nNOP\n"))
	first, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, "NOP", first.Text)
	second, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, "NOP", second.Text)
	_, err = a.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestAssembleRejectsEmptyLine(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("\nNOP\n"))
	_, err := a.Next()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected empty line")
}

func TestAssembleRejectsInvalidMnemonic(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("FOO ACC 1\n"))
	_, err := a.Next()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid instruction")
}

func TestAssembleRejectsUnknownCharacter(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("#\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleSkipsCommentsAndBlankLeadingSpace(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("  ; full line comment\nNOP ; trailing\n"))
	instr, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, "NOP", instr.Text)
}

func TestAssembleRejectsOverflowImmediate(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("LOADI ACC 99999999999999999999\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleRejectsInvalidRegisterName(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("LOAD XXX 1\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleAcceptsDOSLineEndings(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("NOP\r\nLOADI ACC 1\r\n"))
	first, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, "NOP", first.Text)
	second, err := a.Next()
	require.NoError(t, err)
	require.Equal(t, "LOADI ACC 1", second.Text)
	_, err = a.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestAssembleRejectsLoneCarriageReturn(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("NOP\rNOP\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleRejectsNegativeZero(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("SUBI ACC -0\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleAcceptsMaxNegativeImmediate(t *testing.T) {
	instr := assembleOne(t, "SUBI ACC -8388608\n")
	require.Equal(t, "SUBI ACC -8388608", instr.Text)
}

func TestAssembleRejectsNegativeImmediateOverflow(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("SUBI ACC -8388609\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleAcceptsMaxUnsignedImmediate(t *testing.T) {
	instr := assembleOne(t, "LOAD ACC 16777215\n")
	require.Equal(t, "LOAD ACC 16777215", instr.Text)
}

func TestAssembleRejectsUnsignedImmediateOverflow(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("LOAD ACC 16777216\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleAcceptsHexNegativeImmediate(t *testing.T) {
	instr := assembleOne(t, "SUBI ACC -0x800000\n")
	require.Equal(t, "SUBI ACC -8388608", instr.Text)
}

func TestAssembleRejectsHexNegativeImmediateOverflow(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("SUBI ACC -0x800001\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleRejectsHexNegativeZero(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("SUBI ACC -0x0\n"))
	_, err := a.Next()
	require.Error(t, err)
}

func TestAssembleAcceptsMaxHexImmediate(t *testing.T) {
	instr := assembleOne(t, "ANDI ACC 0xffffff\n")
	require.Equal(t, "ANDI ACC 0xffffff", instr.Text)
}

func TestAssembleRejectsHexImmediateOverflow(t *testing.T) {
	a := New("asreti", "<test>", strings.NewReader("ANDI ACC 0x1000000\n"))
	_, err := a.Next()
	require.Error(t, err)
}
