package emu

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arminbiere/reticode/internal/asm"
	"github.com/arminbiere/reticode/internal/genprog"
	"github.com/arminbiere/reticode/internal/isa"
)

func assembleAll(t *testing.T, source string) []uint32 {
	t.Helper()
	a := asm.New("asreti", "-", strings.NewReader(source))
	var words []uint32
	for {
		inst, err := a.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		words = append(words, inst.Word)
	}
	return words
}

// TestAssembleAndRunReadmeExample assembles and emulates spec.md §8
// scenario 3's literal worked-example text. ranreti's own byte stream is
// out of scope per spec.md §1, and (see DESIGN.md) ranreti.c draws its
// instruction words from the C library's unseeded rand(), so this
// sequence is not something internal/genprog's Generator derives from
// the quoted seed — it is fixed input to the pipeline under test here.
func TestAssembleAndRunReadmeExample(t *testing.T) {
	source := "STOREIN2 2581947\nSTOREIN1 15065599\nOPLUSI ACC 0xbc4285\nSTOREIN2 3521395\n"
	code := assembleAll(t, source)
	require.Len(t, code, 4)

	m := NewMachine(code)
	summary, err := m.Run(RunOptions{MaxSteps: 1000, ReadMode: ReadModeDefault})
	require.NoError(t, err)
	require.Equal(t, uint64(4), summary.Steps)
	require.Equal(t, HaltCodeEnd, summary.Reason)

	require.Equal(t, []uint32{2581947, 3521395, 15065599}, m.Data.ValidAddresses())
	v0, _ := m.Data.Read(2581947)
	v1, _ := m.Data.Read(15065599)
	v2, _ := m.Data.Read(3521395)
	require.Equal(t, uint32(0), v0)
	require.Equal(t, uint32(0), v1)
	require.Equal(t, uint32(0xbc4285), v2)

	var dump strings.Builder
	require.NoError(t, DumpData(&dump, m, false))
	require.Equal(t, "002765bb 00000000\n"+
		"0035bb73 00bc4285\n"+
		"00e5e1ff 00000000\n",
		dump.String())
}

// TestGeneratedProgramRunsToCompletion actually drives genprog.Generate
// from a seed (unlike the README example above, which is fixed input),
// checking the property spec.md §4.4 promises of any generated program:
// every emitted word decodes as legal, so running it can end in a halt
// or a step-limit cutoff but never in an illegal-instruction or
// capacity abort.
func TestGeneratedProgramRunsToCompletion(t *testing.T) {
	g := genprog.NewGenerator(1910466996612083206)
	code := genprog.Generate(g, 64)
	require.Len(t, code, 64)

	for pc, word := range code {
		d := isa.Decode(word)
		require.Truef(t, d.Legal, "word %d (0x%08x) at pc=%d is illegal", word, word, pc)
	}

	m := NewMachine(code)
	summary, err := m.Run(RunOptions{MaxSteps: 10000, ReadMode: ReadModeQuiet})
	// A generated program may legitimately self-loop (e.g. "MOVE PC,PC")
	// or hit the step limit on a longer cycle; it must never choke on an
	// illegal word or a write past data capacity, since every word genprog
	// emits is checked for legality above and immediates are kept within
	// spec.md §4.4's windows.
	require.NotEqual(t, HaltIllegalInstruction, summary.Reason)
	require.NotEqual(t, HaltCapacity, summary.Reason)
	if summary.Reason != HaltStepLimit {
		require.NoError(t, err)
	}
}

// TestGeneratorIsDeterministic checks that two generators seeded alike
// produce the same program, and that a different seed does not.
func TestGeneratorIsDeterministic(t *testing.T) {
	a := genprog.Generate(genprog.NewGenerator(42), 16)
	b := genprog.Generate(genprog.NewGenerator(42), 16)
	require.Equal(t, a, b)

	c := genprog.Generate(genprog.NewGenerator(43), 16)
	require.NotEqual(t, a, c)
}

func TestDumpDataStepModeShowsByteBreakdownAndDecimal(t *testing.T) {
	m := NewMachine(nil)
	m.Data.Write(1, 0x48692d21) // "Hi-!" little-endian on disk

	var dump strings.Builder
	require.NoError(t, DumpData(&dump, m, true))
	require.Equal(t, "00000001 48692d21 21 2d 69 48 !-iH 1214852385 1214852385\n", dump.String())
}

func TestStepComputeIsReadModifyWrite(t *testing.T) {
	code := []uint32{}
	m := NewMachine(code)
	word, err := isa.Encode(isa.SUB, isa.PC, isa.ACC, 5)
	require.NoError(t, err)
	m.Code = []uint32{word}
	m.CodeLen = 1
	m.ACC = 10
	m.Data.Write(5, 5)

	res, err := m.Step(ReadModeDefault)
	require.NoError(t, err)
	require.Equal(t, uint32(5), m.ACC)
	require.Equal(t, "ACC = ACC - [0x5] = 10 - 5 = 5 = [0x00000005]", FormatAction(res))
}

func TestStepMoveUsesSourceField(t *testing.T) {
	word, err := isa.Encode(isa.MOVE, isa.IN1, isa.ACC, 0)
	require.NoError(t, err)
	m := NewMachine([]uint32{word})
	m.IN1 = 7

	_, err = m.Step(ReadModeDefault)
	require.NoError(t, err)
	require.Equal(t, uint32(7), m.ACC)
}

func TestStepStoreWritesACCImplicitly(t *testing.T) {
	word, err := isa.Encode(isa.STORE, isa.PC, isa.PC, 3)
	require.NoError(t, err)
	m := NewMachine([]uint32{word})
	m.ACC = 99

	_, err = m.Step(ReadModeDefault)
	require.NoError(t, err)
	v, valid := m.Data.Read(3)
	require.True(t, valid)
	require.Equal(t, uint32(99), v)
}

func TestStepLoadIndexedUsesIN2AsBase(t *testing.T) {
	word, err := isa.Encode(isa.LOADIN2, isa.PC, isa.ACC, 2)
	require.NoError(t, err)
	m := NewMachine([]uint32{word})
	m.IN2 = 10
	m.Data.Write(12, 0xabc)

	_, err = m.Step(ReadModeDefault)
	require.NoError(t, err)
	require.Equal(t, uint32(0xabc), m.ACC)
}

func TestStepSelfLoopHalts(t *testing.T) {
	word, err := isa.Encode(isa.JUMP, isa.PC, isa.PC, 0)
	require.NoError(t, err)
	m := NewMachine([]uint32{word})

	res, err := m.Step(ReadModeDefault)
	require.NoError(t, err)
	require.True(t, res.Halted)
	require.Equal(t, HaltSelfLoop, res.Reason)
}

func TestStepIllegalInstructionHalts(t *testing.T) {
	m := NewMachine([]uint32{0b0000_0001 << 24})

	res, err := m.Step(ReadModeDefault)
	require.Error(t, err)
	require.True(t, res.Halted)
	require.Equal(t, HaltIllegalInstruction, res.Reason)
}

func TestStepCodeEndHalts(t *testing.T) {
	m := NewMachine(nil)

	res, err := m.Step(ReadModeDefault)
	require.NoError(t, err)
	require.True(t, res.Halted)
	require.Equal(t, HaltCodeEnd, res.Reason)
}

func TestStepStrictModeAbortsOnUninitializedRead(t *testing.T) {
	word, err := isa.Encode(isa.LOAD, isa.PC, isa.ACC, 5)
	require.NoError(t, err)
	m := NewMachine([]uint32{word})

	res, err := m.Step(ReadModeStrict)
	require.Error(t, err)
	require.True(t, res.Halted)
	require.Equal(t, HaltUninitializedRead, res.Reason)
}

func TestStepDefaultModeContinuesOnUninitializedRead(t *testing.T) {
	word, err := isa.Encode(isa.LOAD, isa.PC, isa.ACC, 5)
	require.NoError(t, err)
	m := NewMachine([]uint32{word})

	res, err := m.Step(ReadModeDefault)
	require.NoError(t, err)
	require.False(t, res.Halted)
	require.True(t, res.UninitializedRead)
	require.Equal(t, uint32(0), m.ACC)
}

func TestStepQuietModeContinuesOnUninitializedRead(t *testing.T) {
	word, err := isa.Encode(isa.LOAD, isa.PC, isa.ACC, 5)
	require.NoError(t, err)
	m := NewMachine([]uint32{word})

	res, err := m.Step(ReadModeQuiet)
	require.NoError(t, err)
	require.False(t, res.Halted)
	require.True(t, res.UninitializedRead)
	require.Equal(t, uint32(0), m.ACC)
}

func TestStepConditionalJumpNotTakenReportsTrueRelation(t *testing.T) {
	word, err := isa.Encode(isa.JUMPGT, isa.PC, isa.PC, 5)
	require.NoError(t, err)
	m := NewMachine([]uint32{word, 0})
	m.ACC = ^uint32(0) // -1

	res, err := m.Step(ReadModeDefault)
	require.NoError(t, err)
	require.False(t, res.Taken)
	require.Equal(t, "no jump as -1 = [0xffffffff] = ACC <= 0", FormatAction(res))
}

func TestStepConditionalJumpTakenReportsOffsetAndAcc(t *testing.T) {
	word, err := isa.Encode(isa.JUMPGT, isa.PC, isa.PC, 3)
	require.NoError(t, err)
	m := NewMachine(make([]uint32, 11))
	m.Code[7] = word
	m.PC = 7
	m.ACC = 5

	res, err := m.Step(ReadModeDefault)
	require.NoError(t, err)
	require.True(t, res.Taken)
	require.Equal(t, uint32(10), m.PC)
	require.Equal(t, "PC = PC + [0x3] = 7 + 3 = 10 = 0xa as 5 = [0x5] = ACC > 0", FormatAction(res))
}
