package emu

import (
	"fmt"
	"io"

	"github.com/arminbiere/reticode/internal/isa"
)

// FormatRow renders one stepping trace line in the
// "STEPS PC CODE IN1 IN2 ACC INSTRUCTION ACTION" column order, using the
// pre-step register snapshot carried on res and the mnemonic text that
// was valid for this word, with the codec's two halt sentinels swapped
// in for the INSTRUCTION column where applicable.
func FormatRow(steps uint64, res StepResult) string {
	instruction := res.Decoded.Text
	switch res.Reason {
	case HaltCodeEnd:
		instruction = "<undefined>"
	case HaltSelfLoop:
		instruction = "<infinite-loop>"
	}
	return fmt.Sprintf("%d %08x %08x %08x %08x %08x %s %s",
		steps, res.PC, res.Word, res.SnapIN1, res.SnapIN2, res.SnapACC,
		instruction, FormatAction(res))
}

// FormatAction renders the human-readable effect string for one step,
// following the three shapes spec.md's worked examples show: a
// register-assignment with both decimal and hex forms of the result, a
// taken-jump's "PC = PC + ..." arithmetic, and a not-taken jump's
// "no jump as ..." form naming the relation that was actually false.
func FormatAction(res StepResult) string {
	d := res.Decoded
	switch d.Opcode {
	case isa.LOAD, isa.LOADIN1, isa.LOADIN2:
		return fmt.Sprintf("%s = M[0x%x] = [0x%08x]", d.D, res.Address, res.Result)
	case isa.LOADI:
		return fmt.Sprintf("%s = %d = [0x%08x]", d.D, int32(d.Immediate), res.Result)
	case isa.STORE, isa.STOREIN1, isa.STOREIN2:
		return fmt.Sprintf("M[0x%x] = %s = [0x%08x]", res.Address, isa.ACC, res.Result)
	case isa.MOVE:
		return fmt.Sprintf("%s = %s = [0x%08x]", d.D, d.S, res.Result)
	case isa.SUBI, isa.ADDI:
		return arithmeticImmediateAction(d.D, d.Opcode, res.SnapValue(d.D), res.SignedI, res.Result)
	case isa.OPLUSI, isa.ORI, isa.ANDI:
		return bitwiseImmediateAction(d.D, d.Opcode, res.SnapValue(d.D), d.Immediate, res.Result)
	case isa.SUB, isa.ADD, isa.OPLUS, isa.OR, isa.AND:
		return memoryOperandAction(d.D, d.Opcode, res.SnapValue(d.D), res.Address, res.Result)
	case isa.NOP:
		return "no-op"
	default:
		if isJump(d.Opcode) {
			return jumpAction(res)
		}
		return ""
	}
}

// SnapValue returns the pre-step value of register r, looking it up from
// whichever snapshot field holds it (PC is unambiguous since it equals
// res.PC by construction).
func (res StepResult) SnapValue(r isa.Register) uint32 {
	switch r {
	case isa.PC:
		return res.PC
	case isa.IN1:
		return res.SnapIN1
	case isa.IN2:
		return res.SnapIN2
	default:
		return res.SnapACC
	}
}

func arithmeticImmediateAction(d isa.Register, op isa.Opcode, before uint32, imm int32, result uint32) string {
	sym := "+"
	if op == isa.SUBI {
		sym = "-"
	}
	return fmt.Sprintf("%s = %s %s %d = %d %s %d = %d = [0x%08x]",
		d, d, sym, imm, int32(before), sym, imm, int32(result), result)
}

func bitwiseImmediateAction(d isa.Register, op isa.Opcode, before uint32, imm uint32, result uint32) string {
	sym := bitwiseSymbol(op)
	return fmt.Sprintf("%s = %s %s 0x%x = 0x%x %s 0x%x = 0x%x = [0x%08x]",
		d, d, sym, imm, before, sym, imm, result, result)
}

func memoryOperandAction(d isa.Register, op isa.Opcode, before uint32, addr uint32, result uint32) string {
	if op == isa.SUB || op == isa.ADD {
		sym := "+"
		if op == isa.SUB {
			sym = "-"
		}
		operand := result - before
		if op == isa.SUB {
			operand = before - result
		}
		return fmt.Sprintf("%s = %s %s [0x%x] = %d %s %d = %d = [0x%08x]",
			d, d, sym, addr, int32(before), sym, int32(operand), int32(result), result)
	}
	sym := bitwiseSymbol(op)
	return fmt.Sprintf("%s = %s %s [0x%x] = 0x%x %s M[0x%x] = 0x%x = [0x%08x]",
		d, d, sym, addr, before, sym, addr, result, result)
}

func bitwiseSymbol(op isa.Opcode) string {
	switch op {
	case isa.OPLUSI, isa.OPLUS:
		return "xor"
	case isa.ORI, isa.OR:
		return "or"
	default:
		return "and"
	}
}

func jumpAction(res StepResult) string {
	condition := jumpCondition(res.Decoded.Opcode, int32(res.SnapACC))
	if res.Taken {
		newPC := res.PCNext
		if condition == "" {
			return fmt.Sprintf("PC = PC + [0x%x] = %d + %d = %d = 0x%x",
				res.SignedI, res.PC, res.SignedI, newPC, newPC)
		}
		return fmt.Sprintf("PC = PC + [0x%x] = %d + %d = %d = 0x%x as %d = [0x%x] = %s",
			res.SignedI, res.PC, res.SignedI, newPC, newPC, int32(res.SnapACC), res.SnapACC, condition)
	}
	return fmt.Sprintf("no jump as %d = [0x%08x] = %s", int32(res.SnapACC), res.SnapACC, condition)
}

// jumpCondition names the ACC/0 relation that actually held at the time
// of the jump, which for a not-taken conditional jump is the negation of
// the mnemonic's own test (the inequality that was true instead).
func jumpCondition(op isa.Opcode, acc int32) string {
	switch op {
	case isa.JUMPGT:
		if acc > 0 {
			return "ACC > 0"
		}
		return "ACC <= 0"
	case isa.JUMPLE:
		if acc <= 0 {
			return "ACC <= 0"
		}
		return "ACC > 0"
	case isa.JUMPGE:
		if acc >= 0 {
			return "ACC >= 0"
		}
		return "ACC < 0"
	case isa.JUMPLT:
		if acc < 0 {
			return "ACC < 0"
		}
		return "ACC >= 0"
	case isa.JUMPEQ:
		if acc == 0 {
			return "ACC = 0"
		}
		return "ACC != 0"
	case isa.JUMPNE:
		if acc != 0 {
			return "ACC != 0"
		}
		return "ACC = 0"
	default:
		return ""
	}
}

// DumpData writes every word ever marked valid, in ascending address
// order, as "{address:08x} {data:08x}" lines, the same shape
// hexfmt.EncodeHex produces. When stepping is set each row also carries
// a byte breakdown, its ASCII rendering, and the word's unsigned and
// signed decimal values — the extra columns a human walking a trace
// wants that a machine consumer does not.
func DumpData(w io.Writer, m *Machine, stepping bool) error {
	for _, addr := range m.Data.ValidAddresses() {
		word, _ := m.Data.Read(addr)
		if !stepping {
			if _, err := fmt.Fprintf(w, "%08x %08x\n", addr, word); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%08x %08x %s %d %d\n",
			addr, word, byteBreakdown(word), word, int32(word)); err != nil {
			return err
		}
	}
	return nil
}

// byteBreakdown renders the little-endian byte sequence of word (the
// same order asreti writes to disk) as hex pairs followed by their
// ASCII rendering, non-printable bytes shown as '.'.
func byteBreakdown(word uint32) string {
	bytes := [4]byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
	ascii := make([]byte, 4)
	for i, b := range bytes {
		if b >= 0x20 && b < 0x7f {
			ascii[i] = b
		} else {
			ascii[i] = '.'
		}
	}
	return fmt.Sprintf("%02x %02x %02x %02x %s", bytes[0], bytes[1], bytes[2], bytes[3], ascii)
}
