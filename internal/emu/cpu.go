// Package emu implements the ReTI fetch/decode/execute loop: a sparse,
// word-addressed machine with shadow validity tracking, modeled on
// emreti.c's big BV2/BV4/BV6 switch but filled in for every opcode the
// reference skeleton left as an empty "break".
package emu

import (
	"fmt"

	"github.com/arminbiere/reticode/internal/isa"
)

// ReadMode controls how the machine reacts to a read of a data address
// that was never written (spec.md §4.3's three uninitialized-read knobs).
type ReadMode int

const (
	// ReadModeDefault warns and continues, treating the word as 0.
	ReadModeDefault ReadMode = iota
	// ReadModeStrict aborts execution on an uninitialized read.
	ReadModeStrict
	// ReadModeQuiet ignores the condition entirely.
	ReadModeQuiet
)

// HaltReason names why Run stopped looping Step.
type HaltReason int

const (
	NotHalted HaltReason = iota
	HaltStepLimit
	HaltCodeEnd
	HaltIllegalInstruction
	HaltSelfLoop
	HaltCapacity
	HaltUninitializedRead
)

func (r HaltReason) String() string {
	switch r {
	case HaltStepLimit:
		return "step limit reached"
	case HaltCodeEnd:
		return "code end reached"
	case HaltIllegalInstruction:
		return "illegal instruction"
	case HaltSelfLoop:
		return "self-loop"
	case HaltCapacity:
		return "capacity exceeded"
	case HaltUninitializedRead:
		return "uninitialized read"
	default:
		return "running"
	}
}

// Machine is the architectural plus shadow state of one ReTI CPU.
type Machine struct {
	Code    []uint32
	CodeLen uint32
	Data    *Memory

	PC, IN1, IN2, ACC uint32
}

// NewMachine returns a machine with an empty data region and the given
// code image already loaded.
func NewMachine(code []uint32) *Machine {
	return &Machine{Code: code, CodeLen: uint32(len(code)), Data: NewMemory()}
}

func (m *Machine) register(r isa.Register) uint32 {
	switch r {
	case isa.PC:
		return m.PC
	case isa.IN1:
		return m.IN1
	case isa.IN2:
		return m.IN2
	default:
		return m.ACC
	}
}

func (m *Machine) setRegister(r isa.Register, v uint32) {
	switch r {
	case isa.PC:
		m.PC = v
	case isa.IN1:
		m.IN1 = v
	case isa.IN2:
		m.IN2 = v
	default:
		m.ACC = v
	}
}

// StepResult is the structured record of one executed (or aborted) step,
// rich enough both to apply the step's effects and to render a stepping
// trace row afterward without re-decoding anything.
type StepResult struct {
	PC       uint32
	Word     uint32
	Decoded  isa.Decoded
	SnapIN1  uint32
	SnapIN2  uint32
	SnapACC  uint32
	SignedI  int32

	DWrite            bool
	DReg              isa.Register
	MWrite            bool
	MRead             bool
	UninitializedRead bool // MRead touched an address that was never written
	Address           uint32
	Result            uint32

	Taken  bool // for conditional jumps: was the branch taken
	PCNext uint32

	Halted bool
	Reason HaltReason
}

// Step executes exactly one instruction, or reports why the machine
// cannot proceed (points 2-9 of the fetch/decode/execute sequence;
// the step-count limit itself is enforced by Run before calling Step).
func (m *Machine) Step(mode ReadMode) (StepResult, error) {
	pc := m.PC
	res := StepResult{PC: pc, SnapIN1: m.IN1, SnapIN2: m.IN2, SnapACC: m.ACC, PCNext: pc + 1}

	if pc >= m.CodeLen {
		res.Halted, res.Reason = true, HaltCodeEnd
		return res, nil
	}

	word := m.Code[pc]
	res.Word = word
	d := isa.Decode(word)
	res.Decoded = d
	res.SignedI = isa.SignExtend(d.Immediate)

	if !d.Legal {
		res.Halted, res.Reason = true, HaltIllegalInstruction
		return res, fmt.Errorf("illegal instruction 0x%08x at pc=0x%08x", word, pc)
	}

	res.DReg = d.D

	switch d.Opcode {
	case isa.LOAD:
		res.Address = d.Immediate
		res.MRead = true
		res.DWrite = true
	case isa.LOADIN1:
		res.Address = m.IN1 + d.Immediate
		res.MRead = true
		res.DWrite = true
	case isa.LOADIN2:
		res.Address = m.IN2 + d.Immediate
		res.MRead = true
		res.DWrite = true
	case isa.LOADI:
		res.Result = d.Immediate
		res.DWrite = true

	case isa.STORE:
		res.Address = d.Immediate
		res.Result = m.ACC
		res.MWrite = true
	case isa.STOREIN1:
		res.Address = m.IN1 + d.Immediate
		res.Result = m.ACC
		res.MWrite = true
	case isa.STOREIN2:
		res.Address = m.IN2 + d.Immediate
		res.Result = m.ACC
		res.MWrite = true
	case isa.MOVE:
		res.Result = m.register(d.S)
		res.DWrite = true

	case isa.SUBI:
		res.Result = m.register(d.D) - uint32(res.SignedI)
		res.DWrite = true
	case isa.ADDI:
		res.Result = m.register(d.D) + uint32(res.SignedI)
		res.DWrite = true
	case isa.OPLUSI:
		res.Result = m.register(d.D) ^ d.Immediate
		res.DWrite = true
	case isa.ORI:
		res.Result = m.register(d.D) | d.Immediate
		res.DWrite = true
	case isa.ANDI:
		res.Result = m.register(d.D) & d.Immediate
		res.DWrite = true

	case isa.SUB, isa.ADD, isa.OPLUS, isa.OR, isa.AND:
		res.Address = d.Immediate
		res.MRead = true
		res.DWrite = true
		// Result is finished once the operand is read (see the MRead block below).

	case isa.NOP:
		// PC ← PC+1, no other effect.

	case isa.JUMP:
		res.Taken = true
	case isa.JUMPGT, isa.JUMPEQ, isa.JUMPGE, isa.JUMPLT, isa.JUMPNE, isa.JUMPLE:
		res.Taken = evaluateCondition(d.Opcode, int32(m.ACC))
	}

	if res.MRead {
		word, valid := m.Data.Read(res.Address)
		if !valid {
			res.UninitializedRead = true
			if mode == ReadModeStrict {
				res.Halted, res.Reason = true, HaltUninitializedRead
				return res, fmt.Errorf("read of uninitialized data[0x%x] at pc=0x%08x", res.Address, pc)
			}
			// default and quiet modes continue with word == 0; the
			// caller decides (via res.UninitializedRead) whether to warn.
		}
		switch d.Opcode {
		case isa.LOAD, isa.LOADIN1, isa.LOADIN2:
			res.Result = word
		case isa.SUB:
			res.Result = m.register(d.D) - word
		case isa.ADD:
			res.Result = m.register(d.D) + word
		case isa.OPLUS:
			res.Result = m.register(d.D) ^ word
		case isa.OR:
			res.Result = m.register(d.D) | word
		case isa.AND:
			res.Result = m.register(d.D) & word
		}
	}

	if isJump(d.Opcode) {
		if res.Taken {
			res.PCNext = pc + uint32(res.SignedI)
		} else {
			res.PCNext = pc + 1
		}
	}

	if res.DWrite {
		m.setRegister(d.D, res.Result)
		if d.D == isa.PC {
			res.PCNext = res.Result
		}
	}

	if res.MWrite {
		if res.Address == ^uint32(0) {
			res.Halted, res.Reason = true, HaltCapacity
			return res, fmt.Errorf("write to data[0x%x] exceeds capacity", res.Address)
		}
		m.Data.Write(res.Address, res.Result)
	}

	if res.PCNext == pc {
		res.Halted, res.Reason = true, HaltSelfLoop
	}
	m.PC = res.PCNext
	return res, nil
}

// RunOptions bounds and configures a full Run.
type RunOptions struct {
	MaxSteps uint64
	ReadMode ReadMode
}

// Summary reports how a Run ended.
type Summary struct {
	Steps  uint64
	Reason HaltReason
}

// Run steps the machine until it halts for any reason or exhausts
// MaxSteps, matching spec.md §4.3's termination conditions: step limit,
// PC past the end of code, an illegal instruction, a self-loop, or a
// data write beyond address capacity.
func (m *Machine) Run(opts RunOptions) (Summary, error) {
	var steps uint64
	for {
		if opts.MaxSteps != 0 && steps >= opts.MaxSteps {
			return Summary{Steps: steps, Reason: HaltStepLimit}, nil
		}
		res, err := m.Step(opts.ReadMode)
		steps++
		if res.Halted {
			if res.Reason == HaltCodeEnd {
				return Summary{Steps: steps - 1, Reason: res.Reason}, nil
			}
			return Summary{Steps: steps, Reason: res.Reason}, err
		}
		if err != nil {
			return Summary{Steps: steps, Reason: res.Reason}, err
		}
	}
}

func isJump(op isa.Opcode) bool {
	switch op {
	case isa.JUMP, isa.JUMPGT, isa.JUMPEQ, isa.JUMPGE, isa.JUMPLT, isa.JUMPNE, isa.JUMPLE:
		return true
	default:
		return false
	}
}

func evaluateCondition(op isa.Opcode, acc int32) bool {
	switch op {
	case isa.JUMPGT:
		return acc > 0
	case isa.JUMPEQ:
		return acc == 0
	case isa.JUMPGE:
		return acc >= 0
	case isa.JUMPLT:
		return acc < 0
	case isa.JUMPNE:
		return acc != 0
	case isa.JUMPLE:
		return acc <= 0
	default:
		return false
	}
}
