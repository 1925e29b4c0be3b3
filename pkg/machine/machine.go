// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/gorv32/pkg/encoding"
)

var ErrStepLimit = errors.New("step limit reached")

func NewState(cfg *Config) *MachineState {
	var state MachineState
	state.Reset(cfg)
	return &state
}

func (state *MachineState) Reset(cfg *Config) {
	for i := range state.Registers {
		state.Registers[i] = 0x00000000
	}

	state.Memory = make([]uint32, cfg.MemSize)

	if cfg.StackEnabled {
		state.Stack = make([]uint32, cfg.StackSize)
	} else {
		state.Stack = nil
	}

	state.PC = 0
	state.Registers[REG_SP] = cfg.StackPointer
}

// Builds a machine over its own copy of program, with freshly reset state.
func New(cfg Config, program []uint32) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mc := &Machine{
		Config:  cfg,
		Program: append([]uint32(nil), program...),
	}
	mc.Reset()

	return mc, nil
}

func (mc *Machine) Reset() {
	mc.State.Reset(&mc.Config)
	mc.Steps = 0
	mc.Halted = false
}

// Reports whether the next step would fetch an instruction.
func (mc *Machine) Running() bool {
	return !mc.Halted && uint64(mc.State.PC/WordSize) < uint64(len(mc.Program))
}

func (mc *Machine) debugEnabled() bool {
	return mc.Log != nil && mc.Log.IsLevelEnabled(logrus.DebugLevel)
}

// Resolves addr to a backing word, following the stack then data memory.
func (mc *Machine) locate(addr int64) ([]uint32, int64, bool) {
	cfg := &mc.Config

	if cfg.AlignChecks && addr%WordSize != 0 {
		return nil, 0, false
	}

	if cfg.StackEnabled && int64(cfg.StackBase) <= addr && addr < cfg.StackEnd() {
		return mc.State.Stack, (addr - int64(cfg.StackBase)) / WordSize, true
	}

	if int64(cfg.MemStart) <= addr && addr < cfg.MemEnd() {
		return mc.State.Memory, (addr - int64(cfg.MemStart)) / WordSize, true
	}

	return nil, 0, false
}

func (mc *Machine) read(addr int64) uint32 {
	region, index, mapped := mc.locate(addr)

	if mc.Debugger != nil && mapped {
		mc.Debugger.Read(uint32(addr), mc)
	}

	if !mapped {
		return 0x00000000
	}

	return region[index]
}

func (mc *Machine) write(addr int64, value uint32) {
	region, index, mapped := mc.locate(addr)

	if !mapped {
		return
	}

	region[index] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(uint32(addr), mc)
	}
}

// Reads a data word the way lw does, without notifying the debugger.
func (mc *Machine) Peek(addr uint32) (uint32, bool) {
	region, index, mapped := mc.locate(int64(addr))

	if !mapped {
		return 0, false
	}

	return region[index], true
}

// Writes a data word the way sw does, without notifying the debugger.
func (mc *Machine) Poke(addr uint32, value uint32) bool {
	region, index, mapped := mc.locate(int64(addr))

	if !mapped {
		return false
	}

	region[index] = value
	return true
}

// Executes a single instruction word against the current state and returns
// the next program counter. The halt sentinel is matched on the raw word
// before any decoding and leaves the program counter unchanged.
func (mc *Machine) Execute(word uint32) (uint32, bool, error) {
	pc := mc.State.PC
	regs := &mc.State.Registers

	if word == mc.Config.Halt {
		return pc, true, nil
	}

	in := Decode(word)

	// Sources are read before the destination is written
	rs1 := int32(regs[in.Rs1])
	rs2 := int32(regs[in.Rs2])

	switch in.Category {
	// R    |funct7      |rs2  |rs1  |fn3|rd   |0110011     |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case CategoryR:
		var result int32

		switch in.Funct3 {
		case FUNCT3_ADD:
			if in.Funct7 == FUNCT7_ADD {
				result = rs1 + rs2
			} else {
				result = rs1 - rs2
			}
		case FUNCT3_SLT:
			if rs1 < rs2 {
				result = 1
			}
		case FUNCT3_SRL:
			// Arithmetic shift: the sign bit is replicated
			result = rs1 >> (uint32(rs2) & 0x1F)
		case FUNCT3_OR:
			result = rs1 | rs2
		case FUNCT3_AND:
			result = rs1 & rs2
		}

		regs[in.Rd] = uint32(result)
		return pc + 4, false, nil

	// LW   |imm[11:0]               |rs1  |010|rd   |0000011     |
	// ADDI |imm[11:0]               |rs1  |000|rd   |0010011     |
	// JALR |imm[11:0]               |rs1  |000|rd   |1100111     |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case CategoryI:
		imm := in.ImmI()

		switch in.Opcode {
		case OP_IMM:
			regs[in.Rd] = uint32(rs1 + imm)
			return pc + 4, false, nil

		case OP_JALR:
			if in.Rd != REG_ZERO {
				regs[in.Rd] = pc + 4
			}

			return uint32(rs1+imm) &^ 1, false, nil

		default:
			regs[in.Rd] = mc.read(int64(rs1) + int64(imm))
			return pc + 4, false, nil
		}

	// SW   |imm[11:5]   |rs2  |rs1  |010|imm[4:0]|0100011     |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case CategoryS:
		mc.write(int64(rs1)+int64(in.ImmS()), uint32(rs2))
		return pc + 4, false, nil

	// BEQ  |imm[12|10:5]|rs2  |rs1  |000|imm[4:1|11]|1100011  |
	// BNE  |imm[12|10:5]|rs2  |rs1  |001|imm[4:1|11]|1100011  |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case CategoryB:
		taken := (in.Funct3 == FUNCT3_BEQ && rs1 == rs2) ||
			(in.Funct3 == FUNCT3_BNE && rs1 != rs2)

		if taken {
			return pc + uint32(in.ImmB()), false, nil
		}

		return pc + 4, false, nil

	// JAL  |imm[20|10:1|11|19:12]                |rd   |1101111     |
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case CategoryJ:
		if in.Rd != REG_ZERO {
			regs[in.Rd] = pc + 4
		}

		return pc + uint32(in.ImmJ()), false, nil

	default:
		if mc.Log != nil {
			mc.Log.WithFields(logrus.Fields{
				"pc":     fmt.Sprintf("0x%08x", pc),
				"opcode": fmt.Sprintf("%07b", in.Opcode),
			}).Debug("Unrecognised opcode")
		}

		if mc.Config.StrictOpcodes {
			return pc, false, &encoding.DecodeError{
				Input:  encoding.FormatWord(word),
				Reason: fmt.Sprintf("unrecognised opcode %07b", in.Opcode),
			}
		}

		return pc + 4, false, nil
	}
}

// Fetches the instruction at the program counter and executes it.
func (mc *Machine) Step() error {
	pc := mc.State.PC
	index := uint64(pc / WordSize)

	if mc.Halted || index >= uint64(len(mc.Program)) {
		return fmt.Errorf("no instruction at pc 0x%08x", pc)
	}

	word := mc.Program[index]

	if mc.debugEnabled() {
		mc.Log.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%08x", pc),
			"word": encoding.FormatWord(word),
		}).Debug("Step")
	}

	next, halted, err := mc.Execute(word)

	if err != nil {
		return fmt.Errorf("pc 0x%08x: %w", pc, err)
	}

	mc.State.PC = next
	mc.Halted = halted
	mc.Steps++

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

// Returns a wrapped ErrStepLimit once StepLimit steps have executed.
func (mc *Machine) LimitReached() error {
	if mc.StepLimit > 0 && mc.Steps >= mc.StepLimit {
		return fmt.Errorf("%w after %d steps", ErrStepLimit, mc.Steps)
	}

	return nil
}

// Steps until the program halts or the program counter leaves the program,
// handing the post-step state of each step to rec.
func (mc *Machine) Run(rec Recorder) error {
	for mc.Running() {
		if err := mc.LimitReached(); err != nil {
			return err
		}

		if err := mc.Step(); err != nil {
			return err
		}

		if rec != nil {
			rec.Record(&mc.State)
		}
	}

	return nil
}
