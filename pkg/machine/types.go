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
	"github.com/sirupsen/logrus"
)

type Category uint

const (
	CategoryInvalid Category = iota
	CategoryR
	CategoryI
	CategoryS
	CategoryB
	CategoryJ
)

func (c Category) String() string {
	switch c {
	case CategoryR:
		return "R"
	case CategoryI:
		return "I"
	case CategoryS:
		return "S"
	case CategoryB:
		return "B"
	case CategoryJ:
		return "J"
	default:
		return "invalid"
	}
}

// Decoded view of a single instruction word. Field extraction is identical
// for every category; only the interpretation differs.
type Instruction struct {
	Word     uint32
	Category Category

	Opcode uint32
	Funct3 uint32
	Funct7 uint32
	Rd     uint32
	Rs1    uint32
	Rs2    uint32
}

type Config struct {
	MemStart uint32
	MemSize  uint32

	StackEnabled bool
	StackBase    uint32
	StackSize    uint32
	StackPointer uint32

	// Reject loads and stores whose address is not a multiple of WordSize.
	AlignChecks bool

	Halt uint32

	// Surface unrecognised opcodes as decode errors instead of executing
	// them as no-ops.
	StrictOpcodes bool
}

type MachineState struct {
	Registers [32]uint32
	PC        uint32
	Memory    []uint32
	Stack     []uint32
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint32, mc *Machine)
	Write(addr uint32, mc *Machine)
}

// Receives the machine state after every executed step.
type Recorder interface {
	Record(state *MachineState)
}

type Machine struct {
	Config   Config
	State    MachineState
	Program  []uint32
	Debugger MachineDebugger
	Log      *logrus.Logger

	// Maximum number of steps Run executes before failing with
	// ErrStepLimit. Zero means unbounded.
	StepLimit uint64

	Steps  uint64
	Halted bool
}
