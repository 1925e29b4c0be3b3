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
	"github.com/lassandro/gorv32/pkg/encoding"
)

// Instruction layout, most significant bit first:
//
// |funct7      |rs2   |rs1   |fn3  |rd    |opcode      |
// [ 31 ... 25  |24..20|19..15|14.12|11..7 | 6 ...... 0 ]

func Classify(opcode uint32) Category {
	switch opcode {
	case OP_R:
		return CategoryR
	case OP_LOAD, OP_IMM, OP_JALR:
		return CategoryI
	case OP_STORE:
		return CategoryS
	case OP_BR:
		return CategoryB
	case OP_JAL:
		return CategoryJ
	default:
		return CategoryInvalid
	}
}

func Decode(word uint32) Instruction {
	opcode := word & 0x7F

	return Instruction{
		Word:     word,
		Category: Classify(opcode),
		Opcode:   opcode,
		Rd:       (word >> 7) & 0x1F,
		Funct3:   (word >> 12) & 0x7,
		Rs1:      (word >> 15) & 0x1F,
		Rs2:      (word >> 20) & 0x1F,
		Funct7:   word >> 25,
	}
}

// imm[11:0] = inst[31:20]
func (in Instruction) ImmI() int32 {
	return int32(in.Word) >> 20
}

// imm[11:5] = inst[31:25], imm[4:0] = inst[11:7]
func (in Instruction) ImmS() int32 {
	value := (in.Word>>25)<<5 | (in.Word>>7)&0x1F

	return int32(encoding.SignExtend(value, 12))
}

// imm[12|10:5|4:1|11] = inst[31|30:25|11:8|7], imm[0] = 0
func (in Instruction) ImmB() int32 {
	value := ((in.Word >> 31) & 0x1) << 12
	value |= ((in.Word >> 7) & 0x1) << 11
	value |= ((in.Word >> 25) & 0x3F) << 5
	value |= ((in.Word >> 8) & 0xF) << 1

	return int32(encoding.SignExtend(value, 13))
}

// imm[20|10:1|11|19:12] = inst[31|30:21|20|19:12], imm[0] = 0
func (in Instruction) ImmJ() int32 {
	value := ((in.Word >> 31) & 0x1) << 20
	value |= ((in.Word >> 12) & 0xFF) << 12
	value |= ((in.Word >> 20) & 0x1) << 11
	value |= ((in.Word >> 21) & 0x3FF) << 1

	return int32(encoding.SignExtend(value, 21))
}
