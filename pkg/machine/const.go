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

const (
	OP_R     uint32 = 0b0110011
	OP_LOAD  uint32 = 0b0000011
	OP_IMM   uint32 = 0b0010011
	OP_JALR  uint32 = 0b1100111
	OP_STORE uint32 = 0b0100011
	OP_BR    uint32 = 0b1100011
	OP_JAL   uint32 = 0b1101111
)

const (
	FUNCT3_ADD uint32 = 0b000
	FUNCT3_SLT uint32 = 0b010
	FUNCT3_SRL uint32 = 0b101
	FUNCT3_OR  uint32 = 0b110
	FUNCT3_AND uint32 = 0b111

	FUNCT3_BEQ uint32 = 0b000
	FUNCT3_BNE uint32 = 0b001

	FUNCT7_ADD uint32 = 0b0000000
)

const (
	REG_ZERO = 0
	REG_RA   = 1
	REG_SP   = 2
)

const (
	DEFAULT_MEM_START  uint32 = 0x00010000
	DEFAULT_MEM_SIZE   uint32 = 32
	DEFAULT_STACK_BASE uint32 = 0x00000100
	DEFAULT_STACK_SIZE uint32 = 32

	// beq x0, x0, 0
	DEFAULT_HALT uint32 = 0x00000063
)

const WordSize = 4
