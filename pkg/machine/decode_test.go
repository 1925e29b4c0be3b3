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

package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/machine"
)

func TestClassify(t *testing.T) {
	tests := map[uint32]machine.Category{
		0b0110011: machine.CategoryR,
		0b0000011: machine.CategoryI,
		0b0010011: machine.CategoryI,
		0b1100111: machine.CategoryI,
		0b0100011: machine.CategoryS,
		0b1100011: machine.CategoryB,
		0b1101111: machine.CategoryJ,
		0b0000000: machine.CategoryInvalid,
		0b0110111: machine.CategoryInvalid, // lui
		0b0010111: machine.CategoryInvalid, // auipc
		0b1110011: machine.CategoryInvalid, // ecall
		0b1111111: machine.CategoryInvalid,
	}

	for opcode, want := range tests {
		require.Equal(t, want, machine.Classify(opcode), "opcode %07b", opcode)
	}
}

func TestDecodeFields(t *testing.T) {
	in := machine.Decode(0b0100000_10101_01010_101_11111_0110011)

	require.Equal(t, machine.CategoryR, in.Category)
	require.Equal(t, uint32(0b0100000), in.Funct7)
	require.Equal(t, uint32(21), in.Rs2)
	require.Equal(t, uint32(10), in.Rs1)
	require.Equal(t, uint32(0b101), in.Funct3)
	require.Equal(t, uint32(31), in.Rd)
	require.Equal(t, uint32(0b0110011), in.Opcode)
}

// The bit operations used by the engine must agree with the field
// concatenations on the rendered word, index 0 being the most significant
// bit.
func TestImmediatesMatchBitStrings(t *testing.T) {
	words := []uint32{
		0x00000000,
		0xFFFFFFFF,
		0x80000000,
		0x7FFFFFFF,
		0b0000000_00010_00001_000_01000_1100011,
		0b1111111_00010_00001_001_11101_1100011,
		0b1000000_00010_00001_000_00000_1100011,
		0b11111111110111111111_00000_1101111,
		0b10000000000000000000_00001_1101111,
		0b1111100_00101_00010_010_00000_0100011,
		0xA5A5A5A5,
		0x5A5A5A5A,
		0x12345678,
		0xDEADBEEF,
	}

	for _, word := range words {
		bits := encoding.FormatWord(word)
		in := machine.Decode(word)

		require.Equal(t,
			encoding.ToSigned(bits[0:12]), int64(in.ImmI()), "I %s", bits,
		)
		require.Equal(t,
			encoding.ToSigned(bits[0:7]+bits[20:25]), int64(in.ImmS()),
			"S %s", bits,
		)
		require.Equal(t,
			encoding.ToSigned(bits[0:1]+bits[24:25]+bits[1:7]+bits[20:24]+"0"),
			int64(in.ImmB()),
			"B %s", bits,
		)
		require.Equal(t,
			encoding.ToSigned(bits[0:1]+bits[12:20]+bits[11:12]+bits[1:11]+"0"),
			int64(in.ImmJ()),
			"J %s", bits,
		)
	}
}

func TestImmediateRanges(t *testing.T) {
	require.Equal(t, int32(-4096), machine.Decode(0b1000000_00010_00001_000_00000_1100011).ImmB())
	require.Equal(t, int32(4094), machine.Decode(0b0111111_00010_00001_001_11111_1100011).ImmB())
	require.Equal(t, int32(-1048576), machine.Decode(0b10000000000000000000_00001_1101111).ImmJ())
	require.Equal(t, int32(1048574), machine.Decode(0b01111111111111111111_00001_1101111).ImmJ())
	require.Equal(t, int32(-2048), machine.Decode(0b1000000_00000_00000_010_00000_0100011).ImmS())
	require.Equal(t, int32(2047), machine.Decode(0b011111111111_00000_000_00101_0010011).ImmI())
}
