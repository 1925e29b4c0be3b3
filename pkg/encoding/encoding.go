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

package encoding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const WordBits = 32

// Position of a malformed word within its source text. Line and Column are
// 1-based; zero means unknown.
type Cursor struct {
	Line   int
	Column int
}

type DecodeError struct {
	Position Cursor
	Input    string
	Reason   string
}

func (err *DecodeError) GetPosition() Cursor {
	return err.Position
}

func (err *DecodeError) Error() string {
	var b strings.Builder

	if err.Position.Line > 0 {
		fmt.Fprintf(&b, "%d:", err.Position.Line)
	}

	if err.Position.Column > 0 {
		fmt.Fprintf(&b, "%d:", err.Position.Column)
	}

	if b.Len() > 0 {
		b.WriteString(" ")
	}

	fmt.Fprintf(&b, "%s %q", err.Reason, err.Input)

	return b.String()
}

// Renders value as a width-digit two's complement binary string. Negative
// values are stored as (1<<width)+value, masked to width bits.
func ToBinary(value int64, width uint) string {
	if width == 0 || width > 64 {
		panic("Invalid binary width")
	}

	bits := uint64(value)
	if width < 64 {
		bits &= (uint64(1) << width) - 1
	}

	s := strconv.FormatUint(bits, 2)

	if pad := int(width) - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}

	return s
}

// Interprets bits as a two's complement number of its own length.
func ToSigned(bits string) int64 {
	if len(bits) == 0 || len(bits) > 64 {
		panic("Invalid binary width")
	}

	value, err := strconv.ParseUint(bits, 2, 64)

	if err != nil {
		panic(err)
	}

	if bits[0] == '0' || len(bits) == 64 {
		return int64(value)
	}

	return int64(value) - int64(1)<<len(bits)
}

func FormatWord(word uint32) string {
	return ToBinary(int64(word), WordBits)
}

// Parses one 32-digit instruction or data word.
func ParseWord(s string) (uint32, error) {
	if len(s) != WordBits {
		return 0, &DecodeError{
			Input:  s,
			Reason: fmt.Sprintf("expected %d binary digits, found %d", WordBits, len(s)),
		}
	}

	var word uint32

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			word <<= 1
		case '1':
			word = word<<1 | 1
		default:
			return 0, &DecodeError{
				Position: Cursor{Column: i + 1},
				Input:    s,
				Reason:   fmt.Sprintf("invalid binary digit %q", s[i]),
			}
		}
	}

	return word, nil
}

// Decodes a hexidecimal string in the formats: 0x0001FFFF, x1FFFF, 0xFF, xFF
func DecodeHex(s string) (uint32, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 32)

	if err != nil {
		return 0, err
	}

	return uint32(result), nil
}

// Decodes a base-10 string in the formats: #-123, -123, #123, 123
func DecodeInt(s string) (int32, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return int32(result), nil
}

// Decodes either a hex string (see DecodeHex) or a base-10 string.
func DecodeNumber(s string) (uint32, error) {
	if value, err := DecodeHex(s); err == nil {
		return value, nil
	}

	value, err := DecodeInt(s)

	if err != nil {
		return 0, err
	}

	return uint32(value), nil
}

func SignExtend(value uint32, bitcount uint) uint32 {
	if (value>>(bitcount-1))&0x1 == 1 {
		value |= (0xFFFFFFFF << bitcount)
	}

	return value
}

func ZeroExtend(value uint32, bitcount uint) uint32 {
	return value & ^(0xFFFFFFFF << bitcount)
}
