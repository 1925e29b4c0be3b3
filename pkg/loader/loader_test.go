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

package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/loader"
)

func TestLoad(t *testing.T) {
	input := strings.Join([]string{
		"00000000011100000000000010010011",
		"",
		"  00000000000000000000000001100011\t",
		"\r",
		"11111111111111111111111111111111",
		"",
	}, "\n")

	program, err := loader.Load(strings.NewReader(input))

	require.NoError(t, err)
	require.Equal(t, []uint32{0x00700093, 0x00000063, 0xFFFFFFFF}, program)
}

func TestLoadCRLF(t *testing.T) {
	program, err := loader.Load(strings.NewReader(
		"00000000011100000000000010010011\r\n00000000000000000000000001100011\r\n",
	))

	require.NoError(t, err)
	require.Equal(t, []uint32{0x00700093, 0x00000063}, program)
}

func TestLoadEmpty(t *testing.T) {
	program, err := loader.Load(strings.NewReader("\n\n"))

	require.NoError(t, err)
	require.Empty(t, program)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		Name     string
		Input    string
		Position encoding.Cursor
	}{
		{
			Name:     "Short Word",
			Input:    "00000000011100000000000010010011\n0000\n",
			Position: encoding.Cursor{Line: 2},
		},
		{
			Name:     "Long Word",
			Input:    "\n\n000000000111000000000000100100110\n",
			Position: encoding.Cursor{Line: 3},
		},
		{
			Name:     "Invalid Digit",
			Input:    "  0000000001110000000000001001001a\n",
			Position: encoding.Cursor{Line: 1, Column: 34},
		},
		{
			Name:     "Embedded Space",
			Input:    "0000000001110000 0000000010010011\n",
			Position: encoding.Cursor{Line: 1},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			_, err := loader.Load(strings.NewReader(test.Input))

			var decodeErr *encoding.DecodeError
			require.True(t, errors.As(err, &decodeErr), "have: %v", err)
			require.Equal(t, test.Position, decodeErr.GetPosition())
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "simple_1.txt")

	require.NoError(t, os.WriteFile(
		path, []byte("00000000000000000000000001100011\n"), 0666,
	))

	program, err := loader.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, []uint32{0x63}, program)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("012\n"), 0666))

	_, err = loader.LoadFile(bad)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), bad+":1:"), err.Error())

	_, err = loader.LoadFile(filepath.Join(dir, "missing.txt"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}
