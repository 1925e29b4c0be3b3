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

package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lassandro/gorv32/pkg/encoding"
)

// Reads a program written as one 32-digit binary word per line. Surrounding
// whitespace is ignored, as are blank lines.
func Load(reader io.Reader) ([]uint32, error) {
	var program []uint32

	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)

	for line := 1; scanner.Scan(); line++ {
		raw := scanner.Text()
		text := strings.TrimSpace(raw)

		if len(text) == 0 {
			continue
		}

		word, err := encoding.ParseWord(text)

		if err != nil {
			var decodeErr *encoding.DecodeError

			if errors.As(err, &decodeErr) {
				decodeErr.Position.Line = line

				if decodeErr.Position.Column > 0 {
					decodeErr.Position.Column += strings.Index(raw, text)
				}
			}

			return nil, err
		}

		program = append(program, word)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return program, nil
}

func LoadFile(path string) ([]uint32, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	program, err := Load(file)

	if err != nil {
		return nil, fmt.Errorf("%s:%w", path, err)
	}

	return program, nil
}
