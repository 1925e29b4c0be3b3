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

package trace

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/machine"
)

// Collects one register dump per executed step, followed by the data memory
// dump once the run has finished.
type Trace struct {
	Steps  []string
	Memory []string
}

// 0b<pc> 0b<x0> ... 0b<x31>
func FormatStep(state *machine.MachineState) string {
	var b strings.Builder

	b.Grow((2 + encoding.WordBits + 1) * (len(state.Registers) + 1))
	b.WriteString("0b")
	b.WriteString(encoding.FormatWord(state.PC))

	for _, register := range state.Registers {
		b.WriteString(" 0b")
		b.WriteString(encoding.FormatWord(register))
	}

	return b.String()
}

// 0x<ADDRESS>:0b<word> for every data memory word, ascending.
func FormatMemory(cfg *machine.Config, state *machine.MachineState) []string {
	lines := make([]string, 0, len(state.Memory))

	for i, word := range state.Memory {
		addr := cfg.MemStart + uint32(i)*machine.WordSize
		lines = append(
			lines, fmt.Sprintf("0x%08X:0b%s", addr, encoding.FormatWord(word)),
		)
	}

	return lines
}

func (t *Trace) Record(state *machine.MachineState) {
	t.Steps = append(t.Steps, FormatStep(state))
}

// Drops everything recorded so far.
func (t *Trace) Reset() {
	t.Steps = t.Steps[:0]
	t.Memory = nil
}

func (t *Trace) Finish(cfg *machine.Config, state *machine.MachineState) {
	t.Memory = FormatMemory(cfg, state)
}

func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	buf := bufio.NewWriter(w)
	var total int64

	for _, lines := range [][]string{t.Steps, t.Memory} {
		for _, line := range lines {
			n, err := buf.WriteString(line)
			total += int64(n)

			if err != nil {
				return total, err
			}

			if err := buf.WriteByte('\n'); err != nil {
				return total, err
			}

			total++
		}
	}

	return total, buf.Flush()
}

func (t *Trace) String() string {
	var b strings.Builder
	t.WriteTo(&b)
	return b.String()
}
