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

package debugger

import (
	"fmt"
	"io"
	"os"

	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/machine"
)

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.Break.Load() {
		if dbg.HandleBreak != nil {
			dbg.HandleBreak(dbg, mc)
		}
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.PC == breakpoint.Addr {
			if dbg.HandleBreak != nil {
				dbg.HandleBreak(dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint32, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleRead != nil {
				dbg.HandleRead(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint32, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleWrite != nil {
				dbg.HandleWrite(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) AddBreakpoint(addr uint32) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) AddWatchpoint(addr uint32, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) out() io.Writer {
	if dbg.Output != nil {
		return dbg.Output
	}

	return os.Stdout
}

func (dbg *Debugger) style(code string, s string) string {
	if !dbg.Color {
		return s
	}

	return "\033[" + code + "m" + s + "\033[0m"
}

// Lists the raw program words around addr along with their category. The
// word at the program counter is marked.
func (dbg *Debugger) PrintProgram(mc *machine.Machine, addr uint32, count uint32) {
	w := dbg.out()
	first := addr / machine.WordSize

	if uint64(first) >= uint64(len(mc.Program)) {
		fmt.Fprintf(w, "No instruction found at 0x%08x\n", addr)
		return
	}

	for i := first; i < first+count && uint64(i) < uint64(len(mc.Program)); i++ {
		word := mc.Program[i]
		at := i * machine.WordSize

		category := machine.Decode(word).Category.String()
		if word == mc.Config.Halt {
			category = "halt"
		}

		marker := "  "
		if at == mc.State.PC {
			marker = "=>"
		}

		fmt.Fprintf(
			w, "%s %s %s %s\n",
			marker,
			dbg.style("1", fmt.Sprintf("[0x%08x]", at)),
			encoding.FormatWord(word),
			dbg.style("1;30", category),
		)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.Machine, addr, count uint32) {
	w := dbg.out()

	for i := uint32(0); i < count; i++ {
		at := addr + i*machine.WordSize

		if i%4 == 0 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s ", dbg.style("1", fmt.Sprintf("[0x%08x]", at)))
		}

		result, mapped := mc.Peek(at)

		switch {
		case !mapped:
			fmt.Fprintf(w, "%s ", dbg.style("1;30", "~~~~~~~~~~"))
		case result == 0:
			fmt.Fprintf(w, "%s ", dbg.style("1;30", fmt.Sprintf("0x%08x", result)))
		default:
			fmt.Fprintf(w, "0x%08x ", result)
		}
	}

	fmt.Fprintln(w)
}

func (dbg *Debugger) PrintRegs(state *machine.MachineState) {
	w := dbg.out()

	for i, register := range state.Registers {
		fmt.Fprintf(
			w, "%s 0x%08x\t", dbg.style("1", fmt.Sprintf("x%d:", i)), register,
		)
		if i%4 == 3 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "%s 0x%08x\n", dbg.style("1", "pc:"), state.PC)
}
