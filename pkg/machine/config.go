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
	"flag"
	"fmt"

	"github.com/lassandro/gorv32/pkg/encoding"
)

// Stack region enabled, addresses are not alignment checked.
func FullProfile() Config {
	return Config{
		MemStart:     DEFAULT_MEM_START,
		MemSize:      DEFAULT_MEM_SIZE,
		StackEnabled: true,
		StackBase:    DEFAULT_STACK_BASE,
		StackSize:    DEFAULT_STACK_SIZE,
		StackPointer: DEFAULT_STACK_BASE + DEFAULT_STACK_SIZE*WordSize - WordSize,
		Halt:         DEFAULT_HALT,
	}
}

// Data memory only, misaligned addresses are treated as unmapped.
func ReducedProfile() Config {
	cfg := FullProfile()
	cfg.StackEnabled = false
	cfg.AlignChecks = true
	return cfg
}

func Profile(name string) (Config, error) {
	switch name {
	case "full":
		return FullProfile(), nil
	case "reduced":
		return ReducedProfile(), nil
	default:
		return Config{}, fmt.Errorf("unknown profile %q", name)
	}
}

func (cfg *Config) MemEnd() int64 {
	return int64(cfg.MemStart) + int64(cfg.MemSize)*WordSize
}

func (cfg *Config) StackEnd() int64 {
	return int64(cfg.StackBase) + int64(cfg.StackSize)*WordSize
}

func (cfg *Config) Validate() error {
	if cfg.MemSize == 0 {
		return errors.New("data memory size must be non-zero")
	}

	if cfg.MemEnd() > 1<<32 {
		return fmt.Errorf(
			"data memory [0x%08x, %#x) exceeds the address space",
			cfg.MemStart, cfg.MemEnd(),
		)
	}

	if !cfg.StackEnabled {
		return nil
	}

	if cfg.StackSize == 0 {
		return errors.New("stack size must be non-zero when the stack is enabled")
	}

	if cfg.StackEnd() > 1<<32 {
		return fmt.Errorf(
			"stack [0x%08x, %#x) exceeds the address space",
			cfg.StackBase, cfg.StackEnd(),
		)
	}

	if int64(cfg.StackBase) < cfg.MemEnd() && int64(cfg.MemStart) < cfg.StackEnd() {
		return fmt.Errorf(
			"stack [0x%08x, %#x) overlaps data memory [0x%08x, %#x)",
			cfg.StackBase, cfg.StackEnd(), cfg.MemStart, cfg.MemEnd(),
		)
	}

	return nil
}

type numberFlag struct {
	value *uint32
}

func (f numberFlag) String() string {
	if f.value == nil {
		return ""
	}

	return fmt.Sprintf("0x%08x", *f.value)
}

func (f numberFlag) Set(s string) error {
	value, err := encoding.DecodeNumber(s)

	if err != nil {
		return err
	}

	*f.value = value
	return nil
}

// Binds every configuration constant to a command line flag. The -profile
// flag resets the whole configuration where it appears, so it should precede
// the flags that refine it.
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Func(
		"profile",
		"Loads a configuration profile (full|reduced) before applying "+
			"the remaining flags",
		func(s string) error {
			profile, err := Profile(s)

			if err != nil {
				return err
			}

			*cfg = profile
			return nil
		},
	)
	fs.Var(numberFlag{&cfg.MemStart}, "mem-start", "Data memory base address")
	fs.Var(numberFlag{&cfg.MemSize}, "mem-size", "Data memory size in words")
	fs.BoolVar(
		&cfg.StackEnabled, "stack", cfg.StackEnabled,
		"Maps the stack region in addition to data memory",
	)
	fs.Var(numberFlag{&cfg.StackBase}, "stack-base", "Stack base address")
	fs.Var(numberFlag{&cfg.StackSize}, "stack-size", "Stack size in words")
	fs.Var(
		numberFlag{&cfg.StackPointer}, "sp",
		"Initial value of the stack pointer register (x2)",
	)
	fs.BoolVar(
		&cfg.AlignChecks, "align", cfg.AlignChecks,
		"Treats misaligned loads and stores as unmapped",
	)
	fs.Var(numberFlag{&cfg.Halt}, "halt", "Halt sentinel instruction word")
	fs.BoolVar(
		&cfg.StrictOpcodes, "strict", cfg.StrictOpcodes,
		"Fails the run on unrecognised opcodes instead of skipping them",
	)
}
