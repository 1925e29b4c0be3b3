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

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/k0kubun/pp/v3"

	"github.com/lassandro/gorv32/pkg/batch"
	"github.com/lassandro/gorv32/pkg/debugger"
	"github.com/lassandro/gorv32/pkg/loader"
	"github.com/lassandro/gorv32/pkg/machine"
	"github.com/lassandro/gorv32/pkg/trace"
)

var helpvar bool
var debugvar bool
var dumpvar bool
var maxstepsvar uint64
var shouldexit bool

// Shared with the debug REPL so that reset can drop recorded steps.
var runTrace trace.Trace

var config = machine.FullProfile()

const usage = "gorv32 [-debug] [-dump] [-profile full|reduced] filename [outfile]"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(
		&dumpvar, "dump", false,
		"Prints the final machine state to stderr",
	)
	flag.Uint64Var(
		&maxstepsvar, "max-steps", 0,
		"Fails the run after this many steps (0 runs until halt)",
	)
	config.RegisterFlags(flag.CommandLine)
	flag.Parse()
}

func dumpState(mc *machine.Machine) {
	printer := pp.New()
	printer.SetOutput(os.Stderr)
	printer.SetColoringEnabled(isColorTerm(os.Stderr))
	printer.Println(mc.State)
}

func gorv32() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) < 1 || len(args) > 2 {
		log.Println(usage)
		return 1
	}

	program, err := loader.LoadFile(args[0])

	if err != nil {
		log.Println(err)
		return 1
	}

	mc, err := machine.New(config, program)

	if err != nil {
		log.Println(err)
		return 1
	}

	mc.StepLimit = maxstepsvar

	if debugvar {
		var dbg debugger.Debugger
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		dbg.Color = isColorTerm(os.Stdout)
		mc.Debugger = &dbg

		c := make(chan os.Signal, 1)
		defer close(c)

		notifyInterrupt(c)
		defer signal.Stop(c)
		go func() {
			for range c {
				fmt.Println()
				dbg.Break.Store(true)
			}
		}()

		debugREPL(&dbg, mc)

		for mc.Running() && !shouldexit {
			if err := mc.LimitReached(); err != nil {
				log.Printf("%s: %v", args[0], err)
				return 1
			}

			if err := mc.Step(); err != nil {
				log.Println(err)
				return 1
			}

			runTrace.Record(&mc.State)
		}

		if shouldexit {
			return 0
		}
	} else if err := mc.Run(&runTrace); err != nil {
		if errors.Is(err, machine.ErrStepLimit) {
			log.Printf("%s: %v", args[0], err)
		} else {
			log.Println(err)
		}

		if dumpvar {
			dumpState(mc)
		}

		return 1
	}

	runTrace.Finish(&mc.Config, &mc.State)

	if dumpvar {
		dumpState(mc)
	}

	output := "-"

	if len(args) == 2 {
		output = args[1]
	}

	if err := batch.WriteTrace(&runTrace, output); err != nil {
		log.Println("Error writing trace")
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(gorv32())
}
