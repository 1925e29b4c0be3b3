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
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/lassandro/gorv32/pkg/batch"
	"github.com/lassandro/gorv32/pkg/machine"
)

var helpvar bool
var verbosevar bool
var jsonvar bool
var invar string
var outvar string
var patternvar string
var jobsvar int
var maxstepsvar uint64

var config = machine.FullProfile()

const usage = "gorv32-batch [-v] [-jobs n] [-pattern glob] -in dir -out dir"

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&verbosevar, "v", false, "Logs every executed step")
	flag.BoolVar(&jsonvar, "log-json", false, "Emits log records as JSON")
	flag.StringVar(&invar, "in", "", "Directory holding the input programs")
	flag.StringVar(
		&outvar, "out", "",
		"Directory receiving one trace per input program, "+
			"named after the input file",
	)
	flag.StringVar(
		&patternvar, "pattern", batch.DefaultPattern,
		"Glob selecting the input programs inside -in",
	)
	flag.IntVar(
		&jobsvar, "jobs", 0,
		"Number of programs simulated concurrently (0 uses every CPU)",
	)
	flag.Uint64Var(
		&maxstepsvar, "max-steps", 1_000_000,
		"Fails a program after this many steps (0 disables the guard)",
	)
	config.RegisterFlags(flag.CommandLine)
	flag.Parse()
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if jsonvar {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:      term.IsTerminal(int(os.Stderr.Fd())),
			DisableTimestamp: true,
		})
	}

	if verbosevar {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

func gorv32_batch() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	log := newLogger()

	if invar == "" || outvar == "" || len(flag.Args()) != 0 {
		log.Error(usage)
		return 1
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), unix.SIGINT, unix.SIGTERM,
	)
	defer stop()

	driver := batch.Driver{
		Config:    config,
		InputDir:  invar,
		OutputDir: outvar,
		Pattern:   patternvar,
		Jobs:      jobsvar,
		MaxSteps:  maxstepsvar,
		Log:       log,
	}

	report, err := driver.Run(ctx)

	if err != nil {
		log.Error(err)
		return 1
	}

	failed := report.Failed()

	log.WithFields(logrus.Fields{
		"processed": report.Processed(),
		"failed":    len(failed),
	}).Info("Batch complete")

	if len(failed) > 0 {
		return 1
	}

	return 0
}

func main() {
	os.Exit(gorv32_batch())
}
