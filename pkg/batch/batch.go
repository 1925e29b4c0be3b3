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

package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lassandro/gorv32/pkg/loader"
	"github.com/lassandro/gorv32/pkg/machine"
	"github.com/lassandro/gorv32/pkg/trace"
)

const DefaultPattern = "*.txt"

type Result struct {
	Input  string
	Output string
	Steps  uint64
	Halted bool
	Err    error
}

type Report struct {
	Results []Result
}

func (r *Report) Processed() int {
	count := 0

	for _, result := range r.Results {
		if result.Err == nil {
			count++
		}
	}

	return count
}

func (r *Report) Failed() []Result {
	var failed []Result

	for _, result := range r.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}

	return failed
}

// Runs every program matching Pattern in InputDir, each on its own freshly
// reset machine, and writes one trace per program to OutputDir under the
// same base name. A failing program is reported and does not stop the batch.
type Driver struct {
	Config    machine.Config
	InputDir  string
	OutputDir string
	Pattern   string
	Jobs      int
	MaxSteps  uint64
	Log       *logrus.Logger
}

// Executes program to completion on a new machine and returns its trace,
// including the final memory dump.
func Simulate(
	cfg machine.Config, program []uint32, maxSteps uint64, log *logrus.Logger,
) (*trace.Trace, *machine.Machine, error) {
	mc, err := machine.New(cfg, program)

	if err != nil {
		return nil, nil, err
	}

	mc.StepLimit = maxSteps
	mc.Log = log

	var t trace.Trace

	if err := mc.Run(&t); err != nil {
		return nil, mc, err
	}

	t.Finish(&mc.Config, &mc.State)
	return &t, mc, nil
}

// Simulates the program stored at input and writes its trace to output. The
// output file is only created once the run has succeeded.
func RunFile(
	cfg machine.Config, input, output string, maxSteps uint64, log *logrus.Logger,
) Result {
	result := Result{Input: input, Output: output}

	program, err := loader.LoadFile(input)

	if err != nil {
		result.Err = err
		return result
	}

	t, mc, err := Simulate(cfg, program, maxSteps, log)

	if mc != nil {
		result.Steps = mc.Steps
		result.Halted = mc.Halted
	}

	if err != nil {
		result.Err = fmt.Errorf("%s: %w", input, err)
		return result
	}

	result.Err = WriteTrace(t, output)
	return result
}

// Writes t to the file at output, or to stdout when output is empty or "-".
func WriteTrace(t *trace.Trace, output string) error {
	var w io.Writer = os.Stdout

	if output != "" && output != "-" {
		file, err := os.Create(output)

		if err != nil {
			return err
		}

		defer file.Close()
		w = file

		if _, err := t.WriteTo(w); err != nil {
			return err
		}

		return file.Close()
	}

	_, err := t.WriteTo(w)
	return err
}

func (d *Driver) logger() *logrus.Logger {
	if d.Log != nil {
		return d.Log
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func (d *Driver) inputs() ([]string, error) {
	pattern := d.Pattern

	if pattern == "" {
		pattern = DefaultPattern
	}

	matches, err := filepath.Glob(filepath.Join(d.InputDir, pattern))

	if err != nil {
		return nil, err
	}

	inputs := matches[:0]

	for _, match := range matches {
		if stat, err := os.Stat(match); err == nil && !stat.IsDir() {
			inputs = append(inputs, match)
		}
	}

	sort.Strings(inputs)
	return inputs, nil
}

func sameDir(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)

	if err != nil {
		return false, err
	}

	absB, err := filepath.Abs(b)

	if err != nil {
		return false, err
	}

	return absA == absB, nil
}

func (d *Driver) Run(ctx context.Context) (Report, error) {
	var report Report
	log := d.logger()

	if d.InputDir == "" || d.OutputDir == "" {
		return report, errors.New("input and output directories are required")
	}

	same, err := sameDir(d.InputDir, d.OutputDir)

	if err != nil {
		return report, err
	}

	if same {
		return report, fmt.Errorf(
			"output directory %s would overwrite the inputs", d.OutputDir,
		)
	}

	if err := d.Config.Validate(); err != nil {
		return report, err
	}

	inputs, err := d.inputs()

	if err != nil {
		return report, err
	}

	if len(inputs) == 0 {
		log.WithFields(logrus.Fields{
			"dir":     d.InputDir,
			"pattern": d.Pattern,
		}).Warn("No input files found")
		return report, nil
	}

	if err := os.MkdirAll(d.OutputDir, 0755); err != nil {
		return report, err
	}

	jobs := d.Jobs

	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	report.Results = make([]Result, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, input := range inputs {
		i, input := i, input
		output := filepath.Join(d.OutputDir, filepath.Base(input))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Results[i] = Result{Input: input, Output: output, Err: err}
				return err
			}

			result := RunFile(d.Config, input, output, d.MaxSteps, log)
			report.Results[i] = result

			if result.Err != nil {
				log.WithFields(logrus.Fields{
					"input": input,
					"steps": result.Steps,
				}).Errorf("Error processing %s: %v", input, result.Err)
			} else {
				log.WithFields(logrus.Fields{
					"input":  input,
					"output": output,
					"steps":  result.Steps,
					"halted": result.Halted,
				}).Infof("Processed: %s -> %s", input, output)
			}

			return nil
		})
	}

	err = g.Wait()
	return report, err
}
