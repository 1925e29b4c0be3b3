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

package batch_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/lassandro/gorv32/pkg/batch"
	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/machine"
)

const (
	wordHalt      = "00000000000000000000000001100011"
	wordAddi1_7   = "00000000011100000000000010010011" // addi x1, x0, 7
	wordSwX1Sp    = "00000000000100010010000000100011" // sw x1, 0(x2)
	wordJalSelf   = "00000000000000000000000001101111" // jal x0, 0
	wordMalformed = "0000000001110000000000001001001"
)

func writeProgram(dir, name string, words ...string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(strings.Join(words, "\n")+"\n"), 0666)).To(Succeed())
	return path
}

func readLines(path string) []string {
	data, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

var _ = Describe("Driver", func() {
	var (
		inputDir  string
		outputDir string
		log       *logrus.Logger
		hook      *test.Hook
		driver    batch.Driver
	)

	BeforeEach(func() {
		inputDir = GinkgoT().TempDir()
		outputDir = filepath.Join(GinkgoT().TempDir(), "traces")

		log, hook = test.NewNullLogger()
		log.SetOutput(io.Discard)

		driver = batch.Driver{
			Config:    machine.FullProfile(),
			InputDir:  inputDir,
			OutputDir: outputDir,
			Jobs:      2,
			MaxSteps:  1000,
			Log:       log,
		}
	})

	It("should write one trace per input", func() {
		writeProgram(inputDir, "simple_1.txt", wordAddi1_7, wordSwX1Sp, wordHalt)
		writeProgram(inputDir, "simple_2.txt", wordAddi1_7)
		writeProgram(inputDir, "notes.md", "not a program")

		report, err := driver.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Processed()).To(Equal(2))
		Expect(report.Failed()).To(BeEmpty())

		lines := readLines(filepath.Join(outputDir, "simple_1.txt"))
		Expect(lines).To(HaveLen(3 + int(machine.DEFAULT_MEM_SIZE)))
		Expect(lines[0]).To(HavePrefix("0b" + encoding.FormatWord(4) + " "))
		Expect(lines[2]).To(HavePrefix("0b" + encoding.FormatWord(8) + " "))
		Expect(lines[3]).To(Equal("0x00010000:0b" + encoding.FormatWord(0)))
		Expect(lines[len(lines)-1]).To(HavePrefix("0x0001007C:"))

		lines = readLines(filepath.Join(outputDir, "simple_2.txt"))
		Expect(lines).To(HaveLen(1 + int(machine.DEFAULT_MEM_SIZE)))

		Expect(filepath.Join(outputDir, "notes.md")).NotTo(BeAnExistingFile())
	})

	It("should keep going after a malformed input", func() {
		writeProgram(inputDir, "a.txt", wordAddi1_7, wordMalformed)
		writeProgram(inputDir, "b.txt", wordHalt)

		report, err := driver.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Processed()).To(Equal(1))

		failed := report.Failed()
		Expect(failed).To(HaveLen(1))
		Expect(failed[0].Input).To(Equal(filepath.Join(inputDir, "a.txt")))

		var decodeErr *encoding.DecodeError
		Expect(errors.As(failed[0].Err, &decodeErr)).To(BeTrue())
		Expect(decodeErr.GetPosition().Line).To(Equal(2))

		Expect(filepath.Join(outputDir, "a.txt")).NotTo(BeAnExistingFile())
		Expect(filepath.Join(outputDir, "b.txt")).To(BeAnExistingFile())

		var messages []string
		for _, entry := range hook.AllEntries() {
			messages = append(messages, entry.Message)
		}
		Expect(messages).To(ContainElement(HavePrefix("Error processing " + filepath.Join(inputDir, "a.txt"))))
		Expect(messages).To(ContainElement(HavePrefix("Processed: " + filepath.Join(inputDir, "b.txt"))))
	})

	It("should stop runaway programs at the step guard", func() {
		writeProgram(inputDir, "loop.txt", wordJalSelf)

		report, err := driver.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Failed()).To(HaveLen(1))
		Expect(report.Failed()[0].Err).To(MatchError(machine.ErrStepLimit))
		Expect(report.Failed()[0].Steps).To(Equal(uint64(1000)))
	})

	It("should isolate the state of each program", func() {
		writeProgram(inputDir, "1.txt", wordAddi1_7, wordSwX1Sp)
		writeProgram(inputDir, "2.txt", wordHalt)

		driver.Jobs = 1
		_, err := driver.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		lines := readLines(filepath.Join(outputDir, "2.txt"))
		Expect(lines).To(HaveLen(1 + int(machine.DEFAULT_MEM_SIZE)))

		fields := strings.Fields(lines[0])
		Expect(fields[2]).To(Equal("0b" + encoding.FormatWord(0)))
		Expect(fields[3]).To(Equal("0b" + encoding.FormatWord(0x17C)))
	})

	It("should honour the pattern", func() {
		writeProgram(inputDir, "simple_1.bin", wordHalt)
		writeProgram(inputDir, "simple_1.txt", wordHalt)

		driver.Pattern = "*.bin"
		report, err := driver.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Results).To(HaveLen(1))
		Expect(filepath.Join(outputDir, "simple_1.bin")).To(BeAnExistingFile())
	})

	It("should report nothing for an empty directory", func() {
		report, err := driver.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(report.Results).To(BeEmpty())
		Expect(hook.LastEntry()).NotTo(BeNil())
		Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
	})

	It("should reject an invalid configuration", func() {
		driver.Config.MemSize = 0

		_, err := driver.Run(context.Background())
		Expect(err).To(HaveOccurred())
	})

	It("should refuse to write traces over its inputs", func() {
		writeProgram(inputDir, "a.txt", wordHalt)

		driver.OutputDir = inputDir + string(filepath.Separator) + "."
		report, err := driver.Run(context.Background())

		Expect(err).To(MatchError(ContainSubstring("would overwrite the inputs")))
		Expect(report.Results).To(BeEmpty())
		Expect(readLines(filepath.Join(inputDir, "a.txt"))).To(Equal([]string{wordHalt}))
	})

	It("should stop scheduling once cancelled", func() {
		writeProgram(inputDir, "a.txt", wordHalt)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := driver.Run(ctx)

		Expect(err).To(MatchError(context.Canceled))
		Expect(report.Processed()).To(BeZero())
	})
})

var _ = Describe("RunFile", func() {
	It("should write the trace of one program", func() {
		dir := GinkgoT().TempDir()
		input := writeProgram(dir, "in.txt", wordAddi1_7, wordHalt)
		output := filepath.Join(dir, "out.txt")

		result := batch.RunFile(machine.ReducedProfile(), input, output, 0, nil)

		Expect(result.Err).NotTo(HaveOccurred())
		Expect(result.Steps).To(Equal(uint64(2)))
		Expect(result.Halted).To(BeTrue())
		Expect(readLines(output)).To(HaveLen(2 + int(machine.DEFAULT_MEM_SIZE)))
	})
})
