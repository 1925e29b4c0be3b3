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
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func isColorTerm(file *os.File) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}

	return term.IsTerminal(int(file.Fd()))
}

func notifyInterrupt(c chan<- os.Signal) {
	signal.Notify(c, unix.SIGINT, unix.SIGTERM)
}
