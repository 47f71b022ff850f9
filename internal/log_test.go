// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogAlsoToFile(t *testing.T) {
	dir := t.TempDir()
	first, second := filepath.Join(dir, "a.log"), filepath.Join(dir, "b.log")

	if err := LogAlsoToFile(first); err != nil {
		t.Fatal(err)
	}
	LogPrintf("%d: first %s\n", 1, "line")
	if err := LogAlsoToFile(second); err != nil {
		t.Fatal(err)
	}
	LogWriter().Write([]byte("second\n"))
	LogPrintln("third")
	LogSync()

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != "1: first line\n" {
		t.Errorf("first log=%q; want %q", a, "1: first line\n")
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "second\nthird") {
		t.Errorf("second log=%q; want second and third line", b)
	}

	logMutex.Lock()
	closeLogFile()
	logMutex.Unlock()
}

func TestLogAlsoToFileError(t *testing.T) {
	if err := LogAlsoToFile(filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Errorf("opening log in a missing directory succeeded")
	}
}
