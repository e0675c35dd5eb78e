// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// makeTerminalRaw puts the given input into raw mode if it is a terminal and
// the console is wired to stdio. It returns the restore function, which is a
// no-op if nothing was changed.
func makeTerminalRaw(stdin io.Reader, mode ConsoleMode) (func(), error) {
	noop := func() {}

	if mode != ConsoleModeStdio {
		return noop, nil
	}

	file, ok := stdin.(*os.File)
	if !ok {
		return noop, nil
	}

	fd := int(file.Fd())
	if !term.IsTerminal(fd) {
		return noop, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return noop, fmt.Errorf("terminal raw mode: %w", err)
	}

	restore := func() {
		_ = term.Restore(fd, state)
	}

	return restore, nil
}
