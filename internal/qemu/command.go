// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Command is a single QEMU command that can be run once.
type Command struct {
	name        string
	args        []string
	consoleMode ConsoleMode
	verbose     bool
}

// NewCommand creates a new [Command] for the given [CommandSpec].
//
// It returns an error if the spec is incomplete or its arguments collide.
func NewCommand(spec CommandSpec) (*Command, error) {
	err := spec.Validate()
	if err != nil {
		return nil, err
	}

	launcher := Launcher{
		Executable: spec.Executable,
		Firmware:   spec.Firmware,
	}

	args, err := BuildArgumentStrings(launcher.CommandLine(spec.arguments()))
	if err != nil {
		return nil, fmt.Errorf("build arguments: %w", err)
	}

	cmd := &Command{
		name:        spec.Executable,
		args:        args,
		consoleMode: spec.ConsoleMode,
		verbose:     spec.Verbose,
	}

	return cmd, nil
}

// Args returns the complete emulator argument list.
func (c *Command) Args() []string {
	return c.args
}

// String implements [fmt.Stringer].
func (c *Command) String() string {
	return c.name + " " + strings.Join(c.args, " ")
}

// Run starts the emulator and blocks until it exits.
//
// The guest's serial console is forwarded between the given streams and the
// guest for the whole run. There is no internal timeout; a hung guest blocks
// until the context is canceled or the guest shuts down itself.
//
// Any failure is returned as [CommandError] carrying the emulator's exit
// code. The emulator's own diagnostics go to stderr unmodified; no retry is
// attempted.
func (c *Command) Run(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
) error {
	if c.verbose {
		fmt.Fprintln(stderr, c.String())
	}

	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Stdin = stdin

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return &CommandError{Err: err, ExitCode: -1}
	}

	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return &CommandError{Err: err, ExitCode: -1}
	}

	// Interactive runs share the terminal with the guest's console. Put it
	// into raw mode so guest side line editing and control sequences work,
	// and restore it once the guest is done.
	restoreTerminal, err := makeTerminalRaw(stdin, c.consoleMode)
	if err != nil {
		return &CommandError{Err: err, ExitCode: -1}
	}
	defer restoreTerminal()

	err = cmd.Start()
	if err != nil {
		return &CommandError{
			Err:      fmt.Errorf("start: %w", err),
			ExitCode: -1,
		}
	}

	// Forward console output unbuffered. The pipes must be drained before
	// Wait is called.
	consoleGroup := errgroup.Group{}
	consoleGroup.Go(func() error {
		_, err := io.Copy(stdout, outPipe)
		return err //nolint:wrapcheck
	})
	consoleGroup.Go(func() error {
		_, err := io.Copy(stderr, errPipe)
		return err //nolint:wrapcheck
	})

	consoleErr := consoleGroup.Wait()

	err = cmd.Wait()
	if err != nil {
		exitCode := -1

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		return &CommandError{
			Err:      errors.Join(err, consoleErr),
			ExitCode: exitCode,
		}
	}

	if consoleErr != nil {
		return &CommandError{Err: consoleErr, ExitCode: -1}
	}

	return nil
}
