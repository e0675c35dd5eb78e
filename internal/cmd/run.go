// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"path/filepath"

	"github.com/aibor/efiboot/internal/pins"
	"github.com/aibor/efiboot/internal/pipeline"
	"github.com/aibor/efiboot/internal/qemu"
)

// Run is the entry point of the efiboot binary. It returns the exit code for
// the process. On a real launch, the emulator's exit code is passed through
// unchanged.
func Run(ctx context.Context, args []string, streams pipeline.IO) int {
	err := run(ctx, args, streams)
	if err != nil {
		return handleRunError(err)
	}

	return 0
}

func run(ctx context.Context, args []string, streams pipeline.IO) error {
	name := "efiboot"
	if len(args) > 0 {
		name = filepath.Base(args[0])
		args = args[1:]
	}

	flags := newFlags(name, streams.Stderr)

	err := flags.ParseArgs(args)
	if err != nil {
		return err
	}

	setupLogging(streams.Stderr, flags.Debug)

	pinSet, err := pins.Load(string(flags.PinFile))
	if err != nil {
		return flags.Fail("load pins", err)
	}

	pinSet = pinSet.WithDefaults()

	if flags.QemuBin != "" {
		pinSet.QemuExecutable = flags.QemuBin
	}

	spec := pipeline.Spec{
		Pins:         pinSet,
		VolumeDir:    string(flags.VolumeDir),
		Memory:       flags.Memory,
		SMP:          flags.SMP,
		CPU:          flags.CPU,
		EnableKVM:    !flags.NoKVM,
		ConsoleMode:  flags.Console,
		CompilerArgs: flags.CompilerArgs,
		QemuArgs:     qemu.ParseArgs(flags.QemuArgs),
		DryRun:       flags.DryRun,
		KeepVolume:   flags.KeepVolume,
		Verbose:      flags.Verbose,
	}

	return pipeline.Run(ctx, spec, streams)
}

func handleRunError(err error) int {
	// Usage and version output are not failures.
	if errors.Is(err, ErrHelp) || errors.Is(err, flag.ErrHelp) {
		return 0
	}

	if errors.Is(err, &ParseArgsError{}) {
		// Error was printed along with usage already.
		return 2
	}

	// Pass the emulator's exit code through unchanged.
	var cmdErr *qemu.CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}

	slog.Error("Run failed", slog.Any("error", err))

	return -1
}
