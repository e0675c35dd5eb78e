// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipeline sequences the boot pipeline stages.
//
// The pipeline is strictly sequential: compile, provision, assemble, launch.
// Each stage's output is a precondition for the next and no stage starts
// before the previous one completed successfully. Every failure is fatal for
// the run; there is no partial success state and no stage is ever retried
// within a run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aibor/efiboot/internal/bootvol"
	"github.com/aibor/efiboot/internal/compile"
	"github.com/aibor/efiboot/internal/pins"
	"github.com/aibor/efiboot/internal/provision"
	"github.com/aibor/efiboot/internal/qemu"
	"github.com/aibor/efiboot/internal/sys"
)

// Spec describes a single pipeline run.
type Spec struct {
	// Pins is the immutable pin set every stage works from.
	Pins pins.Pins

	// VolumeDir is the boot volume working directory.
	VolumeDir string

	// Memory is the guest memory in MB.
	Memory uint64

	// SMP is the number of guest CPUs.
	SMP uint64

	// CPU is the guest CPU type.
	CPU string

	// EnableKVM requests host-assisted virtualization.
	EnableKVM bool

	// ConsoleMode wires the guest's serial console.
	ConsoleMode qemu.ConsoleMode

	// CompilerArgs are passed through to the toolchain invocation.
	CompilerArgs []string

	// QemuArgs are passed through to the emulator invocation.
	QemuArgs []qemu.Argument

	// DryRun stops before the launch and prints the emulator command
	// instead. All earlier stages run for real.
	DryRun bool

	// KeepVolume preserves the assembled volume for inspection. The volume
	// is deterministically regenerable either way.
	KeepVolume bool

	// Verbose prints the emulator command before launching.
	Verbose bool
}

// IO provides the standard streams for the run.
//
// During the launch stage the guest's serial console owns Stdin and Stdout
// exclusively; no other operation reads or writes them while the machine
// runs.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the full pipeline and blocks until the guest exits.
func Run(ctx context.Context, spec Spec, streams IO) error {
	kernel, err := runCompile(ctx, spec, streams)
	if err != nil {
		return err
	}

	firmware, romDir, err := runProvision(ctx, spec, streams)
	if err != nil {
		return err
	}

	err = runAssemble(spec, kernel)
	if err != nil {
		return err
	}

	return runLaunch(ctx, spec, firmware, romDir, streams)
}

func runCompile(ctx context.Context, spec Spec, streams IO) (string, error) {
	slog.Debug("Compile stage", slog.String("command", spec.Pins.Toolchain.Command))

	input := compile.Input{
		Toolchain: spec.Pins.Toolchain,
		Arch:      sys.AMD64,
		ExtraArgs: spec.CompilerArgs,
		Stdout:    streams.Stderr,
		Stderr:    streams.Stderr,
	}

	kernel, err := compile.Run(ctx, input)
	if err != nil {
		return "", err
	}

	slog.Debug("Compile stage done", slog.String("artifact", kernel))

	return kernel, nil
}

func runProvision(
	ctx context.Context,
	spec Spec,
	streams IO,
) (firmware, romDir string, err error) {
	store := &provision.Store{Dir: spec.Pins.StoreDir}

	err = store.Lock()
	if err != nil {
		return "", "", err
	}

	defer func() {
		unlockErr := store.Unlock()
		if err == nil {
			err = unlockErr
		}
	}()

	fetcher := &provision.Fetcher{Progress: streams.Stderr}

	firmware, err = provision.Firmware(ctx, store, fetcher, spec.Pins.Firmware)
	if err != nil {
		return "", "", err
	}

	romInput := provision.VideoROMInput{
		Pin:    spec.Pins.VideoROM,
		Tools:  spec.Pins.Tools,
		Stdout: streams.Stderr,
		Stderr: streams.Stderr,
	}

	rom, err := provision.VideoROM(ctx, store, fetcher, romInput)
	if err != nil {
		return "", "", err
	}

	romDir, err = provision.ComposeROMOverlay(
		store.Path(spec.Pins.VideoROM.Source.SHA256, "roms"),
		rom,
		spec.Pins.VideoROM.ROMName,
	)
	if err != nil {
		return "", "", err
	}

	return firmware, romDir, nil
}

func runAssemble(spec Spec, kernel string) error {
	volumeSpec := bootvol.Spec{
		Dir:          spec.VolumeDir,
		Kernel:       kernel,
		KernelName:   spec.Pins.Loader.KernelName,
		LoaderApp:    spec.Pins.Loader.App,
		LoaderConfig: spec.Pins.Loader.Config,
	}

	err := bootvol.Assemble(volumeSpec)
	if err != nil {
		return err
	}

	slog.Debug("Boot volume assembled", slog.String("dir", spec.VolumeDir))

	return nil
}

func runLaunch(
	ctx context.Context,
	spec Spec,
	firmware, romDir string,
	streams IO,
) error {
	// The volume is cleaned up on every launch path, including a failed
	// command composition.
	if spec.KeepVolume {
		defer slog.Info(
			"Preserving boot volume",
			slog.String("dir", spec.VolumeDir),
		)
	} else {
		defer removeVolume(spec.VolumeDir)
	}

	cmdSpec := qemu.CommandSpec{
		Executable:  spec.Pins.QemuExecutable,
		Firmware:    firmware,
		ROMDir:      romDir,
		BootVolume:  spec.VolumeDir,
		CPU:         spec.CPU,
		SMP:         spec.SMP,
		Memory:      spec.Memory,
		EnableKVM:   spec.EnableKVM,
		ConsoleMode: spec.ConsoleMode,
		ExtraArgs:   spec.QemuArgs,
		Verbose:     spec.Verbose,
	}

	cmdSpec.AddDefaults()

	cmd, err := qemu.NewCommand(cmdSpec)
	if err != nil {
		return err
	}

	if spec.DryRun {
		fmt.Fprintln(streams.Stdout, cmd.String())
		return nil
	}

	slog.Debug("QEMU command", slog.String("command", cmd.String()))

	return cmd.Run(ctx, streams.Stdin, streams.Stdout, streams.Stderr)
}

func removeVolume(dir string) {
	slog.Debug("Removing boot volume", slog.String("dir", dir))

	err := os.RemoveAll(dir)
	if err != nil {
		slog.Error(
			"Failed to remove boot volume",
			slog.String("dir", dir),
			slog.Any("error", err),
		)
	}
}
