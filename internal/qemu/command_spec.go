// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"strconv"
)

const (
	machineTypeQ35 = "q35"
	vgaTypeStd     = "std"
)

// CommandSpec defines the parameters for a [Command].
type CommandSpec struct {
	// Path to the qemu-system binary.
	Executable string

	// Firmware is the pinned UEFI firmware image. It is injected by the
	// [Launcher] on every launch, regardless of other arguments.
	Firmware string

	// ROMDir is the directory holding the patched VGA BIOS ROM. It is
	// searched ahead of the emulator's built-in ROM path, shadowing the
	// shipped ROM of the same name.
	ROMDir string

	// BootVolume is the assembled boot volume directory. It is exposed to
	// the guest as a raw FAT block device, read-write, without formatting a
	// disk image file first.
	BootVolume string

	// QEMU machine type to use.
	Machine string

	// CPU type to use. Depends on machine type and QEMU binary used.
	CPU string

	// Number of CPUs for the guest.
	SMP uint64

	// Memory for the machine in MB.
	Memory uint64

	// EnableKVM requests host-assisted virtualization. If KVM is
	// unavailable, the flag is still passed so the emulator's own error
	// surfaces instead of silently running without acceleration.
	EnableKVM bool

	// ConsoleMode wires the guest's serial console.
	ConsoleMode ConsoleMode

	// ExtraArgs are extra arguments that are passed to the QEMU command.
	// They must not interfere with the essential arguments set by the
	// command itself or an error will be returned on [NewCommand].
	ExtraArgs []Argument

	// Print the QEMU command before running.
	Verbose bool
}

// AddDefaults fills unset fields with the defaults for the x86-64 UEFI
// target.
func (s *CommandSpec) AddDefaults() {
	if s.Executable == "" {
		s.Executable = "qemu-system-x86_64"
	}

	if s.Machine == "" {
		s.Machine = machineTypeQ35
	}

	if s.ConsoleMode == "" {
		s.ConsoleMode = ConsoleModeStdio
	}
}

// Validate checks for missing required parameters.
func (s *CommandSpec) Validate() error {
	if s.Firmware == "" {
		return &ArgumentError{"no firmware image given"}
	}

	if s.BootVolume == "" {
		return &ArgumentError{"no boot volume given"}
	}

	if !s.ConsoleMode.isKnown() {
		return &ArgumentError{
			"unknown console mode: " + string(s.ConsoleMode),
		}
	}

	return nil
}

// arguments compiles the argument list for the QEMU command. The firmware
// argument is not part of it; the [Launcher] injects it ahead of these.
func (s *CommandSpec) arguments() []Argument {
	args := []Argument{}

	if s.Machine != "" {
		args = append(args, UniqueArg("machine", s.Machine))
	}

	if s.CPU != "" {
		args = append(args, UniqueArg("cpu", s.CPU))
	}

	if s.SMP != 0 {
		args = append(args, UniqueArg("smp", strconv.FormatUint(s.SMP, 10)))
	}

	if s.Memory != 0 {
		args = append(args, UniqueArg("m", strconv.FormatUint(s.Memory, 10)))
	}

	if s.EnableKVM {
		args = append(args, UniqueArg("enable-kvm"))
	}

	if s.ROMDir != "" {
		args = append(args, RepeatableArg("L", s.ROMDir))
	}

	// The patched ROM provides extra modes for the standard VGA device.
	args = append(args, UniqueArg("vga", vgaTypeStd))

	// Expose the volume directory as a raw FAT block device (vvfat).
	args = append(args, RepeatableArg(
		"drive",
		"format=raw",
		"file=fat:rw:"+s.BootVolume,
	))

	switch s.ConsoleMode {
	case ConsoleModeStdio:
		args = append(args, RepeatableArg("serial", "mon:stdio"))
	case ConsoleModeNone:
		args = append(args, RepeatableArg("serial", "none"))
	}

	// Do not load any user config files.
	args = append(args, UniqueArg("no-user-config"))

	args = append(args, s.ExtraArgs...)

	return args
}
