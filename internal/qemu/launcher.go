// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

// Launcher binds the pinned firmware image to every emulator invocation.
//
// It is the single seam through which the emulator is started. Given
// arbitrary pass-through arguments, it always injects the firmware image as
// the boot firmware ahead of them. The firmware is a unique [Argument], so a
// caller supplied firmware argument fails the collision check instead of
// silently overriding the pinned image.
type Launcher struct {
	// Executable is the emulator binary.
	Executable string

	// Firmware is the pinned UEFI firmware image path.
	Firmware string
}

// CommandLine returns the full emulator argument list with the firmware
// injected first.
func (l *Launcher) CommandLine(args []Argument) []Argument {
	argv := make([]Argument, 0, len(args)+1)
	argv = append(argv, UniqueArg("bios", l.Firmware))
	argv = append(argv, args...)

	return argv
}
