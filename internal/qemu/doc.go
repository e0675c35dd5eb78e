// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu composes and runs the emulator invocation.
//
// A [CommandSpec] describes a single launch: the assembled boot volume, the
// provisioned firmware image and ROM overlay, and the resource
// configuration. The [Launcher] is the seam that binds the pinned firmware
// to every launch: it always injects the firmware argument ahead of
// everything else, so no caller supplied argument can start the machine with
// a different firmware.
//
// The guest's serial console is wired to the calling process's standard
// streams for the whole run. The run blocks until the emulator exits and the
// emulator's exit code is passed through unchanged.
package qemu
