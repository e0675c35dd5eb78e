// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd implements the efiboot command line interface.
//
// It is a single command without subcommands. Flags cover the launch
// resource configuration; everything after "--" is passed through to the
// emulator invocation. The process exit code is inherited from the emulator
// on a launch, so a clean guest shutdown exits 0.
package cmd
