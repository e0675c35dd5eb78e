// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import "errors"

var (
	// ErrOSABINotSupported is returned if the ELF OSABI is not one a
	// freestanding kernel image may carry.
	ErrOSABINotSupported = errors.New("OSABI not supported")

	// ErrMachineNotSupported is returned if the ELF machine type does not
	// match the build target.
	ErrMachineNotSupported = errors.New("machine not supported")

	// ErrNotStaticExecutable is returned if the ELF file requires loader
	// performed relocations. The UEFI loader does not perform any, so such an
	// image would crash on load.
	ErrNotStaticExecutable = errors.New("not a static executable")
)
