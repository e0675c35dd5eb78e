// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package compile

import "fmt"

// Error wraps a failed toolchain invocation or a produced artifact that
// violates the load contract.
//
// The toolchain's own diagnostics have already been written to the
// configured output streams, so the message only names the failing command.
type Error struct {
	Command string
	Err     error
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Command, e.Err)
}

// Is implements the [errors.Is] interface.
func (*Error) Is(other error) bool {
	_, ok := other.(*Error)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *Error) Unwrap() error {
	return e.Err
}
