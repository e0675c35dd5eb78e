// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootvol

import (
	"errors"
	"fmt"
)

var (
	// ErrKernelNameEmpty is returned if no on-volume kernel file name is
	// set.
	ErrKernelNameEmpty = errors.New("kernel file name is empty")

	// ErrKernelNameInvalid is returned if the kernel file name is not a
	// plain file name at the volume root.
	ErrKernelNameInvalid = errors.New("kernel file name must be a base name")

	// ErrKernelNotReferenced is returned if the loader configuration does
	// not reference the kernel's on-volume file name. The loader would fail
	// at boot time inside the guest otherwise.
	ErrKernelNotReferenced = errors.New(
		"loader config does not reference kernel file name",
	)

	// ErrNotRegularFile is returned if a volume input is not a regular
	// file.
	ErrNotRegularFile = errors.New("not a regular file")
)

// Error wraps any filesystem failure during volume assembly.
type Error struct {
	Op   string
	Path string
	Err  error
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("assemble volume: %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("assemble volume: %s %s: %v", e.Op, e.Path, e.Err)
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
