// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed is returned if a blob download failed on the HTTP
	// level. It is not retried, the pinned URL is not supposed to start
	// working on a later attempt.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrBuildOutputMissing is returned if the ROM build succeeded but did
	// not produce the pinned output file.
	ErrBuildOutputMissing = errors.New("build did not produce pinned output")
)

// IntegrityError is returned if fetched content does not match its pinned
// hash. It is fatal and never auto corrected, since it either means the pin
// is stale or the upstream content has been tampered with.
type IntegrityError struct {
	URL      string
	Expected string
	Actual   string
}

// Error implements the [error] interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf(
		"integrity mismatch for %s: expected sha256 %s, got %s",
		e.URL,
		e.Expected,
		e.Actual,
	)
}

// Is implements the [errors.Is] interface.
func (*IntegrityError) Is(other error) bool {
	_, ok := other.(*IntegrityError)
	return ok
}

// PatchError is returned if the local patch does not apply to the pinned
// source revision. It is fatal. Falling back to the unpatched ROM would
// produce a ROM that lacks the display modes the guest depends on, so no
// ROM is produced at all.
type PatchError struct {
	Patch string
	Err   error
}

// Error implements the [error] interface.
func (e *PatchError) Error() string {
	return fmt.Sprintf("apply patch %s: %v", e.Patch, e.Err)
}

// Is implements the [errors.Is] interface.
func (*PatchError) Is(other error) bool {
	_, ok := other.(*PatchError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *PatchError) Unwrap() error {
	return e.Err
}

// BuildError wraps a failed ROM build tool invocation. The tool's own
// diagnostics have already been written to the configured output streams.
type BuildError struct {
	Tool string
	Err  error
}

// Error implements the [error] interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s: %v", e.Tool, e.Err)
}

// Is implements the [errors.Is] interface.
func (*BuildError) Is(other error) bool {
	_, ok := other.(*BuildError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *BuildError) Unwrap() error {
	return e.Err
}
