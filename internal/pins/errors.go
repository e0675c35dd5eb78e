// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pins

import "errors"

var (
	// ErrPinMissing is returned if a required pin is absent from the pin
	// file.
	ErrPinMissing = errors.New("required pin missing")

	// ErrHashInvalid is returned if a pinned hash is not a SHA256 hex
	// string.
	ErrHashInvalid = errors.New("pinned hash is not a valid SHA256 hex string")
)
