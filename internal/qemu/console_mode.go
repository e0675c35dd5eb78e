// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "slices"

const (
	// ConsoleModeStdio redirects the guest's serial console to the calling
	// process's standard streams. Interactive use and log capture work at
	// the same time.
	ConsoleModeStdio ConsoleMode = "stdio"
	// ConsoleModeNone leaves the serial console unconnected.
	ConsoleModeNone ConsoleMode = "none"
)

// ConsoleMode represents how the guest's serial console is wired to the
// host.
type ConsoleMode string

func (m *ConsoleMode) isKnown() bool {
	knownConsoleModes := []ConsoleMode{
		ConsoleModeStdio,
		ConsoleModeNone,
	}

	return slices.Contains(knownConsoleModes, *m)
}

// String implements [fmt.Stringer].
func (m *ConsoleMode) String() string {
	if !m.isKnown() {
		return ""
	}

	return string(*m)
}

// MarshalText implements [encoding.TextMarshaler].
func (m ConsoleMode) MarshalText() ([]byte, error) {
	s := m.String()
	if s == "" {
		return nil, ErrConsoleModeInvalid
	}

	return []byte(s), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *ConsoleMode) UnmarshalText(text []byte) error {
	mode := ConsoleMode(text)

	if !mode.isKnown() {
		return ErrConsoleModeInvalid
	}

	*m = mode

	return nil
}
