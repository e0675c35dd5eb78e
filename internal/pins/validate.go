// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pins

import (
	"encoding/hex"
	"fmt"
)

const sha256HexLen = 64

// Validate checks the pin set for completeness. An incomplete pin set fails
// before any pipeline stage runs.
func (p *Pins) Validate() error {
	required := map[string]string{
		"toolchain.command":    p.Toolchain.Command,
		"toolchain.artifact":   p.Toolchain.Artifact,
		"firmware.url":         p.Firmware.URL,
		"videoROM.source.url":  p.VideoROM.Source.URL,
		"videoROM.patch":       p.VideoROM.Patch,
		"videoROM.buildTarget": p.VideoROM.BuildTarget,
		"videoROM.buildOutput": p.VideoROM.BuildOutput,
		"videoROM.romName":     p.VideoROM.ROMName,
		"loader.app":           p.Loader.App,
		"loader.config":        p.Loader.Config,
		"loader.kernelName":    p.Loader.KernelName,
		"qemu":                 p.QemuExecutable,
		"store":                p.StoreDir,
	}

	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrPinMissing, name)
		}
	}

	hashes := map[string]string{
		"firmware.sha256":        p.Firmware.SHA256,
		"videoROM.source.sha256": p.VideoROM.Source.SHA256,
	}

	for name, value := range hashes {
		err := validateSHA256(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

func validateSHA256(value string) error {
	if value == "" {
		return ErrPinMissing
	}

	if len(value) != sha256HexLen {
		return ErrHashInvalid
	}

	_, err := hex.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHashInvalid, err)
	}

	return nil
}

// WithDefaults returns a copy with optional tool pins set to their
// conventional names. The tools are still resolved via PATH lookup at use
// time, so a hermetic environment pins them by absolute path instead.
func (p Pins) WithDefaults() Pins {
	if p.Tools.Patch == "" {
		p.Tools.Patch = "patch"
	}

	if p.Tools.Make == "" {
		p.Tools.Make = "make"
	}

	return p
}
