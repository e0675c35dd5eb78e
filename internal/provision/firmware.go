// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aibor/efiboot/internal/pins"
)

const firmwareName = "firmware.fd"

// Firmware materializes the pinned UEFI firmware image and returns its
// store path.
//
// The image is sourced pre-built and treated as opaque, version pinned
// content. A store hit skips the fetch entirely.
func Firmware(
	ctx context.Context,
	store *Store,
	fetcher *Fetcher,
	pin pins.Blob,
) (string, error) {
	if store.Has(pin.SHA256, firmwareName) {
		slog.Debug("Firmware store hit", slog.String("sha256", pin.SHA256))
		return store.Path(pin.SHA256, firmwareName), nil
	}

	tmp, err := os.CreateTemp(store.Dir, "firmware-fetch")
	if err != nil {
		return "", fmt.Errorf("create fetch file: %w", err)
	}

	tmpPath := tmp.Name()
	_ = tmp.Close()

	defer func() {
		_ = os.Remove(tmpPath)
	}()

	err = fetcher.FetchVerified(ctx, pin, tmpPath)
	if err != nil {
		return "", err
	}

	path, err := store.Install(pin.SHA256, firmwareName, tmpPath)
	if err != nil {
		return "", err
	}

	slog.Debug("Firmware provisioned", slog.String("path", path))

	return path, nil
}

// ComposeROMOverlay creates a ROM directory holding the built VideoROM
// under the name the emulator looks it up by.
//
// The emulator ships a default, unpatched ROM under the same file name. The
// overlay directory is passed to the emulator ahead of its built-in search
// path, so the patched ROM replaces the shipped one instead of being merged
// with it.
func ComposeROMOverlay(dir, romPath, romName string) (string, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return "", fmt.Errorf("create overlay dir: %w", err)
	}

	dst := filepath.Join(dir, romName)

	err = copyFile(romPath, dst, 0o644)
	if err != nil {
		return "", fmt.Errorf("overlay ROM: %w", err)
	}

	return dir, nil
}
