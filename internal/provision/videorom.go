// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/aibor/efiboot/internal/pins"
)

// VideoROMInput describes a single VideoROM build.
type VideoROMInput struct {
	Pin   pins.VideoROM
	Tools pins.Tools

	// Stdout and Stderr receive the patch and build tools' output
	// unmodified.
	Stdout io.Writer
	Stderr io.Writer
}

// VideoROM materializes the patched VGA BIOS ROM and returns its store path.
//
// Build steps, all fatal on failure:
//  1. Fetch the pinned source revision, verified against the pinned hash
//     before anything is unpacked or built (fail-before-build).
//  2. Unpack and apply the local patch. On a context mismatch the work tree
//     is removed, so no unpatched fallback source remains buildable.
//  3. Build the single pinned ROM variant.
//  4. Install the produced ROM file into the store.
//
// The store is keyed by the pinned source hash, so a revision bump without a
// matching hash update fails at step 1 instead of silently reusing a stale
// ROM.
func VideoROM(
	ctx context.Context,
	store *Store,
	fetcher *Fetcher,
	input VideoROMInput,
) (string, error) {
	pin := input.Pin

	if store.Has(pin.Source.SHA256, pin.ROMName) {
		slog.Debug(
			"VideoROM store hit",
			slog.String("sha256", pin.Source.SHA256),
		)

		return store.Path(pin.Source.SHA256, pin.ROMName), nil
	}

	workDir, err := os.MkdirTemp(store.Dir, "vgarom-build")
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(workDir)
	}()

	tarball := filepath.Join(workDir, "source.tar.gz")

	err = fetcher.FetchVerified(ctx, pin.Source, tarball)
	if err != nil {
		return "", err
	}

	srcDir := filepath.Join(workDir, "src")

	err = unpackTarGz(tarball, srcDir)
	if err != nil {
		return "", fmt.Errorf("unpack source: %w", err)
	}

	err = applyPatch(ctx, input, srcDir)
	if err != nil {
		return "", err
	}

	err = buildROM(ctx, input, srcDir)
	if err != nil {
		return "", err
	}

	built := filepath.Join(srcDir, pin.BuildOutput)

	stat, err := os.Stat(built)
	if err != nil || !stat.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrBuildOutputMissing, pin.BuildOutput)
	}

	path, err := store.Install(pin.Source.SHA256, pin.ROMName, built)
	if err != nil {
		return "", err
	}

	slog.Debug("VideoROM provisioned", slog.String("path", path))

	return path, nil
}

// applyPatch applies the pinned patch to the unpacked source tree.
//
// The patch tool runs with fuzzing disabled, so the patch applies to exactly
// the pinned revision or not at all. On failure the whole source tree is
// removed before returning, which guarantees no later step can build the
// unpatched ROM by accident.
func applyPatch(ctx context.Context, input VideoROMInput, srcDir string) error {
	patchFile, err := os.Open(input.Pin.Patch)
	if err != nil {
		return &PatchError{Patch: input.Pin.Patch, Err: err}
	}
	defer patchFile.Close()

	cmd := exec.CommandContext(
		ctx,
		input.Tools.Patch,
		"-p1",
		"--fuzz=0",
		"--no-backup-if-mismatch",
	)
	cmd.Dir = srcDir
	cmd.Stdin = patchFile
	cmd.Stdout = input.Stdout
	cmd.Stderr = input.Stderr

	err = cmd.Run()
	if err != nil {
		_ = os.RemoveAll(srcDir)
		return &PatchError{Patch: input.Pin.Patch, Err: err}
	}

	return nil
}

func buildROM(ctx context.Context, input VideoROMInput, srcDir string) error {
	cmd := exec.CommandContext(
		ctx,
		input.Tools.Make,
		input.Pin.BuildTarget,
	)
	cmd.Dir = srcDir
	cmd.Stdout = input.Stdout
	cmd.Stderr = input.Stderr

	err := cmd.Run()
	if err != nil {
		return &BuildError{Tool: input.Tools.Make, Err: err}
	}

	return nil
}
