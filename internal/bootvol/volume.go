// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bootvol assembles the FAT boot volume.
//
// The volume is a plain directory tree the emulator exposes to the guest as
// a raw FAT block device. It holds the UEFI boot application at the firmware
// mandated default boot path, so firmware auto-discovers the loader without
// an explicit boot entry, plus the kernel image and the loader configuration
// at the volume root.
//
// The volume is rebuilt wholesale on every assembly instead of being patched
// incrementally. Stale files from previous runs are a silent failure mode
// (firmware happily boots an old kernel), so the tree is removed first and
// recreated deterministically.
package bootvol

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// BootAppPath is the firmware mandated default boot path for x86-64. The
// firmware loads this application automatically absent an explicit boot
// entry.
const BootAppPath = "EFI/BOOT/BOOTX64.EFI"

// Spec describes a single boot volume assembly.
type Spec struct {
	// Dir is the volume root directory. It is removed and rebuilt.
	Dir string

	// Kernel is the path of the compiled kernel image. It is copied to the
	// volume root under KernelName, never mutated.
	Kernel string

	// KernelName is the kernel's file name on the volume. The loader
	// configuration must reference exactly this name.
	KernelName string

	// LoaderApp is the path of the UEFI boot application binary.
	LoaderApp string

	// LoaderConfig is the path of the loader configuration file. It is
	// opaque text, copied verbatim to the volume root under its base name.
	LoaderConfig string
}

// Assemble builds the boot volume described by the given [Spec].
//
// Assembly is idempotent: re-running with unchanged inputs produces a byte
// identical volume tree. Any filesystem failure is fatal, a half-built
// volume is never left in place for a launch attempt.
func Assemble(spec Spec) error {
	err := validate(spec)
	if err != nil {
		return err
	}

	err = os.RemoveAll(spec.Dir)
	if err != nil {
		return &Error{Op: "clear volume", Path: spec.Dir, Err: err}
	}

	bootAppDir := filepath.Join(spec.Dir, filepath.Dir(
		filepath.FromSlash(BootAppPath),
	))

	err = os.MkdirAll(bootAppDir, 0o755)
	if err != nil {
		return &Error{Op: "create boot path", Path: bootAppDir, Err: err}
	}

	files := []struct {
		src string
		dst string
	}{
		{
			src: spec.LoaderApp,
			dst: filepath.Join(spec.Dir, filepath.FromSlash(BootAppPath)),
		},
		{
			src: spec.Kernel,
			dst: filepath.Join(spec.Dir, spec.KernelName),
		},
		{
			src: spec.LoaderConfig,
			dst: filepath.Join(spec.Dir, filepath.Base(spec.LoaderConfig)),
		},
	}

	for _, file := range files {
		err := copyFile(file.src, file.dst)
		if err != nil {
			_ = os.RemoveAll(spec.Dir)
			return err
		}
	}

	return nil
}

// validate checks the inputs before the existing volume is touched.
//
// The loader configuration must reference the kernel's on-volume file name.
// A mismatch would assemble a volume the loader can not boot, which only
// shows up as a boot-time failure inside the guest, so it is rejected here.
func validate(spec Spec) error {
	if spec.KernelName == "" {
		return &Error{Op: "validate", Err: ErrKernelNameEmpty}
	}

	if filepath.Base(spec.KernelName) != spec.KernelName {
		return &Error{
			Op:   "validate",
			Path: spec.KernelName,
			Err:  ErrKernelNameInvalid,
		}
	}

	config, err := os.ReadFile(spec.LoaderConfig)
	if err != nil {
		return &Error{Op: "read config", Path: spec.LoaderConfig, Err: err}
	}

	if !bytes.Contains(config, []byte(spec.KernelName)) {
		return &Error{
			Op:   "validate config",
			Path: spec.LoaderConfig,
			Err:  fmt.Errorf("%w: %s", ErrKernelNotReferenced, spec.KernelName),
		}
	}

	for _, path := range []string{spec.Kernel, spec.LoaderApp} {
		err := validateRegularFile(path)
		if err != nil {
			return err
		}
	}

	return nil
}

func validateRegularFile(path string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return &Error{Op: "validate", Path: path, Err: err}
	}

	if !stat.Mode().IsRegular() {
		return &Error{Op: "validate", Path: path, Err: ErrNotRegularFile}
	}

	return nil
}

// copyFile copies src to dst with fixed permissions, so repeated assemblies
// produce identical trees regardless of the source files' modes.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return &Error{Op: "read", Path: src, Err: err}
	}

	err = os.WriteFile(dst, data, fs.FileMode(0o644))
	if err != nil {
		return &Error{Op: "write", Path: dst, Err: err}
	}

	return nil
}
