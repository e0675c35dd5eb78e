// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pins declares the hermetic pin set of the boot pipeline.
//
// Every external tool and blob the pipeline consumes is pinned here: the
// kernel toolchain, the UEFI firmware image, the VGA BIOS source revision
// with its local patch, the loader files and the QEMU binary. The pin set is
// parsed once at startup into an immutable [Pins] value that is passed
// explicitly to every stage. No stage reads ambient host state, so two hosts
// with the same pin file resolve identical blobs.
package pins

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Blob pins external content by URL and SHA256 of the fetched bytes. Content
// that does not match the hash is rejected, never used.
type Blob struct {
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256"`
}

// Toolchain pins the kernel compiler invocation.
//
// Args is the base invocation. ReleaseArgs and RelocStaticArgs are appended
// after any caller supplied pass-through arguments, so release mode and the
// static relocation model can not be overridden from the command line.
type Toolchain struct {
	Command         string   `yaml:"command"`
	Args            []string `yaml:"args"`
	ReleaseArgs     []string `yaml:"releaseArgs"`
	RelocStaticArgs []string `yaml:"relocStaticArgs"`
	// Artifact is the deterministic path the toolchain writes the kernel
	// image to.
	Artifact string `yaml:"artifact"`
	// Dir is the source tree the toolchain runs in.
	Dir string `yaml:"dir"`
}

// VideoROM pins the VGA BIOS ROM build.
type VideoROM struct {
	Source Blob `yaml:"source"`
	// Patch is the local patch file applied on top of the pinned source
	// revision. It adds the display resolutions the guest depends on, so a
	// patch failure must never fall back to the unpatched ROM.
	Patch string `yaml:"patch"`
	// BuildTarget is the make target for the single ROM variant that is
	// built.
	BuildTarget string `yaml:"buildTarget"`
	// BuildOutput is the path of the built ROM file relative to the source
	// tree root.
	BuildOutput string `yaml:"buildOutput"`
	// ROMName is the file name QEMU looks the ROM up by. The built ROM is
	// installed under this name, shadowing the ROM QEMU ships.
	ROMName string `yaml:"romName"`
}

// Loader pins the UEFI boot application and its configuration.
type Loader struct {
	// App is the loader binary placed at the firmware mandated default boot
	// path on the boot volume.
	App string `yaml:"app"`
	// Config is the loader configuration file, copied verbatim to the volume
	// root. It must reference KernelName.
	Config string `yaml:"config"`
	// KernelName is the kernel's file name on the boot volume.
	KernelName string `yaml:"kernelName"`
}

// Tools pins the auxiliary build tools the provisioner invokes.
type Tools struct {
	Patch string `yaml:"patch"`
	Make  string `yaml:"make"`
}

// Pins is the complete immutable pin set.
type Pins struct {
	Toolchain Toolchain `yaml:"toolchain"`
	Firmware  Blob      `yaml:"firmware"`
	VideoROM  VideoROM  `yaml:"videoROM"`
	Loader    Loader    `yaml:"loader"`
	Tools     Tools     `yaml:"tools"`
	// QemuExecutable is the emulator binary.
	QemuExecutable string `yaml:"qemu"`
	// StoreDir is the content addressed store provisioned blobs are
	// installed into.
	StoreDir string `yaml:"store"`
}

// Load reads and validates the pin file at the given path.
func Load(path string) (Pins, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pins{}, fmt.Errorf("read pin file: %w", err)
	}

	var pins Pins

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err = decoder.Decode(&pins)
	if err != nil {
		return Pins{}, fmt.Errorf("parse pin file: %w", err)
	}

	err = pins.Validate()
	if err != nil {
		return Pins{}, fmt.Errorf("validate pin file: %w", err)
	}

	return pins, nil
}
