// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package compile_test

import (
	"bytes"
	"context"
	"debug/elf"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/efiboot/internal/compile"
	"github.com/aibor/efiboot/internal/pins"
	"github.com/aibor/efiboot/internal/sys"
)

// writeToolchainScript writes a fake toolchain that copies a prepared
// artifact into place, mimicking a deterministic output path.
func writeToolchainScript(t *testing.T, dir string, script string) string {
	t.Helper()

	path := filepath.Join(dir, "toolchain.sh")

	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755)
	require.NoError(t, err)

	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()

	kernel := sys.MakeTestELF(elf.ET_EXEC, elf.EM_X86_64, elf.PT_LOAD)
	fixture := filepath.Join(dir, "kernel.fixture")
	err := os.WriteFile(fixture, kernel, 0o644)
	require.NoError(t, err)

	artifact := filepath.Join(dir, "out", "kernel")
	script := writeToolchainScript(
		t,
		dir,
		`mkdir -p "$(dirname `+artifact+`)" && cp `+fixture+" "+artifact,
	)

	input := compile.Input{
		Toolchain: pins.Toolchain{
			Command:  script,
			Artifact: artifact,
		},
		Arch: sys.AMD64,
	}

	path, err := compile.Run(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, artifact, path)
	assert.FileExists(t, path)
}

func TestRunToolchainFailure(t *testing.T) {
	dir := t.TempDir()

	stderr := new(bytes.Buffer)
	script := writeToolchainScript(t, dir, `echo "error: oops" >&2; exit 1`)

	input := compile.Input{
		Toolchain: pins.Toolchain{
			Command:  script,
			Artifact: filepath.Join(dir, "kernel"),
		},
		Arch:   sys.AMD64,
		Stderr: stderr,
	}

	_, err := compile.Run(context.Background(), input)
	require.ErrorIs(t, err, &compile.Error{})

	// The toolchain's native diagnostic must pass through unmodified.
	assert.Equal(t, "error: oops\n", stderr.String())
}

func TestRunRejectsDynamicArtifact(t *testing.T) {
	dir := t.TempDir()

	kernel := sys.MakeTestELF(elf.ET_DYN, elf.EM_X86_64, elf.PT_LOAD)
	artifact := filepath.Join(dir, "kernel")
	err := os.WriteFile(artifact, kernel, 0o644)
	require.NoError(t, err)

	script := writeToolchainScript(t, dir, "exit 0")

	input := compile.Input{
		Toolchain: pins.Toolchain{
			Command:  script,
			Artifact: artifact,
		},
		Arch: sys.AMD64,
	}

	_, err = compile.Run(context.Background(), input)
	require.ErrorIs(t, err, &compile.Error{})
	require.ErrorIs(t, err, sys.ErrNotStaticExecutable)
}

func TestRunForcedArgsComeLast(t *testing.T) {
	dir := t.TempDir()

	kernel := sys.MakeTestELF(elf.ET_EXEC, elf.EM_X86_64, elf.PT_LOAD)
	artifact := filepath.Join(dir, "kernel")
	err := os.WriteFile(artifact, kernel, 0o644)
	require.NoError(t, err)

	argsFile := filepath.Join(dir, "args")
	script := writeToolchainScript(t, dir, `echo "$@" > `+argsFile)

	input := compile.Input{
		Toolchain: pins.Toolchain{
			Command:         script,
			Args:            []string{"build"},
			ReleaseArgs:     []string{"--release"},
			RelocStaticArgs: []string{"-Crelocation-model=static"},
			Artifact:        artifact,
		},
		Arch:      sys.AMD64,
		ExtraArgs: []string{"--feature=extra"},
	}

	_, err = compile.Run(context.Background(), input)
	require.NoError(t, err)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(
		t,
		"build --feature=extra --release -Crelocation-model=static\n",
		string(args),
	)
}
