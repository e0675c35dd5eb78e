// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootvol_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/efiboot/internal/bootvol"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)

	err := os.WriteFile(path, content, 0o600)
	require.NoError(t, err)

	return path
}

func newSpec(t *testing.T) bootvol.Spec {
	t.Helper()

	dir := t.TempDir()

	return bootvol.Spec{
		Dir:        filepath.Join(dir, "volume"),
		Kernel:     writeFile(t, dir, "kernel", []byte("kernel image bytes")),
		KernelName: "credits",
		LoaderApp: writeFile(
			t,
			dir,
			"BOOTX64.EFI",
			[]byte("loader binary"),
		),
		LoaderConfig: writeFile(
			t,
			dir,
			"loader.conf",
			[]byte("kernel: credits\nresolution: 1920x1080\n"),
		),
	}
}

// snapshotTree captures the volume tree as path to content mapping.
func snapshotTree(t *testing.T, dir string) map[string]string {
	t.Helper()

	tree := make(map[string]string)

	err := filepath.WalkDir(
		dir,
		func(path string, entry fs.DirEntry, err error) error {
			require.NoError(t, err)

			if entry.IsDir() {
				return nil
			}

			content, err := os.ReadFile(path)
			require.NoError(t, err)

			rel, err := filepath.Rel(dir, path)
			require.NoError(t, err)

			tree[rel] = string(content)

			return nil
		},
	)
	require.NoError(t, err)

	return tree
}

func TestAssemble(t *testing.T) {
	spec := newSpec(t)

	err := bootvol.Assemble(spec)
	require.NoError(t, err)

	bootPath := filepath.FromSlash(bootvol.BootAppPath)

	tree := snapshotTree(t, spec.Dir)
	assert.Equal(t, map[string]string{
		bootPath:      "loader binary",
		"credits":     "kernel image bytes",
		"loader.conf": "kernel: credits\nresolution: 1920x1080\n",
	}, tree)

	// The kernel on the volume is byte identical to the artifact.
	kernel, err := os.ReadFile(filepath.Join(spec.Dir, spec.KernelName))
	require.NoError(t, err)

	artifact, err := os.ReadFile(spec.Kernel)
	require.NoError(t, err)
	assert.Equal(t, artifact, kernel)
}

func TestAssembleIdempotent(t *testing.T) {
	spec := newSpec(t)

	require.NoError(t, bootvol.Assemble(spec))
	first := snapshotTree(t, spec.Dir)

	require.NoError(t, bootvol.Assemble(spec))
	second := snapshotTree(t, spec.Dir)

	assert.Equal(t, first, second)
}

func TestAssembleRemovesStaleFiles(t *testing.T) {
	spec := newSpec(t)

	require.NoError(t, bootvol.Assemble(spec))

	stale := filepath.Join(spec.Dir, "stale-kernel")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, bootvol.Assemble(spec))
	assert.NoFileExists(t, stale)
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*bootvol.Spec)
		expectedErr error
	}{
		{
			name: "config does not reference kernel",
			mutate: func(spec *bootvol.Spec) {
				spec.KernelName = "other-name"
			},
			expectedErr: bootvol.ErrKernelNotReferenced,
		},
		{
			name: "kernel name with path",
			mutate: func(spec *bootvol.Spec) {
				spec.KernelName = "sub/credits"
			},
			expectedErr: bootvol.ErrKernelNameInvalid,
		},
		{
			name: "empty kernel name",
			mutate: func(spec *bootvol.Spec) {
				spec.KernelName = ""
			},
			expectedErr: bootvol.ErrKernelNameEmpty,
		},
		{
			name: "missing kernel",
			mutate: func(spec *bootvol.Spec) {
				spec.Kernel = spec.Kernel + "-missing"
			},
			expectedErr: fs.ErrNotExist,
		},
		{
			name: "missing loader app",
			mutate: func(spec *bootvol.Spec) {
				spec.LoaderApp = spec.LoaderApp + "-missing"
			},
			expectedErr: fs.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := newSpec(t)
			tt.mutate(&spec)

			err := bootvol.Assemble(spec)
			require.ErrorIs(t, err, &bootvol.Error{})
			require.ErrorIs(t, err, tt.expectedErr)

			// No half-built volume is left behind.
			assert.NoDirExists(t, spec.Dir)
		})
	}
}
