// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/efiboot/internal/pins"
	"github.com/aibor/efiboot/internal/provision"
)

// makeSourceTarball builds a tar.gz with the single leading directory
// release tarballs carry.
func makeSourceTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	gzWriter := gzip.NewWriter(buf)
	tarWriter := tar.NewWriter(gzWriter)

	for name, content := range files {
		header := &tar.Header{
			Name:     "vgabios-1.0/" + name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}

		require.NoError(t, tarWriter.WriteHeader(header))

		_, err := tarWriter.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tarWriter.Close())
	require.NoError(t, gzWriter.Close())

	return buf.Bytes()
}

func writeToolScript(t *testing.T, dir, name, script string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755)
	require.NoError(t, err)

	return path
}

func writePatchFile(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "modes.patch")

	err := os.WriteFile(path, []byte("fake patch content\n"), 0o644)
	require.NoError(t, err)

	return path
}

func newROMInput(
	t *testing.T,
	sourceURL, sourceSHA, patchScript, makeScript string,
) provision.VideoROMInput {
	t.Helper()

	dir := t.TempDir()

	return provision.VideoROMInput{
		Pin: pins.VideoROM{
			Source:      pins.Blob{URL: sourceURL, SHA256: sourceSHA},
			Patch:       writePatchFile(t, dir),
			BuildTarget: "out/vgabios-stdvga.bin",
			BuildOutput: "out/vgabios-stdvga.bin",
			ROMName:     "vgabios-stdvga.bin",
		},
		Tools: pins.Tools{
			Patch: writeToolScript(t, dir, "patch", patchScript),
			Make:  writeToolScript(t, dir, "make", makeScript),
		},
	}
}

func TestVideoROM(t *testing.T) {
	tarball := makeSourceTarball(t, map[string]string{
		"Makefile":    "all:\n",
		"vgasrc/main": "source",
	})

	var requests atomic.Int32

	server := newBlobServer(t, tarball, &requests)

	store := &provision.Store{Dir: t.TempDir()}
	fetcher := &provision.Fetcher{Backoff: time.Millisecond}

	// The fake make produces the single pinned ROM variant.
	input := newROMInput(
		t,
		server.URL,
		sha256Hex(tarball),
		"exit 0",
		`mkdir -p out && printf 'ROM' > "$1"`,
	)

	path, err := provision.VideoROM(context.Background(), store, fetcher, input)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ROM", string(content))

	// Second run must be a store hit: no fetch, no build.
	path2, err := provision.VideoROM(
		context.Background(),
		store,
		fetcher,
		input,
	)
	require.NoError(t, err)
	assert.Equal(t, path, path2)
	assert.EqualValues(t, 1, requests.Load())
}

func TestVideoROMIntegrityFailsBeforeBuild(t *testing.T) {
	tarball := makeSourceTarball(t, map[string]string{"Makefile": "all:\n"})

	var requests atomic.Int32

	server := newBlobServer(t, tarball, &requests)

	store := &provision.Store{Dir: t.TempDir()}
	fetcher := &provision.Fetcher{Backoff: time.Millisecond}

	dir := t.TempDir()
	buildMarker := filepath.Join(dir, "built")

	input := newROMInput(
		t,
		server.URL,
		sha256Hex([]byte("some other revision")),
		"exit 0",
		"touch "+buildMarker,
	)

	_, err := provision.VideoROM(context.Background(), store, fetcher, input)
	require.ErrorIs(t, err, &provision.IntegrityError{})

	// The build tool must not have run.
	assert.NoFileExists(t, buildMarker)
}

func TestVideoROMPatchFailure(t *testing.T) {
	tarball := makeSourceTarball(t, map[string]string{"Makefile": "all:\n"})

	server := newBlobServer(t, tarball, new(atomic.Int32))

	store := &provision.Store{Dir: t.TempDir()}
	fetcher := &provision.Fetcher{Backoff: time.Millisecond}

	input := newROMInput(
		t,
		server.URL,
		sha256Hex(tarball),
		`echo "1 out of 1 hunk FAILED" >&2; exit 1`,
		"exit 0",
	)

	_, err := provision.VideoROM(context.Background(), store, fetcher, input)
	require.ErrorIs(t, err, &provision.PatchError{})

	// No unpatched fallback ROM may exist afterwards.
	assert.False(
		t,
		store.Has(input.Pin.Source.SHA256, input.Pin.ROMName),
	)
}

func TestVideoROMBuildFailure(t *testing.T) {
	tarball := makeSourceTarball(t, map[string]string{"Makefile": "all:\n"})

	server := newBlobServer(t, tarball, new(atomic.Int32))

	store := &provision.Store{Dir: t.TempDir()}
	fetcher := &provision.Fetcher{Backoff: time.Millisecond}

	input := newROMInput(
		t,
		server.URL,
		sha256Hex(tarball),
		"exit 0",
		`echo "cc: not found" >&2; exit 2`,
	)

	_, err := provision.VideoROM(context.Background(), store, fetcher, input)
	require.ErrorIs(t, err, &provision.BuildError{})
	assert.False(
		t,
		store.Has(input.Pin.Source.SHA256, input.Pin.ROMName),
	)
}
