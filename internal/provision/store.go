// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package provision materializes the pinned firmware blobs.
//
// The UEFI firmware image is fetched pre-built, the VGA BIOS ROM is built
// from a pinned source revision with a local patch applied. Every blob is
// content addressed: fetched bytes are verified against the pinned SHA256
// before anything else happens to them, and results are installed into a
// store keyed by that hash. A store hit skips fetch and build, but can never
// mask a hash mismatch since the key is the pinned hash itself.
package provision

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Store is a content addressed blob store on the local filesystem.
//
// Layout: <dir>/<sha256>/<name>. Concurrent pipeline runs are serialized
// with an exclusive lock on the store directory.
type Store struct {
	Dir string

	lockFile *os.File
}

// Lock takes an exclusive lock on the store, creating it if necessary. It
// blocks until the lock is available.
func (s *Store) Lock() error {
	err := os.MkdirAll(s.Dir, 0o755)
	if err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	file, err := os.OpenFile(
		filepath.Join(s.Dir, ".lock"),
		os.O_CREATE|os.O_RDWR,
		0o644,
	)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	err = unix.Flock(int(file.Fd()), unix.LOCK_EX)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("lock store: %w", err)
	}

	s.lockFile = file

	return nil
}

// Unlock releases the store lock.
func (s *Store) Unlock() error {
	if s.lockFile == nil {
		return nil
	}

	err := unix.Flock(int(s.lockFile.Fd()), unix.LOCK_UN)
	_ = s.lockFile.Close()
	s.lockFile = nil

	if err != nil {
		return fmt.Errorf("unlock store: %w", err)
	}

	return nil
}

// Path returns the store path for the given content hash and file name.
func (s *Store) Path(hash, name string) string {
	return filepath.Join(s.Dir, hash, name)
}

// Has reports whether the store already holds the given blob.
func (s *Store) Has(hash, name string) bool {
	stat, err := os.Stat(s.Path(hash, name))
	return err == nil && stat.Mode().IsRegular()
}

// Install moves the given file into the store under the given hash and name.
//
// The file is moved into place atomically within the store's filesystem, so
// a crashed run never leaves a partial blob under a valid store path.
func (s *Store) Install(hash, name, src string) (string, error) {
	dst := s.Path(hash, name)

	err := os.MkdirAll(filepath.Dir(dst), 0o755)
	if err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	tmp := dst + ".tmp"

	err = copyFile(src, tmp, 0o644)
	if err != nil {
		return "", fmt.Errorf("stage blob: %w", err)
	}

	err = os.Rename(tmp, dst)
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("install blob: %w", err)
	}

	return dst, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	err = os.WriteFile(dst, data, perm)
	if err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}

	return nil
}
