// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var errTarPathEscapes = errors.New("tar entry path escapes destination")

// unpackTarGz unpacks the source tarball into dst, stripping the single
// leading path component release tarballs conventionally carry.
func unpackTarGz(tarball, dst string) error {
	file, err := os.Open(tarball)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read entry: %w", err)
		}

		name := stripLeadingComponent(header.Name)
		if name == "" {
			continue
		}

		path, err := securePath(dst, name)
		if err != nil {
			return err
		}

		err = writeEntry(tarReader, header, path)
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
}

func writeEntry(reader *tar.Reader, header *tar.Header, path string) error {
	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(path, 0o755) //nolint:wrapcheck
	case tar.TypeReg:
		err := os.MkdirAll(filepath.Dir(path), 0o755)
		if err != nil {
			return err //nolint:wrapcheck
		}

		file, err := os.OpenFile(
			path,
			os.O_CREATE|os.O_WRONLY|os.O_TRUNC,
			header.FileInfo().Mode().Perm(),
		)
		if err != nil {
			return err //nolint:wrapcheck
		}

		_, err = io.Copy(file, reader)

		closeErr := file.Close()

		return errors.Join(err, closeErr)
	case tar.TypeSymlink:
		err := os.MkdirAll(filepath.Dir(path), 0o755)
		if err != nil {
			return err //nolint:wrapcheck
		}

		return os.Symlink(header.Linkname, path) //nolint:wrapcheck
	default:
		// Other entry types do not occur in source tarballs.
		return nil
	}
}

func stripLeadingComponent(name string) string {
	name = strings.TrimPrefix(name, "./")

	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}

	return rest
}

func securePath(dst, name string) (string, error) {
	path := filepath.Join(dst, filepath.FromSlash(name))

	if !strings.HasPrefix(path, filepath.Clean(dst)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", errTarPathEscapes, name)
	}

	return path, nil
}
