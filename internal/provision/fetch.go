// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package provision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/aibor/efiboot/internal/pins"
)

const (
	fetchAttempts  = 3
	fetchBackoff   = 2 * time.Second
	fetchUserAgent = "efiboot"
)

// Fetcher downloads pinned blobs.
type Fetcher struct {
	// Client is the HTTP client to use. Defaults to [http.DefaultClient].
	Client *http.Client

	// Progress is the writer download progress is reported to. Defaults to
	// discarding progress output.
	Progress io.Writer

	// Backoff is the delay between fetch attempts. Defaults to
	// [fetchBackoff].
	Backoff time.Duration
}

func (f *Fetcher) backoff() time.Duration {
	if f.Backoff == 0 {
		return fetchBackoff
	}

	return f.Backoff
}

func (f *Fetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}

	return f.Client
}

func (f *Fetcher) progress() io.Writer {
	if f.Progress == nil {
		return io.Discard
	}

	return f.Progress
}

// FetchVerified downloads the pinned blob into dst.
//
// The SHA256 of the received bytes is computed while writing. On mismatch
// dst is removed and an [IntegrityError] is returned before any consumer can
// see the content. Transient transport errors are retried a fixed number of
// times; an HTTP error status and a hash mismatch are never retried, since
// the pinned URL is not supposed to change.
func (f *Fetcher) FetchVerified(
	ctx context.Context,
	blob pins.Blob,
	dst string,
) error {
	var lastErr error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err() //nolint:wrapcheck
			case <-time.After(f.backoff()):
			}
		}

		err := f.fetchOnce(ctx, blob, dst)
		if err == nil {
			return nil
		}

		// HTTP status and integrity errors are fatal, not transient.
		var integrityErr *IntegrityError
		if errors.As(err, &integrityErr) {
			return err
		}

		if errors.Is(err, ErrFetchFailed) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("fetch %s: %w", blob.URL, lastErr)
}

func (f *Fetcher) fetchOnce(
	ctx context.Context,
	blob pins.Blob,
	dst string,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, blob.URL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client().Do(req)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrFetchFailed, resp.Status)
	}

	file, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer file.Close()

	bar := progressbar.NewOptions64(
		resp.ContentLength,
		progressbar.OptionSetWriter(f.progress()),
		progressbar.OptionSetDescription("fetching "+blob.URL),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Close()

	hash := sha256.New()

	_, err = io.Copy(io.MultiWriter(file, hash, bar), resp.Body)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("download: %w", err)
	}

	actual := hex.EncodeToString(hash.Sum(nil))
	if actual != blob.SHA256 {
		_ = os.Remove(dst)

		return &IntegrityError{
			URL:      blob.URL,
			Expected: blob.SHA256,
			Actual:   actual,
		}
	}

	return nil
}
