// Package acquire resolves a flash archive argument — a local path or an
// HTTP(S) URL — down to a local file path that internal/archive can open.
// Zip's central directory requires random access, so a remote archive is
// downloaded to a temporary file rather than streamed in place (the same
// constraint the teacher's URL source hit and refused to paper over).
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

var httpClient = &http.Client{
	Timeout: 0,
	Transport: &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
	},
}

// IsURL returns true if path looks like an HTTP/HTTPS URL.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Resolve returns a local file path for pathOrURL. For a plain path it
// returns the path unchanged and a no-op cleanup. For a URL it downloads
// the archive to a temporary file and returns a cleanup that removes it.
func Resolve(ctx context.Context, pathOrURL string) (localPath string, cleanup func(), err error) {
	if !IsURL(pathOrURL) {
		if _, err := os.Stat(pathOrURL); err != nil {
			return "", nil, fmt.Errorf("acquire: %w", err)
		}
		return pathOrURL, func() {}, nil
	}

	parsed, err := url.Parse(pathOrURL)
	if err != nil {
		return "", nil, fmt.Errorf("acquire: invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", nil, fmt.Errorf("acquire: unsupported URL scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("acquire: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("acquire: fetch %s: %w", pathOrURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("acquire: server returned %s for %s", resp.Status, pathOrURL)
	}

	tmp, err := os.CreateTemp("", "fbflash-archive-*.zip")
	if err != nil {
		return "", nil, fmt.Errorf("acquire: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("acquire: download %s: %w", pathOrURL, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("acquire: %w", err)
	}

	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}
