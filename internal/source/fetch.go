// Package source retrieves tabular sources over HTTP(S) or from disk and
// decodes them into dataset tables.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const userAgent = "tally-cli (+https://github.com/KaramelBytes/tally-cli)"

// Fetcher opens source locations. It performs a single attempt per call.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

// NewFetcher returns a fetcher with the given HTTP timeout and size cap.
// Non-positive values fall back to 60s and 32 MiB.
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Fetcher{httpClient: &http.Client{Timeout: timeout}, maxBytes: maxBytes}
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(strings.TrimSpace(location))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// BaseName returns the last path element of a URL or file path.
func BaseName(location string) string {
	if IsRemote(location) {
		if u, err := url.Parse(location); err == nil {
			if b := path.Base(u.Path); b != "/" && b != "." {
				return b
			}
			return u.Host
		}
	}
	return filepath.Base(location)
}

// Read returns the full body at location, bounded by the fetcher's size cap.
// Errors are *FetchError.
func (f *Fetcher) Read(ctx context.Context, location string) ([]byte, error) {
	rc, err := f.open(ctx, location)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{Location: location, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(b)) > f.maxBytes {
		return nil, &FetchError{Location: location, Err: fmt.Errorf("source larger than %s limit", humanize.IBytes(uint64(f.maxBytes)))}
	}
	return b, nil
}

func (f *Fetcher) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if location == "" {
		return nil, fmt.Errorf("empty source location")
	}
	if !IsRemote(location) {
		fh, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		return fh, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv, text/plain, application/octet-stream;q=0.9, */*;q=0.5")
	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnreachableError{Host: req.URL.Host, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}
	return resp.Body, nil
}
