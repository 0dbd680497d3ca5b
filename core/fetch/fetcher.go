// Package fetch implements the Fetcher interface.
// It downloads schedule documents (PDF or HTML) over HTTP with a size cap,
// so the CLI can extract from a URL under the same limit as an upload.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gaurav-prasanna/schedpdf/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "schedpdf/1.0 (https://github.com/gaurav-prasanna/schedpdf)"
	defaultMaxBytes  = 10 << 20
)

// ErrTooLarge is returned when a response body exceeds the fetcher's limit.
var ErrTooLarge = errors.New("document exceeds size limit")

// HTTPFetcher fetches documents via HTTP.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// New creates an HTTPFetcher that refuses bodies larger than maxBytes.
// maxBytes <= 0 selects 10 MiB.
func New(maxBytes int64) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: defaultTimeout},
		maxBytes: maxBytes,
	}
}

// Fetch retrieves the document at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/pdf,text/html;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("fetching %s: %w (%d > %d bytes)", url, ErrTooLarge, resp.ContentLength, f.maxBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetching %s: %w (more than %d bytes)", url, ErrTooLarge, f.maxBytes)
	}

	return &core.FetchResult{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
