package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ErrFetch is returned when the raw text of a source cannot be read
var ErrFetch = errors.New("failed to fetch source")

// maxSourceSize caps the bytes read from a source, the grid is meant for small datasets
const maxSourceSize = 64 << 20

// Source locates the delimited text of a dataset: a local path or an http(s) URL
type Source struct {
	URI    string
	Client *http.Client
}

// IsRemote reports whether the source is fetched over HTTP
func (s Source) IsRemote() bool {
	return strings.HasPrefix(s.URI, "http://") || strings.HasPrefix(s.URI, "https://")
}

// Read returns the whole text of the source
func (s Source) Read(ctx context.Context) (string, error) {
	if s.URI == "" {
		return "", fmt.Errorf("%w: empty URI", ErrFetch)
	}
	if s.IsRemote() {
		return s.readHTTP(ctx)
	}
	return s.readFile(ctx)
}

func (s Source) readFile(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := strings.TrimPrefix(s.URI, "file://")
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxSourceSize))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return string(data), nil
}

func (s Source) readHTTP(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URI, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d from %s", ErrFetch, resp.StatusCode, s.URI)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return string(data), nil
}
