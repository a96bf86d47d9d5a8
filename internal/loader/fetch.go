package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
)

// ErrTooLarge is returned when a source exceeds the configured size limit
var ErrTooLarge = errors.New("dataset exceeds size limit")

// IsTimeout reports whether err comes from an expired deadline, either of a
// context or of the HTTP client
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Fetcher retrieves the text of a dataset
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches datasets over HTTP. Gzip payloads are decompressed.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher returns a fetcher with the given request timeout and size
// limit. maxBytes <= 0 disables the limit.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch downloads url and returns its body as text
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return "", err
	}

	// .csv.gz files arrive compressed without a Content-Encoding header
	if IsGzip(data) {
		return Decompress(data, f.maxBytes)
	}
	return string(data), nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

var gzipMagic = []byte{0x1f, 0x8b}

// Decompress inflates gzip data, enforcing maxBytes on the output
func Decompress(data []byte, maxBytes int64) (string, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to initialize gzip reader: %w", err)
	}
	defer zr.Close()

	out, err := readLimited(zr, maxBytes)
	if err != nil {
		return "", fmt.Errorf("failed to decompress: %w", err)
	}
	return string(out), nil
}

// IsGzip reports whether data starts with a gzip header
func IsGzip(data []byte) bool { return bytes.HasPrefix(data, gzipMagic) }
