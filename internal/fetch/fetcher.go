// Package fetch performs single HTTP GET requests for the page being
// scanned and for each resource found on it.
//
// A Fetcher never retries. Success is a status in [200,300); every other
// result is an error matching ErrAbsent, either a *StatusError or a
// *TransportError.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/net/html/charset"
)

// DefaultMaxBodySize limits how much of a response body is read.
const DefaultMaxBodySize = 64 * 1024 * 1024 // 64MB

// Fetcher issues GET requests through a shared HTTP client.
//
// Design decision: The client is injected rather than created per call so
// that one connection pool serves the page fetch and every resource fetch
// of a run.
type Fetcher struct {
	// client performs the requests; it owns redirects, timeouts and pooling.
	client *http.Client

	// userAgent is sent with every request when non-empty.
	userAgent string

	// maxBodySize is the largest body accepted, in bytes.
	maxBodySize int64

	// logger receives debug output for each request.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum accepted body size.
// Values <= 0 keep the default.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher using client. A nil client uses http.DefaultClient.
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Bytes fetches url and returns the raw body.
func (f *Fetcher) Bytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // body already read
	}()

	return f.readBody(url, resp.Body)
}

// Text fetches url and returns the body decoded to UTF-8 according to the
// response's Content-Type charset, falling back to sniffing the content.
func (f *Fetcher) Text(ctx context.Context, url string) (string, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // body already read
	}()

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset label: hand back the bytes undecoded.
		f.logger.Debug("charset detection failed", "url", url, "error", err)
		r = resp.Body
	}

	body, err := f.readBody(url, r)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// get performs the request and checks the status. On success the caller
// must close the response body.
func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("request failed", "url", url, "error", err)
		return nil, &TransportError{URL: url, Err: err}
	}

	f.logger.Debug("response received",
		"url", url,
		"status", resp.StatusCode,
		"contentType", resp.Header.Get("Content-Type"),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		_ = resp.Body.Close() //nolint:errcheck // status error takes precedence
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// readBody reads at most maxBodySize bytes and fails if more remain.
func (f *Fetcher) readBody(url string, r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBodySize+1))
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, &TransportError{URL: url, Err: ErrBodyTooLarge}
	}
	return body, nil
}
