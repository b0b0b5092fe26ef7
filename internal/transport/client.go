package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout bounds a whole request including reading the body.
const DefaultTimeout = 60 * time.Second

// maxRedirects matches net/http's default policy.
const maxRedirects = 10

// Options describes the client to build.
type Options struct {
	// ProxyAddress routes every connection through a SOCKS5 proxy when
	// non-empty. Format is "host:port".
	ProxyAddress string

	// Timeout is the per-request timeout. Zero uses DefaultTimeout.
	Timeout time.Duration

	// Headers are set on requests to HeaderHost only. A redirect to any
	// other host is sent without them.
	Headers map[string]string

	// HeaderHost is the host, with port if any, that Headers belong to.
	// Empty disables Headers.
	HeaderHost string
}

// Proxied reports whether the options route through a proxy.
func (o Options) Proxied() bool {
	return o.ProxyAddress != ""
}

// NewHTTPClient creates the HTTP client described by opts.
//
// Design decision: Direct clients clone http.DefaultTransport so they keep
// the environment proxy settings, HTTP/2 and the default pool sizes. A
// SOCKS5 client replaces only the dialer and turns off Proxy, since the
// environment proxy must not be layered on top of an explicit one.
func NewHTTPClient(opts Options) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected default transport %T", http.DefaultTransport)
	}
	tr := base.Clone()

	if opts.Proxied() {
		if !isValidProxyAddress(opts.ProxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", opts.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		tr.Proxy = nil
		tr.DialContext = contextDialer(dialer)
	}

	var rt http.RoundTripper = tr
	if len(opts.Headers) > 0 && opts.HeaderHost != "" {
		rt = &headerInjectingTransport{base: tr, host: opts.HeaderHost, headers: opts.Headers}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}, nil
}

// contextDialer adapts a proxy.Dialer to http.Transport.DialContext.
// The SOCKS5 dialer from x/net implements proxy.ContextDialer; other
// dialers fall back to a goroutine that honors cancellation.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		ch := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			ch <- dialResult{conn, err}
		}()
		select {
		case r := <-ch:
			return r.conn, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// isValidProxyAddress checks for "host:port" with a port in 1..65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// headerInjectingTransport sets fixed headers on requests to one host.
type headerInjectingTransport struct {
	base    http.RoundTripper
	host    string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper. Requests to other hosts, such as
// a redirect to a CDN, pass through unchanged.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !strings.EqualFold(req.URL.Host, t.host) {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		// The fetcher's User-Agent wins over a configured one.
		if http.CanonicalHeaderKey(key) == "User-Agent" && clone.Header.Get("User-Agent") != "" {
			continue
		}
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
