package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultTorStartupTimeout is how long to wait for Tor to bootstrap.
const DefaultTorStartupTimeout = 3 * time.Minute

// EmbeddedTor manages a Tor daemon launched through tornago.
//
// Note: Bootstrapping takes from several seconds up to a few minutes while
// Tor fetches directory information and builds its first circuits.
type EmbeddedTor struct {
	process        *tornago.TorProcess
	socksAddr      string
	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor instance.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// NewEmbeddedTor creates a manager. Call Start to launch the daemon.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{startupTimeout: DefaultTorStartupTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the daemon on OS-assigned ports and blocks until it has
// bootstrapped or the startup timeout elapses.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	// StartTorDaemon does not take a context.
	if ctx.Err() != nil {
		_ = process.Stop() //nolint:errcheck // best effort cleanup
		return ctx.Err()
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	return nil
}

// Stop shuts the daemon down. It is safe to call on an unstarted instance
// and more than once.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	return err
}

// SocksAddr returns the SOCKS5 address, or "" when not running.
func (e *EmbeddedTor) SocksAddr() string {
	return e.socksAddr
}

// IsRunning reports whether the daemon has been started and not stopped.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// HTTPClient builds a client routed through the running daemon. Any
// ProxyAddress in opts is replaced.
func (e *EmbeddedTor) HTTPClient(opts Options) (*http.Client, error) {
	if !e.IsRunning() {
		return nil, ErrTorNotRunning
	}
	opts.ProxyAddress = e.socksAddr
	return NewHTTPClient(opts)
}
