package transport

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address is not
	// in "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrProxyNotSOCKS5 is returned when the proxy answers but does not
	// speak SOCKS5 without authentication.
	ErrProxyNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy
	// could be established.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrProxyTimeout is returned when the proxy check timed out.
	ErrProxyTimeout = errors.New("timeout connecting to proxy")

	// ErrOnionWithoutProxy is returned for a .onion page when neither a
	// proxy nor embedded Tor is configured.
	ErrOnionWithoutProxy = errors.New(".onion hosts require --proxy or --tor")

	// ErrInvalidOnionAddress is returned for a .onion host that is not a
	// valid v3 address.
	ErrInvalidOnionAddress = errors.New("invalid v3 onion address")

	// ErrTorNotRunning is returned when a client is requested from an
	// embedded Tor daemon that has not been started.
	ErrTorNotRunning = errors.New("embedded Tor daemon is not running")
)

// ProxyStatus is the result of probing a proxy address.
type ProxyStatus int

const (
	// ProxyStatusOK indicates a working SOCKS5 proxy.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType indicates something answered that is not SOCKS5.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect indicates the TCP connection failed.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the probe timed out.
	ProxyStatusTimeout
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not SOCKS5)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the error for this status, or nil if OK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotSOCKS5
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}
