package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"
)

// checkProxyTimeout bounds the whole probe.
const checkProxyTimeout = 2 * time.Second

// SOCKS5 protocol constants
const (
	socks5Version       = 0x05
	socks5AuthNone      = 0x00
	socks5CmdConnect    = 0x01
	socks5AddrTypeDomID = 0x03

	// socks5ProbeHost is a reserved name; the proxy only has to answer the
	// CONNECT request, not reach the host.
	socks5ProbeHost = "probe.invalid"
)

// CheckProxy verifies that address speaks SOCKS5 without authentication
// and answers a CONNECT request. Any reply code counts as working.
func CheckProxy(ctx context.Context, address string) ProxyStatus {
	if !isValidProxyAddress(address) {
		return ProxyStatusCannotConnect
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	// Greeting: version, one method, no auth.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		return readFailure(err)
	}
	if authResp[0] != socks5Version || authResp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	connectReq := []byte{
		socks5Version,
		socks5CmdConnect,
		0x00, // reserved
		socks5AddrTypeDomID,
		byte(len(socks5ProbeHost)),
	}
	connectReq = append(connectReq, socks5ProbeHost...)
	connectReq = append(connectReq, 0x00, 80)

	if _, err := conn.Write(connectReq); err != nil {
		return ProxyStatusCannotConnect
	}

	connectResp := make([]byte, 4)
	if _, err := io.ReadFull(conn, connectResp); err != nil {
		return readFailure(err)
	}
	if connectResp[0] != socks5Version {
		return ProxyStatusWrongType
	}

	return ProxyStatusOK
}

// readFailure maps a handshake read error to a status.
func readFailure(err error) ProxyStatus {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}
