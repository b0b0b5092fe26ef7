// Package transport builds the single *http.Client shared by every request
// of a run.
//
// A client either dials directly or routes through a SOCKS5 proxy using
// golang.org/x/net/proxy. The proxy can be an external one (for example a
// local Tor daemon on 127.0.0.1:9050) or an embedded Tor daemon started
// through tornago. Pages on .onion hosts are only reachable through a
// proxy, and their addresses are checked against the v3 checksum before
// any request is made.
package transport
