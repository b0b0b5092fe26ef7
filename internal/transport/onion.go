package transport

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// OnionSuffix is the top-level domain of onion services.
const OnionSuffix = ".onion"

// onionV3Version is the trailing version byte of a v3 address.
const onionV3Version = 0x03

// onionV3Pattern matches 56 base32 characters followed by .onion.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// checksumPrefix is prepended to the key when computing the checksum.
var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether hostname is in the .onion domain.
// A port must already be stripped.
func IsOnionHost(hostname string) bool {
	return strings.HasSuffix(strings.ToLower(hostname), OnionSuffix)
}

// IsValidOnionV3 checks format, version and checksum of a v3 onion address.
// Subdomains such as "www.<56 chars>.onion" are accepted.
func IsValidOnionV3(hostname string) bool {
	hostname = strings.ToLower(hostname)
	if i := strings.LastIndex(strings.TrimSuffix(hostname, OnionSuffix), "."); i >= 0 {
		hostname = hostname[i+1:]
	}
	if !onionV3Pattern.MatchString(hostname) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(hostname, OnionSuffix)))
	if err != nil || len(decoded) != 35 {
		return false
	}

	// 32 byte ed25519 key, 2 byte checksum, 1 byte version.
	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return false
	}

	want := onionChecksum(pubkey, version)
	return checksum[0] == want[0] && checksum[1] == want[1]
}

// onionChecksum is SHA3-256(".onion checksum" || pubkey || version)[:2].
func onionChecksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)
	return sum[:2]
}

// CheckOnionHost validates that a request to hostname can be made with the
// given client setup. Non-onion hosts always pass.
func CheckOnionHost(hostname string, proxied bool) error {
	if !IsOnionHost(hostname) {
		return nil
	}
	if !IsValidOnionV3(hostname) {
		return ErrInvalidOnionAddress
	}
	if !proxied {
		return ErrOnionWithoutProxy
	}
	return nil
}
