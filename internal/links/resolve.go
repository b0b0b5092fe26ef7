package links

import (
	"fmt"
	"net/url"
	"strings"
)

// Origin is the scheme and host (including any port) of the scanned page.
type Origin struct {
	Scheme string
	Host   string
}

// OriginOf derives the Origin of an absolute http(s) page URL.
func OriginOf(pageURL string) (Origin, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Origin{}, fmt.Errorf("%w: %w", ErrInvalidPageURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Origin{}, fmt.Errorf("%w: scheme %q is not http or https", ErrInvalidPageURL, u.Scheme)
	}
	if u.Host == "" {
		return Origin{}, fmt.Errorf("%w: missing host", ErrInvalidPageURL)
	}
	return Origin{Scheme: scheme, Host: u.Host}, nil
}

// String returns "scheme://host".
func (o Origin) String() string {
	return o.Scheme + "://" + o.Host
}

// Hostname returns the host without any port.
func (o Origin) Hostname() string {
	u := url.URL{Host: o.Host}
	return u.Hostname()
}

// Resolve joins a host-relative href onto the origin.
//
// The result is exactly origin.Scheme + "://" + origin.Host + href. No
// normalization is applied: ".." segments are kept and percent-escapes are
// not decoded.
//
// Hrefs that start with "http://", "https://" or "." and hrefs that do not
// start with "/" fail with ErrUnsupportedLinkForm, as does any joined
// result that does not parse back into a URL with a host.
func Resolve(origin Origin, href string) (string, error) {
	switch {
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return "", unsupported(href, "already absolute")
	case strings.HasPrefix(href, "."):
		return "", unsupported(href, "relative to the page path")
	case !strings.HasPrefix(href, "/"):
		return "", unsupported(href, "not host-relative")
	}

	resolved := origin.Scheme + "://" + origin.Host + href

	u, err := url.Parse(resolved)
	if err != nil {
		return "", unsupported(href, err.Error())
	}
	if u.Scheme == "" || u.Host == "" {
		return "", unsupported(href, "resolved URL has no host")
	}

	return resolved, nil
}

func unsupported(href, reason string) error {
	return fmt.Errorf("%w: %q (%s)", ErrUnsupportedLinkForm, href, reason)
}
