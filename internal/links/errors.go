package links

import "errors"

var (
	// ErrUnsupportedLinkForm is returned by Resolve for hrefs that are
	// already absolute or are relative to the page path rather than the host.
	ErrUnsupportedLinkForm = errors.New("unsupported link form")

	// ErrInvalidPageURL is returned by OriginOf when the page URL has no
	// http(s) scheme or no host.
	ErrInvalidPageURL = errors.New("invalid page URL")

	// ErrUnknownPolicy is returned by ParsePolicy for unrecognized names.
	ErrUnknownPolicy = errors.New("unknown unsupported-link policy: expected abort or skip")
)
