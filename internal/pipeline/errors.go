package pipeline

import "errors"

// ErrPageUnreachable is returned by the page step when the page URL is
// malformed or the page could not be fetched with a 2xx status.
var ErrPageUnreachable = errors.New("page unreachable")
