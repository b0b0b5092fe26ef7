package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAbsent is matched by every error the Fetcher returns for a resource
	// it could not deliver, whether the server answered with a non-2xx
	// status or no response arrived at all.
	ErrAbsent = errors.New("resource absent")

	// ErrBodyTooLarge is returned when a response body exceeds the
	// configured maximum size.
	ErrBodyTooLarge = errors.New("response body exceeds maximum size")
)

// StatusError reports a response whose status is outside [200,300).
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is makes StatusError match ErrAbsent.
func (e *StatusError) Is(target error) bool {
	return target == ErrAbsent
}

// TransportError reports a request that produced no usable response:
// connection or DNS failure, timeout, cancellation, or an unreadable body.
type TransportError struct {
	URL string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes TransportError match ErrAbsent.
func (e *TransportError) Is(target error) bool {
	return target == ErrAbsent
}
