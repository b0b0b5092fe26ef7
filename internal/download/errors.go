package download

import "errors"

var (
	// ErrEmptyFilename is returned when a link has nothing after its last "/".
	ErrEmptyFilename = errors.New("link has no filename")

	// ErrInvalidFilename is returned for names that would escape the
	// target directory, such as "..".
	ErrInvalidFilename = errors.New("invalid filename")
)
