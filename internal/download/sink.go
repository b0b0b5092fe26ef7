package download

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilenameFromURL returns the text after the last "/" of link.
// The result is not unescaped, so "/a%20b.png" is saved as "a%20b.png".
func FilenameFromURL(link string) string {
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}

// SaveResult describes a file written by a FileSink.
type SaveResult struct {
	// Path is the final location of the file.
	Path string

	// Bytes is the number of bytes written.
	Bytes int64

	// Digest is the hex encoded SHA-256 of the content.
	Digest string
}

// FileSink writes resource bodies into a directory.
//
// Design decision: Content goes to a temporary file in the target directory
// and is renamed over the final name. A reader never sees a half-written
// file, and an existing file of the same name is replaced in one step.
type FileSink struct {
	// perm is applied to every written file.
	perm os.FileMode
}

// SinkOption configures a FileSink.
type SinkOption func(*FileSink)

// WithFileMode sets the permission bits of written files.
func WithFileMode(perm os.FileMode) SinkOption {
	return func(s *FileSink) {
		s.perm = perm
	}
}

// NewFileSink creates a FileSink writing files with mode 0644.
func NewFileSink(opts ...SinkOption) *FileSink {
	s := &FileSink{perm: 0o644}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes data to dir/filename, silently replacing an existing file.
// On error no file named filename is left behind by this call.
func (s *FileSink) Save(data []byte, dir, filename string) (SaveResult, error) {
	if filename == "" {
		return SaveResult{}, ErrEmptyFilename
	}
	if filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return SaveResult{}, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	target := filepath.Join(dir, filename)

	tmp, err := os.CreateTemp(dir, "."+filename+".*.part")
	if err != nil {
		return SaveResult{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName) //nolint:errcheck // best effort cleanup
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return SaveResult{}, fmt.Errorf("write %s: %w", filename, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error takes precedence
		return SaveResult{}, fmt.Errorf("sync %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		return SaveResult{}, fmt.Errorf("close %s: %w", filename, err)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		return SaveResult{}, fmt.Errorf("chmod %s: %w", filename, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return SaveResult{}, fmt.Errorf("rename %s: %w", filename, err)
	}

	sum := sha256.Sum256(data)
	return SaveResult{
		Path:   target,
		Bytes:  int64(len(data)),
		Digest: hex.EncodeToString(sum[:]),
	}, nil
}
