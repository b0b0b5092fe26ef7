package report

import (
	"io"

	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// Writer defines the interface for report output.
// Implementations write run results in various formats.
//
// Design decision: We use an interface so the CLI can pick a format once
// and write to a file or stdout with the same call.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Format names an output format.
type Format string

const (
	// FormatText is the human-readable report.
	FormatText Format = "text"

	// FormatJSON is the machine-readable report.
	FormatJSON Format = "json"

	// FormatMarkdown is the shareable report.
	FormatMarkdown Format = "markdown"
)

// New returns the writer for format. Unknown formats fall back to text.
func New(output io.Writer, format Format, version string) Writer {
	switch format {
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText returns a one-line description of how the run ended.
func statusText(report *model.RunReport) string {
	switch {
	case report.Cancelled:
		return "CANCELLED (partial results)"
	case report.ErrorMessage != "":
		return "ERROR - " + report.ErrorMessage
	default:
		return "Complete"
	}
}
