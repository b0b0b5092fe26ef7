package report

import (
	"encoding/json"
	"io"

	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.RunReport) (int, error) {
	return w.writeJSON(report)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps a run report with the version that produced it.
type JSONReport struct {
	// Version is the program version that generated this report.
	Version string `json:"version"`

	// Report is the full run report.
	Report *model.RunReport `json:"report"`

	// FailuresByKind counts failed outcomes per kind.
	FailuresByKind map[model.FailureKind]int `json:"failures_by_kind,omitempty"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(report *model.RunReport, version string) *JSONReport {
	var counts map[model.FailureKind]int
	for kind, failed := range model.FailuresByKind(report.Outcomes) {
		if counts == nil {
			counts = make(map[model.FailureKind]int)
		}
		counts[kind] = len(failed)
	}
	return &JSONReport{
		Version:        version,
		Report:         report,
		FailuresByKind: counts,
	}
}

// FullJSONWriter outputs complete reports with metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the program version string.
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the full report wrapped with metadata.
func (w *FullJSONWriter) Write(report *model.RunReport) (int, error) {
	return w.writeJSON(NewJSONReport(report, w.version))
}
