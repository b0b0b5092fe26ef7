package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/saitejamalyala/url-image-downloader/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SimpleWriter outputs human-readable text reports.
//
// Design decision: We use plain text with ASCII rules rather than ANSI
// colors so the output can be piped to files unchanged.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose lists every saved file, not only failures.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeSkipped(&sb, report)
	w.writeFailures(&sb, report)
	w.writeSaved(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

func section(sb *strings.Builder, title string) {
	rule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	rule(sb, "-")
	sb.WriteString("\n")
}

// writeHeader writes the run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                       IMAGE DOWNLOAD REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Page:       %s\n", report.WebURL)
	fmt.Fprintf(sb, "Directory:  %s\n", report.DownloadDir)
	fmt.Fprintf(sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:   %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:     %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeSummary writes the counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	section(sb, "SUMMARY")

	s := report.Summary
	fmt.Fprintf(sb, "  Candidates: %d\n", report.CandidateCount)
	fmt.Fprintf(sb, "  Found:      %d\n", s.Found)
	fmt.Fprintf(sb, "  Attempted:  %d\n", s.Attempted)
	fmt.Fprintf(sb, "  Succeeded:  %d\n", s.Succeeded)
	fmt.Fprintf(sb, "  Failed:     %d\n", s.Failed)
	sb.WriteString("\n")
}

// writeSkipped lists hrefs skipped as unsupported.
func (w *SimpleWriter) writeSkipped(sb *strings.Builder, report *model.RunReport) {
	if len(report.Skipped) == 0 && !w.showEmpty {
		return
	}
	section(sb, "SKIPPED LINKS")

	if len(report.Skipped) == 0 {
		sb.WriteString("  No links skipped\n\n")
		return
	}
	for _, sk := range report.Skipped {
		fmt.Fprintf(sb, "  [-] %s\n", sk.Href)
	}
	sb.WriteString("\n")
}

// writeFailures writes failed outcomes grouped by kind.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.RunReport) {
	groups := model.FailuresByKind(report.Outcomes)
	if len(groups) == 0 && !w.showEmpty {
		return
	}
	section(sb, "FAILURES")

	title := cases.Title(language.English)
	for _, kind := range model.FailureKinds {
		failed := groups[kind]
		if len(failed) == 0 && !w.showEmpty {
			continue
		}

		heading := title.String(strings.ReplaceAll(string(kind), "_", " "))
		fmt.Fprintf(sb, "[!] %s (%d)\n", heading, len(failed))
		for _, o := range failed {
			fmt.Fprintf(sb, "  * %s\n", o.URL)
			if o.StatusCode != 0 {
				fmt.Fprintf(sb, "    Status: %d\n", o.StatusCode)
			}
			if w.verbose && o.Reason != "" {
				fmt.Fprintf(sb, "    Reason: %s\n", o.Reason)
			}
		}
		sb.WriteString("\n")
	}
}

// writeSaved lists saved files in verbose mode.
func (w *SimpleWriter) writeSaved(sb *strings.Builder, report *model.RunReport) {
	if !w.verbose || report.Summary.Succeeded == 0 {
		return
	}
	section(sb, "SAVED FILES")

	for _, o := range report.Outcomes {
		if !o.OK() {
			continue
		}
		fmt.Fprintf(sb, "  [+] %s (%d bytes)\n", o.Path, o.Bytes)
		fmt.Fprintf(sb, "      sha256: %s\n", o.Digest)
	}
	sb.WriteString("\n")
}

// writeFindings writes metadata findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.RunReport) {
	if len(report.Findings) == 0 && !w.showEmpty {
		return
	}
	section(sb, "METADATA FINDINGS")

	for _, severity := range model.Severities {
		findings := report.FindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(severity), severity.String())
		if len(findings) == 0 {
			sb.WriteString("  No findings\n\n")
			continue
		}
		for _, f := range findings {
			fmt.Fprintf(sb, "  * %s\n", f.Title)
			fmt.Fprintf(sb, "    Value: %s\n", f.Value)
			fmt.Fprintf(sb, "    File:  %s\n", f.File)
		}
		sb.WriteString("\n")
	}
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by url-image-downloader\n")
	rule(sb, "=")
}
