package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts and mermaid charts without
// hand-escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFailures(md, report)
	w.writeSkipped(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Image Download Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Page", "`" + report.WebURL + "`"},
			{"Directory", "`" + report.DownloadDir + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().String()},
			{"Status", w.statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on report state.
func (w *MarkdownWriter) statusText(report *model.RunReport) string {
	if report.Cancelled {
		return "⚠️ Cancelled (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the count table, a chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	s := report.Summary

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Candidates", strconv.Itoa(report.CandidateCount)},
			{"Found", strconv.Itoa(s.Found)},
			{"Attempted", strconv.Itoa(s.Attempted)},
			{"🟢 Succeeded", strconv.Itoa(s.Succeeded)},
			{"🔴 Failed", strconv.Itoa(s.Failed)},
		},
	})
	md.PlainText("")

	if s.Attempted > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Download Outcomes"),
			piechart.WithShowData(true),
		)
		if s.Succeeded > 0 {
			chart.LabelAndIntValue("Succeeded", uint64(s.Succeeded))
		}
		if s.Failed > 0 {
			chart.LabelAndIntValue("Failed", uint64(s.Failed))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case report.ErrorMessage != "" && !report.Cancelled:
		md.Cautionf("The run stopped early: %s", report.ErrorMessage)
	case s.Attempted > 0 && s.Failed == s.Attempted:
		md.Cautionf("All %d downloads failed.", s.Failed)
	case s.Failed > 0:
		md.Warningf("%d of %d downloads failed.", s.Failed, s.Attempted)
	case s.Found == 0:
		md.Note("No matching images were found on the page.")
	default:
		md.Tip("Every image was downloaded.")
	}
	md.PlainText("")
}

// writeFailures writes one table row per failed outcome.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	failed := report.Failures()
	if len(failed) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, len(failed))
	for i, o := range failed {
		status := "-"
		if o.StatusCode != 0 {
			status = strconv.Itoa(o.StatusCode)
		}
		rows[i] = []string{
			"`" + o.URL + "`",
			string(o.Kind),
			status,
			truncateString(o.Reason, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Status", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSkipped lists hrefs skipped as unsupported.
func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Skipped) == 0 {
		return
	}

	md.H2("Skipped Links")
	md.PlainText("")
	items := make([]string, len(report.Skipped))
	for i, sk := range report.Skipped {
		items[i] = "`" + sk.Href + "`"
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFindings writes metadata findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Findings) == 0 {
		return
	}

	md.H2("Metadata Findings")
	md.PlainText("")

	headers := map[model.Severity]string{
		model.SeverityCritical: "### 🔴 Critical",
		model.SeverityHigh:     "### 🟠 High",
		model.SeverityMedium:   "### 🟡 Medium",
		model.SeverityLow:      "### 🔵 Low",
		model.SeverityInfo:     "### ⚪ Info",
	}
	for _, severity := range model.Severities {
		findings := report.FindingsBySeverity(severity)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(headers[severity])
		md.PlainText("")

		rows := make([][]string, len(findings))
		for i, f := range findings {
			rows[i] = []string{f.Title, truncateString(f.Value, 50), truncateString(f.File, 40)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Title", "Value", "File"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by url-image-downloader*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
