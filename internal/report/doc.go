// Package report renders a finished run.
//
// Three writers are provided:
//   - SimpleWriter: text for the terminal, failures grouped by kind
//   - JSONWriter / FullJSONWriter: the run report as JSON
//   - MarkdownWriter: tables and a mermaid chart for sharing
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
