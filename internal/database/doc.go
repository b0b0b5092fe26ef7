// Package database provides SQLite-based storage for download history.
//
// HistoryDB stores one row per run and one row per download outcome, plus
// the full run report as JSON so that a past run can be rendered again
// with any report writer.
//
// Design decision: We use SQLite via modernc.org/sqlite, which is CGO-free
// and keeps the history in a single file under the XDG data directory.
package database
