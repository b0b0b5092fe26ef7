package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "history.db"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB records finished runs in SQLite.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run with --history first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		web_url TEXT NOT NULL,
		origin TEXT,
		download_dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		found INTEGER NOT NULL DEFAULT 0,
		attempted INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_web_url ON runs(web_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per resolved link, in link order
	CREATE TABLE IF NOT EXISTS outcomes (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		filename TEXT,
		status TEXT NOT NULL,
		kind TEXT,
		status_code INTEGER,
		path TEXT,
		bytes INTEGER,
		digest TEXT,
		reason TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_outcomes_url ON outcomes(url);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a finished run and its outcomes in one transaction.
// Saving the same run ID twice replaces the earlier rows.
func (h *HistoryDB) SaveRun(ctx context.Context, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE run_id = ?`, report.ID); err != nil {
		return fmt.Errorf("failed to clear outcomes: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO runs (
		id, web_url, origin, download_dir, started_at, finished_at,
		found, attempted, succeeded, failed, cancelled, error, report_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.WebURL,
		report.Origin,
		report.DownloadDir,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.Summary.Found,
		report.Summary.Attempted,
		report.Summary.Succeeded,
		report.Summary.Failed,
		report.Cancelled,
		report.ErrorMessage,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO outcomes (run_id, position, url, filename, status, kind, status_code, path, bytes, digest, reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range report.Outcomes {
		_, err := stmt.ExecContext(ctx,
			report.ID, i, o.URL, o.Filename, string(o.Status), string(o.Kind),
			o.StatusCode, o.Path, o.Bytes, o.Digest, o.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to save outcome %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RunMetadata summarizes a stored run without loading its report.
type RunMetadata struct {
	ID          string           `json:"id"`
	WebURL      string           `json:"web_url"`
	DownloadDir string           `json:"download_dir"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	Summary     model.RunSummary `json:"summary"`
	Cancelled   bool             `json:"cancelled"`
	Error       string           `json:"error,omitempty"`
}

// ListRuns returns stored runs, newest first. A non-empty webURL restricts
// the result to that page; limit <= 0 means no limit.
func (h *HistoryDB) ListRuns(ctx context.Context, webURL string, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, web_url, download_dir, started_at, finished_at,
		found, attempted, succeeded, failed, cancelled, error
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0)

	if webURL != "" {
		query += " AND web_url = ?"
		args = append(args, webURL)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunMetadata, 0)
	for rows.Next() {
		var meta RunMetadata
		var started string
		var finished, errText sql.NullString

		err := rows.Scan(
			&meta.ID,
			&meta.WebURL,
			&meta.DownloadDir,
			&started,
			&finished,
			&meta.Summary.Found,
			&meta.Summary.Attempted,
			&meta.Summary.Succeeded,
			&meta.Summary.Failed,
			&meta.Cancelled,
			&errText,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.StartedAt = parseTimestamp(started)
		meta.FinishedAt = parseTimestamp(finished.String)
		meta.Error = errText.String
		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetRun returns the stored report of a run, or ErrRunNotFound.
func (h *HistoryDB) GetRun(ctx context.Context, id string) (*model.RunReport, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// DeleteRun removes a run and its outcomes. Deleting an unknown ID returns
// ErrRunNotFound.
func (h *HistoryDB) DeleteRun(ctx context.Context, id string) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM outcomes WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete outcomes: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}

// timestampLayout is the stored form of every timestamp. It sorts
// lexically in time order because values are always UTC.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
