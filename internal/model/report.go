package model

import (
	"time"

	"github.com/google/uuid"
)

// RunReport is the main result structure of one pipeline run.
// Pipeline steps fill it in order: the page step sets Origin and the page
// body, the discover step sets Links, the download step sets Outcomes and
// Summary.
//
// Design decision: We use a single struct that every step mutates, the
// same shape the report writers and the history database consume.
type RunReport struct {
	// ID uniquely identifies the run in the history database.
	ID string `json:"id"`

	// WebURL is the page that was scanned, as given by the user.
	WebURL string `json:"web_url"`

	// DownloadDir is the directory files are written to.
	DownloadDir string `json:"download_dir"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last step returned.
	FinishedAt time.Time `json:"finished_at"`

	// Origin is "scheme://host[:port]" of the page once it was fetched.
	Origin string `json:"origin,omitempty"`

	// CandidateCount is the number of hrefs the extractor yielded.
	CandidateCount int `json:"candidate_count"`

	// Links are the resolved links, in document order, not deduplicated.
	Links []string `json:"links"`

	// Skipped lists hrefs that matched the filter but could not be resolved.
	// Only populated when unsupported links are skipped instead of aborting.
	Skipped []SkippedLink `json:"skipped,omitempty"`

	// Outcomes holds one entry per resolved link, in the order of Links.
	Outcomes []Outcome `json:"outcomes"`

	// Summary is computed after every download task has settled.
	Summary RunSummary `json:"summary"`

	// Findings are metadata observations on downloaded files.
	Findings []Finding `json:"findings,omitempty"`

	// Cancelled is true if the run was interrupted.
	Cancelled bool `json:"cancelled"`

	// Error is the error that aborted the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps records the names of the steps that ran.
	PerformedSteps []string `json:"performed_steps"`

	// PageBody is the decoded page text, shared between steps only.
	PageBody string `json:"-"`
}

// SkippedLink is a filtered href that the resolver rejected.
type SkippedLink struct {
	Href   string `json:"href"`
	Reason string `json:"reason"`
}

// NewRunReport creates a report for a run against webURL.
func NewRunReport(webURL, downloadDir string) *RunReport {
	return &RunReport{
		ID:             uuid.NewString(),
		WebURL:         webURL,
		DownloadDir:    downloadDir,
		StartedAt:      time.Now(),
		Links:          make([]string, 0),
		Outcomes:       make([]Outcome, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SetError records the error that aborted the run.
func (r *RunReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// AddFinding appends a metadata finding.
func (r *RunReport) AddFinding(f Finding) {
	if f.SeverityText == "" {
		f.SeverityText = f.Severity.String()
	}
	r.Findings = append(r.Findings, f)
}

// FindingsBySeverity returns the findings with the given severity.
func (r *RunReport) FindingsBySeverity(s Severity) []Finding {
	out := make([]Finding, 0)
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// Failures returns the failed outcomes in link order.
func (r *RunReport) Failures() []Outcome {
	out := make([]Outcome, 0)
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}
