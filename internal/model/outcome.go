package model

// OutcomeStatus is the terminal state of one retrieval task.
type OutcomeStatus string

const (
	// OutcomeSaved means the resource was fetched and written to disk.
	OutcomeSaved OutcomeStatus = "saved"

	// OutcomeFailed means the task settled without writing a file.
	OutcomeFailed OutcomeStatus = "failed"
)

// FailureKind distinguishes HTTP-level from I/O-level failures so that a
// failed outcome can be diagnosed without parsing its reason string.
type FailureKind string

const (
	// FailureHTTPStatus means the server answered with a non-2xx status.
	FailureHTTPStatus FailureKind = "http_status"

	// FailureTransport means no usable response was received
	// (DNS, connection, TLS, timeout, cancellation, oversized body).
	FailureTransport FailureKind = "transport"

	// FailureDirectory means the target directory could not be created.
	FailureDirectory FailureKind = "directory"

	// FailureWrite means the file could not be written.
	FailureWrite FailureKind = "write"
)

// FailureKinds lists every failure kind in display order.
var FailureKinds = []FailureKind{
	FailureHTTPStatus,
	FailureTransport,
	FailureDirectory,
	FailureWrite,
}

// Outcome is the result of retrieving one resolved link.
// Exactly one of the saved fields (Path, Bytes, Digest) or the failed
// fields (Kind, StatusCode, Reason) is meaningful, selected by Status.
type Outcome struct {
	// URL is the resolved link the task was created for.
	URL string `json:"url"`

	// Filename is the final path segment of URL.
	Filename string `json:"filename"`

	// Status is the terminal state of the task.
	Status OutcomeStatus `json:"status"`

	// Path is the location of the written file.
	Path string `json:"path,omitempty"`

	// Bytes is the number of bytes written.
	Bytes int64 `json:"bytes,omitempty"`

	// Digest is the hex encoded SHA-256 of the written content.
	Digest string `json:"digest,omitempty"`

	// Kind classifies a failure.
	Kind FailureKind `json:"kind,omitempty"`

	// StatusCode is the HTTP status for FailureHTTPStatus outcomes.
	StatusCode int `json:"status_code,omitempty"`

	// Reason is a human readable description of the failure.
	Reason string `json:"reason,omitempty"`
}

// Saved builds a successful outcome.
func Saved(url, filename, path string, n int64, digest string) Outcome {
	return Outcome{
		URL:      url,
		Filename: filename,
		Status:   OutcomeSaved,
		Path:     path,
		Bytes:    n,
		Digest:   digest,
	}
}

// Failed builds a failed outcome from an error.
// A nil error yields an empty reason.
func Failed(url, filename string, kind FailureKind, statusCode int, err error) Outcome {
	o := Outcome{
		URL:        url,
		Filename:   filename,
		Status:     OutcomeFailed,
		Kind:       kind,
		StatusCode: statusCode,
	}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

// OK reports whether the outcome is a saved file.
func (o Outcome) OK() bool {
	return o.Status == OutcomeSaved
}

// RunSummary holds aggregate counts for a run.
// It is only computed after every scheduled task has settled.
type RunSummary struct {
	// Found is the number of resolved links discovered on the page.
	Found int `json:"found"`

	// Attempted is the number of retrieval tasks created.
	Attempted int `json:"attempted"`

	// Succeeded is the number of saved outcomes.
	Succeeded int `json:"succeeded"`

	// Failed is the number of failed outcomes.
	Failed int `json:"failed"`
}

// Summarize counts outcomes. found is passed separately because links can
// be found without being attempted when the run is cut short.
func Summarize(found int, outcomes []Outcome) RunSummary {
	s := RunSummary{
		Found:     found,
		Attempted: len(outcomes),
	}
	for _, o := range outcomes {
		if o.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// FailuresByKind groups failed outcomes by their kind.
func FailuresByKind(outcomes []Outcome) map[FailureKind][]Outcome {
	groups := make(map[FailureKind][]Outcome)
	for _, o := range outcomes {
		if o.OK() {
			continue
		}
		groups[o.Kind] = append(groups[o.Kind], o)
	}
	return groups
}
