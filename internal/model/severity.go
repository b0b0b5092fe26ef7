package model

// Severity represents how much a metadata finding reveals about the person
// or device that produced an image.
//
// Design decision: iota-based constants keep comparisons and sorting cheap;
// String() provides the display form.
type Severity int

const (
	// SeverityInfo indicates metadata with no identifying value.
	SeverityInfo Severity = iota

	// SeverityLow indicates metadata useful only for correlation
	// (software versions, timestamps).
	SeverityLow

	// SeverityMedium indicates device hints (camera make/model, host computer).
	SeverityMedium

	// SeverityHigh indicates unique identifiers (serial numbers, author names).
	SeverityHigh

	// SeverityCritical indicates location disclosure (GPS coordinates).
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Severities lists all severity levels from most to least severe.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// Finding is a metadata observation made on a downloaded file.
type Finding struct {
	// Type is a machine-readable identifier such as "exif_gps".
	Type string `json:"type"`

	// Title is a short human-readable summary.
	Title string `json:"title"`

	// Severity is the finding's risk level.
	Severity Severity `json:"severity"`

	// SeverityText mirrors Severity for JSON consumers.
	SeverityText string `json:"severity_text"`

	// Value is the tag and its formatted value.
	Value string `json:"value,omitempty"`

	// File is the local path of the inspected file.
	File string `json:"file"`

	// Source is the URL the file was downloaded from.
	Source string `json:"source,omitempty"`
}
