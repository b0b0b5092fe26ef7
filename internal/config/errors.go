package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoWebURL is returned when no page URL was given.
	ErrNoWebURL = errors.New("no web url specified: use --web_url")

	// ErrNoDownloadDir is returned when no download directory was given.
	ErrNoDownloadDir = errors.New("no download directory specified: use --download_directory")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidUnsupportedLinks is returned for a policy other than abort or skip.
	ErrInvalidUnsupportedLinks = errors.New("invalid unsupported link policy: must be abort or skip")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingProxy is returned when both --proxy and --tor are set.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --proxy and --tor cannot be used together")

	// ErrNoDBDir is returned when history is enabled without a database directory.
	ErrNoDBDir = errors.New("history enabled but no database directory configured")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
