package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "url-image-downloader"

	// DefaultTimeout bounds each HTTP request including its body.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "url-image-downloader/1.0 (+https://github.com/saitejamalyala/url-image-downloader)"

	// DefaultMaxBodySize limits one response body. Larger bodies fail
	// instead of being truncated, so a saved file is never cut short.
	DefaultMaxBodySize = 64 * 1024 * 1024 // 64MB

	// DefaultUnsupportedLinks aborts the run on the first link that cannot
	// be resolved against the page origin.
	DefaultUnsupportedLinks = "abort"

	// DefaultTorStartupTimeout is the maximum time to wait for the
	// embedded Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds every option of a run. It is populated from CLI flags,
// then merged with the config file for the page's host.
//
// Design decision: A single flat struct keeps flag binding trivial. The
// per-host settings live in SiteConfigs and are resolved once the page URL
// is known.
type Config struct {
	// WebURL is the page to scan.
	WebURL string

	// DownloadDir receives the downloaded files.
	DownloadDir string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// MaxBodySize is the largest accepted response body in bytes.
	MaxBodySize int64

	// Extensions overrides the accepted href suffixes. Empty means the
	// built-in list (tif, tiff, jpg, png, svg).
	Extensions []string

	// UnsupportedLinks is "abort" or "skip".
	UnsupportedLinks string

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseEmbeddedTor starts a Tor daemon and routes through it.
	UseEmbeddedTor bool

	// TorStartupTimeout is the bootstrap timeout of the embedded daemon.
	TorStartupTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit config file. Empty means search.
	ConfigFilePath string

	// SiteConfigs holds the parsed config file, if one was found.
	SiteConfigs *File

	// JSONReport writes the run report as JSON.
	JSONReport bool

	// MarkdownReport writes the run report as Markdown.
	MarkdownReport bool

	// ReportFile is where the run report is written. Empty means no
	// report beyond the console messages.
	ReportFile string

	// SaveHistory records the run in the history database.
	SaveHistory bool

	// DBDir holds the history database. Defaults to the XDG data dir.
	DBDir string

	// InspectEXIF scans saved JPEG and TIFF files for metadata.
	InspectEXIF bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		UnsupportedLinks:  DefaultUnsupportedLinks,
		TorStartupTimeout: DefaultTorStartupTimeout,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/url-image-downloader.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/url-image-downloader.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.WebURL == "" {
		return ErrNoWebURL
	}
	if c.DownloadDir == "" {
		return ErrNoDownloadDir
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.UnsupportedLinks != "abort" && c.UnsupportedLinks != "skip" {
		return ErrInvalidUnsupportedLinks
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.ProxyAddress != "" && c.UseEmbeddedTor {
		return ErrConflictingProxy
	}
	if c.SaveHistory && c.DBDir == "" {
		return ErrNoDBDir
	}
	return nil
}

// ApplySite merges the config file settings for host into c. Values set
// explicitly on the command line are passed in explicit and win over the
// file.
func (c *Config) ApplySite(host string, explicit Explicit) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	site := c.SiteConfigs.GetSiteConfig(host)

	if !explicit.UserAgent && site.UserAgent != "" {
		c.UserAgent = site.UserAgent
	}
	if !explicit.Extensions && len(site.Extensions) > 0 {
		c.Extensions = site.Extensions
	}
	if !explicit.UnsupportedLinks && site.UnsupportedLinks != "" {
		c.UnsupportedLinks = site.UnsupportedLinks
	}
	return site
}

// Explicit records which overridable options were set by flags.
type Explicit struct {
	UserAgent        bool
	Extensions       bool
	UnsupportedLinks bool
}
