package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// DefaultMaxFileSize bounds how much of a single file is read.
const DefaultMaxFileSize = 64 * 1024 * 1024 // 64MB

// eligibleSuffixes are file name endings of formats that carry EXIF.
var eligibleSuffixes = []string{".jpg", ".jpeg", ".tif", ".tiff"}

// tagRule maps an EXIF tag to the finding it produces.
type tagRule struct {
	findingType string
	title       string
	severity    model.Severity
}

// tagRules lists the EXIF tags reported as findings.
var tagRules = map[string]tagRule{
	"GPSLatitude":        {"exif_gps", "GPS coordinates in image", model.SeverityCritical},
	"GPSLongitude":       {"exif_gps", "GPS coordinates in image", model.SeverityCritical},
	"GPSLatitudeRef":     {"exif_gps", "GPS coordinates in image", model.SeverityCritical},
	"GPSLongitudeRef":    {"exif_gps", "GPS coordinates in image", model.SeverityCritical},
	"SerialNumber":       {"exif_serial", "Device serial number in image", model.SeverityHigh},
	"CameraSerialNumber": {"exif_serial", "Device serial number in image", model.SeverityHigh},
	"BodySerialNumber":   {"exif_serial", "Device serial number in image", model.SeverityHigh},
	"LensSerialNumber":   {"exif_serial", "Device serial number in image", model.SeverityHigh},
	"Artist":             {"exif_author", "Author in image", model.SeverityHigh},
	"Copyright":          {"exif_author", "Copyright holder in image", model.SeverityHigh},
	"XPAuthor":           {"exif_author", "Author in image", model.SeverityHigh},
	"Make":               {"exif_camera", "Camera information in image", model.SeverityMedium},
	"Model":              {"exif_camera", "Camera information in image", model.SeverityMedium},
	"HostComputer":       {"exif_computer", "Host computer in image", model.SeverityMedium},
	"Software":           {"exif_software", "Software information in image", model.SeverityLow},
	"ProcessingSoftware": {"exif_software", "Software information in image", model.SeverityLow},
	"DateTimeOriginal":   {"exif_datetime", "Timestamp in image", model.SeverityLow},
	"DateTimeDigitized":  {"exif_datetime", "Timestamp in image", model.SeverityLow},
	"DateTime":           {"exif_datetime", "Timestamp in image", model.SeverityLow},
}

// Inspector extracts findings from image files on disk.
type Inspector struct {
	maxFileSize int64
	logger      *slog.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(i *Inspector) {
		if n > 0 {
			i.maxFileSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// NewInspector creates an Inspector.
func NewInspector(opts ...Option) *Inspector {
	i := &Inspector{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Eligible reports whether filename names a format that can carry EXIF.
func Eligible(filename string) bool {
	lower := strings.ToLower(filename)
	for _, s := range eligibleSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// Inspect examines every saved, eligible outcome. Unreadable files are
// logged and skipped; the returned findings are in outcome order.
func (i *Inspector) Inspect(ctx context.Context, outcomes []model.Outcome) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	for _, o := range outcomes {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		if !o.OK() || !Eligible(o.Filename) {
			continue
		}

		ff, err := i.InspectFile(o.Path, o.URL)
		if err != nil {
			i.logger.Warn("metadata inspection failed", "path", o.Path, "error", err)
			continue
		}
		findings = append(findings, ff...)
	}
	return findings, nil
}

// InspectFile reads path and returns its findings. source is recorded as
// the origin of the file.
func (i *Inspector) InspectFile(path, source string) ([]model.Finding, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > i.maxFileSize {
		i.logger.Debug("skipping large file", "path", path, "size", info.Size())
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is a file this run wrote
	if err != nil {
		return nil, err
	}
	return i.inspectBytes(data, path, source)
}

// inspectBytes extracts findings from raw image data.
func (i *Inspector) inspectBytes(data []byte, path, source string) ([]model.Finding, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return nil, nil
		}
		return nil, fmt.Errorf("locate exif: %w", err)
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, fmt.Errorf("parse exif: %w", err)
	}

	findings := make([]model.Finding, 0)
	for _, entry := range entries {
		rule, ok := tagRules[entry.TagName]
		if !ok {
			continue
		}
		value := strings.TrimRight(entry.Formatted, "\x00 ")
		if value == "" {
			continue
		}
		findings = append(findings, model.Finding{
			Type:         rule.findingType,
			Title:        rule.title,
			Severity:     rule.severity,
			SeverityText: rule.severity.String(),
			Value:        entry.TagName + ": " + value,
			File:         path,
			Source:       source,
		})
	}
	return findings, nil
}
