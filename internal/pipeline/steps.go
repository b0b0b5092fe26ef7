package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saitejamalyala/url-image-downloader/internal/download"
	"github.com/saitejamalyala/url-image-downloader/internal/links"
	"github.com/saitejamalyala/url-image-downloader/internal/metadata"
	"github.com/saitejamalyala/url-image-downloader/internal/model"
	"github.com/saitejamalyala/url-image-downloader/internal/transport"
)

// PageFetcher retrieves the page as text. *fetch.Fetcher implements it.
type PageFetcher interface {
	Text(ctx context.Context, url string) (string, error)
}

// PageStep fetches the page once and records its origin. It never touches
// the download directory.
type PageStep struct {
	fetcher PageFetcher
	proxied bool
	logger  *slog.Logger
}

// PageStepOption configures a PageStep.
type PageStepOption func(*PageStep)

// WithProxied declares that requests go through a proxy, which permits
// .onion pages.
func WithProxied(proxied bool) PageStepOption {
	return func(s *PageStep) {
		s.proxied = proxied
	}
}

// WithPageLogger sets a custom logger for the page step.
func WithPageLogger(logger *slog.Logger) PageStepOption {
	return func(s *PageStep) {
		s.logger = logger
	}
}

// NewPageStep creates the page step.
func NewPageStep(fetcher PageFetcher, opts ...PageStepOption) *PageStep {
	s := &PageStep{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *PageStep) Name() string {
	return "page"
}

// Do fetches the page. A malformed URL or a failed fetch returns an error
// wrapping ErrPageUnreachable.
func (s *PageStep) Do(ctx context.Context, report *model.RunReport) error {
	origin, err := links.OriginOf(report.WebURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPageUnreachable, err)
	}

	if err := transport.CheckOnionHost(origin.Hostname(), s.proxied); err != nil {
		return err
	}

	body, err := s.fetcher.Text(ctx, report.WebURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPageUnreachable, err)
	}

	report.Origin = origin.String()
	report.PageBody = body

	s.logger.Debug("page fetched",
		"url", report.WebURL,
		"origin", report.Origin,
		"bytes", len(body),
	)
	return nil
}

// Notifier receives discovery results for display.
type Notifier interface {
	Found(n int)
	Skipped(link model.SkippedLink)
}

// DiscoverStep turns the fetched page into the list of resolved links.
type DiscoverStep struct {
	filter   *links.Filter
	policy   links.Policy
	notifier Notifier
	logger   *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithFilter replaces the default suffix filter.
func WithFilter(f *links.Filter) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.filter = f
	}
}

// WithPolicy sets how unsupported links are handled.
func WithPolicy(p links.Policy) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.policy = p
	}
}

// WithNotifier registers a receiver for the found count and skipped links.
func WithNotifier(n Notifier) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.notifier = n
	}
}

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates the discover step with the default filter and
// the abort policy.
func NewDiscoverStep(opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		filter: links.NewFilter(),
		policy: links.PolicyAbort,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover"
}

// Do extracts, filters and resolves every link on the page. Under the
// abort policy an unsupported link fails the step before any download.
func (s *DiscoverStep) Do(_ context.Context, report *model.RunReport) error {
	origin, err := links.OriginOf(report.WebURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPageUnreachable, err)
	}

	d, err := links.Discover(strings.NewReader(report.PageBody), origin, s.filter, s.policy)
	if err != nil {
		return err
	}

	report.CandidateCount = d.Candidates
	report.Links = d.Links
	report.Skipped = d.Skipped
	report.Summary.Found = len(d.Links)

	for _, sk := range d.Skipped {
		s.logger.Warn("skipping unsupported link", "href", sk.Href, "reason", sk.Reason)
		if s.notifier != nil {
			s.notifier.Skipped(sk)
		}
	}
	if s.notifier != nil {
		s.notifier.Found(len(d.Links))
	}

	s.logger.Debug("links discovered",
		"candidates", d.Candidates,
		"links", len(d.Links),
		"skipped", len(d.Skipped),
	)
	return nil
}

// Downloader retrieves resolved links. *download.Coordinator implements it.
type Downloader interface {
	RunAll(ctx context.Context, links []string, dir string) download.RunResult
}

// DownloadStep retrieves every resolved link into the download directory.
type DownloadStep struct {
	downloader Downloader
	logger     *slog.Logger
}

// DownloadStepOption configures a DownloadStep.
type DownloadStepOption func(*DownloadStep)

// WithDownloadLogger sets a custom logger for the download step.
func WithDownloadLogger(logger *slog.Logger) DownloadStepOption {
	return func(s *DownloadStep) {
		s.logger = logger
	}
}

// NewDownloadStep creates the download step.
func NewDownloadStep(downloader Downloader, opts ...DownloadStepOption) *DownloadStep {
	s := &DownloadStep{
		downloader: downloader,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do runs the downloads and records outcomes and summary. It does not
// fail on individual download errors, and with no links it creates no
// directory.
func (s *DownloadStep) Do(ctx context.Context, report *model.RunReport) error {
	if len(report.Links) == 0 {
		s.logger.Debug("no links to download")
		report.Summary = model.Summarize(0, nil)
		return nil
	}

	result := s.downloader.RunAll(ctx, report.Links, report.DownloadDir)
	report.Outcomes = result.Outcomes
	report.Summary = result.Summary

	s.logger.Debug("download step finished",
		"succeeded", result.Summary.Succeeded,
		"failed", result.Summary.Failed,
		"elapsed", result.Elapsed,
	)

	if ctx.Err() != nil {
		report.Cancelled = true
	}
	return nil
}

// MetadataStep inspects saved images for EXIF findings.
type MetadataStep struct {
	inspector *metadata.Inspector
	logger    *slog.Logger
}

// MetadataStepOption configures a MetadataStep.
type MetadataStepOption func(*MetadataStep)

// WithMetadataLogger sets a custom logger for the metadata step.
func WithMetadataLogger(logger *slog.Logger) MetadataStepOption {
	return func(s *MetadataStep) {
		s.logger = logger
	}
}

// NewMetadataStep creates the metadata step.
func NewMetadataStep(inspector *metadata.Inspector, opts ...MetadataStepOption) *MetadataStep {
	s := &MetadataStep{
		inspector: inspector,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *MetadataStep) Name() string {
	return "metadata"
}

// Do adds findings for every saved image. Inspection problems are logged,
// not returned.
func (s *MetadataStep) Do(ctx context.Context, report *model.RunReport) error {
	findings, err := s.inspector.Inspect(ctx, report.Outcomes)
	if err != nil {
		s.logger.Warn("metadata inspection incomplete", "error", err)
	}
	for _, f := range findings {
		report.AddFinding(f)
	}
	s.logger.Debug("metadata inspected", "findings", len(findings))
	return nil
}

// DefaultPipelineConfig holds the collaborators of the default pipeline.
type DefaultPipelineConfig struct {
	// Filter selects hrefs by suffix. Nil uses the built-in list.
	Filter *links.Filter

	// Policy handles hrefs that cannot be resolved.
	Policy links.Policy

	// Proxied permits .onion pages.
	Proxied bool

	// Notifier receives discovery results.
	Notifier Notifier

	// Inspector adds the metadata step when non-nil.
	Inspector *metadata.Inspector

	// Logger is shared by every step.
	Logger *slog.Logger
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineFilter sets the suffix filter.
func WithPipelineFilter(f *links.Filter) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Filter = f
	}
}

// WithPipelinePolicy sets the unsupported link policy.
func WithPipelinePolicy(p links.Policy) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Policy = p
	}
}

// WithPipelineProxied declares that requests go through a proxy.
func WithPipelineProxied(proxied bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Proxied = proxied
	}
}

// WithPipelineNotifier sets the discovery notifier.
func WithPipelineNotifier(n Notifier) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Notifier = n
	}
}

// WithPipelineInspector enables the metadata step.
func WithPipelineInspector(i *metadata.Inspector) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Inspector = i
	}
}

// WithPipelineLogger sets the logger shared by every step.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates the page, discover and download steps in that
// order, followed by the metadata step when an inspector is configured.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelinePolicy, etc).
func DefaultPipeline(fetcher PageFetcher, downloader Downloader, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Filter: links.NewFilter(),
		Policy: links.PolicyAbort,
		Logger: slog.Default(),
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	if cfg.Filter == nil {
		cfg.Filter = links.NewFilter()
	}

	discoverOpts := []DiscoverStepOption{
		WithFilter(cfg.Filter),
		WithPolicy(cfg.Policy),
		WithDiscoverLogger(cfg.Logger),
	}
	if cfg.Notifier != nil {
		discoverOpts = append(discoverOpts, WithNotifier(cfg.Notifier))
	}

	p.AddSteps(
		NewPageStep(fetcher, WithProxied(cfg.Proxied), WithPageLogger(cfg.Logger)),
		NewDiscoverStep(discoverOpts...),
		NewDownloadStep(downloader, WithDownloadLogger(cfg.Logger)),
	)
	if cfg.Inspector != nil {
		p.AddStep(NewMetadataStep(cfg.Inspector, WithMetadataLogger(cfg.Logger)))
	}

	return p
}
