package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/saitejamalyala/url-image-downloader/internal/config"
	"github.com/saitejamalyala/url-image-downloader/internal/database"
	"github.com/saitejamalyala/url-image-downloader/internal/download"
	"github.com/saitejamalyala/url-image-downloader/internal/fetch"
	"github.com/saitejamalyala/url-image-downloader/internal/links"
	applog "github.com/saitejamalyala/url-image-downloader/internal/log"
	"github.com/saitejamalyala/url-image-downloader/internal/metadata"
	"github.com/saitejamalyala/url-image-downloader/internal/model"
	"github.com/saitejamalyala/url-image-downloader/internal/pipeline"
	"github.com/saitejamalyala/url-image-downloader/internal/progress"
	"github.com/saitejamalyala/url-image-downloader/internal/report"
	"github.com/saitejamalyala/url-image-downloader/internal/transport"
	"github.com/spf13/cobra"
)

// Prompts shown when a required value was not given as a flag.
const (
	promptWebURL      = "Enter the Url: "
	promptDownloadDir = "Path to Directory: "
)

// addDownloadFlags registers the flags of the download operation.
func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().String("web_url", "",
		"Address of the page whose images should be downloaded (prompted if omitted)")
	cmd.Flags().String("download_directory", "",
		"Directory to save the images in, created if absent (prompted if omitted)")

	// Request behavior
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request, including reading the body")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Largest accepted response body in bytes; larger downloads fail")
	cmd.Flags().StringSlice("extensions", nil,
		"Accepted link suffixes (default tif,tiff,jpg,png,svg)")
	cmd.Flags().String("on-unsupported", config.DefaultUnsupportedLinks,
		"What to do with image links that are not host-relative: abort or skip")

	// Proxy flags
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route requests through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .url-image-downloader.yaml in current, XDG or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Optional features
	cmd.Flags().Bool("history", false,
		"Record the run in the history database")
	cmd.Flags().Bool("exif", false,
		"Inspect saved JPEG and TIFF files for identifying metadata")
}

// runDownloadCmd executes the download operation.
func runDownloadCmd(cmd *cobra.Command, _ []string) error {
	cfg, explicit, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := promptMissing(cmd.InOrStdin(), cmd.OutOrStdout(), cfg); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runDownload(ctx, cfg, explicit, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, config.Explicit, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	explicit := config.Explicit{
		UserAgent:        flags.Changed("user-agent"),
		Extensions:       flags.Changed("extensions"),
		UnsupportedLinks: flags.Changed("on-unsupported"),
	}

	var err error
	if cfg.WebURL, err = flags.GetString("web_url"); err != nil {
		return nil, explicit, err
	}
	if cfg.DownloadDir, err = flags.GetString("download_directory"); err != nil {
		return nil, explicit, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, explicit, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, explicit, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, explicit, err
	}
	if cfg.Extensions, err = flags.GetStringSlice("extensions"); err != nil {
		return nil, explicit, err
	}
	if cfg.UnsupportedLinks, err = flags.GetString("on-unsupported"); err != nil {
		return nil, explicit, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, explicit, err
	}
	if cfg.UseEmbeddedTor, err = flags.GetBool("tor"); err != nil {
		return nil, explicit, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, explicit, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, explicit, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, explicit, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, explicit, err
	}
	if cfg.SaveHistory, err = flags.GetBool("history"); err != nil {
		return nil, explicit, err
	}
	if cfg.InspectEXIF, err = flags.GetBool("exif"); err != nil {
		return nil, explicit, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.DBDir = getDBDirFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, explicit, err
	}

	// An explicitly named config file must exist; a searched one is optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, explicit, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, explicit, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, explicit, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getDBDirFlag retrieves the database directory from the command or its parent.
func getDBDirFlag(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		dir, err = cmd.Root().PersistentFlags().GetString("db-dir")
		if err != nil {
			return config.XDGDataDir()
		}
	}
	return dir
}

// promptMissing asks for the page URL and download directory when they
// were not given as flags.
func promptMissing(in io.Reader, out io.Writer, cfg *config.Config) error {
	if cfg.WebURL != "" && cfg.DownloadDir != "" {
		return nil
	}

	scanner := bufio.NewScanner(in)
	ask := func(prompt string) (string, error) {
		for {
			fmt.Fprint(out, prompt)
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.ErrUnexpectedEOF
			}
			if v := strings.TrimSpace(scanner.Text()); v != "" {
				return v, nil
			}
		}
	}

	var err error
	if cfg.WebURL == "" {
		if cfg.WebURL, err = ask(promptWebURL); err != nil {
			return fmt.Errorf("read web url: %w", err)
		}
	}
	if cfg.DownloadDir == "" {
		if cfg.DownloadDir, err = ask(promptDownloadDir); err != nil {
			return fmt.Errorf("read download directory: %w", err)
		}
	}
	return nil
}

// runDownload executes one run against cfg.WebURL.
// Status messages go to out, or to errOut when a JSON or Markdown report
// is printed to out.
func runDownload(ctx context.Context, cfg *config.Config, explicit config.Explicit, out, errOut io.Writer, logger *slog.Logger) error {
	var (
		site config.SiteConfig
		host string
	)
	if origin, err := links.OriginOf(cfg.WebURL); err == nil {
		host = origin.Host
		site = cfg.ApplySite(host, explicit)
	}

	status := out
	if reportOnStdout(cfg) {
		status = errOut
	}

	policy, err := links.ParsePolicy(cfg.UnsupportedLinks)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	client, cleanup, err := newHTTPClient(ctx, cfg, site, host, status, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fetcher := fetch.New(client,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)

	reporter := progress.NewReporter(progress.Options{
		Output: status,
		Inline: progress.IsTerminal(status),
	})

	coordinator := download.NewCoordinator(fetcher, download.NewFileSink(),
		download.WithObserver(reporter),
		download.WithLogger(logger),
	)

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineFilter(links.NewFilter(cfg.Extensions...)),
		pipeline.WithPipelinePolicy(policy),
		pipeline.WithPipelineProxied(cfg.ProxyAddress != "" || cfg.UseEmbeddedTor),
		pipeline.WithPipelineNotifier(reporter),
		pipeline.WithPipelineLogger(logger),
	}
	if cfg.InspectEXIF {
		configOpts = append(configOpts, pipeline.WithPipelineInspector(
			metadata.NewInspector(metadata.WithLogger(logger)),
		))
	}

	p := pipeline.DefaultPipeline(fetcher, coordinator,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		configOpts...,
	)

	runReport := model.NewRunReport(cfg.WebURL, cfg.DownloadDir)
	logger.Debug("starting run",
		"id", runReport.ID,
		"url", cfg.WebURL,
		"dir", cfg.DownloadDir,
		"steps", p.StepNames(),
	)

	runErr := p.Execute(ctx, runReport)

	if err := saveRun(cfg, runReport, logger); err != nil {
		logger.Error("failed to save run to history", "error", err)
	}

	if runErr != nil {
		if errors.Is(runErr, pipeline.ErrPageUnreachable) {
			logger.Debug("page fetch failed", "url", cfg.WebURL, "error", runErr)
			return errInvalidURL
		}
		return runErr
	}

	reporter.Done(cfg.DownloadDir)

	if err := outputReport(cfg, runReport, out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runReport.Cancelled {
		return fmt.Errorf("download interrupted: %d of %d files saved",
			runReport.Summary.Succeeded, runReport.Summary.Found)
	}
	return nil
}

// newHTTPClient builds the shared client for the run. Site headers are
// bound to host. The returned cleanup stops the embedded Tor daemon when
// one was started.
func newHTTPClient(ctx context.Context, cfg *config.Config, site config.SiteConfig, host string, out io.Writer, logger *slog.Logger) (*http.Client, func(), error) {
	opts := transport.Options{
		ProxyAddress: cfg.ProxyAddress,
		Timeout:      cfg.Timeout,
		Headers:      site.Headers,
		HeaderHost:   host,
	}
	noop := func() {}

	if cfg.UseEmbeddedTor {
		fmt.Fprintln(out, "Starting embedded Tor daemon...")
		fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

		tor := transport.NewEmbeddedTor(transport.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := tor.Start(ctx); err != nil {
			return nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		stop := func() {
			logger.Debug("stopping embedded Tor daemon")
			if err := tor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}

		client, err := tor.HTTPClient(opts)
		if err != nil {
			stop()
			return nil, noop, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		logger.Debug("embedded Tor daemon started", "socksAddr", tor.SocksAddr())
		return client, stop, nil
	}

	if cfg.ProxyAddress != "" {
		if status := transport.CheckProxy(ctx, cfg.ProxyAddress); status != transport.ProxyStatusOK {
			return nil, noop, fmt.Errorf("proxy check failed for %s: %w", cfg.ProxyAddress, status.Error())
		}
		logger.Debug("proxy connection verified", "address", cfg.ProxyAddress)
	}

	client, err := transport.NewHTTPClient(opts)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, noop, nil
}

// saveRun records the run when history is enabled.
func saveRun(cfg *config.Config, runReport *model.RunReport, logger *slog.Logger) error {
	if !cfg.SaveHistory {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	// The run context may already be cancelled; the record is still wanted.
	if err := db.SaveRun(context.Background(), runReport); err != nil {
		return err
	}
	logger.Debug("run saved to history", "id", runReport.ID, "db", db.Path())
	return nil
}

// reportFormat returns the format selected by the report flags.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// reportOnStdout reports whether a machine-readable report is printed to
// stdout rather than a file.
func reportOnStdout(cfg *config.Config) bool {
	return cfg.ReportFile == "" && (cfg.JSONReport || cfg.MarkdownReport)
}

// outputReport writes the run report when one was requested: to
// cfg.ReportFile if set, else to out for --json and --markdown.
func outputReport(cfg *config.Config, runReport *model.RunReport, out io.Writer) error {
	if cfg.ReportFile == "" && !cfg.JSONReport && !cfg.MarkdownReport {
		return nil
	}

	output := out
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports list local paths; keep them private to the owner.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := report.New(output, reportFormat(cfg), getVersion()).Write(runReport)
	return err
}
