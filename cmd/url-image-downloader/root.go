package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/saitejamalyala/url-image-downloader/internal/config"
	"github.com/spf13/cobra"
)

// errInvalidURL is the only message shown when the page cannot be fetched.
var errInvalidURL = errors.New("Invalid URL") //nolint:staticcheck // user-facing message

// NewRootCmd creates the root command. The root command itself performs
// the download; subcommands manage configuration and history.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url-image-downloader",
		Short: "Download every image linked from a web page",
		Long: `url-image-downloader fetches a single web page, collects the links that
end in an image extension (tif, tiff, jpg, png, svg by default), resolves
them against the page's host, and downloads all of them concurrently.

A failed download does not stop the others. If the page itself cannot be
fetched, the program prints "Invalid URL" and exits with status 1.

Examples:
  # Download every image linked from a page
  url-image-downloader --web_url https://example.com/gallery --download_directory ./images

  # Prompt for the URL and directory
  url-image-downloader

  # Skip links that cannot be resolved instead of aborting
  url-image-downloader --web_url https://example.com/ --download_directory out --on-unsupported skip

  # Write a Markdown report and remember the run
  url-image-downloader --web_url https://example.com/ --download_directory out -m -o report.md --history`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDownloadCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(), "Directory holding the history database")

	addDownloadFlags(cmd)

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err for the user. A page that could not be fetched is
// reported as "Invalid URL" without further detail; the cause is in the
// verbose log.
func printError(w io.Writer, err error) {
	if errors.Is(err, errInvalidURL) {
		fmt.Fprintln(w, errInvalidURL)
		return
	}
	fmt.Fprintln(w, err)
}
