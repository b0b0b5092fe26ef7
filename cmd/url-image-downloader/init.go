package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/saitejamalyala/url-image-downloader/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/config.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Initialize creates a new .url-image-downloader.yaml configuration file in
the current directory.

The generated file includes:
- Default image extensions and the unsupported link policy
- Commented examples for per-host settings (headers, user agent)

Examples:
  # Create .url-image-downloader.yaml in current directory
  url-image-downloader init

  # Create config file at a specific path
  url-image-downloader init -o ~/.config/url-image-downloader/config.yaml

  # Force overwrite existing file
  url-image-downloader init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/config.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure settings such as:")
	fmt.Fprintln(out, "  - Accepted image extensions")
	fmt.Fprintln(out, "  - Headers and user agent per host")
	fmt.Fprintln(out, "  - Whether unsupported links abort the run")

	return nil
}
