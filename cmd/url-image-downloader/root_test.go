package main

import (
	"bytes"
	"errors"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "url-image-downloader" {
			t.Errorf("expected use 'url-image-downloader', got %q", cmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has download flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"web_url", "download_directory", "timeout", "user-agent",
			"max-body-size", "extensions", "on-unsupported", "proxy", "tor",
			"tor-timeout", "config", "json", "markdown", "output", "history", "exif",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"init", "history", "compare", "version"} {
			if !names[want] {
				t.Errorf("expected %s subcommand", want)
			}
		}
	})

	t.Run("silences cobra error output", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceErrors || !cmd.SilenceUsage {
			t.Error("expected SilenceErrors and SilenceUsage")
		}
	})
}

// TestPrintError tests the user-facing error line.
func TestPrintError(t *testing.T) {
	t.Parallel()

	t.Run("invalid url has no detail", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		printError(&buf, errInvalidURL)
		if buf.String() != "Invalid URL\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("other errors are printed as is", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		printError(&buf, errors.New("configuration error: bad"))
		if buf.String() != "configuration error: bad\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}
