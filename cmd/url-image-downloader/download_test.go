package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/saitejamalyala/url-image-downloader/internal/config"
	"github.com/saitejamalyala/url-image-downloader/internal/database"
	"github.com/saitejamalyala/url-image-downloader/internal/report"
)

// gallery serves a page linking to ten images; /img4.png is missing.
func gallery(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>")
		for i := range 10 {
			fmt.Fprintf(w, `<a href="/img%d.png">image %d</a>`, i, i)
		}
		fmt.Fprint(w, `<a href="/about">about</a></body></html>`)
	})
	for i := range 10 {
		if i == 4 {
			continue
		}
		mux.HandleFunc(fmt.Sprintf("/img%d.png", i), func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			fmt.Fprintf(w, "png-%d", i)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// page serves body at / and 404 for everything else. The returned counter
// holds the number of requests received.
func page(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	stdout, _, err := executeSplit(t, stdin, args...)
	return stdout, err
}

// executeSplit runs the root command with args and returns stdout and
// stderr separately.
func executeSplit(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDownloadCommand(t *testing.T) {
	t.Parallel()

	t.Run("downloads every image and reports the missing one", func(t *testing.T) {
		t.Parallel()

		srv := gallery(t)
		dir := filepath.Join(t.TempDir(), "images")

		out, err := execute(t, "", "--web_url", srv.URL+"/", "--download_directory", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{
			"Found 10 Images in the provided url.",
			"Unable to download file img4.png",
			"[10/10]",
			fmt.Sprintf("Download completed. check %s folder for downloaded images.", dir),
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read download dir: %v", err)
		}
		if len(entries) != 9 {
			t.Errorf("expected 9 files, got %d", len(entries))
		}
		if _, err := os.Stat(filepath.Join(dir, "img4.png")); !os.IsNotExist(err) {
			t.Error("expected no file for the missing image")
		}

		data, err := os.ReadFile(filepath.Join(dir, "img7.png"))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "png-7" {
			t.Errorf("unexpected content %q", data)
		}
	})

	t.Run("unreachable page is an invalid url", func(t *testing.T) {
		t.Parallel()

		srv, _ := page(t, http.StatusInternalServerError, "boom")
		dir := filepath.Join(t.TempDir(), "images")

		out, err := execute(t, "", "--web_url", srv.URL+"/", "--download_directory", dir)
		if !errors.Is(err, errInvalidURL) {
			t.Fatalf("expected errInvalidURL, got %v", err)
		}
		if strings.Contains(out, "Found") {
			t.Errorf("expected no found line, got %q", out)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("expected download directory not to be created")
		}
	})

	t.Run("malformed url is an invalid url", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "", "--web_url", "not a url", "--download_directory", t.TempDir())
		if !errors.Is(err, errInvalidURL) {
			t.Errorf("expected errInvalidURL, got %v", err)
		}
	})

	t.Run("page without images creates nothing", func(t *testing.T) {
		t.Parallel()

		srv, requests := page(t, http.StatusOK, `<p>nothing</p><a href="/about">about</a>`)
		dir := filepath.Join(t.TempDir(), "images")

		out, err := execute(t, "", "--web_url", srv.URL+"/", "--download_directory", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Found 0 Images in the provided url.") {
			t.Errorf("unexpected output %q", out)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("expected download directory not to be created")
		}
		if n := requests.Load(); n != 1 {
			t.Errorf("expected only the page request, got %d requests", n)
		}
	})

	t.Run("unsupported link aborts before downloading", func(t *testing.T) {
		t.Parallel()

		srv, requests := page(t, http.StatusOK, `<a href="/a.png">a</a><a href="https://cdn.example/b.png">b</a>`)
		dir := filepath.Join(t.TempDir(), "images")

		_, err := execute(t, "", "--web_url", srv.URL+"/", "--download_directory", dir)
		if err == nil {
			t.Fatal("expected error for absolute image link")
		}
		if errors.Is(err, errInvalidURL) {
			t.Error("an unsupported link is not an invalid url")
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("expected download directory not to be created")
		}
		if n := requests.Load(); n != 1 {
			t.Errorf("expected only the page request, got %d requests", n)
		}
	})

	t.Run("skip policy downloads the rest", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/a.png" {
				_, _ = io.WriteString(w, "a")
				return
			}
			_, _ = io.WriteString(w, `<a href="/a.png">a</a><a href="img/b.png">b</a>`)
		}))
		t.Cleanup(srv.Close)
		dir := filepath.Join(t.TempDir(), "images")

		out, err := execute(t, "",
			"--web_url", srv.URL+"/", "--download_directory", dir, "--on-unsupported", "skip")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `Skipping unsupported link "img/b.png"`) {
			t.Errorf("expected skip notice, got %q", out)
		}
		if !strings.Contains(out, "Found 1 Images in the provided url.") {
			t.Errorf("expected one image, got %q", out)
		}
		if _, err := os.Stat(filepath.Join(dir, "a.png")); err != nil {
			t.Errorf("expected a.png to be saved: %v", err)
		}
	})

	t.Run("prompts for missing values", func(t *testing.T) {
		t.Parallel()

		srv := gallery(t)
		dir := filepath.Join(t.TempDir(), "images")

		out, err := execute(t, srv.URL+"/\n"+dir+"\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, promptWebURL) || !strings.Contains(out, promptDownloadDir) {
			t.Errorf("expected both prompts, got %q", out)
		}
		if !strings.Contains(out, "Found 10 Images in the provided url.") {
			t.Errorf("expected found line, got %q", out)
		}
	})

	t.Run("closed stdin is an error", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "")
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
		}
	})

	t.Run("writes json report to file", func(t *testing.T) {
		t.Parallel()

		srv := gallery(t)
		tmp := t.TempDir()
		reportPath := filepath.Join(tmp, "reports", "run.json")

		_, err := execute(t, "",
			"--web_url", srv.URL+"/", "--download_directory", filepath.Join(tmp, "images"),
			"-j", "-o", reportPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("read report: %v", err)
		}
		var got report.JSONReport
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		s := got.Report.Summary
		if s.Found != 10 || s.Attempted != 10 || s.Succeeded != 9 || s.Failed != 1 {
			t.Errorf("unexpected summary %+v", s)
		}
		if len(got.Report.Outcomes) != 10 {
			t.Errorf("expected 10 outcomes, got %d", len(got.Report.Outcomes))
		}
	})

	t.Run("json report on stdout moves status lines to stderr", func(t *testing.T) {
		t.Parallel()

		srv := gallery(t)
		dir := filepath.Join(t.TempDir(), "images")

		stdout, stderr, err := executeSplit(t, "",
			"--web_url", srv.URL+"/", "--download_directory", dir, "-j")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got report.JSONReport
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("stdout is not a JSON report: %v\n%s", err, stdout)
		}
		if got.Report.Summary.Succeeded != 9 {
			t.Errorf("unexpected summary %+v", got.Report.Summary)
		}
		for _, want := range []string{
			"Found 10 Images in the provided url.",
			"Unable to download file img4.png",
			"Download completed.",
		} {
			if !strings.Contains(stderr, want) {
				t.Errorf("expected stderr to contain %q, got:\n%s", want, stderr)
			}
		}
	})

	t.Run("site headers stay on the page host across redirects", func(t *testing.T) {
		t.Parallel()

		var foreignAuth atomic.Value
		foreignAuth.Store("")
		foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			foreignAuth.Store(r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, "png")
		}))
		t.Cleanup(foreign.Close)

		var pageAuth atomic.Value
		pageAuth.Store("")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/a.png" {
				http.Redirect(w, r, foreign.URL+"/a.png", http.StatusFound)
				return
			}
			pageAuth.Store(r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `<a href="/a.png">a</a>`)
		}))
		t.Cleanup(srv.Close)

		tmp := t.TempDir()
		cfgPath := filepath.Join(tmp, "config.yaml")
		host := strings.TrimPrefix(srv.URL, "http://")
		cfgYAML := fmt.Sprintf("sites:\n  %q:\n    headers:\n      Authorization: \"Bearer site-secret\"\n", host)
		if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := execute(t, "",
			"--web_url", srv.URL+"/", "--download_directory", filepath.Join(tmp, "images"),
			"--config", cfgPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := pageAuth.Load().(string); got != "Bearer site-secret" {
			t.Errorf("expected page host to receive Authorization, got %q", got)
		}
		if got := foreignAuth.Load().(string); got != "" {
			t.Errorf("redirect target received Authorization %q", got)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "",
			"--web_url", "http://127.0.0.1/", "--download_directory", t.TempDir(), "-j", "-m")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "",
			"--web_url", "http://127.0.0.1/", "--download_directory", t.TempDir(),
			"--config", filepath.Join(t.TempDir(), "absent.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("config file extensions apply per host", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/a.webp" {
				_, _ = io.WriteString(w, "webp")
				return
			}
			_, _ = io.WriteString(w, `<a href="/a.webp">a</a><a href="/b.png">b</a>`)
		}))
		t.Cleanup(srv.Close)

		tmp := t.TempDir()
		cfgPath := filepath.Join(tmp, "config.yaml")
		host := strings.TrimPrefix(srv.URL, "http://")
		cfgYAML := fmt.Sprintf("sites:\n  %q:\n    extensions: [webp]\n", host)
		if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0600); err != nil {
			t.Fatal(err)
		}
		dir := filepath.Join(tmp, "images")

		out, err := execute(t, "",
			"--web_url", srv.URL+"/", "--download_directory", dir, "--config", cfgPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Found 1 Images in the provided url.") {
			t.Errorf("expected one webp image, got %q", out)
		}
		if _, err := os.Stat(filepath.Join(dir, "a.webp")); err != nil {
			t.Errorf("expected a.webp to be saved: %v", err)
		}
	})
}

func TestDownloadHistory(t *testing.T) {
	t.Parallel()

	srv := gallery(t)
	tmp := t.TempDir()
	dbDir := filepath.Join(tmp, "db")

	if _, err := execute(t, "",
		"--web_url", srv.URL+"/", "--download_directory", filepath.Join(tmp, "images"),
		"--history", "--db-dir", dbDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := execute(t, "", "history", "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "ID") || !strings.Contains(out, srv.URL+"/") {
		t.Errorf("expected run in table, got %q", out)
	}

	out, err = execute(t, "", "history", "--db-dir", dbDir, "-j")
	if err != nil {
		t.Fatalf("history -j: %v", err)
	}
	var runs []database.RunMetadata
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Summary.Succeeded != 9 || runs[0].Summary.Failed != 1 {
		t.Errorf("unexpected summary %+v", runs[0].Summary)
	}

	out, err = execute(t, "", "history", "show", runs[0].ID, "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(out, "IMAGE DOWNLOAD REPORT") {
		t.Errorf("expected text report, got %q", out)
	}

	out, err = execute(t, "", "history", "delete", runs[0].ID, "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("history delete: %v", err)
	}
	if !strings.Contains(out, "Deleted run "+runs[0].ID) {
		t.Errorf("unexpected delete output %q", out)
	}

	if _, err := execute(t, "", "history", "show", runs[0].ID, "--db-dir", dbDir); !errors.Is(err, database.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestPromptMissing(t *testing.T) {
	t.Parallel()

	t.Run("no prompt when both are set", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.WebURL = "http://example.com/"
		cfg.DownloadDir = "images"

		var out bytes.Buffer
		if err := promptMissing(strings.NewReader(""), &out, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Len() != 0 {
			t.Errorf("expected no prompt, got %q", out.String())
		}
	})

	t.Run("re-asks on blank input", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.WebURL = "http://example.com/"

		var out bytes.Buffer
		if err := promptMissing(strings.NewReader("\n   \n images \n"), &out, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DownloadDir != "images" {
			t.Errorf("expected trimmed directory, got %q", cfg.DownloadDir)
		}
		if got := strings.Count(out.String(), promptDownloadDir); got != 3 {
			t.Errorf("expected 3 prompts, got %d", got)
		}
		if strings.Contains(out.String(), promptWebURL) {
			t.Error("did not expect url prompt")
		}
	})

	t.Run("eof after url", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		err := promptMissing(strings.NewReader("http://example.com/\n"), io.Discard, cfg)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
		}
		if cfg.WebURL != "http://example.com/" {
			t.Errorf("expected url to be read, got %q", cfg.WebURL)
		}
	})
}

func TestReportFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		json     bool
		markdown bool
		want     report.Format
	}{
		{name: "text by default", want: report.FormatText},
		{name: "json", json: true, want: report.FormatJSON},
		{name: "markdown", markdown: true, want: report.FormatMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			cfg.JSONReport = tt.json
			cfg.MarkdownReport = tt.markdown
			if got := reportFormat(cfg); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
