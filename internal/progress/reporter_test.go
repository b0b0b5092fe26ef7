package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// TestReporterMessages tests the user-facing lines.
func TestReporterMessages(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewReporter(Options{Output: &buf})

	r.Found(3)
	r.TaskSettled(model.Saved("http://h/a.png", "a.png", "d/a.png", 1, ""), 1, 3)
	r.TaskSettled(model.Failed("http://h/b.png", "b.png", model.FailureHTTPStatus, 404, errors.New("404")), 2, 3)
	r.TaskSettled(model.Saved("http://h/c.png", "c.png", "d/c.png", 1, ""), 3, 3)
	r.Done("./images")

	want := strings.Join([]string{
		"Found 3 Images in the provided url.",
		"[1/3]",
		"Unable to download file b.png",
		"[2/3]",
		"[3/3]",
		"Download completed. check ./images folder for downloaded images.",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

// TestReporterMonotonic tests that stale counts are not redrawn.
func TestReporterMonotonic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewReporter(Options{Output: &buf})

	ok := model.Saved("u", "f", "p", 0, "")
	r.TaskSettled(ok, 2, 3)
	r.TaskSettled(ok, 1, 3)
	r.TaskSettled(ok, 3, 3)

	if strings.Contains(buf.String(), "[1/3]") {
		t.Errorf("stale count printed: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[3/3]") {
		t.Errorf("final count missing: %q", buf.String())
	}
}

// TestReporterInline tests in-place redraws.
func TestReporterInline(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewReporter(Options{Output: &buf, Inline: true})

	ok := model.Saved("u", "f", "p", 0, "")
	r.TaskSettled(ok, 1, 2)
	r.TaskSettled(model.Failed("u", "x.png", model.FailureTransport, 0, nil), 2, 2)
	r.Done("out")

	want := "\r[1/2]\nUnable to download file x.png\n\r[2/2]\nDownload completed. check out folder for downloaded images.\n"
	if buf.String() != want {
		t.Errorf("unexpected output %q, want %q", buf.String(), want)
	}
}

// TestReporterConcurrent tests use from many goroutines.
func TestReporterConcurrent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewReporter(Options{Output: &buf})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.TaskSettled(model.Saved("u", "f", "p", 0, ""), i, 50)
		}()
	}
	wg.Wait()

	if !strings.Contains(buf.String(), "[50/50]") {
		t.Errorf("final count missing: %q", buf.String())
	}
}

// TestIsTerminal tests non-file writers.
func TestIsTerminal(t *testing.T) {
	t.Parallel()

	if IsTerminal(&bytes.Buffer{}) {
		t.Error("buffer is not a terminal")
	}
}
