package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/saitejamalyala/url-image-downloader/internal/download"
	"github.com/saitejamalyala/url-image-downloader/internal/fetch"
	"github.com/saitejamalyala/url-image-downloader/internal/links"
	"github.com/saitejamalyala/url-image-downloader/internal/metadata"
	"github.com/saitejamalyala/url-image-downloader/internal/model"
	"github.com/saitejamalyala/url-image-downloader/internal/transport"
)

// site is a test web server that serves a page at "/" and files by path.
type site struct {
	*httptest.Server
	requests atomic.Int64
}

func newSite(t *testing.T, page string, files map[string][]byte) *site {
	t.Helper()
	s := &site{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if r.URL.Path == "/" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
			return
		}
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestPipeline(srv *site, opts ...DefaultPipelineOption) *Pipeline {
	f := fetch.New(srv.Client())
	c := download.NewCoordinator(f, download.NewFileSink())
	return DefaultPipeline(f, c, nil, opts...)
}

// recordingNotifier captures discovery notifications.
type recordingNotifier struct {
	mu      sync.Mutex
	found   int
	skipped []model.SkippedLink
}

func (n *recordingNotifier) Found(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.found = count
}

func (n *recordingNotifier) Skipped(link model.SkippedLink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.skipped = append(n.skipped, link)
}

// TestDefaultPipeline tests the assembled pipeline against a local server.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("builds steps in order", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(nil, nil, nil)
		got := strings.Join(p.StepNames(), ",")
		if got != "page,discover,download" {
			t.Errorf("unexpected steps %q", got)
		}

		p = DefaultPipeline(nil, nil, nil, WithPipelineInspector(metadata.NewInspector()))
		if names := p.StepNames(); names[len(names)-1] != "metadata" {
			t.Errorf("expected metadata step last, got %v", names)
		}
	})

	t.Run("downloads every link and records failures", func(t *testing.T) {
		t.Parallel()

		var page strings.Builder
		files := make(map[string][]byte)
		for i := range 10 {
			fmt.Fprintf(&page, `<a href="/img%d.png">%d</a>`, i, i)
			if i != 4 {
				files[fmt.Sprintf("/img%d.png", i)] = []byte(fmt.Sprintf("image-%d", i))
			}
		}
		page.WriteString(`<a href="/about.html">about</a>`)
		srv := newSite(t, page.String(), files)

		dir := filepath.Join(t.TempDir(), "out")
		notifier := &recordingNotifier{}
		report := model.NewRunReport(srv.URL+"/", dir)

		err := newTestPipeline(srv, WithPipelineNotifier(notifier)).Execute(context.Background(), report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.CandidateCount != 11 {
			t.Errorf("expected 11 candidates, got %d", report.CandidateCount)
		}
		if notifier.found != 10 {
			t.Errorf("expected 10 found, got %d", notifier.found)
		}
		want := model.RunSummary{Found: 10, Attempted: 10, Succeeded: 9, Failed: 1}
		if report.Summary != want {
			t.Errorf("expected summary %+v, got %+v", want, report.Summary)
		}
		failures := report.Failures()
		if len(failures) != 1 || failures[0].StatusCode != http.StatusNotFound {
			t.Errorf("expected one 404 failure, got %+v", failures)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 9 {
			t.Errorf("expected 9 files, got %d", len(entries))
		}
		data, err := os.ReadFile(filepath.Join(dir, "img7.png"))
		if err != nil || string(data) != "image-7" {
			t.Errorf("unexpected content %q, %v", data, err)
		}
	})

	t.Run("page without links makes a single request", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t, `<p>nothing here</p><a href="/doc.pdf">pdf</a>`, nil)
		dir := filepath.Join(t.TempDir(), "out")
		report := model.NewRunReport(srv.URL, dir)

		if err := newTestPipeline(srv).Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := srv.requests.Load(); n != 1 {
			t.Errorf("expected 1 request, got %d", n)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("download directory should not exist, stat error %v", err)
		}
		if report.Summary.Found != 0 || report.Summary.Attempted != 0 {
			t.Errorf("unexpected summary %+v", report.Summary)
		}
	})

	t.Run("unreachable page fails without creating directory", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		dir := filepath.Join(t.TempDir(), "out")
		report := model.NewRunReport(srv.URL, dir)
		f := fetch.New(srv.Client())
		p := DefaultPipeline(f, download.NewCoordinator(f, download.NewFileSink()), nil)

		err := p.Execute(context.Background(), report)
		if !errors.Is(err, ErrPageUnreachable) {
			t.Fatalf("expected ErrPageUnreachable, got %v", err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("download directory should not exist, stat error %v", err)
		}
	})

	t.Run("malformed page URL is unreachable", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"not a url", "ftp://example.com/", "http://"} {
			report := model.NewRunReport(raw, t.TempDir())
			p := DefaultPipeline(fetch.New(nil), nil, nil)
			if err := p.Execute(context.Background(), report); !errors.Is(err, ErrPageUnreachable) {
				t.Errorf("%q: expected ErrPageUnreachable, got %v", raw, err)
			}
		}
	})

	t.Run("unsupported link aborts before downloading", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t, `<a href="/a.png">a</a><a href="b.png">b</a>`, map[string][]byte{"/a.png": []byte("a")})
		dir := filepath.Join(t.TempDir(), "out")
		report := model.NewRunReport(srv.URL, dir)

		err := newTestPipeline(srv).Execute(context.Background(), report)
		if !errors.Is(err, links.ErrUnsupportedLinkForm) {
			t.Fatalf("expected ErrUnsupportedLinkForm, got %v", err)
		}
		if n := srv.requests.Load(); n != 1 {
			t.Errorf("expected only the page request, got %d", n)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("download directory should not exist, stat error %v", err)
		}
	})

	t.Run("skip policy continues past unsupported links", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t, `<a href="https://cdn.example/x.png">x</a><a href="/a.png">a</a>`,
			map[string][]byte{"/a.png": []byte("a")})
		notifier := &recordingNotifier{}
		report := model.NewRunReport(srv.URL, filepath.Join(t.TempDir(), "out"))

		err := newTestPipeline(srv,
			WithPipelinePolicy(links.PolicySkip),
			WithPipelineNotifier(notifier),
		).Execute(context.Background(), report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(notifier.skipped) != 1 || notifier.skipped[0].Href != "https://cdn.example/x.png" {
			t.Errorf("unexpected skipped links %+v", notifier.skipped)
		}
		if report.Summary.Succeeded != 1 {
			t.Errorf("expected 1 success, got %+v", report.Summary)
		}
	})

	t.Run("custom filter selects other suffixes", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t, `<a href="/a.png">a</a><a href="/b.webp">b</a>`,
			map[string][]byte{"/a.png": []byte("a"), "/b.webp": []byte("b")})
		report := model.NewRunReport(srv.URL, filepath.Join(t.TempDir(), "out"))

		err := newTestPipeline(srv, WithPipelineFilter(links.NewFilter("webp"))).Execute(context.Background(), report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Links) != 1 || !strings.HasSuffix(report.Links[0], "/b.webp") {
			t.Errorf("unexpected links %v", report.Links)
		}
	})

	t.Run("onion page requires a proxy", func(t *testing.T) {
		t.Parallel()

		onion := "http://" + strings.Repeat("a", 56) + ".onion/"
		report := model.NewRunReport(onion, t.TempDir())
		p := DefaultPipeline(fetch.New(nil), nil, nil)

		err := p.Execute(context.Background(), report)
		if !errors.Is(err, transport.ErrOnionWithoutProxy) && !errors.Is(err, transport.ErrInvalidOnionAddress) {
			t.Errorf("expected onion error, got %v", err)
		}
	})

	t.Run("metadata step adds findings", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t, `<a href="/photo.tif">p</a>`, map[string][]byte{"/photo.tif": tiffCanon})
		report := model.NewRunReport(srv.URL, filepath.Join(t.TempDir(), "out"))

		err := newTestPipeline(srv, WithPipelineInspector(metadata.NewInspector())).Execute(context.Background(), report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Findings) == 0 {
			t.Fatal("expected at least one finding")
		}
		if report.Findings[0].Source != srv.URL+"/photo.tif" {
			t.Errorf("unexpected finding source %q", report.Findings[0].Source)
		}
	})
}

// tiffCanon is a minimal little-endian TIFF with IFD0 Make=Canon.
var tiffCanon = []byte{
	'I', 'I', 0x2A, 0x00,
	0x08, 0x00, 0x00, 0x00,
	0x01, 0x00,
	0x0F, 0x01,
	0x02, 0x00,
	0x06, 0x00, 0x00, 0x00,
	0x1A, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	'C', 'a', 'n', 'o', 'n', 0x00,
}
