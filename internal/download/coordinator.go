package download

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saitejamalyala/url-image-downloader/internal/fetch"
	"github.com/saitejamalyala/url-image-downloader/internal/model"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves the body of a resource. *fetch.Fetcher implements it.
type Fetcher interface {
	Bytes(ctx context.Context, url string) ([]byte, error)
}

// Sink persists a fetched body. *FileSink implements it.
type Sink interface {
	Save(data []byte, dir, filename string) (SaveResult, error)
}

// Observer is notified each time a task settles.
// completed counts settled tasks including this one and never decreases
// across calls, though calls may arrive from different goroutines.
type Observer interface {
	TaskSettled(outcome model.Outcome, completed, total int)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(outcome model.Outcome, completed, total int)

// TaskSettled calls f.
func (f ObserverFunc) TaskSettled(outcome model.Outcome, completed, total int) {
	f(outcome, completed, total)
}

// RunResult is returned by RunAll once every task has settled.
type RunResult struct {
	// Outcomes has one entry per input link, in input order.
	Outcomes []model.Outcome

	// Summary aggregates Outcomes.
	Summary model.RunSummary

	// Elapsed is the wall time of the whole run.
	Elapsed time.Duration
}

// Coordinator fans retrieval tasks out over goroutines.
type Coordinator struct {
	fetcher  Fetcher
	sink     Sink
	observer Observer
	dirPerm  os.FileMode
	logger   *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver registers an observer for settled tasks.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a Coordinator that fetches with fetcher and
// writes with sink.
func NewCoordinator(fetcher Fetcher, sink Sink, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher: fetcher,
		sink:    sink,
		dirPerm: 0o755,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll retrieves every link into dir and waits for all tasks to settle.
//
// Design decision: The errgroup is created without WithContext and tasks
// always return nil, so a failing task never cancels its siblings. Only
// the caller's ctx can stop in-flight fetches, and those tasks still settle
// as transport failures.
func (c *Coordinator) RunAll(ctx context.Context, links []string, dir string) RunResult {
	start := time.Now()
	total := len(links)
	outcomes := make([]model.Outcome, total)

	var (
		completed atomic.Int64
		permOnce  sync.Once
		g         errgroup.Group
	)

	for i, link := range links {
		g.Go(func() error {
			outcome := c.retrieve(ctx, link, dir, &permOnce)
			outcomes[i] = outcome

			n := int(completed.Add(1))
			if c.observer != nil {
				c.observer.TaskSettled(outcome, n, total)
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // tasks never return errors

	summary := model.Summarize(total, outcomes)
	elapsed := time.Since(start)

	c.logger.Info("downloads settled",
		"dir", dir,
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"elapsed", elapsed,
	)

	return RunResult{
		Outcomes: outcomes,
		Summary:  summary,
		Elapsed:  elapsed,
	}
}

// retrieve runs one task and converts every failure into an outcome.
func (c *Coordinator) retrieve(ctx context.Context, link, dir string, permOnce *sync.Once) model.Outcome {
	filename := FilenameFromURL(link)

	// MkdirAll is idempotent, so concurrent tasks racing to create the
	// directory all succeed.
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			permOnce.Do(func() {
				c.logger.Error("permission denied creating download directory",
					"dir", dir,
					"error", err,
				)
			})
		}
		return model.Failed(link, filename, model.FailureDirectory, 0, err)
	}

	data, err := c.fetcher.Bytes(ctx, link)
	if err != nil {
		c.logger.Debug("fetch failed", "url", link, "error", err)
		var se *fetch.StatusError
		if errors.As(err, &se) {
			return model.Failed(link, filename, model.FailureHTTPStatus, se.StatusCode, err)
		}
		return model.Failed(link, filename, model.FailureTransport, 0, err)
	}

	res, err := c.sink.Save(data, dir, filename)
	if err != nil {
		c.logger.Debug("write failed", "url", link, "error", err)
		return model.Failed(link, filename, model.FailureWrite, 0, err)
	}

	return model.Saved(link, filename, res.Path, res.Bytes, res.Digest)
}
