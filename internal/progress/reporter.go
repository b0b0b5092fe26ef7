package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// Options configures the progress reporter.
type Options struct {
	// Output is where messages are written.
	// Default: os.Stdout
	Output io.Writer

	// Inline redraws the counter in place with a carriage return instead
	// of printing one line per settled task.
	Inline bool
}

// Reporter implements download.Observer and is safe for concurrent use.
type Reporter struct {
	opts Options

	mu sync.Mutex
	// shown is the highest completed count printed so far. Settle
	// notifications can arrive out of order; older counts are not redrawn.
	shown int
	// dirty is true while an inline counter is on the current line.
	dirty bool
}

// NewReporter creates a Reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Reporter{opts: opts}
}

// Found prints the number of resolved links.
func (r *Reporter) Found(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.opts.Output, "Found %d Images in the provided url.\n", n)
}

// Skipped prints a warning for a link left out under the skip policy.
func (r *Reporter) Skipped(link model.SkippedLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()
	fmt.Fprintf(r.opts.Output, "Skipping unsupported link %q: %s\n", link.Href, link.Reason)
}

// TaskSettled prints the counter and, for failures, a notice naming the file.
func (r *Reporter) TaskSettled(outcome model.Outcome, completed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !outcome.OK() {
		r.breakLine()
		fmt.Fprintf(r.opts.Output, "Unable to download file %s\n", outcome.Filename)
	}

	if completed <= r.shown {
		return
	}
	r.shown = completed

	if r.opts.Inline {
		fmt.Fprintf(r.opts.Output, "\r[%d/%d]", completed, total)
		r.dirty = true
		return
	}
	fmt.Fprintf(r.opts.Output, "[%d/%d]\n", completed, total)
}

// Done prints the completion line.
func (r *Reporter) Done(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakLine()
	fmt.Fprintf(r.opts.Output, "Download completed. check %s folder for downloaded images.\n", dir)
}

// breakLine ends an inline counter so the next message starts on its own line.
func (r *Reporter) breakLine() {
	if r.dirty {
		fmt.Fprintln(r.opts.Output)
		r.dirty = false
	}
}

// IsTerminal reports whether w is a character device such as a TTY.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
