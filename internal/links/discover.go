package links

import (
	"io"
	"iter"

	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// Policy decides what Discover does with a filtered href that Resolve rejects.
type Policy string

const (
	// PolicyAbort fails the whole discovery on the first unsupported link.
	PolicyAbort Policy = "abort"

	// PolicySkip records the unsupported link and continues.
	PolicySkip Policy = "skip"
)

// ParsePolicy converts a configuration value into a Policy.
// The empty string selects PolicyAbort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", ErrUnknownPolicy
	}
}

// Discovery is the eager result of scanning one document.
type Discovery struct {
	// Candidates is the number of hrefs the extractor yielded.
	Candidates int

	// Links are the resolved links in document order.
	Links []string

	// Skipped are the filtered hrefs rejected under PolicySkip.
	Skipped []model.SkippedLink
}

// Discover extracts, filters and resolves every link in the document.
// Resolution is eager: under PolicyAbort the first unsupported link returns
// an error wrapping ErrUnsupportedLinkForm and no links at all.
func Discover(r io.Reader, origin Origin, filter *Filter, policy Policy) (*Discovery, error) {
	d := &Discovery{
		Links:   make([]string, 0),
		Skipped: make([]model.SkippedLink, 0),
	}

	for href := range filter.Select(counted(Extract(r), &d.Candidates)) {
		link, err := Resolve(origin, href)
		if err != nil {
			if policy != PolicySkip {
				return nil, err
			}
			d.Skipped = append(d.Skipped, model.SkippedLink{Href: href, Reason: err.Error()})
			continue
		}
		d.Links = append(d.Links, link)
	}

	return d, nil
}

// counted passes seq through while incrementing n for every element.
func counted(seq iter.Seq[string], n *int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for s := range seq {
			*n++
			if !yield(s) {
				return
			}
		}
	}
}
