package links

import (
	"iter"
	"slices"
	"strings"
)

// DefaultExtensions is the allow-list used when no extensions are configured.
var DefaultExtensions = []string{"tif", "tiff", "jpg", "png", "svg"}

// Filter keeps hrefs whose trailing characters match one of its suffixes.
//
// The comparison is a plain case-sensitive suffix test on the raw href:
// no lowercasing, no query stripping, and no leading dot is required, so
// "FILE.PNG" is rejected while "file.png" is accepted.
type Filter struct {
	suffixes []string
}

// NewFilter creates a Filter for the given suffixes.
// With no suffixes it uses DefaultExtensions.
func NewFilter(suffixes ...string) *Filter {
	if len(suffixes) == 0 {
		suffixes = DefaultExtensions
	}
	return &Filter{suffixes: slices.Clone(suffixes)}
}

// Match reports whether href ends with one of the filter's suffixes.
func (f *Filter) Match(href string) bool {
	for _, s := range f.suffixes {
		if strings.HasSuffix(href, s) {
			return true
		}
	}
	return false
}

// Extensions returns a copy of the suffix allow-list.
func (f *Filter) Extensions() []string {
	return slices.Clone(f.suffixes)
}

// Select lazily yields the hrefs of seq that match the filter.
func (f *Filter) Select(seq iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for href := range seq {
			if f.Match(href) && !yield(href) {
				return
			}
		}
	}
}
