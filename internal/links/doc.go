// Package links turns a fetched HTML page into the list of absolute URLs
// that should be downloaded.
//
// # Components
//
//   - Extract: lazily yields the raw href of every <a> element
//   - Filter: keeps hrefs whose trailing characters match an allow-list
//   - Resolve: joins a host-relative href onto the page Origin
//   - Discover: runs the three above eagerly over a whole document
//
// Design decision: Extraction uses the golang.org/x/net/html tokenizer
// rather than building a DOM, so hrefs are produced one at a time in a
// single pass over the document.
//
// # Supported link forms
//
// Only host-relative hrefs ("/images/a.png") are resolved. Absolute hrefs
// ("http://...", "https://...") and path-relative hrefs ("./a.png",
// "../a.png", "a.png") fail with ErrUnsupportedLinkForm.
//
// # Usage
//
//	origin, err := links.OriginOf(pageURL)
//	d, err := links.Discover(strings.NewReader(body), origin,
//	    links.NewFilter(), links.PolicyAbort)
package links
