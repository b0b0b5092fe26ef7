package links

import (
	"io"
	"iter"

	"golang.org/x/net/html"
)

// anchorTag and hrefAttr are compared against the tokenizer output, which
// lowercases tag and attribute names.
const (
	anchorTag = "a"
	hrefAttr  = "href"
)

// Extract returns a lazy sequence of the href values of every <a> element
// in the document read from r.
//
// Anchors without an href attribute are skipped. An empty href="" is
// yielded as the empty string. Attribute values are entity-decoded but
// otherwise returned as written.
//
// The sequence reads r as it is iterated and can be ranged over once.
func Extract(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		z := html.NewTokenizer(r)
		for {
			switch z.Next() {
			case html.ErrorToken:
				// io.EOF or a read error; either way the document is done.
				return
			case html.StartTagToken, html.SelfClosingTagToken:
				name, hasAttr := z.TagName()
				if !hasAttr || string(name) != anchorTag {
					continue
				}
				if href, ok := anchorHref(z); ok {
					if !yield(href) {
						return
					}
				}
			}
		}
	}
}

// anchorHref scans the attributes of the current tag for href.
func anchorHref(z *html.Tokenizer) (string, bool) {
	for {
		key, val, more := z.TagAttr()
		if string(key) == hrefAttr {
			return string(val), true
		}
		if !more {
			return "", false
		}
	}
}
