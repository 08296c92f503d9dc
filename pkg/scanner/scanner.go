// Package scanner enumerates the text-bearing parts of a document that are
// eligible for highlighting.
package scanner

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/gooseworks/highlighter/pkg/dom"
)

// MarkerAttr tags engine-generated elements. Text inside marked elements is
// never re-scanned; without this the engine would match inside its own
// output and grow without bound.
const MarkerAttr = "data-gh"

// excludedTags hold text that is never user-visible page content.
var excludedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
}

// Scan is one full enumeration of a document's matchable text.
type Scan struct {
	// TextNodes are the eligible text leaves in document order.
	TextNodes []*html.Node
	// Controls are the form controls whose values get overlay highlighting.
	Controls []*dom.Control
}

// ScanDocument walks the content tree in document order and collects eligible
// text nodes and form controls. It holds no state; every pass re-walks in full.
func ScanDocument(doc *dom.Document) Scan {
	var s Scan

	doc.Walk(func(n *html.Node) bool {
		switch n.Type {
		case html.ElementNode:
			if excludedTags[n.Data] {
				return false
			}
			if dom.HasAttr(n, MarkerAttr) {
				return false
			}
		case html.TextNode:
			if strings.TrimSpace(n.Data) == "" {
				return true
			}
			s.TextNodes = append(s.TextNodes, n)
		}
		return true
	})

	for _, c := range doc.Controls() {
		if dom.HasAncestorWithAttr(c.Node(), MarkerAttr) {
			continue
		}
		s.Controls = append(s.Controls, c)
	}
	return s
}
