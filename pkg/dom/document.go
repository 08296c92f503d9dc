// Package dom provides the mutable document model the engine highlights
// against: an HTML tree with mutation observation, form controls, and a
// line-based layout for scrolling and navigation.
package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// MutationType classifies a document mutation.
type MutationType int

const (
	// MutationChildList is a node added to or removed from an element.
	MutationChildList MutationType = iota
	// MutationCharacterData is a text node content change.
	MutationCharacterData
	// MutationValue is a form control value change.
	MutationValue
)

// MutationRecord describes one document mutation.
type MutationRecord struct {
	Type    MutationType
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node
}

// Range identifies a span of text inside a single text node.
// Start and End are byte offsets into the node's data, End exclusive.
type Range struct {
	Node  *html.Node
	Start int
	End   int
}

// Viewport is the visible window over the document, in text lines.
type Viewport struct {
	Top    int
	Height int
}

// Document owns a parsed HTML tree plus the page state the engine needs:
// hostname, viewport, per-container scroll offsets, form control values and
// mutation observers. All methods are safe for concurrent use.
type Document struct {
	mu              sync.Mutex
	root            *html.Node
	hostname        string
	viewport        Viewport
	observers       map[int]func([]MutationRecord)
	nextObserver    int
	controls        map[*html.Node]*Control
	containerScroll map[*html.Node]int
	focused         *Control
	layout          *layout
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{
		root:            root,
		viewport:        Viewport{Height: 40},
		observers:       make(map[int]func([]MutationRecord)),
		controls:        make(map[*html.Node]*Control),
		containerScroll: make(map[*html.Node]int),
	}, nil
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document root node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element, or the root if none exists.
func (d *Document) Body() *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b := findElement(d.root, "body"); b != nil {
		return b
	}
	return d.root
}

// SetHostname records the host the page was loaded from.
func (d *Document) SetHostname(host string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hostname = host
}

// Hostname returns the host the page was loaded from.
func (d *Document) Hostname() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hostname
}

// Observe registers an observer for future mutations and returns a function
// that unregisters it.
func (d *Document) Observe(fn func([]MutationRecord)) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextObserver
	d.nextObserver++
	d.observers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

// notify invalidates layout and delivers records to observers outside the lock.
func (d *Document) notify(recs ...MutationRecord) {
	d.mu.Lock()
	d.layout = nil
	fns := make([]func([]MutationRecord), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(recs)
	}
}

// CreateElement builds a detached element node.
func (d *Document) CreateElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, Attr: attrs}
}

// CreateTextNode builds a detached text node.
func (d *Document) CreateTextNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// AppendChild attaches child as the last child of parent.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.mu.Lock()
	parent.AppendChild(child)
	d.mu.Unlock()
	d.notify(MutationRecord{Type: MutationChildList, Target: parent, Added: []*html.Node{child}})
}

// RemoveChild detaches child from parent.
func (d *Document) RemoveChild(parent, child *html.Node) {
	d.mu.Lock()
	parent.RemoveChild(child)
	delete(d.containerScroll, child)
	d.mu.Unlock()
	d.notify(MutationRecord{Type: MutationChildList, Target: parent, Removed: []*html.Node{child}})
}

// SetText replaces the content of a text node.
func (d *Document) SetText(n *html.Node, text string) {
	d.mu.Lock()
	n.Data = text
	d.mu.Unlock()
	d.notify(MutationRecord{Type: MutationCharacterData, Target: n})
}

// SetAttr sets or replaces an attribute on an element.
func (d *Document) SetAttr(n *html.Node, key, val string) {
	d.mu.Lock()
	set := false
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			set = true
			break
		}
	}
	if !set {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
	d.mu.Unlock()
}

// RangeText returns the text a range spans. Out-of-bounds ranges yield "".
func (d *Document) RangeText(r Range) string {
	if r.Node == nil || r.Node.Type != html.TextNode {
		return ""
	}
	if r.Start < 0 || r.End > len(r.Node.Data) || r.Start > r.End {
		return ""
	}
	return r.Node.Data[r.Start:r.End]
}

// ElementsWithAttr returns all elements carrying the attribute, in document order.
func (d *Document) ElementsWithAttr(key string) []*html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if _, ok := Attr(n, key); ok {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// Attr returns the value of an attribute on an element.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the element carries the attribute.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// HasAncestorWithAttr reports whether n or any ancestor carries the attribute.
func HasAncestorWithAttr(n *html.Node, key string) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && HasAttr(p, key) {
			return true
		}
	}
	return false
}

// walk visits n and its subtree in document order. Returning false from fn
// skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// Walk visits every node in document order. Returning false skips a subtree.
func (d *Document) Walk(fn func(*html.Node) bool) {
	walk(d.root, fn)
}

func findElement(n *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c.Type == html.ElementNode && c.Data == tag {
			found = c
			return false
		}
		return true
	})
	return found
}
