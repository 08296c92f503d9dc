package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// blockTags are the elements that start a fresh text line.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "br": true, "dd": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "textarea": true, "tr": true,
	"ul": true,
}

// hiddenTags hold text that is never rendered.
var hiddenTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
}

type layout struct {
	nodeLine  map[*html.Node]int
	lineCount int
}

// layoutLocked returns the cached line layout, computing it if stale.
// Caller must hold d.mu.
func (d *Document) layoutLocked() *layout {
	if d.layout != nil {
		return d.layout
	}

	l := &layout{nodeLine: make(map[*html.Node]int)}
	line := 0
	filled := false

	breakLine := func() {
		if filled {
			line++
			filled = false
		}
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if hiddenTags[n.Data] {
				l.nodeLine[n] = line
				return
			}
			block := blockTags[n.Data]
			if block {
				breakLine()
			}
			l.nodeLine[n] = line
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
			if block {
				breakLine()
			}
		case html.TextNode:
			l.nodeLine[n] = line
			if strings.TrimSpace(n.Data) != "" {
				filled = true
			}
			line += strings.Count(n.Data, "\n")
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
		}
	}
	visit(d.root)

	l.lineCount = line
	if filled {
		l.lineCount++
	}
	if l.lineCount < 1 {
		l.lineCount = 1
	}

	d.layout = l
	return l
}

// LineOf returns the text line a node starts on.
func (d *Document) LineOf(n *html.Node) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layoutLocked().nodeLine[n]
}

// LineCount returns the total number of text lines in the document.
func (d *Document) LineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layoutLocked().lineCount
}

// Viewport returns the current window viewport.
func (d *Document) Viewport() Viewport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// SetViewport replaces the window viewport.
func (d *Document) SetViewport(v Viewport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v.Height < 1 {
		v.Height = 1
	}
	d.viewport = v
}

// ScrollTo scrolls the window so the given line is vertically centered,
// clamped to the document bounds.
func (d *Document) ScrollTo(line int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := d.layoutLocked()
	top := line - d.viewport.Height/2
	maxTop := l.lineCount - d.viewport.Height
	if top > maxTop {
		top = maxTop
	}
	if top < 0 {
		top = 0
	}
	d.viewport.Top = top
}

// IsScrollable reports whether the element is an independently scrollable
// container (an explicit overflow declaration in its style attribute).
func IsScrollable(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	style, ok := Attr(n, "style")
	if !ok {
		return false
	}
	style = strings.ToLower(style)
	return strings.Contains(style, "overflow") &&
		(strings.Contains(style, "auto") || strings.Contains(style, "scroll"))
}

// ScrollableAncestors returns the scrollable containers above n, nearest first.
func ScrollableAncestors(n *html.Node) []*html.Node {
	var out []*html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		if IsScrollable(p) {
			out = append(out, p)
		}
	}
	return out
}

// containerRows returns the visible height of a scrollable container in lines.
func containerRows(n *html.Node) int {
	if v, ok := Attr(n, "data-rows"); ok {
		if rows, err := strconv.Atoi(v); err == nil && rows > 0 {
			return rows
		}
	}
	return 10
}

// ScrollContainerTo adjusts a scrollable container's internal offset so the
// given document line is centered within it.
func (d *Document) ScrollContainerTo(container *html.Node, line int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := d.layoutLocked()
	offset := line - l.nodeLine[container] - containerRows(container)/2
	if offset < 0 {
		offset = 0
	}
	d.containerScroll[container] = offset
}

// ContainerScroll returns a scrollable container's internal offset in lines.
func (d *Document) ContainerScroll(container *html.Node) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.containerScroll[container]
}

// Text renders the document's visible text content, one string per layout
// line joined by newlines.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	line := 0
	filled := false

	breakLine := func() {
		if filled {
			b.WriteByte('\n')
			line++
			filled = false
		}
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if hiddenTags[n.Data] {
				return
			}
			block := blockTags[n.Data]
			if block {
				breakLine()
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
			if block {
				breakLine()
			}
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				b.WriteString(n.Data)
				filled = true
			}
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				visit(c)
			}
		}
	}
	visit(d.root)

	return b.String()
}
