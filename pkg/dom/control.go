package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// textInputTypes are the single-line input types whose values are scanned.
// An input with no type attribute counts as text.
var textInputTypes = map[string]bool{
	"": true, "text": true, "search": true, "email": true, "url": true,
}

// Control is a text-bearing form control (textarea or text-like input).
// Its value lives outside the document's text tree, so it is scanned as a raw
// string and highlighted through a synthetic overlay.
type Control struct {
	doc       *Document
	node      *html.Node
	value     string
	selStart  int
	selEnd    int
	scrollTop int
}

// IsTextControl reports whether the element is an eligible form control.
func IsTextControl(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "textarea":
		return true
	case "input":
		t, _ := Attr(n, "type")
		return textInputTypes[strings.ToLower(t)]
	}
	return false
}

// Controls returns the document's eligible form controls in document order.
// Control identity is stable across calls for as long as the element remains
// in the tree.
func (d *Document) Controls() []*Control {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []*Control
	walk(d.root, func(n *html.Node) bool {
		if !IsTextControl(n) {
			return true
		}
		c, ok := d.controls[n]
		if !ok {
			c = &Control{doc: d, node: n, value: initialValue(n)}
			d.controls[n] = c
		}
		out = append(out, c)
		return false
	})
	return out
}

// initialValue reads a control's starting value from its markup: the value
// attribute for inputs, the text content for textareas.
func initialValue(n *html.Node) string {
	if n.Data == "input" {
		v, _ := Attr(n, "value")
		return v
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// Node returns the underlying element.
func (c *Control) Node() *html.Node {
	return c.node
}

// Multiline reports whether the control is a textarea.
func (c *Control) Multiline() bool {
	return c.node.Data == "textarea"
}

// Value returns the control's current value.
func (c *Control) Value() string {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.value
}

// SetValue replaces the control's value and notifies observers.
func (c *Control) SetValue(v string) {
	c.doc.mu.Lock()
	c.value = v
	if c.selStart > len(v) {
		c.selStart = len(v)
	}
	if c.selEnd > len(v) {
		c.selEnd = len(v)
	}
	c.doc.mu.Unlock()
	c.doc.notify(MutationRecord{Type: MutationValue, Target: c.node})
}

// Focus gives the control input focus.
func (c *Control) Focus() {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	c.doc.focused = c
}

// Focused reports whether the control has input focus.
func (c *Control) Focused() bool {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.doc.focused == c
}

// SetSelection selects the given byte span of the control's value.
func (c *Control) SetSelection(start, end int) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if end > len(c.value) {
		end = len(c.value)
	}
	if start > end {
		start = end
	}
	c.selStart, c.selEnd = start, end
}

// Selection returns the selected byte span of the control's value.
func (c *Control) Selection() (start, end int) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.selStart, c.selEnd
}

// Rows returns the control's visible height in lines.
func (c *Control) Rows() int {
	if !c.Multiline() {
		return 1
	}
	if v, ok := Attr(c.node, "rows"); ok {
		if rows, err := strconv.Atoi(v); err == nil && rows > 0 {
			return rows
		}
	}
	return 2
}

// ScrollToLine sets the control's internal scroll so the given value line is
// centered, clamped to the value's line count.
func (c *Control) ScrollToLine(line int) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	top := line - c.Rows()/2
	maxTop := strings.Count(c.value, "\n") + 1 - c.Rows()
	if top > maxTop {
		top = maxTop
	}
	if top < 0 {
		top = 0
	}
	c.scrollTop = top
}

// ScrollTop returns the first visible value line inside the control.
func (c *Control) ScrollTop() int {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return c.scrollTop
}

// Line returns the document line the control sits on.
func (c *Control) Line() int {
	return c.doc.LineOf(c.node)
}

// FocusedControl returns the control holding input focus, if any.
func (d *Document) FocusedControl() *Control {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused
}
