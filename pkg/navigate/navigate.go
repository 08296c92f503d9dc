// Package navigate scrolls and flashes a specific occurrence of a word.
package navigate

import (
	"strings"
	"time"

	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/matcher"
	"github.com/gooseworks/highlighter/pkg/renderer"
)

// Navigator takes a lookup key plus occurrence index and brings that match
// into view. Occurrence order is document order with flowed-text matches
// before form-control matches.
type Navigator struct {
	doc      *dom.Document
	renderer *renderer.Renderer
	flash    time.Duration
}

// New creates a navigator. flash is how long the transient highlight stays on.
func New(doc *dom.Document, r *renderer.Renderer, flash time.Duration) *Navigator {
	return &Navigator{doc: doc, renderer: r, flash: flash}
}

// Go navigates to occurrence index of key within the given pass result.
// The index wraps: one past the last occurrence resolves to the first,
// negative indices count back from the end. With no occurrences Go is a
// silent no-op and returns false.
func (nv *Navigator) Go(res *matcher.Result, key string, index int) bool {
	occurrences := res.ByKey[key]
	total := len(occurrences)
	if total == 0 {
		return false
	}

	index = ((index % total) + total) % total
	m := occurrences[index]

	switch m.Kind {
	case matcher.TargetInput:
		nv.goInput(m)
	default:
		nv.goFlowed(m)
	}
	return true
}

// goFlowed scrolls intermediate scrollable containers, centers the window on
// the match, then flashes it.
func (nv *Navigator) goFlowed(m matcher.Match) {
	line := nv.doc.LineOf(m.Range.Node)

	for _, container := range dom.ScrollableAncestors(m.Range.Node) {
		nv.doc.ScrollContainerTo(container, line)
	}

	nv.doc.ScrollTo(line)
	nv.renderer.Flash(m.Range, nv.flash)
}

// goInput scrolls the control into view, centers the matched line inside a
// textarea, then focuses the control and selects exactly the matched text.
func (nv *Navigator) goInput(m matcher.Match) {
	nv.doc.ScrollTo(m.Control.Line())

	if m.Control.Multiline() {
		line := strings.Count(m.Control.Value()[:m.Start], "\n")
		m.Control.ScrollToLine(line)
	}

	m.Control.Focus()
	m.Control.SetSelection(m.Start, m.End)
}
