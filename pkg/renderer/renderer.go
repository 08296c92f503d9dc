// Package renderer paints match results without mutating the document's text
// nodes. Flowed-text matches go into a named highlight registry painted by a
// shared stylesheet; form-control matches get a synthetic overlay element
// since control values cannot host ranges.
package renderer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/matcher"
	"github.com/gooseworks/highlighter/pkg/scanner"
)

// FlashName is the registry entry for the transient navigation flash.
const FlashName = "goose-flash"

// FlashRule is the style painted under the flash entry.
var FlashRule = StyleRule{Name: FlashName, Background: "#ff0", Foreground: "#000"}

// StyleRule is one entry in the shared style-registration surface: the single
// rule painting every range registered under Name.
type StyleRule struct {
	Name       string
	Background string
	Foreground string
}

// Segment marks a matched span inside an overlay's text.
type Segment struct {
	Start   int
	End     int
	StyleID int
}

// Overlay is the synthetic element mirroring a form control's value with
// matched spans visually marked. It sits above the control and lets pointer
// events pass through; geometry is recomputed on every pass.
type Overlay struct {
	Control  *dom.Control
	Element  *html.Node
	Segments []Segment
}

// Renderer owns the highlight registry, the stylesheet replica and the
// control overlays. Only the engine's single pass goroutine touches it.
type Renderer struct {
	doc *dom.Document

	mu       sync.Mutex
	registry map[string][]dom.Range
	rules    []StyleRule
	overlays map[*dom.Control]*Overlay
}

// New creates a renderer for the document.
func New(doc *dom.Document) *Renderer {
	return &Renderer{
		doc:      doc,
		registry: make(map[string][]dom.Range),
		overlays: make(map[*dom.Control]*Overlay),
	}
}

// HighlightName returns the registry/stylesheet name for a style id.
func HighlightName(styleID int) string {
	return fmt.Sprintf("goose-highlight-%d", styleID)
}

// Clear removes every registered highlight, style rule and overlay. It is
// idempotent; every pass starts with a full clear.
func (r *Renderer) Clear() {
	r.mu.Lock()
	r.registry = make(map[string][]dom.Range)
	r.rules = nil
	overlays := r.overlays
	r.overlays = make(map[*dom.Control]*Overlay)
	r.mu.Unlock()

	for _, o := range overlays {
		if o.Element.Parent != nil {
			r.doc.RemoveChild(o.Element.Parent, o.Element)
		}
	}

	// Sweep stray engine elements in case an overlay's control left the tree.
	for _, el := range r.doc.ElementsWithAttr(scanner.MarkerAttr) {
		if el.Parent != nil {
			r.doc.RemoveChild(el.Parent, el)
		}
	}
}

// Apply renders a fresh indexing result: one style rule per style id, one
// registry entry per style holding its flowed ranges, one overlay per control
// with matches.
func (r *Renderer) Apply(res *matcher.Result) {
	rules := make([]StyleRule, len(res.Styles))
	registry := make(map[string][]dom.Range, len(res.Styles))
	for id, st := range res.Styles {
		name := HighlightName(id)
		rules[id] = StyleRule{Name: name, Background: st.Background, Foreground: st.Foreground}
		if ranges := res.ByStyle[id]; len(ranges) > 0 {
			registry[name] = append([]dom.Range(nil), ranges...)
		}
	}

	r.mu.Lock()
	r.rules = rules
	r.registry = registry
	r.mu.Unlock()

	controls := make([]*dom.Control, 0, len(res.ByControl))
	for c := range res.ByControl {
		controls = append(controls, c)
	}
	sort.Slice(controls, func(i, j int) bool {
		return controls[i].Line() < controls[j].Line()
	})
	for _, c := range controls {
		r.buildOverlay(c, res.ByControl[c])
	}
}

// buildOverlay creates and attaches the overlay element for one control.
func (r *Renderer) buildOverlay(control *dom.Control, matches []matcher.Match) {
	value := control.Value()
	style := fmt.Sprintf(
		"position:absolute;pointer-events:none;top:%dln;height:%dln;white-space:pre-wrap",
		control.Line(), control.Rows(),
	)

	el := r.doc.CreateElement("div",
		html.Attribute{Key: scanner.MarkerAttr},
		html.Attribute{Key: "class", Val: "goose-overlay"},
		html.Attribute{Key: "style", Val: style},
	)

	o := &Overlay{Control: control, Element: el}
	pos := 0
	for _, m := range matches {
		if m.Start > pos {
			el.AppendChild(r.doc.CreateTextNode(value[pos:m.Start]))
		}
		span := r.doc.CreateElement("span",
			html.Attribute{Key: scanner.MarkerAttr},
			html.Attribute{Key: "class", Val: HighlightName(m.StyleID)},
		)
		span.AppendChild(r.doc.CreateTextNode(value[m.Start:m.End]))
		el.AppendChild(span)
		o.Segments = append(o.Segments, Segment{Start: m.Start, End: m.End, StyleID: m.StyleID})
		pos = m.End
	}
	if pos < len(value) {
		el.AppendChild(r.doc.CreateTextNode(value[pos:]))
	}

	r.doc.AppendChild(r.doc.Body(), el)

	r.mu.Lock()
	r.overlays[control] = o
	r.mu.Unlock()
}

// Flash paints a transient highlight over a range and clears it by timer,
// independent of the next regular pass.
func (r *Renderer) Flash(rg dom.Range, d time.Duration) {
	r.mu.Lock()
	r.registry[FlashName] = append(r.registry[FlashName], rg)
	r.mu.Unlock()

	time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// Remove a single entry: re-flashing the same range keeps the
		// later flash alive for its full duration.
		ranges := r.registry[FlashName]
		for i, existing := range ranges {
			if existing == rg {
				ranges = append(ranges[:i], ranges[i+1:]...)
				break
			}
		}
		if len(ranges) == 0 {
			delete(r.registry, FlashName)
		} else {
			r.registry[FlashName] = ranges
		}
	})
}

// Registry returns a copy of the highlight registry.
func (r *Renderer) Registry() map[string][]dom.Range {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]dom.Range, len(r.registry))
	for name, ranges := range r.registry {
		out[name] = append([]dom.Range(nil), ranges...)
	}
	return out
}

// StyleRules returns a copy of the current stylesheet rules.
func (r *Renderer) StyleRules() []StyleRule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StyleRule(nil), r.rules...)
}

// Overlays returns the current overlays, one per control with input matches.
func (r *Renderer) Overlays() []*Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Overlay, 0, len(r.overlays))
	for _, o := range r.overlays {
		out = append(out, o)
	}
	return out
}
