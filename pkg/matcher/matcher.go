// Package matcher executes a compiled pattern over scanned text and produces
// ordered match records for rendering and navigation.
package matcher

import (
	"fmt"
	"os"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/pattern"
	"github.com/gooseworks/highlighter/pkg/scanner"
)

// TargetKind distinguishes where a match lives.
type TargetKind int

const (
	// TargetFlowed is a match inside an ordinary document text node.
	TargetFlowed TargetKind = iota
	// TargetInput is a match inside a form control's value.
	TargetInput
)

// Match is a single occurrence of an active word.
type Match struct {
	Key     string
	StyleID int
	Kind    TargetKind

	// Flowed target.
	Range dom.Range

	// Input target: byte offsets into the control's value.
	Control *dom.Control
	Start   int
	End     int
}

// Result is the complete output of one indexing pass. It is discarded and
// rebuilt on every pass.
type Result struct {
	// ByStyle groups flowed ranges by style id for the highlight registry.
	ByStyle map[int][]dom.Range
	// ByKey lists every occurrence of a lookup key in document order,
	// flowed-text matches before form-control matches.
	ByKey map[string][]Match
	// ByControl groups input matches per control for overlay rendering.
	ByControl map[*dom.Control][]Match
	// Styles is the pass's deduplicated style set, indexed by style id.
	Styles []pattern.Style
	// Keys preserves alternation order for summary output.
	Keys []string
}

// Count returns the total number of occurrences of a lookup key.
func (r *Result) Count(key string) int {
	return len(r.ByKey[key])
}

// Index runs the pattern over every scanned text node and control value.
// A failure on one node skips that node only.
func Index(c *pattern.Compiled, s scanner.Scan) *Result {
	r := &Result{
		ByStyle:   make(map[int][]dom.Range),
		ByKey:     make(map[string][]Match),
		ByControl: make(map[*dom.Control][]Match),
		Styles:    c.Styles(),
		Keys:      c.Keys(),
	}

	for _, node := range s.TextNodes {
		indexNode(c, node, r)
	}

	for _, control := range s.Controls {
		indexControl(c, control, r)
	}

	return r
}

// indexNode records all matches in a single text node. A panic while matching
// one node is swallowed so the rest of the pass continues.
func indexNode(c *pattern.Compiled, node *html.Node, r *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			fmt.Fprintf(os.Stderr, "goose-highlighter: skipping node after match failure: %v\n", rec)
		}
	}()

	for _, span := range findSpans(c, node.Data) {
		key := c.LookupKey(node.Data[span[0]:span[1]])
		m := Match{
			Key:     key,
			StyleID: styleFor(c, key),
			Kind:    TargetFlowed,
			Range:   dom.Range{Node: node, Start: span[0], End: span[1]},
		}
		r.ByStyle[m.StyleID] = append(r.ByStyle[m.StyleID], m.Range)
		r.ByKey[key] = append(r.ByKey[key], m)
	}
}

// indexControl records all matches in a form control's value.
func indexControl(c *pattern.Compiled, control *dom.Control, r *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			fmt.Fprintf(os.Stderr, "goose-highlighter: skipping control after match failure: %v\n", rec)
		}
	}()

	value := control.Value()
	if value == "" {
		return
	}

	for _, span := range findSpans(c, value) {
		key := c.LookupKey(value[span[0]:span[1]])
		m := Match{
			Key:     key,
			StyleID: styleFor(c, key),
			Kind:    TargetInput,
			Control: control,
			Start:   span[0],
			End:     span[1],
		}
		r.ByControl[control] = append(r.ByControl[control], m)
		r.ByKey[key] = append(r.ByKey[key], m)
	}
}

// findSpans returns the non-overlapping match spans in text, applying the
// whole-word boundary when configured. Go's regexp has no lookaround, so the
// boundary rule ("not adjacent to a letter on either side") is checked on the
// runes surrounding each hit instead of inside the pattern. A rejected span
// may hide a shorter or later-starting match inside it, so scanning resumes
// one rune past the rejected start rather than past the whole span.
func findSpans(c *pattern.Compiled, text string) [][]int {
	if !c.Options().WholeWordOnly {
		return c.Regexp().FindAllStringIndex(text, -1)
	}

	var spans [][]int
	base := 0
	for base < len(text) {
		hit := c.Regexp().FindStringIndex(text[base:])
		if hit == nil {
			break
		}
		start, end := base+hit[0], base+hit[1]
		if letterBefore(text, start) || letterAfter(text, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			base = start + size
			continue
		}
		spans = append(spans, []int{start, end})
		base = end
	}
	return spans
}

func letterBefore(text string, pos int) bool {
	if pos == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return unicode.IsLetter(r)
}

func letterAfter(text string, pos int) bool {
	if pos == len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return unicode.IsLetter(r)
}

// styleFor resolves a key's style id, falling back to the default style so a
// missing association never aborts the pass.
func styleFor(c *pattern.Compiled, key string) int {
	if id, ok := c.StyleOf(key); ok {
		return id
	}
	return 0
}
