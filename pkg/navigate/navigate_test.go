package navigate

import (
	"testing"
	"time"

	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/matcher"
	"github.com/gooseworks/highlighter/pkg/pattern"
	"github.com/gooseworks/highlighter/pkg/renderer"
	"github.com/gooseworks/highlighter/pkg/scanner"
	"github.com/gooseworks/highlighter/pkg/testutil"
	"github.com/gooseworks/highlighter/pkg/types"
)

func index(t *testing.T, doc *dom.Document, words ...string) *matcher.Result {
	t.Helper()
	compiled, err := pattern.Compile(
		[]types.WordGroup{testutil.Group(1, "test", "#ffff00", "#000000", words...)},
		types.MatchOptions{},
	)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return matcher.Index(compiled, scanner.ScanDocument(doc))
}

func TestGo_WrapsIndex(t *testing.T) {
	doc := testutil.MustParseDocument(`<html><body>
<p>cat one</p>
<p>cat two</p>
<p>cat three</p>
</body></html>`)
	doc.SetViewport(dom.Viewport{Height: 2})
	nv := New(doc, renderer.New(doc), time.Millisecond)
	res := index(t, doc, "cat")

	lines := make([]int, 3)
	for i, m := range res.ByKey["cat"] {
		lines[i] = doc.LineOf(m.Range.Node)
	}

	tests := []struct {
		name  string
		index int
		want  int // occurrence we expect to land on
	}{
		{"first", 0, 0},
		{"last", 2, 2},
		{"one past last wraps to first", 3, 0},
		{"negative counts from end", -1, 2},
		{"large negative", -4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !nv.Go(res, "cat", tt.index) {
				t.Fatal("Go returned false, want true")
			}
			wantTop := lines[tt.want] - 1 // viewport of 2 centered on the line
			if wantTop < 0 {
				wantTop = 0
			}
			if got := doc.Viewport().Top; got != wantTop {
				t.Errorf("viewport top = %d, want %d", got, wantTop)
			}
		})
	}
}

func TestGo_NoOccurrences(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>nothing here</p></body></html>")
	nv := New(doc, renderer.New(doc), time.Millisecond)
	res := index(t, doc, "cat")

	before := doc.Viewport()
	if nv.Go(res, "cat", 0) {
		t.Error("Go returned true for a word with no occurrences")
	}
	if doc.Viewport() != before {
		t.Error("viewport moved on a no-op navigation")
	}
}

func TestGo_FlashesFlowedMatch(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>a cat sat</p></body></html>")
	r := renderer.New(doc)
	nv := New(doc, r, 50*time.Millisecond)
	res := index(t, doc, "cat")

	if !nv.Go(res, "cat", 0) {
		t.Fatal("Go returned false")
	}

	reg := r.Registry()
	if got := len(reg[renderer.FlashName]); got != 1 {
		t.Fatalf("flash registry has %d ranges, want 1", got)
	}
	want := res.ByKey["cat"][0].Range
	if reg[renderer.FlashName][0] != want {
		t.Errorf("flash range = %+v, want %+v", reg[renderer.FlashName][0], want)
	}
}

func TestGo_ScrollsContainers(t *testing.T) {
	doc := testutil.MustParseDocument(`<html><body>
<div id="box" style="overflow: auto" data-rows="2">
<p>filler</p>
<p>filler</p>
<p>filler</p>
<p>cat deep inside</p>
</div>
</body></html>`)
	doc.SetViewport(dom.Viewport{Height: 3})
	nv := New(doc, renderer.New(doc), time.Millisecond)
	res := index(t, doc, "cat")

	if !nv.Go(res, "cat", 0) {
		t.Fatal("Go returned false")
	}

	box := testutil.FindElement(doc, "div")
	if got := doc.ContainerScroll(box); got == 0 {
		t.Error("scrollable container was not scrolled toward the match")
	}
}

func TestGo_InputSelectsMatch(t *testing.T) {
	doc := testutil.MustParseDocument(`<html><body><input type="text" value="the cat here"></body></html>`)
	nv := New(doc, renderer.New(doc), time.Millisecond)
	res := index(t, doc, "cat")

	occ := res.ByKey["cat"]
	if len(occ) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occ))
	}

	if !nv.Go(res, "cat", 0) {
		t.Fatal("Go returned false")
	}

	ctrl := occ[0].Control
	if !ctrl.Focused() {
		t.Error("control not focused after navigation")
	}
	start, end := ctrl.Selection()
	if start != 4 || end != 7 {
		t.Errorf("selection = [%d, %d), want [4, 7)", start, end)
	}
}

func TestGo_TextareaScrollsToMatchedLine(t *testing.T) {
	doc := testutil.MustParseDocument(`<html><body><textarea rows="3">one
two
three
four
five cat
six</textarea></body></html>`)
	nv := New(doc, renderer.New(doc), time.Millisecond)
	res := index(t, doc, "cat")

	if !nv.Go(res, "cat", 0) {
		t.Fatal("Go returned false")
	}

	ctrl := res.ByKey["cat"][0].Control
	// "five cat" is internal line 4; a 3-row textarea centered on it
	// scrolls to line 3.
	if got := ctrl.ScrollTop(); got != 3 {
		t.Errorf("textarea scrollTop = %d, want 3", got)
	}
	start, end := ctrl.Selection()
	if ctrl.Value()[start:end] != "cat" {
		t.Errorf("selection covers %q, want %q", ctrl.Value()[start:end], "cat")
	}
}
