package renderer

import (
	"reflect"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/matcher"
	"github.com/gooseworks/highlighter/pkg/pattern"
	"github.com/gooseworks/highlighter/pkg/scanner"
	"github.com/gooseworks/highlighter/pkg/testutil"
	"github.com/gooseworks/highlighter/pkg/types"
)

func indexPage(t *testing.T, doc *dom.Document, words ...string) *matcher.Result {
	t.Helper()
	g := testutil.Group(1, "test", "#ffff00", "#000000", words...)
	c, err := pattern.Compile([]types.WordGroup{g}, types.MatchOptions{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return matcher.Index(c, scanner.ScanDocument(doc))
}

func TestApply_RegistryAndRules(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>cat and cat</p></body></html>")
	r := New(doc)

	r.Apply(indexPage(t, doc, "cat"))

	registry := r.Registry()
	ranges, ok := registry[HighlightName(0)]
	if !ok {
		t.Fatalf("registry missing %q: %v", HighlightName(0), registry)
	}
	if len(ranges) != 2 {
		t.Fatalf("got %d ranges, want 2", len(ranges))
	}
	for _, rg := range ranges {
		if got := doc.RangeText(rg); got != "cat" {
			t.Errorf("range spans %q, want %q", got, "cat")
		}
	}

	rules := r.StyleRules()
	if len(rules) != 1 {
		t.Fatalf("got %d style rules, want 1", len(rules))
	}
	if rules[0].Background != "#ffff00" || rules[0].Foreground != "#000000" {
		t.Errorf("rule = %+v, want group colors", rules[0])
	}
}

func TestApply_DoesNotMutateTextNodes(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>cat here</p></body></html>")
	node := testutil.FindText(doc, "cat")
	r := New(doc)

	r.Apply(indexPage(t, doc, "cat"))

	if node.Data != "cat here" {
		t.Errorf("text node mutated to %q; highlighting must be non-destructive", node.Data)
	}
	if after := testutil.FindText(doc, "cat"); after != node {
		t.Error("text node identity changed across a pass")
	}
}

func TestClearThenRebuild_Idempotent(t *testing.T) {
	doc := testutil.MustParseDocument(`<html><body><p>cat</p><input type="text" value="cat too"></body></html>`)
	r := New(doc)

	run := func() map[string][]dom.Range {
		r.Clear()
		r.Apply(indexPage(t, doc, "cat"))
		return r.Registry()
	}

	first := run()
	second := run()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("registry drifted across identical passes:\nfirst  = %v\nsecond = %v", first, second)
	}
	if got := len(r.Overlays()); got != 1 {
		t.Errorf("got %d overlays after rebuild, want 1", got)
	}
}

func TestClear_RemovesEverything(t *testing.T) {
	doc := testutil.MustParseDocument(`<html><body><p>cat</p><textarea>cat</textarea></body></html>`)
	r := New(doc)
	r.Apply(indexPage(t, doc, "cat"))

	if len(r.Overlays()) == 0 {
		t.Fatal("expected an overlay before clear")
	}

	r.Clear()

	if got := len(r.Registry()); got != 0 {
		t.Errorf("registry has %d entries after clear, want 0", got)
	}
	if got := len(r.StyleRules()); got != 0 {
		t.Errorf("got %d style rules after clear, want 0", got)
	}
	if got := len(r.Overlays()); got != 0 {
		t.Errorf("got %d overlays after clear, want 0", got)
	}
	if got := len(doc.ElementsWithAttr(scanner.MarkerAttr)); got != 0 {
		t.Errorf("%d engine elements left in tree after clear, want 0", got)
	}
}

func TestOverlay_MirrorsControlValue(t *testing.T) {
	doc := testutil.MustParseDocument(`<html><body><input type="text" value="a cat sat"></body></html>`)
	r := New(doc)
	r.Apply(indexPage(t, doc, "cat"))

	overlays := r.Overlays()
	if len(overlays) != 1 {
		t.Fatalf("got %d overlays, want 1", len(overlays))
	}
	o := overlays[0]

	if !dom.HasAttr(o.Element, scanner.MarkerAttr) {
		t.Error("overlay element must carry the engine marker")
	}
	if o.Element.Parent == nil {
		t.Error("overlay element not attached to the document")
	}

	// The overlay text mirrors the full value, with the match in a span.
	var text string
	var spans int
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			text += n.Data
		}
		if n.Type == html.ElementNode && n.Data == "span" {
			spans++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(o.Element)

	if text != "a cat sat" {
		t.Errorf("overlay text = %q, want full control value", text)
	}
	if spans != 1 {
		t.Errorf("got %d marked spans, want 1", spans)
	}
	if len(o.Segments) != 1 || o.Segments[0].Start != 2 || o.Segments[0].End != 5 {
		t.Errorf("segments = %+v, want one segment spanning the match", o.Segments)
	}
}

func TestFlash_RepeatKeepsFullDuration(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>cat</p></body></html>")
	node := testutil.FindText(doc, "cat")
	r := New(doc)
	rg := dom.Range{Node: node, Start: 0, End: 3}

	r.Flash(rg, 200*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	r.Flash(rg, 200*time.Millisecond)

	// t=250ms: the first timer fired and must take only one entry with it.
	time.Sleep(150 * time.Millisecond)
	if got := len(r.Registry()[FlashName]); got != 1 {
		t.Fatalf("flash registry has %d ranges after first timer, want 1", got)
	}

	// t=400ms: the second timer clears the remaining entry.
	time.Sleep(150 * time.Millisecond)
	if got := len(r.Registry()[FlashName]); got != 0 {
		t.Errorf("flash registry has %d ranges after second timer, want 0", got)
	}
}

func TestFlash_ClearsByTimer(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>cat</p></body></html>")
	node := testutil.FindText(doc, "cat")
	r := New(doc)

	r.Flash(dom.Range{Node: node, Start: 0, End: 3}, 30*time.Millisecond)

	if got := len(r.Registry()[FlashName]); got != 1 {
		t.Fatalf("flash registry has %d ranges, want 1", got)
	}

	time.Sleep(100 * time.Millisecond)

	if got := len(r.Registry()[FlashName]); got != 0 {
		t.Errorf("flash registry has %d ranges after timer, want 0", got)
	}
}
