package engine

import (
	"context"
	"testing"
	"time"

	"github.com/gooseworks/highlighter/pkg/config"
	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/messaging"
	"github.com/gooseworks/highlighter/pkg/testutil"
	"github.com/gooseworks/highlighter/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		DebounceWindow: 20 * time.Millisecond,
		FlashDuration:  time.Millisecond,
		ViewportHeight: 2,
	}
}

func settle() {
	time.Sleep(testConfig().DebounceWindow*3 + 20*time.Millisecond)
}

func defaultSettings(groups ...types.WordGroup) types.Settings {
	s := types.DefaultSettings()
	s.Groups = groups
	return s
}

func startEngine(t *testing.T, doc *dom.Document, s types.Settings) (*Engine, *messaging.Bus, *testutil.MemorySettingsStore) {
	t.Helper()
	store := testutil.NewMemorySettingsStore(s)
	bus := messaging.NewBus()
	cfg := testConfig()
	e := New(doc, store, bus, cfg)
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(e.Close)
	return e, bus, store
}

func summaryCount(e *Engine, word string) int {
	for _, s := range e.Summary() {
		if s.Word == word {
			return s.Count
		}
	}
	return 0
}

func TestEngine_InitialPass(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>a cat sat on a cat mat</p></body></html>")
	e, _, _ := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "animals", "#ffff00", "#000000", "cat"),
	))

	if got := summaryCount(e, "cat"); got != 2 {
		t.Errorf("summary count = %d, want 2", got)
	}
	if got := len(e.Renderer().StyleRules()); got != 1 {
		t.Errorf("got %d style rules, want 1", got)
	}
	if reg := e.Renderer().Registry(); len(reg) != 1 {
		t.Errorf("registry has %d entries, want 1", len(reg))
	}
}

func TestEngine_InactiveGroupExcluded(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>cat and dog</p></body></html>")
	inactive := testutil.Group(2, "off", "#ff0000", "#ffffff", "dog")
	inactive.Active = false
	e, _, _ := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "on", "#ffff00", "#000000", "cat"),
		inactive,
	))

	if got := summaryCount(e, "cat"); got != 1 {
		t.Errorf("active group word count = %d, want 1", got)
	}
	if got := summaryCount(e, "dog"); got != 0 {
		t.Errorf("inactive group word count = %d, want 0", got)
	}
}

func TestEngine_GlobalToggle(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>a cat</p></body></html>")
	e, bus, _ := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "animals", "#ffff00", "#000000", "cat"),
	))

	if summaryCount(e, "cat") != 1 {
		t.Fatal("no highlights before toggle")
	}

	bus.Publish(types.Message{Type: types.GlobalToggleUpdated, Enabled: false})
	if e.Summary() != nil {
		t.Error("summary not cleared after disable")
	}
	if reg := e.Renderer().Registry(); len(reg) != 0 {
		t.Errorf("registry has %d entries after disable, want 0", len(reg))
	}

	bus.Publish(types.Message{Type: types.GlobalToggleUpdated, Enabled: true})
	if got := summaryCount(e, "cat"); got != 1 {
		t.Errorf("summary count after re-enable = %d, want 1", got)
	}
}

func TestEngine_ExceptionGate(t *testing.T) {
	tests := []struct {
		name    string
		mode    types.ExceptionMode
		domains []string
		host    string
		want    int // cat matches
	}{
		{"blacklist listed host skipped", types.ExceptionBlacklist, []string{"example.com"}, "example.com", 0},
		{"blacklist other host highlighted", types.ExceptionBlacklist, []string{"example.com"}, "other.org", 1},
		{"whitelist listed host highlighted", types.ExceptionWhitelist, []string{"example.com"}, "example.com", 1},
		{"whitelist other host skipped", types.ExceptionWhitelist, []string{"example.com"}, "other.org", 0},
		{"subdomain is not the listed host", types.ExceptionBlacklist, []string{"example.com"}, "www.example.com", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testutil.MustParseDocument("<html><body><p>a cat</p></body></html>")
			doc.SetHostname(tt.host)

			s := defaultSettings(testutil.Group(1, "animals", "#ffff00", "#000000", "cat"))
			s.ExceptionMode = tt.mode
			s.ExceptionDomains = tt.domains

			e, _, _ := startEngine(t, doc, s)
			if got := summaryCount(e, "cat"); got != tt.want {
				t.Errorf("count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEngine_ExceptionsMessageReloads(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>a cat</p></body></html>")
	doc.SetHostname("example.com")
	e, bus, store := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "animals", "#ffff00", "#000000", "cat"),
	))

	if summaryCount(e, "cat") != 1 {
		t.Fatal("no highlights before exception added")
	}

	s := store.Settings()
	s.ExceptionDomains = []string{"example.com"}
	store.SetSettings(s)
	bus.Publish(types.Message{Type: types.ExceptionsListUpdated})

	if e.Summary() != nil {
		t.Error("highlights survive on a newly excepted host")
	}
}

func TestEngine_MatchOptionsMessage(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>Cat cat category</p></body></html>")
	e, bus, _ := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "animals", "#ffff00", "#000000", "cat"),
	))

	// Default: case-insensitive substring. "Cat", "cat" and the prefix of
	// "category" all count.
	if got := summaryCount(e, "cat"); got != 3 {
		t.Fatalf("default count = %d, want 3", got)
	}

	bus.Publish(types.Message{Type: types.MatchOptionsUpdated, MatchCase: true, MatchWhole: true})
	if got := summaryCount(e, "cat"); got != 1 {
		t.Errorf("case-sensitive whole-word count = %d, want 1", got)
	}
}

func TestEngine_WordListMessageReloads(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>cat and dog</p></body></html>")
	e, bus, store := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "animals", "#ffff00", "#000000", "cat"),
	))

	s := store.Settings()
	s.Groups = []types.WordGroup{testutil.Group(1, "animals", "#ffff00", "#000000", "cat", "dog")}
	store.SetSettings(s)
	bus.Publish(types.Message{Type: types.WordListUpdated})

	if got := summaryCount(e, "dog"); got != 1 {
		t.Errorf("count for newly added word = %d, want 1", got)
	}
}

func TestEngine_EmptyWordListClears(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>a cat</p></body></html>")
	e, bus, store := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "animals", "#ffff00", "#000000", "cat"),
	))

	store.SetSettings(defaultSettings())
	bus.Publish(types.Message{Type: types.WordListUpdated})

	if e.Summary() != nil {
		t.Error("summary not cleared after the last word was removed")
	}
	if reg := e.Renderer().Registry(); len(reg) != 0 {
		t.Errorf("registry has %d entries, want 0", len(reg))
	}
}

func TestEngine_MutationTriggersRepass(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>a cat</p></body></html>")
	e, _, _ := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "animals", "#ffff00", "#000000", "cat"),
	))

	if summaryCount(e, "cat") != 1 {
		t.Fatal("initial pass found no match")
	}

	p := doc.CreateElement("p")
	doc.AppendChild(p, doc.CreateTextNode("another cat arrives"))
	doc.AppendChild(doc.Body(), p)
	settle()

	if got := summaryCount(e, "cat"); got != 2 {
		t.Errorf("count after mutation = %d, want 2", got)
	}
}

func TestEngine_NavigateWraps(t *testing.T) {
	doc := testutil.MustParseDocument(`<html><body>
<p>cat one</p>
<p>cat two</p>
<p>cat three</p>
</body></html>`)
	e, _, _ := startEngine(t, doc, defaultSettings(
		testutil.Group(1, "animals", "#ffff00", "#000000", "cat"),
	))

	if !e.Navigate("cat", 0) {
		t.Fatal("navigate to first occurrence failed")
	}
	first := doc.Viewport().Top

	if !e.Navigate("cat", 2) {
		t.Fatal("navigate to last occurrence failed")
	}
	last := doc.Viewport().Top
	if last <= first {
		t.Fatalf("last occurrence top %d not below first %d", last, first)
	}

	if !e.Navigate("cat", 3) {
		t.Fatal("wrapping navigate failed")
	}
	if got := doc.Viewport().Top; got != first {
		t.Errorf("index past the end landed at top %d, want wrap to %d", got, first)
	}

	// Lookup is case-insensitive under default match options.
	if !e.Navigate("CAT", 0) {
		t.Error("navigate with different case failed")
	}

	if e.Navigate("zebra", 0) {
		t.Error("navigate to absent word reported success")
	}
}

func TestEngine_LoadFailureKeepsEngineDown(t *testing.T) {
	doc := testutil.MustParseDocument("<html><body><p>a cat</p></body></html>")
	store := testutil.NewMemorySettingsStore(types.Settings{})
	store.SetLoadError(context.DeadlineExceeded)

	e := New(doc, store, messaging.NewBus(), testConfig())
	if err := e.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded despite settings load failure")
	}
	if e.Summary() != nil {
		t.Error("summary non-nil after failed start")
	}
}
