// Package engine runs the highlighting pipeline: compile the active word set,
// scan the document, index matches, render highlights, and keep them current
// as the document mutates.
package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gooseworks/highlighter/pkg/config"
	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/interfaces"
	"github.com/gooseworks/highlighter/pkg/matcher"
	"github.com/gooseworks/highlighter/pkg/navigate"
	"github.com/gooseworks/highlighter/pkg/observer"
	"github.com/gooseworks/highlighter/pkg/pattern"
	"github.com/gooseworks/highlighter/pkg/renderer"
	"github.com/gooseworks/highlighter/pkg/scanner"
	"github.com/gooseworks/highlighter/pkg/types"
)

// WordSummary describes one active word with at least one match on the page.
type WordSummary struct {
	Word       string
	Count      int
	Background string
	Foreground string
}

// Engine is the per-page highlighting instance. It owns the current settings
// snapshot, the compiled pattern and the render registries; nothing else
// writes to them.
type Engine struct {
	doc       *dom.Document
	source    interfaces.SettingsSource
	bus       interfaces.Bus
	cfg       *config.Config
	renderer  *renderer.Renderer
	observer  *observer.Observer
	navigator *navigate.Navigator

	inFlight atomic.Bool

	mu          sync.Mutex
	settings    types.Settings
	excepted    bool
	compiled    *pattern.Compiled
	result      *matcher.Result
	unsubscribe func()
}

// New creates an engine for one document. Call Start to load settings and
// begin observing.
func New(doc *dom.Document, source interfaces.SettingsSource, bus interfaces.Bus, cfg *config.Config) *Engine {
	e := &Engine{
		doc:    doc,
		source: source,
		bus:    bus,
		cfg:    cfg,
	}
	e.renderer = renderer.New(doc)
	e.observer = observer.New(doc, cfg.DebounceWindow, e.runPass)
	e.navigator = navigate.New(doc, e.renderer, cfg.FlashDuration)
	doc.SetViewport(dom.Viewport{Height: cfg.ViewportHeight})
	return e
}

// Start loads settings, runs the initial pass and begins observing the
// document and the bus.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Reconfigure(ctx); err != nil {
		return err
	}
	e.observer.Start()
	if e.bus != nil {
		e.mu.Lock()
		e.unsubscribe = e.bus.Subscribe(e.handleMessage)
		e.mu.Unlock()
	}
	return nil
}

// Close stops observation and message handling. Highlights are left in place.
func (e *Engine) Close() {
	e.observer.Stop()
	e.mu.Lock()
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.mu.Unlock()
}

// Reconfigure reloads the settings snapshot, re-evaluates the exception gate
// and runs a pass. The gate is evaluated here, once per settings reload.
func (e *Engine) Reconfigure(ctx context.Context) error {
	settings, err := e.source.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	e.mu.Lock()
	e.settings = settings
	e.excepted = settings.HostExcepted(e.doc.Hostname())
	e.mu.Unlock()

	e.runPass()
	return nil
}

// handleMessage reacts to settings-change notifications: reload the relevant
// data, then re-run the pipeline.
func (e *Engine) handleMessage(msg types.Message) {
	switch msg.Type {
	case types.WordListUpdated, types.ExceptionsListUpdated:
		if err := e.Reconfigure(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "goose-highlighter: settings reload failed: %v\n", err)
		}
	case types.GlobalToggleUpdated:
		e.mu.Lock()
		e.settings.Enabled = msg.Enabled
		e.mu.Unlock()
		e.runPass()
	case types.MatchOptionsUpdated:
		e.mu.Lock()
		e.settings.Match = types.MatchOptions{
			CaseSensitive: msg.MatchCase,
			WholeWordOnly: msg.MatchWhole,
		}
		e.mu.Unlock()
		e.runPass()
	}
}

// NotifyScroll feeds a viewport scroll into the debounced pipeline trigger.
func (e *Engine) NotifyScroll() {
	e.observer.NotifyScroll()
}

// runPass executes one compile-scan-match-render cycle. At most one pass runs
// at a time; a trigger arriving mid-pass is dropped, not queued, and the next
// natural trigger picks up the final state. Observation is disconnected for
// the pass's full duration so its own writes are never observed.
func (e *Engine) runPass() {
	if !e.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer e.inFlight.Store(false)

	e.observer.Suspend()
	defer e.observer.Resume()

	e.mu.Lock()
	settings := e.settings
	excepted := e.excepted
	e.mu.Unlock()

	if !settings.Enabled || excepted {
		e.renderer.Clear()
		e.setResult(nil, nil)
		return
	}

	compiled, err := pattern.Compile(settings.Groups, settings.Match)
	if err != nil {
		// Recoverable: abort this pass only, prior highlights stay up.
		fmt.Fprintf(os.Stderr, "goose-highlighter: %v\n", err)
		return
	}

	e.renderer.Clear()

	if compiled == nil {
		// No active words: cleared, now idle until settings change.
		e.setResult(nil, nil)
		return
	}

	scan := scanner.ScanDocument(e.doc)
	result := matcher.Index(compiled, scan)
	e.renderer.Apply(result)
	e.setResult(compiled, result)
}

func (e *Engine) setResult(c *pattern.Compiled, r *matcher.Result) {
	e.mu.Lock()
	e.compiled = c
	e.result = r
	e.mu.Unlock()
}

// Summary returns, per distinct active word with at least one match, its
// total occurrence count and effective colors, in alternation order.
func (e *Engine) Summary() []WordSummary {
	e.mu.Lock()
	result := e.result
	e.mu.Unlock()
	if result == nil {
		return nil
	}

	var out []WordSummary
	for _, key := range result.Keys {
		matches := result.ByKey[key]
		if len(matches) == 0 {
			continue
		}
		st := result.Styles[matches[0].StyleID]
		out = append(out, WordSummary{
			Word:       key,
			Count:      len(matches),
			Background: st.Background,
			Foreground: st.Foreground,
		})
	}
	return out
}

// Navigate scrolls to occurrence index of word, wrapping out-of-range
// indices. It reports whether a match was navigated to; zero occurrences is
// a silent no-op.
func (e *Engine) Navigate(word string, index int) bool {
	e.mu.Lock()
	compiled := e.compiled
	result := e.result
	e.mu.Unlock()
	if compiled == nil || result == nil {
		return false
	}
	return e.navigator.Go(result, compiled.LookupKey(word), index)
}

// Renderer exposes the render registries for inspection.
func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}
