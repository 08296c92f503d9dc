// Package observer watches the document for content mutations, coalesces
// bursts, and triggers re-highlighting without feeding back on the engine's
// own writes.
package observer

import (
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/scanner"
)

// Observer debounces qualifying document mutations (and scroll events) into
// pipeline triggers. It has two states: watching, and suspended while a pass
// applies its side effects. Observation never overlaps a pass's own writes.
type Observer struct {
	doc     *dom.Document
	window  time.Duration
	trigger func()

	mu          sync.Mutex
	timer       *time.Timer
	unsubscribe func()
	suspended   bool
}

// New creates an observer that invokes trigger after the debounce window.
func New(doc *dom.Document, window time.Duration, trigger func()) *Observer {
	return &Observer{doc: doc, window: window, trigger: trigger}
}

// Start begins watching the document.
func (o *Observer) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unsubscribe == nil {
		o.unsubscribe = o.doc.Observe(o.handle)
	}
	o.suspended = false
}

// Stop ends observation and cancels any pending trigger.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disconnectLocked()
}

// Suspend disconnects observation for the duration of a pass so the pass's
// renderer writes are not seen as new content. A pending trigger is dropped;
// the pass that is about to run picks up the final state anyway.
func (o *Observer) Suspend() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = true
	o.disconnectLocked()
}

// Resume reconnects observation after a pass completes.
func (o *Observer) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = false
	if o.unsubscribe == nil {
		o.unsubscribe = o.doc.Observe(o.handle)
	}
}

func (o *Observer) disconnectLocked() {
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

// NotifyScroll feeds a viewport scroll into the same debounced trigger, for
// lazily rendered content brought into the tree.
func (o *Observer) NotifyScroll() {
	o.schedule()
}

// handle filters a mutation batch and schedules a trigger if it qualifies.
func (o *Observer) handle(recs []dom.MutationRecord) {
	if !qualifies(recs) {
		return
	}
	o.schedule()
}

// schedule restarts the single pending debounce timer.
func (o *Observer) schedule() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.suspended {
		return
	}
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.window, o.fire)
}

func (o *Observer) fire() {
	o.mu.Lock()
	o.timer = nil
	if o.suspended {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	o.trigger()
}

// qualifies reports whether a mutation batch contains content changes outside
// the engine's own highlight markers.
func qualifies(recs []dom.MutationRecord) bool {
	for _, rec := range recs {
		if rec.Target != nil && dom.HasAncestorWithAttr(rec.Target, scanner.MarkerAttr) {
			continue
		}
		switch rec.Type {
		case dom.MutationCharacterData, dom.MutationValue:
			return true
		case dom.MutationChildList:
			for _, n := range append(append([]*html.Node(nil), rec.Added...), rec.Removed...) {
				if n.Type == html.TextNode {
					return true
				}
				if n.Type == html.ElementNode && !dom.HasAttr(n, scanner.MarkerAttr) {
					return true
				}
			}
		}
	}
	return false
}
