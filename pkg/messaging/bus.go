// Package messaging provides the fire-and-forget notification bus between the
// settings UI and the highlighting engine.
package messaging

import (
	"fmt"
	"os"
	"sync"

	"github.com/gooseworks/highlighter/pkg/types"
)

// Bus broadcasts settings-change messages to every subscriber. A panicking
// recipient is logged and skipped; broadcast to the rest must not fail
// because one recipient is gone.
type Bus struct {
	mu      sync.Mutex
	subs    map[int]func(types.Message)
	nextSub int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(types.Message))}
}

// Subscribe registers a recipient and returns a function that removes it.
func (b *Bus) Subscribe(fn func(types.Message)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the message to every subscriber.
func (b *Bus) Publish(msg types.Message) {
	b.mu.Lock()
	fns := make([]func(types.Message), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		deliver(fn, msg)
	}
}

func deliver(fn func(types.Message), msg types.Message) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "goose-highlighter: message recipient failed: %v\n", r)
		}
	}()
	fn(msg)
}
