// Package testutil provides thread-safe mocks and document builders for tests.
package testutil

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/gooseworks/highlighter/pkg/dom"
	"github.com/gooseworks/highlighter/pkg/types"
)

// MemorySettingsStore is an in-memory implementation of
// interfaces.SettingsStore for testing.
type MemorySettingsStore struct {
	mu       sync.Mutex
	settings types.Settings
	loadErr  error
	saveErr  error
	loads    int
	saves    int
}

// NewMemorySettingsStore creates a store holding the given settings.
func NewMemorySettingsStore(s types.Settings) *MemorySettingsStore {
	return &MemorySettingsStore{settings: s}
}

// LoadSettings implements interfaces.SettingsSource.
func (m *MemorySettingsStore) LoadSettings(_ context.Context) (types.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return types.Settings{}, m.loadErr
	}
	return m.settings, nil
}

// SaveSettings implements interfaces.SettingsStore.
func (m *MemorySettingsStore) SaveSettings(_ context.Context, s types.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings = s
	return nil
}

// SetSettings replaces the stored settings.
func (m *MemorySettingsStore) SetSettings(s types.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

// Settings returns the stored settings.
func (m *MemorySettingsStore) Settings() types.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// SetLoadError makes future loads fail.
func (m *MemorySettingsStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetSaveError makes future saves fail without touching stored settings.
func (m *MemorySettingsStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Loads returns how many loads were attempted.
func (m *MemorySettingsStore) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// Saves returns how many saves were attempted.
func (m *MemorySettingsStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// MessageRecorder collects messages delivered over a bus.
type MessageRecorder struct {
	mu       sync.Mutex
	messages []types.Message
}

// Record is the subscriber function to register on a bus.
func (r *MessageRecorder) Record(msg types.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of the recorded messages.
func (r *MessageRecorder) Messages() []types.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// MustParseDocument parses HTML or panics; for test fixtures only.
func MustParseDocument(src string) *dom.Document {
	doc, err := dom.ParseString(src)
	if err != nil {
		panic(err)
	}
	return doc
}

// FindText returns the first text node containing substr, or nil.
func FindText(doc *dom.Document, substr string) *html.Node {
	var found *html.Node
	doc.Walk(func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.TextNode && strings.Contains(n.Data, substr) {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindElement returns the first element with the given tag, or nil.
func FindElement(doc *dom.Document, tag string) *html.Node {
	var found *html.Node
	doc.Walk(func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

// Group builds an active word group with active rules for the given words.
func Group(id int64, name, background, foreground string, words ...string) types.WordGroup {
	g := types.WordGroup{
		ID:         id,
		Name:       name,
		Background: background,
		Foreground: foreground,
		Active:     true,
	}
	for _, w := range words {
		g.Words = append(g.Words, types.WordRule{Text: w, Active: true})
	}
	return g
}
