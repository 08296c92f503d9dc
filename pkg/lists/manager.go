// Package lists manages the stored word groups: CRUD, bulk add, and the JSON
// interchange format. Every write goes through the settings store and then
// notifies the engine over the bus.
package lists

import (
	"context"
	"fmt"
	"strings"

	"github.com/gooseworks/highlighter/pkg/interfaces"
	"github.com/gooseworks/highlighter/pkg/types"
)

// Default colors for newly created groups.
const (
	DefaultBackground = "#ffff00"
	DefaultForeground = "#000000"
)

// ErrGroupNotFound is returned when an operation names an unknown group id.
var ErrGroupNotFound = fmt.Errorf("word group not found")

// Manager owns word-group persistence and change notification.
type Manager struct {
	store interfaces.SettingsStore
	bus   interfaces.Bus
}

// NewManager creates a manager over the given store and bus.
func NewManager(store interfaces.SettingsStore, bus interfaces.Bus) *Manager {
	return &Manager{store: store, bus: bus}
}

// Groups returns the stored word groups.
func (m *Manager) Groups(ctx context.Context) ([]types.WordGroup, error) {
	s, err := m.store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	return s.Groups, nil
}

// CreateGroup appends a new active group with default colors.
func (m *Manager) CreateGroup(ctx context.Context, name string) (types.WordGroup, error) {
	g := types.WordGroup{
		ID:         types.NewGroupID(),
		Name:       name,
		Background: DefaultBackground,
		Foreground: DefaultForeground,
		Active:     true,
		Words:      []types.WordRule{},
	}

	err := m.updateGroups(ctx, func(groups []types.WordGroup) ([]types.WordGroup, error) {
		return append(groups, g), nil
	})
	if err != nil {
		return types.WordGroup{}, err
	}
	return g, nil
}

// UpdateGroup applies fn to the group with the given id.
func (m *Manager) UpdateGroup(ctx context.Context, id int64, fn func(*types.WordGroup)) error {
	return m.updateGroups(ctx, func(groups []types.WordGroup) ([]types.WordGroup, error) {
		for i := range groups {
			if groups[i].ID == id {
				fn(&groups[i])
				return groups, nil
			}
		}
		return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, id)
	})
}

// RenameGroup sets a group's name.
func (m *Manager) RenameGroup(ctx context.Context, id int64, name string) error {
	return m.UpdateGroup(ctx, id, func(g *types.WordGroup) { g.Name = name })
}

// SetGroupActive toggles a whole group.
func (m *Manager) SetGroupActive(ctx context.Context, id int64, active bool) error {
	return m.UpdateGroup(ctx, id, func(g *types.WordGroup) { g.Active = active })
}

// SetGroupColors sets a group's default colors.
func (m *Manager) SetGroupColors(ctx context.Context, id int64, background, foreground string) error {
	return m.UpdateGroup(ctx, id, func(g *types.WordGroup) {
		g.Background = background
		g.Foreground = foreground
	})
}

// DeleteGroup removes a group.
func (m *Manager) DeleteGroup(ctx context.Context, id int64) error {
	return m.updateGroups(ctx, func(groups []types.WordGroup) ([]types.WordGroup, error) {
		for i := range groups {
			if groups[i].ID == id {
				return append(groups[:i], groups[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, id)
	})
}

// AddWords appends trimmed, non-empty words to a group, preserving order.
// Words inherit the group colors until given their own.
func (m *Manager) AddWords(ctx context.Context, id int64, words ...string) error {
	return m.UpdateGroup(ctx, id, func(g *types.WordGroup) {
		for _, w := range words {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			g.Words = append(g.Words, types.WordRule{Text: w, Active: true})
		}
	})
}

// BulkAdd splits newline-separated text into words and appends them.
func (m *Manager) BulkAdd(ctx context.Context, id int64, text string) error {
	return m.AddWords(ctx, id, strings.Split(text, "\n")...)
}

// UpdateWord applies fn to the word at index within a group.
func (m *Manager) UpdateWord(ctx context.Context, id int64, index int, fn func(*types.WordRule)) error {
	return m.UpdateGroup(ctx, id, func(g *types.WordGroup) {
		if index >= 0 && index < len(g.Words) {
			fn(&g.Words[index])
		}
	})
}

// RemoveWord deletes the word at index within a group.
func (m *Manager) RemoveWord(ctx context.Context, id int64, index int) error {
	return m.UpdateGroup(ctx, id, func(g *types.WordGroup) {
		if index >= 0 && index < len(g.Words) {
			g.Words = append(g.Words[:index], g.Words[index+1:]...)
		}
	})
}

// SetEnabled flips the global highlighting toggle.
func (m *Manager) SetEnabled(ctx context.Context, enabled bool) error {
	s, err := m.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	s.Enabled = enabled
	if err := m.store.SaveSettings(ctx, s); err != nil {
		return err
	}
	m.bus.Publish(types.Message{Type: types.GlobalToggleUpdated, Enabled: enabled})
	return nil
}

// SetMatchOptions replaces the global match options.
func (m *Manager) SetMatchOptions(ctx context.Context, opts types.MatchOptions) error {
	s, err := m.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	s.Match = opts
	if err := m.store.SaveSettings(ctx, s); err != nil {
		return err
	}
	m.bus.Publish(types.Message{
		Type:       types.MatchOptionsUpdated,
		MatchCase:  opts.CaseSensitive,
		MatchWhole: opts.WholeWordOnly,
	})
	return nil
}

// AddException adds a hostname to the exception list.
func (m *Manager) AddException(ctx context.Context, host string) error {
	return m.updateExceptions(ctx, func(s *types.Settings) {
		if !hasDomain(s.ExceptionDomains, host) {
			s.ExceptionDomains = append(s.ExceptionDomains, host)
		}
	})
}

func hasDomain(domains []string, host string) bool {
	for _, d := range domains {
		if d == host {
			return true
		}
	}
	return false
}

// RemoveException removes a hostname from the exception list.
func (m *Manager) RemoveException(ctx context.Context, host string) error {
	return m.updateExceptions(ctx, func(s *types.Settings) {
		for i, d := range s.ExceptionDomains {
			if d == host {
				s.ExceptionDomains = append(s.ExceptionDomains[:i], s.ExceptionDomains[i+1:]...)
				return
			}
		}
	})
}

// SetExceptionMode switches between blacklist and whitelist gating.
func (m *Manager) SetExceptionMode(ctx context.Context, mode types.ExceptionMode) error {
	if mode != types.ExceptionBlacklist && mode != types.ExceptionWhitelist {
		return fmt.Errorf("invalid exception mode %q", mode)
	}
	return m.updateExceptions(ctx, func(s *types.Settings) {
		s.ExceptionMode = mode
	})
}

func (m *Manager) updateGroups(ctx context.Context, fn func([]types.WordGroup) ([]types.WordGroup, error)) error {
	s, err := m.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	groups, err := fn(s.Groups)
	if err != nil {
		return err
	}
	s.Groups = groups
	if err := m.store.SaveSettings(ctx, s); err != nil {
		return err
	}
	m.bus.Publish(types.Message{Type: types.WordListUpdated})
	return nil
}

func (m *Manager) updateExceptions(ctx context.Context, fn func(*types.Settings)) error {
	s, err := m.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	fn(&s)
	if err := m.store.SaveSettings(ctx, s); err != nil {
		return err
	}
	m.bus.Publish(types.Message{Type: types.ExceptionsListUpdated})
	return nil
}
