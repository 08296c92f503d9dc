package lists

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gooseworks/highlighter/pkg/types"
)

// Export serializes every group plus the exception list to the interchange
// format.
func (m *Manager) Export(ctx context.Context) ([]byte, error) {
	s, err := m.store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	return marshalExport(types.ExportData{
		Lists:          s.Groups,
		ExceptionsList: s.ExceptionDomains,
	})
}

// ExportGroup serializes a single group (with an empty exception list).
func (m *Manager) ExportGroup(ctx context.Context, id int64) ([]byte, error) {
	s, err := m.store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range s.Groups {
		if g.ID == id {
			return marshalExport(types.ExportData{
				Lists:          []types.WordGroup{g},
				ExceptionsList: []string{},
			})
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrGroupNotFound, id)
}

func marshalExport(data types.ExportData) ([]byte, error) {
	if data.ExceptionsList == nil {
		data.ExceptionsList = []string{}
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export data: %w", err)
	}
	return raw, nil
}

// Import parses interchange data and appends the contained groups with fresh
// ids. A legacy bare array of groups is also accepted. Exception domains are
// merged without duplicates. Groups and exceptions are staged into a single
// settings write so a failed import leaves the store untouched.
func (m *Manager) Import(ctx context.Context, raw []byte) error {
	var data types.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		var legacy []types.WordGroup
		if legacyErr := json.Unmarshal(raw, &legacy); legacyErr != nil {
			return fmt.Errorf("decode import data: %w", err)
		}
		data.Lists = legacy
	}

	for i := range data.Lists {
		if err := validateGroup(&data.Lists[i]); err != nil {
			return err
		}
	}

	s, err := m.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	for _, g := range data.Lists {
		g.ID = types.NewGroupID()
		s.Groups = append(s.Groups, g)
	}
	merged := false
	for _, host := range data.ExceptionsList {
		if hasDomain(s.ExceptionDomains, host) {
			continue
		}
		s.ExceptionDomains = append(s.ExceptionDomains, host)
		merged = true
	}

	if err := m.store.SaveSettings(ctx, s); err != nil {
		return err
	}
	m.bus.Publish(types.Message{Type: types.WordListUpdated})
	if merged {
		m.bus.Publish(types.Message{Type: types.ExceptionsListUpdated})
	}
	return nil
}

// validateGroup normalizes an imported group in place.
func validateGroup(g *types.WordGroup) error {
	if strings.TrimSpace(g.Name) == "" {
		g.Name = "Imported List"
	}
	if g.Background == "" {
		g.Background = DefaultBackground
	}
	if g.Foreground == "" {
		g.Foreground = DefaultForeground
	}
	kept := g.Words[:0]
	for _, w := range g.Words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" {
			continue
		}
		kept = append(kept, w)
	}
	g.Words = kept
	return nil
}

var fileNameJunk = regexp.MustCompile(`[^a-z0-9]+`)

// ExportFileName derives the download-style file name for a group export.
func ExportFileName(name string) string {
	base := fileNameJunk.ReplaceAllString(strings.ToLower(name), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "list"
	}
	return "highlight-list-" + base + ".json"
}
