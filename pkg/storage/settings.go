package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gooseworks/highlighter/pkg/types"
)

// Storage keys. Names match the original interchange format so exported data
// and stored data stay mutually readable.
const (
	KeyLists         = "lists"
	KeyEnabled       = "globalHighlightEnabled"
	KeyMatchCase     = "matchCaseEnabled"
	KeyMatchWhole    = "matchWholeEnabled"
	KeyExceptions    = "exceptionsList"
	KeyExceptionMode = "exceptionMode"
)

// LoadSettings reads the full settings snapshot, applying defaults for
// missing keys.
func (s *Store) LoadSettings(ctx context.Context) (types.Settings, error) {
	out := types.DefaultSettings()

	if err := s.getJSON(ctx, KeyLists, &out.Groups); err != nil {
		return out, err
	}
	if err := s.getJSON(ctx, KeyEnabled, &out.Enabled); err != nil {
		return out, err
	}
	if err := s.getJSON(ctx, KeyMatchCase, &out.Match.CaseSensitive); err != nil {
		return out, err
	}
	if err := s.getJSON(ctx, KeyMatchWhole, &out.Match.WholeWordOnly); err != nil {
		return out, err
	}
	if err := s.getJSON(ctx, KeyExceptions, &out.ExceptionDomains); err != nil {
		return out, err
	}
	if err := s.getJSON(ctx, KeyExceptionMode, &out.ExceptionMode); err != nil {
		return out, err
	}
	if out.ExceptionMode != types.ExceptionWhitelist {
		out.ExceptionMode = types.ExceptionBlacklist
	}

	return out, nil
}

// SaveSettings writes the full settings snapshot.
func (s *Store) SaveSettings(ctx context.Context, settings types.Settings) error {
	if err := s.setJSON(ctx, KeyLists, settings.Groups); err != nil {
		return err
	}
	if err := s.setJSON(ctx, KeyEnabled, settings.Enabled); err != nil {
		return err
	}
	if err := s.setJSON(ctx, KeyMatchCase, settings.Match.CaseSensitive); err != nil {
		return err
	}
	if err := s.setJSON(ctx, KeyMatchWhole, settings.Match.WholeWordOnly); err != nil {
		return err
	}
	if err := s.setJSON(ctx, KeyExceptions, settings.ExceptionDomains); err != nil {
		return err
	}
	return s.setJSON(ctx, KeyExceptionMode, settings.ExceptionMode)
}

// SaveGroups writes only the word groups.
func (s *Store) SaveGroups(ctx context.Context, groups []types.WordGroup) error {
	return s.setJSON(ctx, KeyLists, groups)
}

// SaveEnabled writes only the global toggle.
func (s *Store) SaveEnabled(ctx context.Context, enabled bool) error {
	return s.setJSON(ctx, KeyEnabled, enabled)
}

// SaveMatchOptions writes only the match options.
func (s *Store) SaveMatchOptions(ctx context.Context, opts types.MatchOptions) error {
	if err := s.setJSON(ctx, KeyMatchCase, opts.CaseSensitive); err != nil {
		return err
	}
	return s.setJSON(ctx, KeyMatchWhole, opts.WholeWordOnly)
}

// SaveExceptions writes the exception list and mode.
func (s *Store) SaveExceptions(ctx context.Context, domains []string, mode types.ExceptionMode) error {
	if err := s.setJSON(ctx, KeyExceptions, domains); err != nil {
		return err
	}
	return s.setJSON(ctx, KeyExceptionMode, mode)
}

func (s *Store) getJSON(ctx context.Context, key string, out any) error {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode setting %q: %w", key, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
