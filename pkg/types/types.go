// Package types contains shared data structures used across the application.
package types

import (
	"strings"
	"sync/atomic"
	"time"
)

// WordRule is a single literal or phrase to highlight. Background and
// Foreground are optional; when empty the owning group's colors apply.
type WordRule struct {
	Text       string `json:"wordStr"`
	Background string `json:"background,omitempty"`
	Foreground string `json:"foreground,omitempty"`
	Active     bool   `json:"active"`
}

// WordGroup is a named list of word rules with default colors. A rule is
// eligible for matching only when both the group and the rule are active.
type WordGroup struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Background string     `json:"background"`
	Foreground string     `json:"foreground"`
	Active     bool       `json:"active"`
	Words      []WordRule `json:"words"`
}

// MatchOptions apply uniformly to all rules in a single highlighting pass.
type MatchOptions struct {
	CaseSensitive bool
	WholeWordOnly bool
}

// ActiveWord is a flattened, match-ready rule with effective colors resolved.
type ActiveWord struct {
	Text       string
	Background string
	Foreground string
}

// ExceptionMode selects how the exception domain list gates highlighting.
type ExceptionMode string

const (
	// ExceptionBlacklist skips highlighting on listed hosts.
	ExceptionBlacklist ExceptionMode = "blacklist"
	// ExceptionWhitelist skips highlighting on hosts not listed.
	ExceptionWhitelist ExceptionMode = "whitelist"
)

// Settings is the engine's read-only snapshot of the stored configuration.
type Settings struct {
	Groups           []WordGroup
	Enabled          bool
	Match            MatchOptions
	ExceptionDomains []string
	ExceptionMode    ExceptionMode
}

// DefaultSettings returns the settings used when the store has no data.
func DefaultSettings() Settings {
	return Settings{
		Enabled:       true,
		ExceptionMode: ExceptionBlacklist,
	}
}

// HostExcepted reports whether highlighting is suppressed for host under the
// configured exception mode. Hostname comparison is exact.
func (s Settings) HostExcepted(host string) bool {
	listed := false
	for _, d := range s.ExceptionDomains {
		if d == host {
			listed = true
			break
		}
	}
	switch s.ExceptionMode {
	case ExceptionWhitelist:
		return !listed
	default:
		return listed
	}
}

// ActiveWords flattens the groups into match-ready rules. Only rules inside
// active groups with their own active flag set are included; rule colors fall
// back to the group's defaults.
func ActiveWords(groups []WordGroup) []ActiveWord {
	var active []ActiveWord
	for _, g := range groups {
		if !g.Active {
			continue
		}
		for _, w := range g.Words {
			if !w.Active || strings.TrimSpace(w.Text) == "" {
				continue
			}
			aw := ActiveWord{Text: w.Text, Background: w.Background, Foreground: w.Foreground}
			if aw.Background == "" {
				aw.Background = g.Background
			}
			if aw.Foreground == "" {
				aw.Foreground = g.Foreground
			}
			active = append(active, aw)
		}
	}
	return active
}

// ExportData is the JSON interchange form for word groups and exceptions.
type ExportData struct {
	Lists          []WordGroup `json:"lists"`
	ExceptionsList []string    `json:"exceptionsList"`
}

// MessageType identifies a settings-change notification.
type MessageType string

const (
	WordListUpdated       MessageType = "WORD_LIST_UPDATED"
	GlobalToggleUpdated   MessageType = "GLOBAL_TOGGLE_UPDATED"
	MatchOptionsUpdated   MessageType = "MATCH_OPTIONS_UPDATED"
	ExceptionsListUpdated MessageType = "EXCEPTIONS_LIST_UPDATED"
)

// Message is a fire-and-forget settings-change notification.
type Message struct {
	Type       MessageType
	Enabled    bool
	MatchCase  bool
	MatchWhole bool
}

var lastID atomic.Int64

// NewGroupID returns a time-ordered unique id for a new word group.
// Imported groups always get fresh ids.
func NewGroupID() int64 {
	for {
		prev := lastID.Load()
		id := time.Now().UnixMilli()
		if id <= prev {
			id = prev + 1
		}
		if lastID.CompareAndSwap(prev, id) {
			return id
		}
	}
}
