// Package pattern compiles the active word set into a single alternation
// matcher plus a per-key style lookup.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gooseworks/highlighter/pkg/types"
)

// Style is a deduplicated (background, foreground) color pair. Its index in
// the compiled style set is the style id used throughout a pass.
type Style struct {
	Background string
	Foreground string
}

// Compiled is the ephemeral matcher built for one highlighting pass. It maps
// canonicalized lookup keys to style ids and holds one alternation regular
// expression over all active rule texts.
type Compiled struct {
	re         *regexp.Regexp
	styles     []Style
	styleByKey map[string]int
	keys       []string
	opts       types.MatchOptions
}

// Compile flattens the groups into active words and builds the alternation.
// It returns (nil, nil) when no rule is active: a valid state in which the
// engine clears existing highlights and idles.
//
// When two active words canonicalize to the same lookup key, the later one
// wins the style association while the key keeps its first position in the
// alternation, mirroring map insertion semantics.
func Compile(groups []types.WordGroup, opts types.MatchOptions) (*Compiled, error) {
	active := types.ActiveWords(groups)
	if len(active) == 0 {
		return nil, nil
	}

	c := &Compiled{
		styleByKey: make(map[string]int),
		opts:       opts,
	}

	styleIDs := make(map[Style]int)
	for _, w := range active {
		st := Style{Background: w.Background, Foreground: w.Foreground}
		id, ok := styleIDs[st]
		if !ok {
			id = len(c.styles)
			styleIDs[st] = id
			c.styles = append(c.styles, st)
		}

		key := c.LookupKey(w.Text)
		if _, seen := c.styleByKey[key]; !seen {
			c.keys = append(c.keys, key)
		}
		c.styleByKey[key] = id
	}

	escaped := make([]string, len(c.keys))
	for i, k := range c.keys {
		escaped[i] = regexp.QuoteMeta(k)
	}
	expr := strings.Join(escaped, "|")
	if !opts.CaseSensitive {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile word pattern: %w", err)
	}
	c.re = re

	return c, nil
}

// LookupKey canonicalizes a word or matched text for style/map lookups.
func (c *Compiled) LookupKey(text string) string {
	if c.opts.CaseSensitive {
		return text
	}
	return strings.ToLower(text)
}

// Regexp returns the alternation matcher.
func (c *Compiled) Regexp() *regexp.Regexp {
	return c.re
}

// Styles returns the deduplicated style set, indexed by style id.
func (c *Compiled) Styles() []Style {
	return c.styles
}

// StyleOf returns the style id associated with a lookup key.
func (c *Compiled) StyleOf(key string) (int, bool) {
	id, ok := c.styleByKey[key]
	return id, ok
}

// Keys returns the lookup keys in alternation order.
func (c *Compiled) Keys() []string {
	return c.keys
}

// Options returns the match options the pattern was compiled with.
func (c *Compiled) Options() types.MatchOptions {
	return c.opts
}
