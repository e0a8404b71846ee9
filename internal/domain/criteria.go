package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CriteriaConfig describes a single run's selection rules.
type CriteriaConfig struct {
	// Cutoff is the age bound; only posts indexed strictly before it qualify.
	Cutoff time.Time

	// After and Before optionally bound the indexed time from either side.
	After  *time.Time
	Before *time.Time

	// Patterns restricts matches to posts whose text matches at least one
	// entry. An empty list matches everything.
	Patterns []string

	// UseRegex interprets Patterns as case-insensitive regular expressions
	// with match-anywhere semantics instead of substring checks.
	UseRegex bool

	// IncludeReplies and IncludeReposts lift the default type exclusions.
	IncludeReplies bool
	IncludeReposts bool
}

// Criteria holds the compiled selection state for a run. It is immutable
// after construction.
type Criteria struct {
	cutoff         time.Time
	after          *time.Time
	before         *time.Time
	patterns       []string
	compiled       []*regexp.Regexp
	useRegex       bool
	includeReplies bool
	includeReposts bool
}

// NewCriteria compiles the configuration into a Criteria. Regex patterns are
// compiled once here; an invalid pattern fails construction.
func NewCriteria(cfg CriteriaConfig) (*Criteria, error) {
	c := &Criteria{
		cutoff:         cfg.Cutoff,
		after:          cfg.After,
		before:         cfg.Before,
		useRegex:       cfg.UseRegex,
		includeReplies: cfg.IncludeReplies,
		includeReposts: cfg.IncludeReposts,
	}

	for _, p := range cfg.Patterns {
		if cfg.UseRegex {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: %w", p, err)
			}
			c.compiled = append(c.compiled, re)
		} else {
			c.patterns = append(c.patterns, strings.ToLower(p))
		}
	}

	return c, nil
}

// Matches reports whether a post qualifies for removal. Checks short-circuit
// in order: age, type exclusion, date range, text patterns. Posts newer than
// the cutoff are excluded before their type is ever inspected.
func (c *Criteria) Matches(post *Post) bool {
	if !post.IndexedAt.Before(c.cutoff) {
		return false
	}

	if post.IsReply && !c.includeReplies {
		return false
	}
	if post.IsRepost && !c.includeReposts {
		return false
	}

	if c.after != nil && post.IndexedAt.Before(*c.after) {
		return false
	}
	if c.before != nil && post.IndexedAt.After(*c.before) {
		return false
	}

	return c.matchesPatterns(post.Text)
}

func (c *Criteria) matchesPatterns(text string) bool {
	if len(c.patterns) == 0 && len(c.compiled) == 0 {
		return true
	}

	if c.useRegex {
		for _, re := range c.compiled {
			if re.MatchString(text) {
				return true
			}
		}
		return false
	}

	lower := strings.ToLower(text)
	for _, p := range c.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
