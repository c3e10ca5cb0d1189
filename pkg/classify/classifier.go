// Package classify resolves a reservation subject to a school code by
// keyword matching. The rule table is ordered and data-driven: the first
// rule with a matching keyword wins, and subjects matching no rule fall
// back to the common-trunk code. The heuristic is a known source of
// misclassification for subjects that mention several disciplines; callers
// should prefer an explicit school code whenever the roster carries one.
package classify

import "strings"

// Rule maps a keyword set to a school short code.
type Rule struct {
	Keywords   []string `json:"keywords"`
	SchoolCode string   `json:"school_code"`
}

type Classifier struct {
	rules    []Rule
	fallback string
}

func New(rules []Rule, fallback string) *Classifier {
	return &Classifier{
		rules:    rules,
		fallback: fallback,
	}
}

// Classify returns the school code for a subject. Matching is
// case-insensitive substring containment; rule order is the tie-break.
func (c *Classifier) Classify(subject string) string {
	normalized := strings.ToLower(strings.TrimSpace(subject))
	if normalized == "" {
		return c.fallback
	}

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				return rule.SchoolCode
			}
		}
	}

	return c.fallback
}

// Fallback exposes the common-trunk code used when nothing matches.
func (c *Classifier) Fallback() string {
	return c.fallback
}
