package classifier

import (
	"github.com/citypulse/trafficguide/pkg/utils"
)

// Matcher decides whether a free-text location refers to a catalog entry.
// It is the single swap point for the matching policy.
type Matcher interface {
	Match(catalogEntry, query string) bool
}

// SubstringMatcher matches on bidirectional case-insensitive substring
// containment. The policy is deliberately loose so abbreviations
// ("Hitec" → "Hitec City") and extensions ("Gachibowli Junction" →
// "Gachibowli") both resolve, at the cost of short-string false positives
// ("Hi" also matches "Hitec City").
type SubstringMatcher struct{}

// Match reports whether query and catalogEntry contain each other, ignoring case
func (SubstringMatcher) Match(catalogEntry, query string) bool {
	if catalogEntry == "" || query == "" {
		return false
	}
	return utils.ContainsFold(catalogEntry, query)
}
