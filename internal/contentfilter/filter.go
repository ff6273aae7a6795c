package contentfilter

import (
	"regexp"
	"strings"

	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/pkg/utils"
)

// nightlifeTerms is the closed vocabulary removed from output text
var nightlifeTerms = []string{
	"pub", "bar", "club", "nightclub", "disco", "lounge", "brewery",
	"wine", "beer", "alcohol", "drinks", "party", "nightlife",
	"late night", "after hours", "cocktail", "spirits", "liquor",
}

// inappropriateTerms is the closed vocabulary of content never shown to
// family-friendly audiences
var inappropriateTerms = []string{
	"adult", "mature", "18+", "restricted", "explicit",
	"gambling", "casino", "betting",
}

// familyFriendlyReplacements apply in order; earlier replacements can feed
// later ones ("stop" introduces "rest", which the "rest" entry then rewrites)
var familyFriendlyReplacements = []struct {
	term string
	with string
}{
	{"stop", "quiet rest area"},
	{"break", "family-friendly break"},
	{"rest", "peaceful rest stop"},
	{"suggestion", "family-appropriate suggestion"},
	{"recommendation", "suitable recommendation"},
}

// nightlifeCorridors lists areas known for nightlife density
var nightlifeCorridors = []string{
	"jubilee hills", "banjara hills", "gachibowli", "hitech city",
	"madhapur", "kondapur",
}

type termReplacer struct {
	re   *regexp.Regexp
	with string
}

// Filter rewrites advisory text according to the caller's preferences
type Filter struct {
	nightlife     []*regexp.Regexp
	inappropriate []*regexp.Regexp
	replacements  []termReplacer
}

// New compiles the filtering vocabulary
func New() *Filter {
	f := &Filter{}
	for _, term := range nightlifeTerms {
		f.nightlife = append(f.nightlife, wordPattern(term))
	}
	for _, term := range inappropriateTerms {
		f.inappropriate = append(f.inappropriate, wordPattern(term))
	}
	for _, r := range familyFriendlyReplacements {
		f.replacements = append(f.replacements, termReplacer{re: wordPattern(r.term), with: r.with})
	}
	return f
}

// wordPattern builds a case-insensitive whole-word matcher for term
func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
}

// FilterText removes nightlife and inappropriate vocabulary when either
// preference is set, then applies family-friendly substitutions when
// requested. Inactive preferences return the text untouched.
func (f *Filter) FilterText(text string, prefs models.FilterPreferences) string {
	if text == "" {
		return text
	}

	filtered := text
	if prefs.Active() {
		filtered = removeTerms(filtered, f.nightlife)
		filtered = removeTerms(filtered, f.inappropriate)
	}
	if prefs.PreferFamilyFriendly {
		filtered = f.applyReplacements(filtered)
	}
	return filtered
}

// FilterList filters each entry and drops those that still fail the content
// check afterwards. Order is preserved; the list can only shrink.
func (f *Filter) FilterList(items []string, prefs models.FilterPreferences) []string {
	if !prefs.Active() {
		return items
	}

	var kept []string
	for _, item := range items {
		filtered := f.FilterText(item, prefs)
		if f.passesCheck(filtered, prefs) {
			kept = append(kept, filtered)
		}
	}
	return kept
}

// ShouldFilterCorridor reports whether an area is a known nightlife corridor
// that the caller asked to avoid
func (f *Filter) ShouldFilterCorridor(name string, prefs models.FilterPreferences) bool {
	if !prefs.AvoidNightlife {
		return false
	}
	lower := strings.ToLower(name)
	for _, corridor := range nightlifeCorridors {
		if strings.Contains(lower, corridor) {
			return true
		}
	}
	return false
}

// FamilyFriendlyAlternative swaps text carrying filtered vocabulary for a
// neutral alternative, leaving clean text alone
func (f *Filter) FamilyFriendlyAlternative(text string) string {
	lower := strings.ToLower(text)
	for _, term := range nightlifeTerms {
		if strings.Contains(lower, term) {
			return "Consider alternative routes for a more suitable travel experience."
		}
	}
	for _, term := range inappropriateTerms {
		if strings.Contains(lower, term) {
			return "Please consider family-appropriate travel options."
		}
	}
	return text
}

func (f *Filter) applyReplacements(text string) string {
	// Substitutions are scoped to suggestion-style sentences so ordinary
	// advisory text does not get rewritten.
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "suggest") && !strings.Contains(lower, "recommend") {
		return text
	}

	for _, r := range f.replacements {
		text = r.re.ReplaceAllString(text, r.with)
	}
	return text
}

// passesCheck rejects blank entries and any that still carry filtered
// vocabulary as a plain substring
func (f *Filter) passesCheck(text string, prefs models.FilterPreferences) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	lower := strings.ToLower(text)
	if prefs.AvoidNightlife {
		if utils.ContainsAny(lower, nightlifeTerms) {
			return false
		}
	}
	if prefs.PreferFamilyFriendly {
		if utils.ContainsAny(lower, inappropriateTerms) {
			return false
		}
	}
	return true
}

func removeTerms(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		text = re.ReplaceAllString(text, "")
	}
	return utils.NormalizeWhitespace(text)
}
