package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/citypulse/trafficguide/internal/errors"
	"github.com/citypulse/trafficguide/internal/models"
)

// ZoneITCorridor is the zone identifier the corridor scoring rule keys on
const ZoneITCorridor = "zone_it_corridor"

// defaultWeekendPattern describes weekend traffic when the document gives none
const defaultWeekendPattern = "lighter mornings; evenings can still be busy"

var (
	morningPeakRe = regexp.MustCompile(`morning peak:\s*(\d{2}):(\d{2})[–-](\d{2}):(\d{2})`)
	eveningPeakRe = regexp.MustCompile(`evening peak:\s*(\d{2}):(\d{2})[–-](\d{2}):(\d{2})`)
	weekendRe     = regexp.MustCompile(`weekend:\s*(.+)`)
	templateRe    = regexp.MustCompile(`- (.+?):\s*"(.+?)"`)
)

// defaultTemplates backfill explanation text the document omits
var defaultTemplates = map[string]string{
	models.RulePeakWindow: "Departure time falls in a typical peak window.",
	models.RuleITCorridor: "One endpoint is in the west/IT corridor, which usually amplifies peak-hour congestion.",
	models.RuleHotspot:    "This route touches a known slow zone, so delays are more likely.",
	models.RuleWeekend:    "Weekend traffic is often smoother unless you're near busy hotspots.",
}

// hotspot section category labels to skip when collecting area bullets
var hotspotCategoryLabels = []string{
	"IT corridor",
	"Central business",
	"Old city",
	"Transit hubs",
	"Event-sensitive",
}

// Parse builds a ruleset from raw markdown content. Individual malformed
// sections degrade to defaults or empty values; Parse itself only fails on
// unusable input.
func Parse(content string) (*Ruleset, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty document: %w", apperrors.ErrRulesInvalid)
	}

	rs := &Ruleset{
		Templates:   make(map[string]string),
		Fingerprint: Fingerprint(content),
		LoadedAt:    time.Now().UTC(),
		Scoring:     defaultScoringRules(),
	}

	rs.PeakWindows = parsePeakWindows(extractSection(content, "Peak windows"))
	rs.Zones = parseZones(extractSection(content, "Zones"))
	rs.Hotspots = parseHotspots(extractSection(content, "Hotspots"))
	rs.Templates, rs.defaultedTemplates = parseTemplates(extractSection(content, "Explanation templates"))

	return rs, nil
}

// extractSection returns the body of a "## name" / "### name" section,
// up to the next section header
func extractSection(content, name string) string {
	headerRe := regexp.MustCompile(`(?i)###?\s*` + regexp.QuoteMeta(name))
	loc := headerRe.FindStringIndex(content)
	if loc == nil {
		return ""
	}

	body := content[loc[1]:]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		return ""
	}

	if next := strings.Index(body, "###"); next >= 0 {
		body = body[:next]
	}
	return body
}

func parsePeakWindows(section string) models.PeakWindows {
	if strings.TrimSpace(section) == "" {
		// No peak windows section: the peak rules never fire
		return models.PeakWindows{}
	}

	// Documented defaults, overridden by well-formed lines below
	morning := models.TimeRange{Start: models.NewClockTime(8, 0), End: models.NewClockTime(11, 0)}
	evening := models.TimeRange{Start: models.NewClockTime(17, 0), End: models.NewClockTime(20, 0)}

	if r, ok := parsePeakLine(morningPeakRe, section); ok {
		morning = r
	}
	if r, ok := parsePeakLine(eveningPeakRe, section); ok {
		evening = r
	}

	pattern := defaultWeekendPattern
	if m := weekendRe.FindStringSubmatch(section); m != nil {
		pattern = strings.TrimSpace(m[1])
	}

	return models.PeakWindows{
		WeekdayMorning: &morning,
		WeekdayEvening: &evening,
		WeekendPattern: pattern,
	}
}

func parsePeakLine(re *regexp.Regexp, section string) (models.TimeRange, bool) {
	m := re.FindStringSubmatch(section)
	if m == nil {
		return models.TimeRange{}, false
	}

	nums := make([]int, 4)
	for i := 0; i < 4; i++ {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return models.TimeRange{}, false
		}
		nums[i] = n
	}

	r := models.TimeRange{
		Start: models.NewClockTime(nums[0], nums[1]),
		End:   models.NewClockTime(nums[2], nums[3]),
	}
	if !r.Start.Valid() || !r.End.Valid() {
		return models.TimeRange{}, false
	}
	return r, true
}

func parseZones(section string) []models.Zone {
	var zones []models.Zone
	if strings.TrimSpace(section) == "" {
		return zones
	}

	current := -1
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "- zone_"):
			name := strings.TrimSuffix(line[2:], ":")
			zones = append(zones, models.Zone{Name: name})
			current = len(zones) - 1
		case strings.HasPrefix(line, "- ") && current >= 0:
			if area := strings.TrimSpace(line[2:]); area != "" {
				zones[current].Areas = append(zones[current].Areas, area)
			}
		}
	}
	return zones
}

func parseHotspots(section string) []string {
	var hotspots []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") || strings.HasSuffix(line, ":") {
			continue
		}
		if containsAnyLabel(line, hotspotCategoryLabels) {
			continue
		}
		if hotspot := strings.TrimSpace(line[2:]); hotspot != "" {
			hotspots = append(hotspots, hotspot)
		}
	}
	return hotspots
}

func parseTemplates(section string) (map[string]string, []string) {
	templates := make(map[string]string)
	for _, m := range templateRe.FindAllStringSubmatch(section, -1) {
		templates[m[1]] = m[2]
	}

	var defaulted []string
	for rule, text := range defaultTemplates {
		if _, ok := templates[rule]; !ok {
			templates[rule] = text
			defaulted = append(defaulted, rule)
		}
	}
	return templates, defaulted
}

func defaultScoringRules() models.ScoringRules {
	return models.ScoringRules{
		BaseLevel:        models.LevelLow,
		PeakWindowWeight: 1,
		CorridorWeight:   1,
		HotspotWeight:    1,
		WeekendReduction: 1,
	}
}

func containsAnyLabel(line string, labels []string) bool {
	for _, label := range labels {
		if strings.Contains(line, label) {
			return true
		}
	}
	return false
}
