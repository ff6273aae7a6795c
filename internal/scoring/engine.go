package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/metrics"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/internal/rules"
	"github.com/citypulse/trafficguide/pkg/utils"
)

// Reasoner fills in the explanation and departure advice for a scored result.
// The engine falls back to its own plain formatting when none is wired.
type Reasoner interface {
	Explain(result models.CongestionResult) string
	RecommendDeparture(result models.CongestionResult) string
}

// Engine computes congestion scores from the active ruleset
type Engine struct {
	provider rules.Provider
	reasoner Reasoner
}

// New creates a scoring engine. reasoner may be nil.
func New(provider rules.Provider, reasoner Reasoner) *Engine {
	return &Engine{provider: provider, reasoner: reasoner}
}

// heaviest evening sub-band, endpoints inclusive
var heaviestBand = models.TimeRange{
	Start: models.NewClockTime(18, 0),
	End:   models.NewClockTime(19, 0),
}

// Score computes the congestion result for one route. The four rules run in a
// fixed order and each contributes at most once; a rule that fails is skipped
// rather than aborting the calculation. Structurally invalid input yields the
// conservative error result instead of an error return.
func (e *Engine) Score(origin, destination models.AreaInfo, departureTime time.Time) (result models.CongestionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Congestion calculation panicked", "panic", r)
			result = errorResult(fmt.Sprintf("Unable to calculate congestion due to system error: %v", r))
			metrics.RecordAnalysis(string(result.Level), "error")
		}
	}()

	if departureTime.IsZero() || strings.TrimSpace(origin.Name) == "" || strings.TrimSpace(destination.Name) == "" {
		return errorResult("Invalid input parameters for congestion calculation")
	}

	rs := e.provider.Current()
	score := 0
	var triggered []string

	apply := func(rule string, fn func() int) {
		delta := safeContribution(rule, fn)
		if delta > 0 {
			score += delta
			triggered = append(triggered, rule)
		}
	}

	apply(models.RulePeakWindow, func() int {
		return peakWindowPenalty(rs, departureTime)
	})
	apply(models.RuleITCorridor, func() int {
		return corridorPenalty(rs, origin, destination, departureTime)
	})
	apply(models.RuleHotspot, func() int {
		return hotspotPenalty(rs, origin, destination, departureTime)
	})

	// Weekend adjustment is the one negative rule. It applies before the
	// clamp and is recorded whenever it fires, so a quiet weekend route
	// still explains itself with the weekend template.
	if reduction := safeContribution(models.RuleWeekend, func() int {
		return weekendReduction(rs, origin, destination, departureTime)
	}); reduction > 0 {
		score -= reduction
		triggered = append(triggered, models.RuleWeekend)
	}

	if score < models.MinScore {
		score = models.MinScore
	}
	if score > models.MaxScore {
		score = models.MaxScore
	}

	result = models.CongestionResult{
		Level:          models.LevelForScore(score),
		Score:          score,
		TriggeredRules: triggered,
	}
	result.Reasoning, result.DepartureRecommendation = e.narrate(result)

	metrics.RecordAnalysis(string(result.Level), "success")
	return result
}

// narrate asks the reasoner for explanation and advice, falling back to the
// plain formatter when it is missing or panics
func (e *Engine) narrate(result models.CongestionResult) (reasoning, recommendation string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Reasoning failed; using fallback", "panic", r)
			reasoning = fallbackReasoning(result)
			recommendation = fallbackRecommendation(result.Level)
		}
	}()

	if e.reasoner == nil {
		return fallbackReasoning(result), fallbackRecommendation(result.Level)
	}
	return e.reasoner.Explain(result), e.reasoner.RecommendDeparture(result)
}

// safeContribution runs one rule, converting a panic into a zero contribution
func safeContribution(rule string, fn func() int) (delta int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Scoring rule failed; skipping", "rule", rule, "panic", r)
			delta = 0
		}
	}()
	return fn()
}

func peakWindowPenalty(rs *rules.Ruleset, departureTime time.Time) int {
	if rs == nil || !isWeekday(departureTime) {
		return 0
	}

	t := models.ClockTimeOf(departureTime)
	weight := weightOr(rs.Scoring.PeakWindowWeight)
	penalty := 0

	if w := rs.PeakWindows.WeekdayMorning; w != nil && w.Contains(t) {
		penalty += weight
	}
	if w := rs.PeakWindows.WeekdayEvening; w != nil && w.Contains(t) {
		penalty += weight
		// Heaviest-band bonus stacks on top of the evening point.
		if heaviestBand.Contains(t) {
			penalty++
		}
	}
	return penalty
}

// corridorPenalty checks endpoint names against the corridor area list
// directly rather than the classified zone, so an area that tie-broke into
// another zone still counts as corridor traffic.
func corridorPenalty(rs *rules.Ruleset, origin, destination models.AreaInfo, departureTime time.Time) int {
	if rs == nil || !isWeekday(departureTime) {
		return 0
	}

	corridor, ok := rs.Zone(rules.ZoneITCorridor)
	if !ok || !matchesAny(corridor, origin.Name, destination.Name) {
		return 0
	}
	if !inPeakWindow(rs, models.ClockTimeOf(departureTime)) {
		return 0
	}
	return weightOr(rs.Scoring.CorridorWeight)
}

// hotspotPenalty applies during peak windows on weekdays; weekends hotspots
// count at any hour
func hotspotPenalty(rs *rules.Ruleset, origin, destination models.AreaInfo, departureTime time.Time) int {
	if rs == nil {
		return 0
	}
	if !origin.IsHotspot && !destination.IsHotspot {
		return 0
	}
	if isWeekday(departureTime) && !inPeakWindow(rs, models.ClockTimeOf(departureTime)) {
		return 0
	}
	return weightOr(rs.Scoring.HotspotWeight)
}

// weekendReduction returns the amount to subtract on hotspot-free weekend
// routes, zero otherwise
func weekendReduction(rs *rules.Ruleset, origin, destination models.AreaInfo, departureTime time.Time) int {
	if rs == nil || isWeekday(departureTime) {
		return 0
	}
	if origin.IsHotspot || destination.IsHotspot {
		return 0
	}
	return weightOr(rs.Scoring.WeekendReduction)
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func inPeakWindow(rs *rules.Ruleset, t models.ClockTime) bool {
	if w := rs.PeakWindows.WeekdayMorning; w != nil && w.Contains(t) {
		return true
	}
	if w := rs.PeakWindows.WeekdayEvening; w != nil && w.Contains(t) {
		return true
	}
	return false
}

// matchesAny reports whether any location name matches any catalog area by
// bidirectional case-insensitive containment
func matchesAny(areas []string, locations ...string) bool {
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		for _, area := range areas {
			if area != "" && utils.ContainsFold(area, loc) {
				return true
			}
		}
	}
	return false
}

// weightOr treats an unset weight as the standard single point
func weightOr(w int) int {
	if w <= 0 {
		return 1
	}
	return w
}

// errorResult is the conservative answer when scoring cannot run: report the
// worst case rather than understate risk.
func errorResult(diagnostic string) models.CongestionResult {
	return models.CongestionResult{
		Level:                   models.LevelHigh,
		Score:                   models.MaxScore,
		TriggeredRules:          []string{models.RuleError},
		DepartureRecommendation: "Please try again later",
		Reasoning:               diagnostic,
	}
}

func fallbackReasoning(result models.CongestionResult) string {
	rulesText := "standard analysis"
	if len(result.TriggeredRules) > 0 {
		rulesText = strings.Join(result.TriggeredRules, ", ")
	}
	return fmt.Sprintf("Traffic level: %s. Based on: %s.", result.Level, rulesText)
}

func fallbackRecommendation(level models.CongestionLevel) string {
	switch level {
	case models.LevelLow:
		return "leave now"
	case models.LevelMedium:
		return "consider leaving soon or waiting for off-peak hours"
	default:
		return "wait for off-peak hours if possible"
	}
}
