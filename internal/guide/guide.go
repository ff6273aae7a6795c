package guide

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/citypulse/trafficguide/internal/classifier"
	"github.com/citypulse/trafficguide/internal/contentfilter"
	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/internal/reasoning"
	"github.com/citypulse/trafficguide/internal/rules"
	"github.com/citypulse/trafficguide/internal/scoring"
)

// Recorder persists completed analyses for the audit trail. Saving is best
// effort; a failing recorder never fails a request.
type Recorder interface {
	SaveAnalysis(ctx context.Context, record models.AnalysisRecord) error
}

// Guide orchestrates classification, scoring, reasoning and filtering for one
// route analysis. Every public entry point returns a usable analysis; errors
// degrade stages individually instead of escaping.
type Guide struct {
	provider   rules.Provider
	classifier *classifier.Classifier
	scorer     *scoring.Engine
	reasoner   *reasoning.Engine
	filter     *contentfilter.Filter
	recorder   Recorder
}

// New wires a Guide. recorder may be nil when auditing is disabled.
func New(
	provider rules.Provider,
	cls *classifier.Classifier,
	scorer *scoring.Engine,
	reasoner *reasoning.Engine,
	filter *contentfilter.Filter,
	recorder Recorder,
) *Guide {
	return &Guide{
		provider:   provider,
		classifier: cls,
		scorer:     scorer,
		reasoner:   reasoner,
		filter:     filter,
		recorder:   recorder,
	}
}

// AnalyzeRoute runs the full analysis pipeline for one route
func (g *Guide) AnalyzeRoute(ctx context.Context, origin, destination string, departureTime time.Time) (analysis models.TrafficAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Route analysis panicked", "panic", r)
			analysis = errorAnalysis(fmt.Sprintf(
				"An unexpected error occurred during route analysis. Please try again or contact support if the problem persists. Error: %v", r))
		}
	}()

	if strings.TrimSpace(origin) == "" {
		return errorAnalysis("Origin location cannot be empty. Please provide a valid starting location.")
	}
	if strings.TrimSpace(destination) == "" {
		return errorAnalysis("Destination location cannot be empty. Please provide a valid ending location.")
	}
	if departureTime.IsZero() {
		return errorAnalysis("Departure time is required. Please provide a valid departure time.")
	}

	originInfo := g.classifier.Classify(ctx, origin)
	destinationInfo := g.classifier.Classify(ctx, destination)

	if !originInfo.Known() {
		return g.unknownAreaAnalysis(origin)
	}
	if !destinationInfo.Known() {
		return g.unknownAreaAnalysis(destination)
	}

	congestion := g.safeScore(originInfo, destinationInfo, departureTime)
	warnings := g.safeHotspotWarnings(origin, destination, originInfo, destinationInfo)
	window := g.safeDepartureWindow(congestion, departureTime)
	detailed := g.safeDetailedReasoning(congestion)

	analysis = models.TrafficAnalysis{
		Congestion:        congestion,
		HotspotWarnings:   warnings,
		DepartureWindow:   window,
		DetailedReasoning: detailed,
	}

	g.record(ctx, origin, destination, departureTime, congestion)
	return analysis
}

// AnalyzeRouteWithPreferences runs AnalyzeRoute and then filters every text
// field per the caller's preferences. Level, score and triggered rules pass
// through unchanged.
func (g *Guide) AnalyzeRouteWithPreferences(ctx context.Context, origin, destination string, departureTime time.Time, prefs models.FilterPreferences) (analysis models.TrafficAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Filtered route analysis panicked", "panic", r)
			analysis = errorAnalysis(fmt.Sprintf("Unable to analyze route with preferences due to system error: %v", r))
		}
	}()

	analysis = g.AnalyzeRoute(ctx, origin, destination, departureTime)
	return g.applyFiltering(analysis, prefs)
}

// AreaInfo classifies a single area name
func (g *Guide) AreaInfo(ctx context.Context, name string) models.AreaInfo {
	return g.classifier.Classify(ctx, name)
}

// SuggestAreaAddition builds the fixed prompt shown for areas missing from
// the rules document
func (g *Guide) SuggestAreaAddition(areaName string) string {
	trimmed := strings.TrimSpace(areaName)
	if trimmed == "" {
		return "Please provide a valid area name for addition to the local dataset."
	}
	return fmt.Sprintf("That area isn't in my local dataset yet—add it to product.md. "+
		"To add '%s', please provide: area name, zone tag, nearby landmark, and hotspot status.", trimmed)
}

// ValidationReport validates the active ruleset
func (g *Guide) ValidationReport() models.ValidationReport {
	rs := g.provider.Current()
	if rs == nil {
		return models.ValidationReport{Valid: false, Errors: []string{"no ruleset loaded"}}
	}
	return rs.Validate()
}

// unknownAreaAnalysis is the designed response for areas outside the catalog:
// base level, zero score, and a prompt explaining how to add the area.
func (g *Guide) unknownAreaAnalysis(areaName string) models.TrafficAnalysis {
	suggestion := g.SuggestAreaAddition(areaName)
	return models.TrafficAnalysis{
		Congestion: models.CongestionResult{
			Level:                   g.provider.Current().BaseLevel(),
			Score:                   0,
			TriggeredRules:          nil,
			DepartureRecommendation: "Unable to provide recommendation for unknown area",
			Reasoning:               suggestion,
		},
		HotspotWarnings:   nil,
		DepartureWindow:   "",
		DetailedReasoning: suggestion,
	}
}

func (g *Guide) safeScore(origin, destination models.AreaInfo, departureTime time.Time) (result models.CongestionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Congestion scoring panicked", "panic", r)
			result = models.CongestionResult{
				Level:                   models.LevelHigh,
				Score:                   models.MaxScore,
				TriggeredRules:          []string{"Fallback due to calculation error"},
				DepartureRecommendation: "Consider avoiding peak hours as a precaution",
				Reasoning: fmt.Sprintf("Using conservative traffic estimate. "+
					"Unable to calculate precise congestion due to system error. Error: %v", r),
			}
		}
	}()
	return g.scorer.Score(origin, destination, departureTime)
}

func (g *Guide) safeHotspotWarnings(origin, destination string, originInfo, destinationInfo models.AreaInfo) (warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Hotspot warning generation panicked", "panic", r)
			warnings = []string{"Unable to check for traffic hotspots due to system error"}
		}
	}()

	if originInfo.IsHotspot {
		warnings = append(warnings, fmt.Sprintf("Origin %s is a known traffic hotspot", origin))
	}
	if destinationInfo.IsHotspot {
		warnings = append(warnings, fmt.Sprintf("Destination %s is a known traffic hotspot", destination))
	}
	return warnings
}

func (g *Guide) safeDepartureWindow(congestion models.CongestionResult, departureTime time.Time) (window string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Departure window generation panicked", "panic", r)
			window = "Unable to generate departure window due to system error"
		}
	}()

	if congestion.DepartureRecommendation == "leave now" {
		return fmt.Sprintf("Optimal departure: now (around %s)", departureTime.Format("15:04"))
	}
	return "Consider: " + congestion.DepartureRecommendation
}

func (g *Guide) safeDetailedReasoning(congestion models.CongestionResult) (detailed string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Detailed reasoning generation panicked", "panic", r)
			detailed = "Unable to generate detailed reasoning due to system error"
		}
	}()
	return g.reasoner.DetailedExplanation(congestion)
}

// applyFiltering rewrites every text field through the content filter,
// falling back to the unfiltered analysis if filtering itself fails
func (g *Guide) applyFiltering(analysis models.TrafficAnalysis, prefs models.FilterPreferences) (filtered models.TrafficAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Content filtering panicked; returning unfiltered analysis", "panic", r)
			filtered = analysis
		}
	}()

	if !prefs.Active() {
		return analysis
	}

	filtered = analysis
	filtered.Congestion.Reasoning = g.filter.FilterText(analysis.Congestion.Reasoning, prefs)
	filtered.Congestion.DepartureRecommendation = g.filter.FilterText(analysis.Congestion.DepartureRecommendation, prefs)
	filtered.HotspotWarnings = g.filter.FilterList(analysis.HotspotWarnings, prefs)
	filtered.DepartureWindow = g.filter.FilterText(analysis.DepartureWindow, prefs)
	filtered.DetailedReasoning = g.filter.FilterText(analysis.DetailedReasoning, prefs)
	return filtered
}

// record saves the analysis to the audit trail when a recorder is wired
func (g *Guide) record(ctx context.Context, origin, destination string, departureTime time.Time, congestion models.CongestionResult) {
	if g.recorder == nil {
		return
	}

	rec := models.AnalysisRecord{
		ID:             uuid.New().String(),
		Origin:         strings.TrimSpace(origin),
		Destination:    strings.TrimSpace(destination),
		DepartureTime:  departureTime,
		Level:          congestion.Level,
		Score:          congestion.Score,
		TriggeredRules: congestion.TriggeredRules,
		Recommendation: congestion.DepartureRecommendation,
		CreatedAt:      time.Now().UTC(),
	}
	if err := g.recorder.SaveAnalysis(ctx, rec); err != nil {
		logger.Warn("Failed to save analysis record", "error", err)
	}
}

// errorAnalysis is the conservative whole-request failure response
func errorAnalysis(message string) models.TrafficAnalysis {
	return models.TrafficAnalysis{
		Congestion: models.CongestionResult{
			Level:                   models.LevelHigh,
			Score:                   models.MaxScore,
			TriggeredRules:          []string{models.RuleError},
			DepartureRecommendation: "Please try again later",
			Reasoning:               message,
		},
		HotspotWarnings:   nil,
		DepartureWindow:   "Unable to determine optimal departure window",
		DetailedReasoning: message,
	}
}
