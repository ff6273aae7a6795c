package guide

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/citypulse/trafficguide/internal/cache"
	"github.com/citypulse/trafficguide/internal/classifier"
	"github.com/citypulse/trafficguide/internal/contentfilter"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/internal/reasoning"
	"github.com/citypulse/trafficguide/internal/rules"
	"github.com/citypulse/trafficguide/internal/scoring"
)

type captureRecorder struct {
	records []models.AnalysisRecord
	fail    bool
}

func (r *captureRecorder) SaveAnalysis(_ context.Context, record models.AnalysisRecord) error {
	if r.fail {
		return errors.New("audit store down")
	}
	r.records = append(r.records, record)
	return nil
}

func testRuleset() *rules.Ruleset {
	return &rules.Ruleset{
		PeakWindows: models.PeakWindows{
			WeekdayMorning: &models.TimeRange{Start: models.NewClockTime(8, 0), End: models.NewClockTime(11, 0)},
			WeekdayEvening: &models.TimeRange{Start: models.NewClockTime(17, 0), End: models.NewClockTime(20, 0)},
		},
		Zones: []models.Zone{
			{Name: "zone_it_corridor", Areas: []string{"Gachibowli", "Hitec City", "Madhapur", "Kondapur"}},
			{Name: "zone_central", Areas: []string{"Ameerpet", "Punjagutta"}},
			{Name: "zone_west", Areas: []string{"Jubilee Hills", "Banjara Hills"}},
		},
		Hotspots: []string{"Gachibowli", "Hitec City", "Ameerpet"},
		Templates: map[string]string{
			models.RulePeakWindow: "Departure time falls in a typical peak window.",
			models.RuleITCorridor: "One endpoint is in the west/IT corridor, which usually amplifies peak-hour congestion.",
			models.RuleHotspot:    "This route touches a known slow zone, so delays are more likely.",
			models.RuleWeekend:    "Weekend traffic is often smoother unless you're near busy hotspots.",
		},
		Fingerprint: "guidetest",
	}
}

func newTestGuide(rec Recorder) *Guide {
	store := rules.NewStaticStore(testRuleset())
	reasoner := reasoning.New(store)
	return New(
		store,
		classifier.New(store, classifier.SubstringMatcher{}, cache.NewMemoryCache()),
		scoring.New(store, reasoner),
		reasoner,
		contentfilter.New(),
		rec,
	)
}

func monday(hour, minute int) time.Time {
	return time.Date(2025, 1, 6, hour, minute, 0, 0, time.UTC)
}

func TestAnalyzeRoutePeakCorridor(t *testing.T) {
	rec := &captureRecorder{}
	g := newTestGuide(rec)

	got := g.AnalyzeRoute(context.Background(), "Gachibowli", "Ameerpet", monday(9, 0))

	if got.Congestion.Level != models.LevelHigh || got.Congestion.Score != 2 {
		t.Errorf("congestion = %s/%d, want High/2", got.Congestion.Level, got.Congestion.Score)
	}
	wantRules := []string{models.RulePeakWindow, models.RuleITCorridor, models.RuleHotspot}
	if !reflect.DeepEqual(got.Congestion.TriggeredRules, wantRules) {
		t.Errorf("TriggeredRules = %v, want %v", got.Congestion.TriggeredRules, wantRules)
	}
	if got.DepartureWindow != "Consider: wait until after 20:00" {
		t.Errorf("DepartureWindow = %q", got.DepartureWindow)
	}
	wantWarnings := []string{
		"Origin Gachibowli is a known traffic hotspot",
		"Destination Ameerpet is a known traffic hotspot",
	}
	if !reflect.DeepEqual(got.HotspotWarnings, wantWarnings) {
		t.Errorf("HotspotWarnings = %v, want %v", got.HotspotWarnings, wantWarnings)
	}
	if !strings.Contains(got.DetailedReasoning, "High congestion is expected due to multiple factors.") {
		t.Errorf("DetailedReasoning = %q", got.DetailedReasoning)
	}

	if len(rec.records) != 1 {
		t.Fatalf("recorded %d analyses, want 1", len(rec.records))
	}
	saved := rec.records[0]
	if saved.Origin != "Gachibowli" || saved.Destination != "Ameerpet" || saved.Score != 2 {
		t.Errorf("audit record = %+v", saved)
	}
	if saved.ID == "" {
		t.Error("audit record missing ID")
	}
}

func TestAnalyzeRouteQuietMidday(t *testing.T) {
	g := newTestGuide(nil)

	got := g.AnalyzeRoute(context.Background(), "Madhapur", "Kondapur", monday(13, 0))

	if got.Congestion.Level != models.LevelLow || got.Congestion.Score != 0 {
		t.Errorf("congestion = %s/%d, want Low/0", got.Congestion.Level, got.Congestion.Score)
	}
	if got.DepartureWindow != "Optimal departure: now (around 13:00)" {
		t.Errorf("DepartureWindow = %q", got.DepartureWindow)
	}
	if len(got.HotspotWarnings) != 0 {
		t.Errorf("HotspotWarnings = %v, want none", got.HotspotWarnings)
	}
	if got.DetailedReasoning != "No special traffic conditions detected. Base congestion level applied." {
		t.Errorf("DetailedReasoning = %q", got.DetailedReasoning)
	}
}

func TestAnalyzeRouteInputValidation(t *testing.T) {
	g := newTestGuide(nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		origin      string
		destination string
		departure   time.Time
		wantMessage string
	}{
		{
			"empty origin", "", "Ameerpet", monday(9, 0),
			"Origin location cannot be empty. Please provide a valid starting location.",
		},
		{
			"blank destination", "Gachibowli", "   ", monday(9, 0),
			"Destination location cannot be empty. Please provide a valid ending location.",
		},
		{
			"zero departure time", "Gachibowli", "Ameerpet", time.Time{},
			"Departure time is required. Please provide a valid departure time.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.AnalyzeRoute(ctx, tt.origin, tt.destination, tt.departure)
			if got.Congestion.Level != models.LevelHigh || got.Congestion.Score != models.MaxScore {
				t.Errorf("congestion = %s/%d, want High/2", got.Congestion.Level, got.Congestion.Score)
			}
			if !got.Congestion.HasRule(models.RuleError) {
				t.Errorf("TriggeredRules = %v, want error condition", got.Congestion.TriggeredRules)
			}
			if got.Congestion.Reasoning != tt.wantMessage {
				t.Errorf("Reasoning = %q, want %q", got.Congestion.Reasoning, tt.wantMessage)
			}
			if got.DepartureWindow != "Unable to determine optimal departure window" {
				t.Errorf("DepartureWindow = %q", got.DepartureWindow)
			}
		})
	}
}

func TestAnalyzeRouteUnknownArea(t *testing.T) {
	g := newTestGuide(nil)
	ctx := context.Background()

	wantSuggestion := "That area isn't in my local dataset yet—add it to product.md. " +
		"To add 'Warangal', please provide: area name, zone tag, nearby landmark, and hotspot status."

	t.Run("unknown origin", func(t *testing.T) {
		got := g.AnalyzeRoute(ctx, "Warangal", "Gachibowli", monday(9, 0))
		if got.Congestion.Level != models.LevelLow || got.Congestion.Score != 0 {
			t.Errorf("congestion = %s/%d, want base level and zero score", got.Congestion.Level, got.Congestion.Score)
		}
		if len(got.Congestion.TriggeredRules) != 0 {
			t.Errorf("TriggeredRules = %v, want none", got.Congestion.TriggeredRules)
		}
		if got.Congestion.DepartureRecommendation != "Unable to provide recommendation for unknown area" {
			t.Errorf("DepartureRecommendation = %q", got.Congestion.DepartureRecommendation)
		}
		if got.Congestion.Reasoning != wantSuggestion {
			t.Errorf("Reasoning = %q, want %q", got.Congestion.Reasoning, wantSuggestion)
		}
		if got.DetailedReasoning != wantSuggestion {
			t.Errorf("DetailedReasoning = %q", got.DetailedReasoning)
		}
		if got.DepartureWindow != "" {
			t.Errorf("DepartureWindow = %q, want empty", got.DepartureWindow)
		}
	})

	t.Run("unknown destination", func(t *testing.T) {
		got := g.AnalyzeRoute(ctx, "Gachibowli", "Warangal", monday(9, 0))
		if got.Congestion.Reasoning != wantSuggestion {
			t.Errorf("Reasoning = %q", got.Congestion.Reasoning)
		}
	})
}

func TestAnalyzeRouteWithPreferencesKeepsNonTextFields(t *testing.T) {
	g := newTestGuide(nil)
	ctx := context.Background()
	prefs := models.FilterPreferences{AvoidNightlife: true, PreferFamilyFriendly: true}

	plain := g.AnalyzeRoute(ctx, "Gachibowli", "Ameerpet", monday(9, 0))
	filtered := g.AnalyzeRouteWithPreferences(ctx, "Gachibowli", "Ameerpet", monday(9, 0), prefs)

	if filtered.Congestion.Level != plain.Congestion.Level {
		t.Errorf("Level changed under filtering: %s vs %s", filtered.Congestion.Level, plain.Congestion.Level)
	}
	if filtered.Congestion.Score != plain.Congestion.Score {
		t.Errorf("Score changed under filtering: %d vs %d", filtered.Congestion.Score, plain.Congestion.Score)
	}
	if !reflect.DeepEqual(filtered.Congestion.TriggeredRules, plain.Congestion.TriggeredRules) {
		t.Errorf("TriggeredRules changed under filtering: %v vs %v",
			filtered.Congestion.TriggeredRules, plain.Congestion.TriggeredRules)
	}
	if filtered.DetailedReasoning == "" {
		t.Error("DetailedReasoning emptied by filtering")
	}
}

func TestAnalyzeRouteWithInactivePreferences(t *testing.T) {
	g := newTestGuide(nil)
	ctx := context.Background()

	plain := g.AnalyzeRoute(ctx, "Madhapur", "Kondapur", monday(13, 0))
	same := g.AnalyzeRouteWithPreferences(ctx, "Madhapur", "Kondapur", monday(13, 0), models.FilterPreferences{})

	if !reflect.DeepEqual(plain, same) {
		t.Errorf("inactive preferences altered the analysis:\n%+v\n%+v", plain, same)
	}
}

func TestRecorderFailureDoesNotBreakAnalysis(t *testing.T) {
	g := newTestGuide(&captureRecorder{fail: true})

	got := g.AnalyzeRoute(context.Background(), "Gachibowli", "Ameerpet", monday(9, 0))
	if got.Congestion.HasRule(models.RuleError) {
		t.Errorf("recorder failure leaked into the analysis: %+v", got.Congestion)
	}
}

func TestSuggestAreaAddition(t *testing.T) {
	g := newTestGuide(nil)

	got := g.SuggestAreaAddition("  Shamshabad  ")
	if !strings.Contains(got, "To add 'Shamshabad'") {
		t.Errorf("SuggestAreaAddition = %q", got)
	}

	blank := g.SuggestAreaAddition("   ")
	if blank != "Please provide a valid area name for addition to the local dataset." {
		t.Errorf("SuggestAreaAddition(blank) = %q", blank)
	}
}

func TestAreaInfoDelegation(t *testing.T) {
	g := newTestGuide(nil)

	info := g.AreaInfo(context.Background(), "Hitec City")
	if info.Zone != "zone_it_corridor" || !info.IsHotspot {
		t.Errorf("AreaInfo = %+v", info)
	}
}

func TestValidationReport(t *testing.T) {
	g := newTestGuide(nil)

	report := g.ValidationReport()
	if !report.Valid {
		t.Errorf("expected valid ruleset, got errors: %v", report.Errors)
	}
}
