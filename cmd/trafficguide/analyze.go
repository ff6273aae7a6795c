package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/citypulse/trafficguide/config"
	"github.com/citypulse/trafficguide/internal/cache"
	"github.com/citypulse/trafficguide/internal/classifier"
	"github.com/citypulse/trafficguide/internal/contentfilter"
	"github.com/citypulse/trafficguide/internal/guide"
	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/internal/reasoning"
	"github.com/citypulse/trafficguide/internal/rules"
	"github.com/citypulse/trafficguide/internal/scoring"
)

var (
	analyzeAt             string
	analyzeAvoidNightlife bool
	analyzeFamilyFriendly bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <origin> <destination>",
	Short: "Analyze one route and print the congestion estimate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		departure := time.Now()
		if analyzeAt != "" {
			departure, err = parseDeparture(analyzeAt)
			if err != nil {
				return err
			}
		}

		g, _, err := newLocalGuide(cfg)
		if err != nil {
			return err
		}

		prefs := models.FilterPreferences{
			AvoidNightlife:       analyzeAvoidNightlife,
			PreferFamilyFriendly: analyzeFamilyFriendly,
		}

		ctx := context.Background()
		var analysis models.TrafficAnalysis
		if prefs.Active() {
			analysis = g.AnalyzeRouteWithPreferences(ctx, args[0], args[1], departure, prefs)
		} else {
			analysis = g.AnalyzeRoute(ctx, args[0], args[1], departure)
		}

		printAnalysis(args[0], args[1], departure, analysis)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeAt, "at", "", `departure time, RFC3339 or "2006-01-02 15:04" (default now)`)
	analyzeCmd.Flags().BoolVar(&analyzeAvoidNightlife, "avoid-nightlife", false, "strip nightlife references from the output")
	analyzeCmd.Flags().BoolVar(&analyzeFamilyFriendly, "family-friendly", false, "prefer family-friendly phrasing")
	rootCmd.AddCommand(analyzeCmd)
}

// newLocalGuide wires an in-process pipeline for CLI use: memory cache, no
// database, no audit trail.
func newLocalGuide(cfg *config.Config) (*guide.Guide, *rules.Store, error) {
	logger.Init(cfg.Logging.Level, "text")

	rulesStore, err := rules.NewStore(cfg.Guide.RulesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rules document: %w", err)
	}

	cls := classifier.New(rulesStore, classifier.SubstringMatcher{}, cache.NewMemoryCache())
	reasoner := reasoning.New(rulesStore)
	scorer := scoring.New(rulesStore, reasoner)
	g := guide.New(rulesStore, cls, scorer, reasoner, contentfilter.New(), nil)
	return g, rulesStore, nil
}

func parseDeparture(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized departure time %q, want RFC3339 or \"2006-01-02 15:04\"", value)
}

func levelColor(level models.CongestionLevel) *color.Color {
	switch level {
	case models.LevelHigh:
		return color.New(color.FgRed, color.Bold)
	case models.LevelMedium:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func printAnalysis(origin, destination string, departure time.Time, analysis models.TrafficAnalysis) {
	bold := color.New(color.Bold)

	bold.Printf("%s -> %s", origin, destination)
	fmt.Printf("  (departing %s)\n\n", departure.Format("Mon 2006-01-02 15:04"))

	c := analysis.Congestion
	fmt.Print("Congestion:      ")
	levelColor(c.Level).Printf("%s", c.Level)
	fmt.Printf(" (score %d)\n", c.Score)
	fmt.Printf("Recommendation:  %s\n", c.DepartureRecommendation)
	fmt.Printf("Reasoning:       %s\n", c.Reasoning)

	if analysis.DepartureWindow != "" {
		fmt.Printf("Departure:       %s\n", analysis.DepartureWindow)
	}
	for _, warning := range analysis.HotspotWarnings {
		color.Yellow("Warning:         %s", warning)
	}
	if analysis.DetailedReasoning != "" && analysis.DetailedReasoning != c.Reasoning {
		fmt.Printf("\nDetails: %s\n", analysis.DetailedReasoning)
	}
}
