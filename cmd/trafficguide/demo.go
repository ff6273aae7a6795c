package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/citypulse/trafficguide/internal/models"
)

// demoScenario is one scripted route through the scoring rules
type demoScenario struct {
	title       string
	origin      string
	destination string
	departure   time.Time
	prefs       models.FilterPreferences
	expected    string
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through scripted scenarios that exercise the scoring rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		g, rulesStore, err := newLocalGuide(cfg)
		if err != nil {
			return err
		}

		rs := rulesStore.Current()
		fmt.Printf("Rules document: %d zones, %d hotspots, fingerprint %s\n",
			len(rs.Zones), len(rs.Hotspots), rs.Fingerprint[:8])

		report := g.ValidationReport()
		if !report.Valid {
			color.Red("Rules document has validation errors:")
			for _, e := range report.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
		for _, w := range report.Warnings {
			color.Yellow("warning: %s", w)
		}

		// 2025-01-06 is a Monday, 2025-01-04 a Saturday.
		scenarios := []demoScenario{
			{
				title:       "Weekday morning IT corridor commute",
				origin:      "Gachibowli",
				destination: "Ameerpet",
				departure:   time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local),
				expected:    "High: peak window, IT corridor and hotspots stack up",
			},
			{
				title:       "Weekend non-peak travel",
				origin:      "Jubilee Hills",
				destination: "Secunderabad",
				departure:   time.Date(2025, 1, 4, 10, 0, 0, 0, time.Local),
				expected:    "Lower congestion from the weekend adjustment",
			},
			{
				title:       "Evening peak hour return",
				origin:      "Hitec City",
				destination: "Banjara Hills",
				departure:   time.Date(2025, 1, 6, 18, 30, 0, 0, time.Local),
				expected:    "High: evening peak plus the IT corridor",
			},
			{
				title:       "Cross-city old city to IT corridor",
				origin:      "Charminar",
				destination: "Financial District",
				departure:   time.Date(2025, 1, 6, 8, 0, 0, 0, time.Local),
				expected:    "High: hotspots, IT corridor and peak time together",
			},
			{
				title:       "Unknown area handling",
				origin:      "UnknownPlace",
				destination: "Gachibowli",
				departure:   time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local),
				expected:    "Graceful degradation with an area-addition prompt",
			},
			{
				title:       "Family-friendly preferences",
				origin:      "Ameerpet",
				destination: "Kukatpally",
				departure:   time.Date(2025, 1, 6, 10, 0, 0, 0, time.Local),
				prefs:       models.FilterPreferences{AvoidNightlife: true, PreferFamilyFriendly: true},
				expected:    "Same score, text filtered for family-friendly output",
			},
		}

		ctx := context.Background()
		for i, s := range scenarios {
			printSeparator(fmt.Sprintf("Demo %d: %s", i+1, s.title))

			var analysis models.TrafficAnalysis
			if s.prefs.Active() {
				analysis = g.AnalyzeRouteWithPreferences(ctx, s.origin, s.destination, s.departure, s.prefs)
			} else {
				analysis = g.AnalyzeRoute(ctx, s.origin, s.destination, s.departure)
			}

			printAnalysis(s.origin, s.destination, s.departure, analysis)
			fmt.Printf("\nExpected: %s\n", s.expected)
		}

		printSeparator("Demo complete")
		fmt.Println("Covered: peak windows, corridor awareness, hotspot warnings,")
		fmt.Println("weekend adjustments, unknown areas and content filtering.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func printSeparator(title string) {
	fmt.Println()
	color.New(color.FgCyan).Println(strings.Repeat("=", 60))
	color.New(color.FgCyan, color.Bold).Printf(" %s\n", title)
	color.New(color.FgCyan).Println(strings.Repeat("=", 60))
}
