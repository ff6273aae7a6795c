package models

import (
	"fmt"
	"time"
)

// CongestionLevel is a qualitative congestion estimate
type CongestionLevel string

const (
	LevelLow    CongestionLevel = "Low"
	LevelMedium CongestionLevel = "Medium"
	LevelHigh   CongestionLevel = "High"
)

// Scoring rule names. They double as keys into the explanation templates,
// so the literals must match the rules document.
const (
	RulePeakWindow = "Peak window triggered"
	RuleITCorridor = "IT corridor triggered"
	RuleHotspot    = "Hotspot triggered"
	RuleWeekend    = "Weekend adjustment"
	RuleError      = "Error condition"
)

// MinScore and MaxScore bound every congestion score.
const (
	MinScore = 0
	MaxScore = 2
)

// LevelForScore maps a clamped score to its congestion level.
// Score and level are a bijection: 0→Low, 1→Medium, 2→High.
func LevelForScore(score int) CongestionLevel {
	switch {
	case score <= MinScore:
		return LevelLow
	case score == 1:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Rank orders levels for comparisons (Low < Medium < High)
func (l CongestionLevel) Rank() int {
	switch l {
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	default:
		return 0
	}
}

// ClockTime is a wall-clock time of day
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// NewClockTime builds a ClockTime from hour and minute
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute}
}

// ClockTimeOf extracts the wall-clock time from a timestamp
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns minutes since midnight
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Valid reports whether the time is a real wall-clock value
func (c ClockTime) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// TimeRange is a start/end wall-clock pair. Start after End means the range
// wraps around midnight.
type TimeRange struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Contains reports whether t falls inside the range, endpoints inclusive
func (r TimeRange) Contains(t ClockTime) bool {
	cur, start, end := t.Minutes(), r.Start.Minutes(), r.End.Minutes()
	if start <= end {
		return start <= cur && cur <= end
	}
	// Wraps midnight
	return cur >= start || cur <= end
}

// PeakWindows holds the configured weekday peak ranges. A nil window means
// the corresponding rule never fires.
type PeakWindows struct {
	WeekdayMorning *TimeRange `json:"weekday_morning,omitempty"`
	WeekdayEvening *TimeRange `json:"weekday_evening,omitempty"`
	WeekendPattern string     `json:"weekend_pattern,omitempty"`
}

// ScoringRules holds the base level and per-rule weights. The weights are all
// 1 in the shipped rules document; they live in config so tuning does not
// touch code.
type ScoringRules struct {
	BaseLevel        CongestionLevel `json:"base_level"`
	PeakWindowWeight int             `json:"peak_window_weight"`
	CorridorWeight   int             `json:"corridor_weight"`
	HotspotWeight    int             `json:"hotspot_weight"`
	WeekendReduction int             `json:"weekend_reduction"`
}

// Zone is a named group of areas. Declaration order matters: the first zone
// whose area list matches wins classification ties.
type Zone struct {
	Name  string   `json:"name"`
	Areas []string `json:"areas"`
}

// CongestionResult is the outcome of scoring a single route
type CongestionResult struct {
	Level                   CongestionLevel `json:"level"`
	Score                   int             `json:"score"`
	TriggeredRules          []string        `json:"triggered_rules"`
	DepartureRecommendation string          `json:"departure_recommendation"`
	Reasoning               string          `json:"reasoning"`
}

// HasRule reports whether the named rule contributed to the result
func (r CongestionResult) HasRule(name string) bool {
	for _, rule := range r.TriggeredRules {
		if rule == name {
			return true
		}
	}
	return false
}

// AreaInfo describes one classified area
type AreaInfo struct {
	Name           string `json:"name"`
	Zone           string `json:"zone,omitempty"`
	IsHotspot      bool   `json:"is_hotspot"`
	NearbyLandmark string `json:"nearby_landmark,omitempty"`
}

// Known reports whether the area matched any zone or hotspot
func (a AreaInfo) Known() bool {
	return a.Zone != "" || a.IsHotspot
}

// FilterPreferences are the caller's content filtering flags
type FilterPreferences struct {
	AvoidNightlife       bool `json:"avoid_nightlife"`
	PreferFamilyFriendly bool `json:"prefer_family_friendly"`
}

// Active reports whether any filtering is requested
func (p FilterPreferences) Active() bool {
	return p.AvoidNightlife || p.PreferFamilyFriendly
}

// TrafficAnalysis is the complete caller-facing result
type TrafficAnalysis struct {
	Congestion        CongestionResult `json:"congestion"`
	HotspotWarnings   []string         `json:"hotspot_warnings"`
	DepartureWindow   string           `json:"departure_window"`
	DetailedReasoning string           `json:"detailed_reasoning"`
}

// ValidationReport is the outcome of validating a loaded ruleset
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// AnalysisRecord is an audit row for one completed route analysis
type AnalysisRecord struct {
	ID             string          `json:"id" db:"id"`
	Origin         string          `json:"origin" db:"origin"`
	Destination    string          `json:"destination" db:"destination"`
	DepartureTime  time.Time       `json:"departure_time" db:"departure_time"`
	Level          CongestionLevel `json:"level" db:"level"`
	Score          int             `json:"score" db:"score"`
	TriggeredRules []string        `json:"triggered_rules" db:"triggered_rules"`
	Recommendation string          `json:"recommendation" db:"recommendation"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
