package rules

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	apperrors "github.com/citypulse/trafficguide/internal/errors"
	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/metrics"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/pkg/utils"
)

// Ruleset is an immutable snapshot of the rules document. It is never
// mutated after Load; readers may hold a snapshot for the whole request.
type Ruleset struct {
	PeakWindows models.PeakWindows
	Zones       []models.Zone
	Hotspots    []string
	Templates   map[string]string
	Scoring     models.ScoringRules

	// Fingerprint identifies the document revision, used for cache keys.
	Fingerprint string
	LoadedAt    time.Time

	// defaultedTemplates lists rule names whose explanation text fell back
	// to the built-in default because the document omitted them.
	defaultedTemplates []string
}

// Template returns the explanation text for a rule name
func (r *Ruleset) Template(rule string) (string, bool) {
	text, ok := r.Templates[rule]
	return text, ok
}

// Zone returns the area list for a zone identifier
func (r *Ruleset) Zone(name string) ([]string, bool) {
	for _, z := range r.Zones {
		if z.Name == name {
			return z.Areas, true
		}
	}
	return nil, false
}

// BaseLevel returns the configured base congestion level, defaulting to Low
func (r *Ruleset) BaseLevel() models.CongestionLevel {
	if r == nil || r.Scoring.BaseLevel == "" {
		return models.LevelLow
	}
	return r.Scoring.BaseLevel
}

// Load reads and parses the rules document at path
func Load(path string) (*Ruleset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.RulesError{Path: path, Err: apperrors.ErrRulesNotFound}
		}
		return nil, apperrors.RulesError{Path: path, Err: err}
	}

	rs, err := Parse(string(content))
	if err != nil {
		return nil, apperrors.RulesError{Path: path, Err: err}
	}
	return rs, nil
}

// Provider hands out the current ruleset snapshot
type Provider interface {
	Current() *Ruleset
}

// Store holds the active ruleset and supports atomic reload. In-flight
// requests keep the snapshot they started with.
type Store struct {
	path    string
	current atomic.Pointer[Ruleset]
}

// NewStore loads the document at path and returns a store holding it
func NewStore(path string) (*Store, error) {
	rs, err := Load(path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path}
	s.current.Store(rs)

	report := rs.Validate()
	if !report.Valid {
		logger.Warn("Rules document has blocking validation errors; running degraded",
			"path", path,
			"errors", report.Errors,
		)
	}
	for _, w := range report.Warnings {
		logger.Info("Rules document warning", "path", path, "warning", w)
	}

	logger.Info("Rules document loaded",
		"path", path,
		"zones", len(rs.Zones),
		"hotspots", len(rs.Hotspots),
		"fingerprint", rs.Fingerprint[:8],
	)
	return s, nil
}

// NewStaticStore wraps an already-built ruleset (used by tests and the demo)
func NewStaticStore(rs *Ruleset) *Store {
	s := &Store{}
	s.current.Store(rs)
	return s
}

// Current returns the active snapshot
func (s *Store) Current() *Ruleset {
	return s.current.Load()
}

// Reload re-reads the document and swaps in the new snapshot atomically.
// On failure the previous snapshot stays active.
func (s *Store) Reload() (models.ValidationReport, error) {
	if s.path == "" {
		return models.ValidationReport{}, fmt.Errorf("rules store has no backing document")
	}

	rs, err := Load(s.path)
	if err != nil {
		metrics.RecordRulesReload("error")
		logger.Error("Rules reload failed; keeping previous snapshot", "path", s.path, "error", err)
		return models.ValidationReport{}, err
	}

	report := rs.Validate()
	s.current.Store(rs)
	metrics.RecordRulesReload("success")
	logger.Info("Rules document reloaded", "path", s.path, "fingerprint", rs.Fingerprint[:8])
	return report, nil
}

// Fingerprint computes the revision fingerprint for raw document content
func Fingerprint(content string) string {
	return utils.HashString(content)
}
