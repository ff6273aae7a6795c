package reasoning

import (
	"strings"

	"github.com/citypulse/trafficguide/internal/logger"
	"github.com/citypulse/trafficguide/internal/models"
	"github.com/citypulse/trafficguide/internal/rules"
)

// Engine turns a scored result into explanations and departure advice
type Engine struct {
	provider rules.Provider
}

// New creates a reasoning engine backed by the given ruleset provider
func New(provider rules.Provider) *Engine {
	return &Engine{provider: provider}
}

// Explain produces a one-sentence explanation from the first triggered rule
func (e *Engine) Explain(result models.CongestionResult) string {
	if len(result.TriggeredRules) == 0 {
		return "No special traffic conditions detected."
	}
	return ensureFamilyFriendly(e.template(result.TriggeredRules[0]))
}

// RecommendDeparture maps a result to departure advice. The output is always
// either "leave now" or a string starting with "wait until "; downstream
// consumers depend on that shape.
func (e *Engine) RecommendDeparture(result models.CongestionResult) string {
	switch result.Level {
	case models.LevelLow:
		return "leave now"
	case models.LevelMedium:
		// Medium deliberately still says leave now: a single triggered rule
		// is not enough signal to tell commuters to sit at home.
		return "leave now"
	default:
		if result.HasRule(models.RulePeakWindow) {
			if result.HasRule(models.RuleITCorridor) {
				return "wait until after 20:00"
			}
			return "wait until after peak hours"
		}
		return "wait until traffic conditions improve"
	}
}

// DetailedExplanation concatenates every triggered rule's template with a
// score interpretation and departure reasoning
func (e *Engine) DetailedExplanation(result models.CongestionResult) string {
	if len(result.TriggeredRules) == 0 {
		return "No special traffic conditions detected. Base congestion level applied."
	}

	parts := make([]string, 0, len(result.TriggeredRules)+2)
	for _, rule := range result.TriggeredRules {
		parts = append(parts, ensureFamilyFriendly(e.template(rule)))
	}
	parts = append(parts, scoreExplanation(result.Level, result.Score))
	parts = append(parts, departureReasoning(result))
	return strings.Join(parts, " ")
}

// template resolves a rule name to its explanation text
func (e *Engine) template(rule string) string {
	if e.provider != nil {
		if rs := e.provider.Current(); rs != nil {
			if text, ok := rs.Template(rule); ok {
				return text
			}
		}
	}
	logger.Debug("No explanation template for rule", "rule", rule)
	return rule + " applied."
}

func scoreExplanation(level models.CongestionLevel, score int) string {
	switch level {
	case models.LevelLow:
		return "Overall congestion is expected to be low."
	case models.LevelMedium:
		return "Moderate congestion is expected."
	default:
		if score >= models.MaxScore {
			return "High congestion is expected due to multiple factors."
		}
		return "High congestion is expected."
	}
}

func departureReasoning(result models.CongestionResult) string {
	switch result.Level {
	case models.LevelLow:
		return "Traffic conditions are favorable for immediate departure."
	case models.LevelMedium:
		return "Traffic conditions are manageable for immediate departure."
	default:
		if result.HasRule(models.RulePeakWindow) {
			return "Consider waiting until after peak hours for better travel conditions."
		}
		return "Consider waiting for traffic conditions to improve."
	}
}

// nightlifeTemplateTerms flags template text that should never reach users
var nightlifeTemplateTerms = []string{"pub", "bar", "club", "nightclub", "lounge", "brewery"}

// ensureFamilyFriendly keeps explanation text aligned with the guidance
// section of the rules document: no nightlife wording, and rest or break
// mentions carry a family-friendly qualifier.
func ensureFamilyFriendly(text string) string {
	if text == "" {
		return text
	}

	lower := strings.ToLower(text)
	for _, term := range nightlifeTemplateTerms {
		if strings.Contains(lower, term) {
			return "Consider alternative routes for optimal travel conditions."
		}
	}

	if strings.Contains(lower, "stop") || strings.Contains(lower, "break") ||
		strings.Contains(lower, "rest") || strings.Contains(lower, "suggest") {
		if !strings.Contains(lower, "quiet") && !strings.Contains(lower, "family") {
			text = strings.ReplaceAll(text, "stop", "quiet stop")
			text = strings.ReplaceAll(text, "break", "family-friendly break")
			text = strings.ReplaceAll(text, "rest", "peaceful rest")
		}
	}
	return text
}
