package rules

import (
	"fmt"
	"sort"

	"github.com/citypulse/trafficguide/internal/models"
)

// Validate checks the ruleset and reports blocking errors and non-blocking
// warnings. A ruleset with warnings only is usable in degraded mode.
func (r *Ruleset) Validate() models.ValidationReport {
	var errors, warnings []string

	if r.PeakWindows.WeekdayMorning == nil {
		errors = append(errors, "Weekday morning peak window is missing")
	}
	if r.PeakWindows.WeekdayEvening == nil {
		errors = append(errors, "Weekday evening peak window is missing")
	}

	if len(r.Zones) == 0 {
		errors = append(errors, "Zones configuration is missing")
	} else {
		for _, z := range r.Zones {
			if len(z.Areas) == 0 {
				warnings = append(warnings, fmt.Sprintf("Zone %s has no areas", z.Name))
			}
		}
		if _, ok := r.Zone(ZoneITCorridor); !ok {
			warnings = append(warnings, fmt.Sprintf("Zone %s not defined; corridor rule never fires", ZoneITCorridor))
		}
	}

	if len(r.Hotspots) == 0 {
		warnings = append(warnings, "No hotspots defined in configuration")
	}

	defaulted := append([]string(nil), r.defaultedTemplates...)
	sort.Strings(defaulted)
	for _, rule := range defaulted {
		warnings = append(warnings, fmt.Sprintf("Missing explanation template: %s", rule))
	}

	return models.ValidationReport{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}
