// Package eligibility decides whether a camp selection may be toggled and
// applies cascade deselection when a prerequisite selection is removed.
// Business-rule violations are returned as values with a user-facing message,
// never as errors; errors are reserved for programming faults.
package eligibility

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campreg/internal/catalog/models"
	"campreg/internal/dates"
)

// Engine evaluates cohort rules against one wizard session's state.
type Engine struct {
	logger *slog.Logger
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ToggleResult reports the outcome of one toggle attempt. When Allowed is
// false the selection is unchanged and Message explains the violated rule.
// Advisory carries a non-blocking notice (chaperone requirement at age 6).
type ToggleResult struct {
	Allowed  bool
	Message  string
	Advisory string

	// Selected is the camp set after the toggle, cascade applied, in the
	// original insertion order.
	Selected []models.Camp

	// Cascaded lists camps auto-removed because their prerequisite basis is
	// gone.
	Cascaded []models.Camp
}

// Toggle flips membership of camp in the selected set. Existing cohorts come
// from the duplicate-registration check and satisfy prerequisite rules the
// same way a selection in this session does.
func (e *Engine) Toggle(camp models.Camp, birth time.Time, selected []models.Camp, existing []models.Cohort) ToggleResult {
	if birth.IsZero() {
		return ToggleResult{
			Message:  "Сначала укажите дату рождения участника",
			Selected: selected,
		}
	}

	if isSelected(selected, camp.ID) {
		return e.deselect(camp, birth, selected)
	}
	return e.selectCamp(camp, birth, selected, existing)
}

func (e *Engine) selectCamp(camp models.Camp, birth time.Time, selected []models.Camp, existing []models.Cohort) ToggleResult {
	age := dates.AgeAt(birth, camp.StartDate)

	rule, restricted := rules[camp.Name]
	if !restricted {
		return ToggleResult{Allowed: true, Selected: append(selected, camp)}
	}

	if age < rule.MinAge || (rule.MaxAge >= 0 && age > rule.MaxAge) {
		return ToggleResult{Message: rule.RangeMessage, Selected: selected}
	}

	if rule.PrereqAge >= 0 && age == rule.PrereqAge &&
		!hasCohort(selected, rule.Prereq) && !containsCohort(existing, rule.Prereq) {
		return ToggleResult{Message: rule.PrereqMessage, Selected: selected}
	}

	result := ToggleResult{Allowed: true, Selected: append(selected, camp)}
	if rule.AdvisoryAge >= 0 && age == rule.AdvisoryAge {
		result.Advisory = rule.Advisory
	}
	return result
}

// deselect removes the camp and cascades one level: the dependent cohort is
// auto-removed when the removed camp was its prerequisite basis and the
// participant sits on the dependent's boundary age. The cascade does not
// re-validate transitively beyond the immediate dependent.
func (e *Engine) deselect(camp models.Camp, birth time.Time, selected []models.Camp) ToggleResult {
	remaining := remove(selected, camp.ID)
	result := ToggleResult{Allowed: true, Selected: remaining}

	dependent, depRule, ok := dependentOf(camp.Name)
	if !ok {
		return result
	}

	// Boundary basis: at the removed camp's start the participant was at the
	// dependent's prerequisite age or one year short of it.
	age := dates.AgeAt(birth, camp.StartDate)
	if age != depRule.PrereqAge && age != depRule.PrereqAge-1 {
		return result
	}
	if hasCohort(remaining, camp.Name) {
		// Another camp of the same cohort still anchors the prerequisite.
		return result
	}

	kept := make([]models.Camp, 0, len(remaining))
	for _, c := range remaining {
		if c.Name == dependent {
			result.Cascaded = append(result.Cascaded, c)
			e.logger.Debug("cascade deselection",
				"removed_camp", camp.ID,
				"dependent_camp", c.ID,
				"cohort", string(dependent),
			)
			continue
		}
		kept = append(kept, c)
	}
	result.Selected = kept
	return result
}

func isSelected(selected []models.Camp, id uuid.UUID) bool {
	for _, c := range selected {
		if c.ID == id {
			return true
		}
	}
	return false
}

func remove(selected []models.Camp, id uuid.UUID) []models.Camp {
	out := make([]models.Camp, 0, len(selected))
	for _, c := range selected {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func hasCohort(selected []models.Camp, cohort models.Cohort) bool {
	for _, c := range selected {
		if c.Name == cohort {
			return true
		}
	}
	return false
}

func containsCohort(cohorts []models.Cohort, cohort models.Cohort) bool {
	for _, c := range cohorts {
		if c == cohort {
			return true
		}
	}
	return false
}
