package eligibility

import "campreg/internal/catalog/models"

// Rule is one cohort's age policy. Cohorts absent from the table carry no
// restriction. Adding a cohort is a data change here, not new control flow.
type Rule struct {
	MinAge int
	MaxAge int // -1 means unbounded

	// AdvisoryAge triggers a non-blocking message at exactly that age.
	AdvisoryAge int
	Advisory    string

	// PrereqAge is the boundary age at which enrollment in Prereq (selected in
	// this session or already registered) is required. -1 disables.
	PrereqAge     int
	Prereq        models.Cohort
	PrereqMessage string

	RangeMessage string
}

var rules = map[models.Cohort]Rule{
	models.CohortChildren: {
		MinAge:       6,
		MaxAge:       12,
		AdvisoryAge:  6,
		Advisory:     "В 6 лет участие в детском лагере возможно только в сопровождении взрослого",
		PrereqAge:    -1,
		RangeMessage: "В детский лагерь принимаются участники от 6 до 12 лет",
	},
	models.CohortTeen: {
		MinAge:        12,
		MaxAge:        16,
		AdvisoryAge:   -1,
		PrereqAge:     12,
		Prereq:        models.CohortChildren,
		PrereqMessage: "В 12 лет подростковый лагерь доступен только вместе с детским",
		RangeMessage:  "В подростковый лагерь принимаются участники от 12 до 16 лет",
	},
	models.CohortYouth: {
		MinAge:        15,
		MaxAge:        -1,
		AdvisoryAge:   -1,
		PrereqAge:     15,
		Prereq:        models.CohortTeen,
		PrereqMessage: "В 15 лет молодежный лагерь доступен только вместе с подростковым",
		RangeMessage:  "В молодежный лагерь принимаются участники от 15 лет",
	},
}

// dependentOf returns the cohort whose boundary-age admission depends on the
// given prerequisite cohort, together with its rule. The graph is derived
// from the table so the cascade logic never hardcodes cohort pairs.
func dependentOf(prereq models.Cohort) (models.Cohort, Rule, bool) {
	for cohort, rule := range rules {
		if rule.PrereqAge >= 0 && rule.Prereq == prereq {
			return cohort, rule, true
		}
	}
	return "", Rule{}, false
}
