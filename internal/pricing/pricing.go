// Package pricing resolves the effective price of a camp on a given date and
// applies the age discount tiers. It is pure; callers supply the price list
// and the reference date.
package pricing

import (
	"log/slog"
	"math"
	"time"

	"campreg/internal/catalog/models"
	"campreg/internal/dates"
)

// Resolver picks effective price windows and applies age discounts.
type Resolver struct {
	logger *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveCurrentPrice returns the price whose [StartDate, EndDate] window
// contains asOf, bounds inclusive. The first match in list order wins; a
// second matching window is a schedule defect and is logged, not resolved by
// any precedence rule. Returns nil when no window matches.
func (r *Resolver) ResolveCurrentPrice(prices []models.Price, asOf time.Time) *models.Price {
	var found *models.Price
	for i := range prices {
		p := &prices[i]
		if !dates.WithinWindow(asOf, p.StartDate, p.EndDate) {
			continue
		}
		if found != nil {
			r.logger.Warn("overlapping price windows in camp schedule",
				"kept_price_id", found.ID,
				"ignored_price_id", p.ID,
				"as_of", asOf.Format(time.DateOnly),
			)
			continue
		}
		found = p
	}
	return found
}

// ApplyAgeDiscount applies the discount tiers to a base price. Age is the
// participant's age at the camp's start date (dates.AgeAt), not at
// registration time.
//
// Tiers, most restrictive first:
//
//	age < 2   → free
//	age 2..6  → half price, rounded half-up to a whole unit
//	age > 6   → full price
func (r *Resolver) ApplyAgeDiscount(ageAtCampStart int, basePrice int) int {
	switch {
	case ageAtCampStart < 2:
		return 0
	case ageAtCampStart <= 6:
		return int(math.Floor(float64(basePrice)*0.5 + 0.5))
	default:
		return basePrice
	}
}
