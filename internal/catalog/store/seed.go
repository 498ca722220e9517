package store

import (
	"time"

	"github.com/google/uuid"

	"campreg/internal/catalog/models"
)

// SeedDevCatalog fills an in-memory store with a season of camps, a couple of
// churches, and both payment types. Used when no database is configured.
func SeedDevCatalog(s *InMemoryStore) {
	year := time.Now().Year()
	day := func(m time.Month, d int) time.Time {
		return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
	}

	camps := []models.Camp{
		{
			ID:        uuid.New(),
			Name:      models.CohortChildren,
			StartDate: day(time.June, 10),
			EndDate:   day(time.June, 17),
			Capacity:  120,
			Prices: []models.Price{
				{ID: uuid.New(), StartDate: day(time.January, 1), EndDate: day(time.April, 30), TotalValue: 9000},
				{ID: uuid.New(), StartDate: day(time.May, 1), EndDate: day(time.June, 9), TotalValue: 11000},
			},
		},
		{
			ID:        uuid.New(),
			Name:      models.CohortTeen,
			StartDate: day(time.July, 1),
			EndDate:   day(time.July, 8),
			Capacity:  100,
			Prices: []models.Price{
				{ID: uuid.New(), StartDate: day(time.January, 1), EndDate: day(time.April, 30), TotalValue: 10000},
				{ID: uuid.New(), StartDate: day(time.May, 1), EndDate: day(time.June, 30), TotalValue: 12000},
			},
		},
		{
			ID:        uuid.New(),
			Name:      models.CohortYouth,
			StartDate: day(time.July, 20),
			EndDate:   day(time.July, 27),
			Capacity:  80,
			Prices: []models.Price{
				{ID: uuid.New(), StartDate: day(time.January, 1), EndDate: day(time.July, 19), TotalValue: 13000},
			},
		},
	}
	for _, c := range camps {
		s.PutCamp(c)
	}

	s.PutChurch(models.Church{ID: uuid.New(), Name: "Церковь «Благодать»"})
	s.PutChurch(models.Church{ID: uuid.New(), Name: "Церковь «Слово жизни»"})
	s.PutChurch(models.Church{ID: uuid.New(), Name: "Другая", Placeholder: true})

	s.PutPaymentType(models.PaymentType{ID: uuid.New(), Name: "Наличные", Kind: models.PaymentKindCash})
	s.PutPaymentType(models.PaymentType{ID: uuid.New(), Name: "Перевод на карту", Kind: models.PaymentKindCard})
}
