package models

import (
	"time"

	"github.com/google/uuid"
)

// Cohort is the camp category that drives eligibility and prerequisite rules.
// A Camp is one scheduled, dated instance of a cohort.
type Cohort string

// Cohort names are product copy and double as rule keys; they arrive verbatim
// from the catalog data.
const (
	CohortChildren Cohort = "Детский"
	CohortTeen     Cohort = "Подростковый"
	CohortYouth    Cohort = "Молодежный"
)

// Price is one window of a camp's price schedule. Windows are inclusive on
// both bounds and should be disjoint; overlap is a data-quality defect.
type Price struct {
	ID         uuid.UUID `json:"id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	TotalValue int       `json:"total_value"` // whole currency units, never negative
}

// Camp is a scheduled cohort instance with its price schedule and seat cap.
type Camp struct {
	ID        uuid.UUID `json:"id"`
	Name      Cohort    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Capacity  int       `json:"capacity"` // 0 means unlimited
	Prices    []Price   `json:"prices"`
}

// Church is a selectable congregation. Placeholder entries (the pending
// "Другая" option) are listed but not selectable in the wizard.
type Church struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Placeholder bool      `json:"placeholder"`
}

// PaymentKind distinguishes the two payment flows: cash needs no artifact,
// card requires an uploaded check image before review.
type PaymentKind string

const (
	PaymentKindCash PaymentKind = "cash"
	PaymentKindCard PaymentKind = "card"
)

// IsValid checks the kind is one of the supported enum values.
func (k PaymentKind) IsValid() bool {
	return k == PaymentKindCash || k == PaymentKindCard
}

type PaymentType struct {
	ID   uuid.UUID   `json:"id"`
	Name string      `json:"name"`
	Kind PaymentKind `json:"kind"`
}
