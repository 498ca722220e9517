// Package models defines the wizard session: one participant working through
// the registration steps. The session carries only the data its current step
// has legitimately collected, so a session on Payment always has a created
// registration behind it.
package models

import (
	"time"

	"github.com/google/uuid"

	"campreg/internal/admin"
	catalogmodels "campreg/internal/catalog/models"
)

// Step is a wizard state. The order is fixed; backward navigation exists only
// on Church, CampSelection and Review.
type Step string

const (
	StepPersonalInfo  Step = "personal_info"
	StepChurch        Step = "church"
	StepCampSelection Step = "camp_selection"
	StepReview        Step = "review"
	StepPayment       Step = "payment"
	StepConfirmation  Step = "confirmation"
)

var order = []Step{
	StepPersonalInfo,
	StepChurch,
	StepCampSelection,
	StepReview,
	StepPayment,
	StepConfirmation,
}

func (s Step) index() int {
	for i, step := range order {
		if step == s {
			return i
		}
	}
	return -1
}

func (s Step) IsValid() bool { return s.index() >= 0 }

// Next returns the following step, false at Confirmation.
func (s Step) Next() (Step, bool) {
	i := s.index()
	if i < 0 || i == len(order)-1 {
		return s, false
	}
	return order[i+1], true
}

// Prev returns the preceding step for the steps that allow going back.
// Payment and Confirmation are one-directional: a registration already exists
// server-side and retreating would invite resubmission races.
func (s Step) Prev() (Step, bool) {
	switch s {
	case StepChurch, StepCampSelection, StepReview:
		return order[s.index()-1], true
	default:
		return s, false
	}
}

// Session is the server-side wizard state for one participant.
type Session struct {
	ID   uuid.UUID `json:"id"`
	Step Step      `json:"step"`

	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	DateOfBirth time.Time `json:"date_of_birth,omitzero"`
	City        string    `json:"city,omitempty"`
	Phone       string    `json:"phone,omitempty"`

	ChurchID uuid.UUID `json:"church_id,omitzero"`

	CampIDs []uuid.UUID `json:"camp_ids,omitempty"`

	// Set when advancing past Review creates the registration.
	RegistrationID *uuid.UUID            `json:"registration_id,omitempty"`
	AdminDetails   *admin.PaymentDetails `json:"admin_details,omitempty"`

	PaymentTypeID    *uuid.UUID                `json:"payment_type_id,omitempty"`
	PaymentKind      catalogmodels.PaymentKind `json:"payment_kind,omitempty"`
	ArtifactUploaded bool                      `json:"artifact_uploaded,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key is the session's identity for the duplicate checker.
func (s Session) Key() string { return s.ID.String() }

// PersonalInfoComplete reports whether the required participant fields are
// filled in.
func (s Session) PersonalInfoComplete() bool {
	return s.FirstName != "" && s.LastName != "" && s.City != "" && !s.DateOfBirth.IsZero()
}
