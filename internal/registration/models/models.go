package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the payment-confirmation lifecycle of a submitted registration.
type Status string

const (
	// StatusPendingPayment is the creation state. Cash registrations stay
	// here until an administrator records the payment out of band.
	StatusPendingPayment Status = "pending_payment"
	// StatusUnderReview means a card payment check was uploaded and awaits
	// an administrator's verdict.
	StatusUnderReview Status = "under_review"
	StatusPaid        Status = "paid"
	StatusRejected    Status = "rejected"
)

// IsValid checks the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusUnderReview, StatusPaid, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusRejected
}

// transitions is the full lifecycle; anything absent is forbidden. Paid and
// Rejected have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPendingPayment: {StatusUnderReview},
	StatusUnderReview:    {StatusPaid, StatusRejected},
}

// CanTransitionTo reports whether moving from s to next is a defined edge of
// the lifecycle.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Registration is the persisted record created when a wizard session passes
// Review. It outlives the session; cancelling the wizard never retracts it.
type Registration struct {
	ID            uuid.UUID   `json:"id"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	DateOfBirth   time.Time   `json:"date_of_birth"`
	City          string      `json:"city"`
	Phone         string      `json:"phone,omitempty"`
	ChurchID      uuid.UUID   `json:"church_id"`
	OwnerID       string      `json:"owner_id"` // payer/user identity from the auth collaborator
	AdminID       uuid.UUID   `json:"admin_id"` // assigned reviewer
	CampIDs       []uuid.UUID `json:"camp_ids"`
	PriceIDs      []uuid.UUID `json:"price_ids"` // windows effective at submission time
	Status        Status      `json:"status"`
	PaymentTypeID *uuid.UUID  `json:"payment_type_id,omitempty"` // nil until chosen
	ArtifactPath  string      `json:"artifact_path,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
