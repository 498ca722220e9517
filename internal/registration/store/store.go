package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campreg/internal/registration/models"
)

// CampLimit caps active registrations for one camp during an insert.
// Unlimited camps are never passed to Create.
type CampLimit struct {
	CampID   uuid.UUID
	Capacity int
}

// CampFullError reports the camp whose capacity blocked an insert.
type CampFullError struct {
	CampID uuid.UUID
}

func (e CampFullError) Error() string {
	return "camp " + e.CampID.String() + " is at capacity"
}

// Store persists registrations. Interface-driven so the in-memory and
// Postgres implementations stay swappable in tests and deployments.
type Store interface {
	// Create inserts the registration, enforcing the given capacity limits
	// atomically with the insert so concurrent submissions cannot overbook.
	// A blocked insert returns CampFullError.
	Create(ctx context.Context, reg models.Registration, limits []CampLimit) error
	FindByID(ctx context.Context, id uuid.UUID) (models.Registration, error)
	List(ctx context.Context) ([]models.Registration, error)
	// ListByParticipant matches prior registrations by last name and birth
	// date, the duplicate-detection key.
	ListByParticipant(ctx context.Context, lastName string, dateOfBirth time.Time) ([]models.Registration, error)
	Update(ctx context.Context, reg models.Registration) error
}
