package store

import (
	"context"

	"github.com/google/uuid"

	"campreg/internal/catalog/models"
)

// Store serves the reference data the wizard renders: churches, camps with
// their price schedules, and payment types. Interface-driven so the in-memory
// and Postgres implementations stay swappable.
type Store interface {
	ListChurches(ctx context.Context) ([]models.Church, error)
	ListCamps(ctx context.Context) ([]models.Camp, error)
	ListPaymentTypes(ctx context.Context) ([]models.PaymentType, error)

	FindChurch(ctx context.Context, id uuid.UUID) (models.Church, error)
	FindCamp(ctx context.Context, id uuid.UUID) (models.Camp, error)
	FindPaymentType(ctx context.Context, id uuid.UUID) (models.PaymentType, error)
}
