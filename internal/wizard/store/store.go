package store

import (
	"context"

	"github.com/google/uuid"

	"campreg/internal/wizard/models"
)

// Store persists wizard sessions between requests. Sessions are short-lived;
// both implementations expire them after the configured TTL.
type Store interface {
	Save(ctx context.Context, session models.Session) error
	Find(ctx context.Context, id uuid.UUID) (models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
