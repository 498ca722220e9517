package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campreg/internal/wizard/models"
	"campreg/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(time.Hour)

	session := models.Session{ID: uuid.New(), Step: models.StepPersonalInfo}
	require.NoError(t, s.Save(ctx, session))

	loaded, err := s.Find(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)

	require.NoError(t, s.Delete(ctx, session.ID))
	_, err = s.Find(ctx, session.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }

	session := models.Session{ID: uuid.New(), Step: models.StepChurch}
	require.NoError(t, s.Save(ctx, session))

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err := s.Find(ctx, session.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// an expired entry is swept on the next save
	other := models.Session{ID: uuid.New()}
	require.NoError(t, s.Save(ctx, other))
	s.mu.RLock()
	_, stillThere := s.sessions[session.ID]
	s.mu.RUnlock()
	assert.False(t, stillThere)
}
