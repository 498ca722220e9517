package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"campreg/internal/wizard/models"
	"campreg/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map with per-entry expiry. Suited to
// single-instance deployments and tests; the Redis store is the distributed
// counterpart.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	session   models.Session
	expiresAt time.Time
}

func NewMemory(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[uuid.UUID]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *InMemoryStore) Save(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sessions[session.ID] = memoryEntry{session: session, expiresAt: now.Add(s.ttl)}
	// Saving is frequent enough to double as the sweep trigger.
	for id, e := range s.sessions {
		if e.expiresAt.Before(now) {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id uuid.UUID) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok || e.expiresAt.Before(s.now()) {
		return models.Session{}, sentinel.ErrNotFound
	}
	return e.session, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
