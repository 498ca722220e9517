package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"campreg/internal/registration/models"
	"campreg/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in process memory.
type InMemoryStore struct {
	mu            sync.RWMutex
	registrations map[uuid.UUID]models.Registration
	order         []uuid.UUID
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{registrations: make(map[uuid.UUID]models.Registration)}
}

func (s *InMemoryStore) Create(_ context.Context, reg models.Registration, limits []CampLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.registrations[reg.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, limit := range limits {
		if s.countActive(limit.CampID) >= limit.Capacity {
			return CampFullError{CampID: limit.CampID}
		}
	}
	s.registrations[reg.ID] = reg
	s.order = append(s.order, reg.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.registrations[id]
	if !ok {
		return models.Registration{}, sentinel.ErrNotFound
	}
	return reg, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Registration, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.registrations[id])
	}
	return out, nil
}

func (s *InMemoryStore) ListByParticipant(_ context.Context, lastName string, dateOfBirth time.Time) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Registration
	for _, id := range s.order {
		reg := s.registrations[id]
		if strings.EqualFold(reg.LastName, lastName) && sameDay(reg.DateOfBirth, dateOfBirth) {
			out = append(out, reg)
		}
	}
	return out, nil
}

// countActive counts seats taken in a camp; rejected registrations free
// their seat. The caller holds the lock.
func (s *InMemoryStore) countActive(campID uuid.UUID) int {
	count := 0
	for _, reg := range s.registrations {
		if reg.Status == models.StatusRejected {
			continue
		}
		for _, id := range reg.CampIDs {
			if id == campID {
				count++
				break
			}
		}
	}
	return count
}

func (s *InMemoryStore) Update(_ context.Context, reg models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[reg.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.registrations[reg.ID] = reg
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
