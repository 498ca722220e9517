package admin

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"campreg/pkg/platform/sentinel"
)

// Store persists admin accounts.
type Store interface {
	Save(ctx context.Context, admin Admin) error
	FindByID(ctx context.Context, id uuid.UUID) (Admin, error)
	FindByName(ctx context.Context, name string) (Admin, error)
	List(ctx context.Context) ([]Admin, error)
}

// InMemoryStore keeps admins in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	admins map[uuid.UUID]Admin
	order  []uuid.UUID
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{admins: make(map[uuid.UUID]Admin)}
}

func (s *InMemoryStore) Save(_ context.Context, admin Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.admins[admin.ID]; !exists {
		s.order = append(s.order, admin.ID)
	}
	s.admins[admin.ID] = admin
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[id]
	if !ok {
		return Admin{}, sentinel.ErrNotFound
	}
	return admin, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if s.admins[id].Name == name {
			return s.admins[id], nil
		}
	}
	return Admin{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Admin, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.admins[id])
	}
	return out, nil
}
