package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"campreg/internal/catalog/models"
	"campreg/pkg/platform/sentinel"
)

// InMemoryStore holds the catalog in process memory. Used in tests and when
// no database is configured.
type InMemoryStore struct {
	mu           sync.RWMutex
	churches     map[uuid.UUID]models.Church
	camps        map[uuid.UUID]models.Camp
	paymentTypes map[uuid.UUID]models.PaymentType

	// insertion order, for stable listings
	churchOrder  []uuid.UUID
	campOrder    []uuid.UUID
	paymentOrder []uuid.UUID
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		churches:     make(map[uuid.UUID]models.Church),
		camps:        make(map[uuid.UUID]models.Camp),
		paymentTypes: make(map[uuid.UUID]models.PaymentType),
	}
}

// PutChurch upserts a church.
func (s *InMemoryStore) PutChurch(church models.Church) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.churches[church.ID]; !exists {
		s.churchOrder = append(s.churchOrder, church.ID)
	}
	s.churches[church.ID] = church
}

// PutCamp upserts a camp with its price schedule.
func (s *InMemoryStore) PutCamp(camp models.Camp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.camps[camp.ID]; !exists {
		s.campOrder = append(s.campOrder, camp.ID)
	}
	s.camps[camp.ID] = camp
}

// PutPaymentType upserts a payment type.
func (s *InMemoryStore) PutPaymentType(pt models.PaymentType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.paymentTypes[pt.ID]; !exists {
		s.paymentOrder = append(s.paymentOrder, pt.ID)
	}
	s.paymentTypes[pt.ID] = pt
}

func (s *InMemoryStore) ListChurches(_ context.Context) ([]models.Church, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Church, 0, len(s.churchOrder))
	for _, id := range s.churchOrder {
		out = append(out, s.churches[id])
	}
	return out, nil
}

func (s *InMemoryStore) ListCamps(_ context.Context) ([]models.Camp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Camp, 0, len(s.campOrder))
	for _, id := range s.campOrder {
		out = append(out, s.camps[id])
	}
	return out, nil
}

func (s *InMemoryStore) ListPaymentTypes(_ context.Context) ([]models.PaymentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PaymentType, 0, len(s.paymentOrder))
	for _, id := range s.paymentOrder {
		out = append(out, s.paymentTypes[id])
	}
	return out, nil
}

func (s *InMemoryStore) FindChurch(_ context.Context, id uuid.UUID) (models.Church, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	church, ok := s.churches[id]
	if !ok {
		return models.Church{}, sentinel.ErrNotFound
	}
	return church, nil
}

func (s *InMemoryStore) FindCamp(_ context.Context, id uuid.UUID) (models.Camp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	camp, ok := s.camps[id]
	if !ok {
		return models.Camp{}, sentinel.ErrNotFound
	}
	return camp, nil
}

func (s *InMemoryStore) FindPaymentType(_ context.Context, id uuid.UUID) (models.PaymentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pt, ok := s.paymentTypes[id]
	if !ok {
		return models.PaymentType{}, sentinel.ErrNotFound
	}
	return pt, nil
}
