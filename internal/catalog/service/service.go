package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"campreg/internal/catalog/models"
	"campreg/internal/catalog/store"
	dErrors "campreg/pkg/domain-errors"
)

// Service exposes catalog reads. It keeps orchestration out of handlers and
// gives the wizard one call to snapshot everything a session renders.
type Service struct {
	store store.Store
}

func New(s store.Store) *Service {
	return &Service{store: s}
}

// Snapshot is the catalog state one wizard session works against.
type Snapshot struct {
	Churches     []models.Church      `json:"churches"`
	Camps        []models.Camp        `json:"camps"`
	PaymentTypes []models.PaymentType `json:"payment_types"`
}

// Bootstrap fetches churches, camps, and payment types concurrently.
func (s *Service) Bootstrap(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		churches, err := s.store.ListChurches(ctx)
		snap.Churches = churches
		return err
	})
	g.Go(func() error {
		camps, err := s.store.ListCamps(ctx)
		snap.Camps = camps
		return err
	})
	g.Go(func() error {
		types, err := s.store.ListPaymentTypes(ctx)
		snap.PaymentTypes = types
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog")
	}
	return &snap, nil
}

func (s *Service) ListChurches(ctx context.Context) ([]models.Church, error) {
	return s.store.ListChurches(ctx)
}

func (s *Service) ListCamps(ctx context.Context) ([]models.Camp, error) {
	return s.store.ListCamps(ctx)
}

func (s *Service) ListPaymentTypes(ctx context.Context) ([]models.PaymentType, error) {
	return s.store.ListPaymentTypes(ctx)
}
