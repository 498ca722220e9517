// Package admin manages reviewer accounts: the payment details shown to
// payers, round-robin assignment of new registrations, and token-based login
// for the review endpoints.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	dErrors "campreg/pkg/domain-errors"
	"campreg/pkg/platform/sentinel"
)

type Service struct {
	store  Store
	tokens *TokenService
	logger *slog.Logger

	rr atomic.Uint64 // round-robin cursor
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(store Store, tokens *TokenService, opts ...Option) *Service {
	s := &Service{store: store, tokens: tokens, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assign picks the reviewer for a new registration, cycling through the
// account list so load spreads evenly.
func (s *Service) Assign(ctx context.Context) (Admin, error) {
	admins, err := s.store.List(ctx)
	if err != nil {
		return Admin{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admins")
	}
	if len(admins) == 0 {
		return Admin{}, dErrors.New(dErrors.CodeUnavailable, "no administrators configured")
	}
	n := s.rr.Add(1)
	return admins[int(n-1)%len(admins)], nil
}

// Get returns one admin record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Admin, error) {
	a, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Admin{}, dErrors.New(dErrors.CodeNotFound, "admin not found")
	}
	if err != nil {
		return Admin{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	return a, nil
}

// Login verifies the admin's secret and issues an access token. The same
// error answers unknown names and wrong secrets.
func (s *Service) Login(ctx context.Context, name, secret string) (string, error) {
	if name == "" || secret == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "name and secret are required")
	}
	a, err := s.store.FindByName(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	if !VerifySecret(a.SecretHash, secret) {
		s.logger.WarnContext(ctx, "admin login failed", "name", name)
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	token, err := s.tokens.Issue(a.ID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return token, nil
}
