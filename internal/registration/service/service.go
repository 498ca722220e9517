// Package service owns persisted registrations: creation with capacity
// enforcement, the payment-status lifecycle, and payment artifact intake.
// It is the source of truth for the status machine; clients describe the
// same contract but never get to bypass it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"campreg/internal/admin"
	"campreg/internal/artifact"
	catalogmodels "campreg/internal/catalog/models"
	catalogstore "campreg/internal/catalog/store"
	"campreg/internal/notify"
	"campreg/internal/platform/metrics"
	"campreg/internal/registration/models"
	"campreg/internal/registration/store"
	dErrors "campreg/pkg/domain-errors"
	"campreg/pkg/platform/sentinel"
)

// MaxArtifactBytes is the upload cap for payment check images.
const MaxArtifactBytes = 1 << 20 // 1 MiB

type Service struct {
	store     store.Store
	catalog   catalogstore.Store
	admins    *admin.Service
	artifacts artifact.Store
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// uploadsInFlight blocks concurrent uploads for one registration so a
	// double-click cannot produce two artifacts.
	mu              sync.Mutex
	uploadsInFlight map[uuid.UUID]struct{}
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func New(st store.Store, catalog catalogstore.Store, admins *admin.Service, artifacts artifact.Store, opts ...Option) *Service {
	s := &Service{
		store:           st,
		catalog:         catalog,
		admins:          admins,
		artifacts:       artifacts,
		notifier:        notify.Noop{},
		logger:          slog.Default(),
		uploadsInFlight: make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries the submitted wizard form. Price IDs were resolved by
// the wizard against the camps effective today; the pairing is positional
// with CampIDs.
type CreateRequest struct {
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	City        string
	Phone       string
	ChurchID    uuid.UUID
	OwnerID     string
	CampIDs     []uuid.UUID
	PriceIDs    []uuid.UUID
}

// CreateResult is the registration plus the assigned reviewer's payment
// details for the wizard's payment step.
type CreateResult struct {
	Registration models.Registration
	AdminDetails admin.PaymentDetails
}

// Create persists a new registration in PendingPayment. A full camp answers a
// capacity error distinguishable from generic failures; the wizard reacts by
// resetting the camp selection.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.FirstName == "" || req.LastName == "" || req.City == "" || req.DateOfBirth.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "participant fields are incomplete")
	}
	if len(req.CampIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one camp is required")
	}
	if len(req.PriceIDs) != len(req.CampIDs) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "each camp needs a resolved price")
	}

	camps := make(map[uuid.UUID]catalogmodels.Camp, len(req.CampIDs))
	var limits []store.CampLimit
	for _, campID := range req.CampIDs {
		camp, err := s.catalog.FindCamp(ctx, campID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown camp selected")
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load camp")
		}
		camps[camp.ID] = camp
		if camp.Capacity > 0 {
			limits = append(limits, store.CampLimit{CampID: camp.ID, Capacity: camp.Capacity})
		}
	}

	reviewer, err := s.admins.Assign(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reg := models.Registration{
		ID:          uuid.New(),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		City:        req.City,
		Phone:       req.Phone,
		ChurchID:    req.ChurchID,
		OwnerID:     req.OwnerID,
		AdminID:     reviewer.ID,
		CampIDs:     req.CampIDs,
		PriceIDs:    req.PriceIDs,
		Status:      models.StatusPendingPayment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, reg, limits); err != nil {
		var full store.CampFullError
		if errors.As(err, &full) {
			s.metrics.IncCapacityConflicts()
			return nil, dErrors.New(dErrors.CodeCapacity,
				"Мест в лагере «"+string(camps[full.CampID].Name)+"» больше нет")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}

	s.metrics.IncRegistrationsCreated()
	s.logger.InfoContext(ctx, "registration created",
		"registration_id", reg.ID,
		"admin_id", reviewer.ID,
		"camps", len(reg.CampIDs),
	)
	return &CreateResult{Registration: reg, AdminDetails: reviewer.PaymentDetails()}, nil
}

// Get returns one registration.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Registration, error) {
	reg, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Registration{}, dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	if err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return reg, nil
}

// List returns all registrations for the admin review table.
func (s *Service) List(ctx context.Context) ([]models.Registration, error) {
	regs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return regs, nil
}

// FindCohorts reports which cohorts a participant already holds
// registrations for, matched by last name and birth date. Rejected
// registrations do not count. Satisfies the duplicate checker's store
// interface.
func (s *Service) FindCohorts(ctx context.Context, lastName string, dateOfBirth time.Time) ([]catalogmodels.Cohort, error) {
	regs, err := s.store.ListByParticipant(ctx, lastName, dateOfBirth)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query registrations")
	}
	seen := make(map[catalogmodels.Cohort]struct{})
	var out []catalogmodels.Cohort
	for _, reg := range regs {
		if reg.Status == models.StatusRejected {
			continue
		}
		for _, campID := range reg.CampIDs {
			camp, err := s.catalog.FindCamp(ctx, campID)
			if err != nil {
				// A camp removed from the catalog cannot anchor a
				// prerequisite anymore.
				continue
			}
			if _, dup := seen[camp.Name]; dup {
				continue
			}
			seen[camp.Name] = struct{}{}
			out = append(out, camp.Name)
		}
	}
	return out, nil
}

// SetPaymentType records the chosen payment type without touching status;
// cash registrations finalize this way.
func (s *Service) SetPaymentType(ctx context.Context, regID, paymentTypeID uuid.UUID) (models.Registration, error) {
	reg, err := s.Get(ctx, regID)
	if err != nil {
		return models.Registration{}, err
	}
	if reg.Status.IsTerminal() {
		return models.Registration{}, dErrors.New(dErrors.CodeConflict, "registration is already finalized")
	}
	if _, err := s.catalog.FindPaymentType(ctx, paymentTypeID); err != nil {
		return models.Registration{}, dErrors.New(dErrors.CodeBadRequest, "unknown payment type")
	}
	reg.PaymentTypeID = &paymentTypeID
	reg.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, reg); err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}
	return reg, nil
}

// UploadArtifact validates and stores a payment check image, moving the
// registration to UnderReview. Validation happens before any write: a
// non-image or oversized file never reaches storage. Concurrent uploads for
// one registration are refused while the first is in flight.
func (s *Service) UploadArtifact(ctx context.Context, regID, paymentTypeID uuid.UUID, filename, contentType string, data []byte) (models.Registration, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return models.Registration{}, dErrors.New(dErrors.CodeRuleViolated, "Чек должен быть изображением")
	}
	if len(data) > MaxArtifactBytes {
		return models.Registration{}, dErrors.New(dErrors.CodeRuleViolated, "Файл чека не должен превышать 1 МБ")
	}
	if len(data) == 0 {
		return models.Registration{}, dErrors.New(dErrors.CodeBadRequest, "empty file")
	}

	pt, err := s.catalog.FindPaymentType(ctx, paymentTypeID)
	if err != nil {
		return models.Registration{}, dErrors.New(dErrors.CodeBadRequest, "unknown payment type")
	}
	if pt.Kind != catalogmodels.PaymentKindCard {
		return models.Registration{}, dErrors.New(dErrors.CodeBadRequest, "payment check applies to card payments only")
	}

	if !s.beginUpload(regID) {
		return models.Registration{}, dErrors.New(dErrors.CodeConflict, "upload already in progress")
	}
	defer s.endUpload(regID)

	reg, err := s.Get(ctx, regID)
	if err != nil {
		return models.Registration{}, err
	}
	if !reg.Status.CanTransitionTo(models.StatusUnderReview) {
		return models.Registration{}, dErrors.New(dErrors.CodeConflict,
			"registration does not accept a payment check in status "+string(reg.Status))
	}

	path, err := s.artifacts.Save(ctx, regID, filepath.Ext(filename), data)
	if err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store payment check")
	}

	reg.ArtifactPath = path
	reg.PaymentTypeID = &paymentTypeID
	reg.Status = models.StatusUnderReview
	reg.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, reg); err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}

	s.metrics.IncArtifactsUploaded()
	s.metrics.IncStatusTransition(string(models.StatusUnderReview))
	s.notifyReviewer(ctx, reg)
	return reg, nil
}

func (s *Service) notifyReviewer(ctx context.Context, reg models.Registration) {
	reviewer, err := s.admins.Get(ctx, reg.AdminID)
	if err != nil {
		s.logger.WarnContext(ctx, "assigned admin not found for notification",
			"registration_id", reg.ID, "admin_id", reg.AdminID)
		return
	}
	if err := s.notifier.PaymentCheckReceived(ctx, reviewer, reg); err != nil {
		// Delivery is best-effort; the check is already under review.
		s.logger.WarnContext(ctx, "failed to notify reviewer",
			"registration_id", reg.ID, "error", err)
	}
}

// SetStatus applies an administrator's verdict. Only a registration under
// review may be resolved, and only to paid or rejected; under-review entry
// happens through the payment-check upload alone.
func (s *Service) SetStatus(ctx context.Context, regID uuid.UUID, next models.Status) (models.Registration, error) {
	if !next.IsValid() {
		return models.Registration{}, dErrors.New(dErrors.CodeBadRequest, "unknown status")
	}
	if next != models.StatusPaid && next != models.StatusRejected {
		return models.Registration{}, dErrors.New(dErrors.CodeBadRequest,
			"verdict must be "+string(models.StatusPaid)+" or "+string(models.StatusRejected))
	}
	reg, err := s.Get(ctx, regID)
	if err != nil {
		return models.Registration{}, err
	}
	if reg.Status != models.StatusUnderReview {
		return models.Registration{}, dErrors.New(dErrors.CodeConflict,
			"transition from "+string(reg.Status)+" to "+string(next)+" is not allowed")
	}
	reg.Status = next
	reg.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, reg); err != nil {
		return models.Registration{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}
	s.metrics.IncStatusTransition(string(next))
	s.logger.InfoContext(ctx, "registration status changed",
		"registration_id", reg.ID, "status", string(next))
	return reg, nil
}

func (s *Service) beginUpload(regID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.uploadsInFlight[regID]; busy {
		return false
	}
	s.uploadsInFlight[regID] = struct{}{}
	return true
}

func (s *Service) endUpload(regID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploadsInFlight, regID)
}
