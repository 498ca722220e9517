// Package service drives the registration wizard: a linear stepper from
// personal info through confirmation, with per-step gating, eligibility-ruled
// camp selection and the one-shot registration submission.
package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	catalogmodels "campreg/internal/catalog/models"
	catalogstore "campreg/internal/catalog/store"
	"campreg/internal/dates"
	"campreg/internal/duplicate"
	"campreg/internal/eligibility"
	"campreg/internal/platform/metrics"
	"campreg/internal/pricing"
	regmodels "campreg/internal/registration/models"
	regservice "campreg/internal/registration/service"
	"campreg/internal/wizard/models"
	"campreg/internal/wizard/store"
	dErrors "campreg/pkg/domain-errors"
	"campreg/pkg/platform/sentinel"
)

// phoneRe accepts Russian numbers in the usual spellings: +7 or 8, with
// optional separators around the blocks.
var phoneRe = regexp.MustCompile(`^(\+7|8)[\s(-]*\d{3}[\s)-]*\d{3}[\s-]*\d{2}[\s-]*\d{2}$`)

// Registrar is the registration surface the wizard submits to.
type Registrar interface {
	Create(ctx context.Context, req regservice.CreateRequest) (*regservice.CreateResult, error)
	SetPaymentType(ctx context.Context, regID, paymentTypeID uuid.UUID) (regmodels.Registration, error)
	UploadArtifact(ctx context.Context, regID, paymentTypeID uuid.UUID, filename, contentType string, data []byte) (regmodels.Registration, error)
}

// ValidationError carries field-scoped messages for the personal info form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

type Controller struct {
	sessions    store.Store
	catalog     catalogstore.Store
	pricing     *pricing.Resolver
	eligibility *eligibility.Engine
	duplicates  *duplicate.Checker
	registrar   Registrar
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithClock overrides the wall clock, for price-window tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func New(sessions store.Store, catalog catalogstore.Store, resolver *pricing.Resolver, engine *eligibility.Engine, duplicates *duplicate.Checker, registrar Registrar, opts ...Option) *Controller {
	c := &Controller{
		sessions:    sessions,
		catalog:     catalog,
		pricing:     resolver,
		eligibility: engine,
		duplicates:  duplicates,
		registrar:   registrar,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a fresh session on the first step.
func (c *Controller) Start(ctx context.Context) (models.Session, error) {
	now := c.now().UTC()
	session := models.Session{
		ID:        uuid.New(),
		Step:      models.StepPersonalInfo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.sessions.Save(ctx, session); err != nil {
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	return session, nil
}

// Get loads a session; expired or unknown sessions answer not found.
func (c *Controller) Get(ctx context.Context, id uuid.UUID) (models.Session, error) {
	session, err := c.sessions.Find(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Session{}, dErrors.New(dErrors.CodeNotFound, "session not found or expired")
	}
	if err != nil {
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	return session, nil
}

// PersonalInfo is the first step's form.
type PersonalInfo struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	City        string    `json:"city"`
	Phone       string    `json:"phone"`
}

// UpdatePersonalInfo validates and records the participant form, and schedules
// the debounced duplicate lookup on the (lastName, dateOfBirth) pair.
func (c *Controller) UpdatePersonalInfo(ctx context.Context, id uuid.UUID, info PersonalInfo) (models.Session, error) {
	session, err := c.requireStep(ctx, id, models.StepPersonalInfo)
	if err != nil {
		return models.Session{}, err
	}

	if verr := c.validatePersonalInfo(info); verr != nil {
		return models.Session{}, verr
	}

	session.FirstName = info.FirstName
	session.LastName = info.LastName
	session.DateOfBirth = info.DateOfBirth
	session.City = info.City
	session.Phone = info.Phone
	if err := c.save(ctx, &session); err != nil {
		return models.Session{}, err
	}

	c.duplicates.Schedule(session.Key(), session.LastName, session.DateOfBirth)
	return session, nil
}

func (c *Controller) validatePersonalInfo(info PersonalInfo) error {
	fields := make(map[string]string)
	if info.FirstName == "" {
		fields["first_name"] = "Укажите имя"
	}
	if info.LastName == "" {
		fields["last_name"] = "Укажите фамилию"
	}
	if info.City == "" {
		fields["city"] = "Укажите город"
	}
	today := c.now().UTC()
	switch {
	case info.DateOfBirth.IsZero():
		fields["date_of_birth"] = "Укажите дату рождения"
	case info.DateOfBirth.After(today):
		fields["date_of_birth"] = "Дата рождения не может быть в будущем"
	case info.DateOfBirth.Before(today.AddDate(-100, 0, 0)):
		fields["date_of_birth"] = "Проверьте дату рождения"
	}
	if info.Phone != "" && !phoneRe.MatchString(info.Phone) {
		fields["phone"] = "Проверьте номер телефона"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// SelectChurch records the chosen church. Placeholder entries ("Другая") are
// listed but cannot be submitted yet.
func (c *Controller) SelectChurch(ctx context.Context, id, churchID uuid.UUID) (models.Session, error) {
	session, err := c.requireStep(ctx, id, models.StepChurch)
	if err != nil {
		return models.Session{}, err
	}

	church, err := c.catalog.FindChurch(ctx, churchID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Session{}, dErrors.New(dErrors.CodeBadRequest, "unknown church")
	}
	if err != nil {
		return models.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load church")
	}
	if church.Placeholder {
		return models.Session{}, dErrors.New(dErrors.CodeRuleViolated, "Эта церковь пока недоступна для выбора")
	}

	session.ChurchID = church.ID
	if err := c.save(ctx, &session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// ToggleOutcome reports a camp toggle back to the client. A refused toggle is
// a normal outcome with a message, not an error.
type ToggleOutcome struct {
	Session  models.Session
	Allowed  bool
	Message  string
	Advisory string
	Cascaded []catalogmodels.Camp
}

// ToggleCamp flips a camp's membership in the selection, subject to the
// eligibility rules and the cohorts the participant already holds.
func (c *Controller) ToggleCamp(ctx context.Context, id, campID uuid.UUID) (ToggleOutcome, error) {
	session, err := c.requireStep(ctx, id, models.StepCampSelection)
	if err != nil {
		return ToggleOutcome{}, err
	}

	camp, err := c.catalog.FindCamp(ctx, campID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ToggleOutcome{}, dErrors.New(dErrors.CodeBadRequest, "unknown camp")
	}
	if err != nil {
		return ToggleOutcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load camp")
	}

	selected, err := c.selectedCamps(ctx, session)
	if err != nil {
		return ToggleOutcome{}, err
	}
	existing, _ := c.duplicates.Cohorts(session.Key())

	result := c.eligibility.Toggle(camp, session.DateOfBirth, selected, existing)
	if !result.Allowed {
		c.metrics.IncTogglesRejected()
		return ToggleOutcome{Session: session, Message: result.Message}, nil
	}

	session.CampIDs = campIDs(result.Selected)
	if err := c.save(ctx, &session); err != nil {
		return ToggleOutcome{}, err
	}
	if n := len(result.Cascaded); n > 0 {
		c.metrics.AddCascadeDeselections(n)
	}

	return ToggleOutcome{
		Session:  session,
		Allowed:  true,
		Advisory: result.Advisory,
		Cascaded: result.Cascaded,
	}, nil
}

// Duplicates returns the cohorts the duplicate checker has resolved for this
// session so far. Not ready means the debounce window has not elapsed or the
// lookup is still in flight.
func (c *Controller) Duplicates(ctx context.Context, id uuid.UUID) (cohorts []catalogmodels.Cohort, ready bool, err error) {
	session, err := c.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	cohorts, ready = c.duplicates.Cohorts(session.Key())
	return cohorts, ready, nil
}

// SummaryLine is one camp's contribution to the review recap.
type SummaryLine struct {
	Camp      catalogmodels.Camp `json:"camp"`
	BasePrice int                `json:"base_price"`
	Payable   int                `json:"payable"`
}

// Summary prices the current selection for the review step: today's effective
// price per camp with the age discount applied. Camps without an effective
// window price as unavailable and will fail submission.
type Summary struct {
	Lines []SummaryLine `json:"lines"`
	Total int           `json:"total"`
}

func (c *Controller) Summarize(ctx context.Context, id uuid.UUID) (Summary, error) {
	session, err := c.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	selected, err := c.selectedCamps(ctx, session)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	today := c.now().UTC()
	for _, camp := range selected {
		price := c.pricing.ResolveCurrentPrice(camp.Prices, today)
		if price == nil {
			return Summary{}, dErrors.New(dErrors.CodeRuleViolated,
				"Для лагеря «"+string(camp.Name)+"» нет действующей цены")
		}
		age := dates.AgeAt(session.DateOfBirth, camp.StartDate)
		payable := c.pricing.ApplyAgeDiscount(age, price.TotalValue)
		summary.Lines = append(summary.Lines, SummaryLine{
			Camp:      camp,
			BasePrice: price.TotalValue,
			Payable:   payable,
		})
		summary.Total += payable
	}
	return summary, nil
}

// Advance moves the session forward one step when the current step's gating
// passes. Advancing from Review creates the registration; a capacity conflict
// resets the camp selection and returns the session to CampSelection.
func (c *Controller) Advance(ctx context.Context, id uuid.UUID) (models.Session, error) {
	session, err := c.Get(ctx, id)
	if err != nil {
		return models.Session{}, err
	}

	switch session.Step {
	case models.StepPersonalInfo:
		if verr := c.validatePersonalInfo(PersonalInfo{
			FirstName:   session.FirstName,
			LastName:    session.LastName,
			DateOfBirth: session.DateOfBirth,
			City:        session.City,
			Phone:       session.Phone,
		}); verr != nil {
			return models.Session{}, verr
		}
	case models.StepChurch:
		if session.ChurchID == uuid.Nil {
			return models.Session{}, dErrors.New(dErrors.CodeRuleViolated, "Выберите церковь")
		}
	case models.StepCampSelection:
		if len(session.CampIDs) == 0 {
			return models.Session{}, dErrors.New(dErrors.CodeRuleViolated, "Выберите хотя бы один лагерь")
		}
	case models.StepReview:
		return c.submit(ctx, session)
	case models.StepPayment:
		if err := c.paymentComplete(session); err != nil {
			return models.Session{}, err
		}
	case models.StepConfirmation:
		return models.Session{}, dErrors.New(dErrors.CodeConflict, "the wizard is already complete")
	default:
		return models.Session{}, dErrors.New(dErrors.CodeInternal, "unknown wizard step")
	}

	next, _ := session.Step.Next()
	session.Step = next
	if err := c.save(ctx, &session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (c *Controller) paymentComplete(session models.Session) error {
	if session.PaymentTypeID == nil {
		return dErrors.New(dErrors.CodeRuleViolated, "Выберите способ оплаты")
	}
	if session.PaymentKind == catalogmodels.PaymentKindCard && !session.ArtifactUploaded {
		return dErrors.New(dErrors.CodeRuleViolated, "Загрузите чек об оплате")
	}
	return nil
}

// submit is the one-shot Review -> Payment transition: resolve each selected
// camp's effective price, create the registration and remember the assigned
// reviewer's payment details. Not retryable on capacity conflict.
func (c *Controller) submit(ctx context.Context, session models.Session) (models.Session, error) {
	selected, err := c.selectedCamps(ctx, session)
	if err != nil {
		return models.Session{}, err
	}
	if len(selected) == 0 {
		return models.Session{}, dErrors.New(dErrors.CodeRuleViolated, "Выберите хотя бы один лагерь")
	}

	today := c.now().UTC()
	priceIDs := make([]uuid.UUID, 0, len(selected))
	for _, camp := range selected {
		price := c.pricing.ResolveCurrentPrice(camp.Prices, today)
		if price == nil {
			// A zero-priced registration must never be submitted.
			return models.Session{}, dErrors.New(dErrors.CodeRuleViolated,
				"Для лагеря «"+string(camp.Name)+"» нет действующей цены")
		}
		priceIDs = append(priceIDs, price.ID)
	}

	result, err := c.registrar.Create(ctx, regservice.CreateRequest{
		FirstName:   session.FirstName,
		LastName:    session.LastName,
		DateOfBirth: session.DateOfBirth,
		City:        session.City,
		Phone:       session.Phone,
		ChurchID:    session.ChurchID,
		OwnerID:     session.Key(),
		CampIDs:     campIDs(selected),
		PriceIDs:    priceIDs,
	})
	if dErrors.HasCode(err, dErrors.CodeCapacity) {
		// Recoverable: the participant re-chooses camps and retries.
		session.CampIDs = nil
		session.Step = models.StepCampSelection
		if saveErr := c.save(ctx, &session); saveErr != nil {
			return models.Session{}, saveErr
		}
		return session, err
	}
	if err != nil {
		return models.Session{}, err
	}

	regID := result.Registration.ID
	details := result.AdminDetails
	session.RegistrationID = &regID
	session.AdminDetails = &details
	session.Step = models.StepPayment
	if err := c.save(ctx, &session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Back retreats one step. Payment and Confirmation are one-directional: the
// registration already exists server-side.
func (c *Controller) Back(ctx context.Context, id uuid.UUID) (models.Session, error) {
	session, err := c.Get(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	prev, ok := session.Step.Prev()
	if !ok {
		return models.Session{}, dErrors.New(dErrors.CodeConflict, "cannot go back from this step")
	}
	session.Step = prev
	if err := c.save(ctx, &session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// ChoosePaymentType records the payment type on both the registration and the
// session. Cash completes the payment step by itself.
func (c *Controller) ChoosePaymentType(ctx context.Context, id, paymentTypeID uuid.UUID) (models.Session, error) {
	session, err := c.requireStep(ctx, id, models.StepPayment)
	if err != nil {
		return models.Session{}, err
	}
	if session.RegistrationID == nil {
		return models.Session{}, dErrors.New(dErrors.CodeConflict, "no registration for this session")
	}

	pt, err := c.catalog.FindPaymentType(ctx, paymentTypeID)
	if err != nil {
		return models.Session{}, dErrors.New(dErrors.CodeBadRequest, "unknown payment type")
	}
	if _, err := c.registrar.SetPaymentType(ctx, *session.RegistrationID, pt.ID); err != nil {
		return models.Session{}, err
	}

	session.PaymentTypeID = &pt.ID
	session.PaymentKind = pt.Kind
	session.ArtifactUploaded = false
	if err := c.save(ctx, &session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// UploadCheck forwards the payment check image to the registration service
// and marks the payment step complete on success.
func (c *Controller) UploadCheck(ctx context.Context, id uuid.UUID, filename, contentType string, data []byte) (models.Session, error) {
	session, err := c.requireStep(ctx, id, models.StepPayment)
	if err != nil {
		return models.Session{}, err
	}
	if session.RegistrationID == nil {
		return models.Session{}, dErrors.New(dErrors.CodeConflict, "no registration for this session")
	}
	if session.PaymentTypeID == nil {
		return models.Session{}, dErrors.New(dErrors.CodeRuleViolated, "Сначала выберите способ оплаты")
	}

	if _, err := c.registrar.UploadArtifact(ctx, *session.RegistrationID, *session.PaymentTypeID, filename, contentType, data); err != nil {
		return models.Session{}, err
	}

	session.ArtifactUploaded = true
	if err := c.save(ctx, &session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Cancel tears the session down. A registration created past Review stays in
// PendingPayment; cancelling the wizard never retracts it.
func (c *Controller) Cancel(ctx context.Context, id uuid.UUID) error {
	session, err := c.sessions.Find(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	c.duplicates.Forget(session.Key())
	if err := c.sessions.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}
	return nil
}

func (c *Controller) requireStep(ctx context.Context, id uuid.UUID, step models.Step) (models.Session, error) {
	session, err := c.Get(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	if session.Step != step {
		return models.Session{}, dErrors.New(dErrors.CodeConflict,
			"session is on step "+string(session.Step))
	}
	return session, nil
}

func (c *Controller) selectedCamps(ctx context.Context, session models.Session) ([]catalogmodels.Camp, error) {
	camps := make([]catalogmodels.Camp, 0, len(session.CampIDs))
	for _, campID := range session.CampIDs {
		camp, err := c.catalog.FindCamp(ctx, campID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load selected camp")
		}
		camps = append(camps, camp)
	}
	return camps, nil
}

func (c *Controller) save(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = c.now().UTC()
	if err := c.sessions.Save(ctx, *session); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save session")
	}
	return nil
}

func campIDs(camps []catalogmodels.Camp) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(camps))
	for _, camp := range camps {
		ids = append(ids, camp.ID)
	}
	return ids
}
