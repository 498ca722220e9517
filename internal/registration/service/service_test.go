package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"campreg/internal/admin"
	catalogmodels "campreg/internal/catalog/models"
	catalogstore "campreg/internal/catalog/store"
	"campreg/internal/registration/models"
	"campreg/internal/registration/store"
	dErrors "campreg/pkg/domain-errors"
)

type blockingArtifactStore struct {
	mu      sync.Mutex
	saved   int
	release chan struct{} // when non-nil, Save parks until closed
}

func (s *blockingArtifactStore) Save(_ context.Context, registrationID uuid.UUID, ext string, _ []byte) (string, error) {
	s.mu.Lock()
	release := s.release
	s.mu.Unlock()
	if release != nil {
		<-release
	}
	s.mu.Lock()
	s.saved++
	s.mu.Unlock()
	return "payments/" + registrationID.String() + ext, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (n *recordingNotifier) PaymentCheckReceived(_ context.Context, _ admin.Admin, reg models.Registration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, reg.ID)
	return nil
}

type ServiceSuite struct {
	suite.Suite

	ctx      context.Context
	svc      *Service
	regs     *store.InMemoryStore
	catalog  *catalogstore.InMemoryStore
	admins   *admin.InMemoryStore
	artifact *blockingArtifactStore
	notifier *recordingNotifier

	campSmall catalogmodels.Camp
	campTeen  catalogmodels.Camp
	cardType  catalogmodels.PaymentType
	cashType  catalogmodels.PaymentType
	reviewer  admin.Admin
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.regs = store.NewMemory()
	s.catalog = catalogstore.NewMemory()
	s.admins = admin.NewMemory()
	s.artifact = &blockingArtifactStore{}
	s.notifier = &recordingNotifier{}

	s.campSmall = catalogmodels.Camp{
		ID:        uuid.New(),
		Name:      catalogmodels.CohortChildren,
		StartDate: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 7, 22, 0, 0, 0, 0, time.UTC),
		Capacity:  1,
	}
	s.campTeen = catalogmodels.Camp{
		ID:        uuid.New(),
		Name:      catalogmodels.CohortTeen,
		StartDate: time.Date(2026, 7, 23, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
	}
	s.catalog.PutCamp(s.campSmall)
	s.catalog.PutCamp(s.campTeen)

	s.cardType = catalogmodels.PaymentType{ID: uuid.New(), Name: "Перевод на карту", Kind: catalogmodels.PaymentKindCard}
	s.cashType = catalogmodels.PaymentType{ID: uuid.New(), Name: "Наличные", Kind: catalogmodels.PaymentKindCash}
	s.catalog.PutPaymentType(s.cardType)
	s.catalog.PutPaymentType(s.cashType)

	s.reviewer = admin.Admin{ID: uuid.New(), Name: "Мария", BankCardNumber: "2202 0000 0000 0001"}
	require.NoError(s.T(), s.admins.Save(s.ctx, s.reviewer))

	adminSvc := admin.NewService(s.admins, nil)
	s.svc = New(s.regs, s.catalog, adminSvc, s.artifact, WithNotifier(s.notifier))
}

func (s *ServiceSuite) createRequest(camps ...catalogmodels.Camp) CreateRequest {
	req := CreateRequest{
		FirstName:   "Иван",
		LastName:    "Петров",
		DateOfBirth: time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC),
		City:        "Казань",
		Phone:       "+7 900 123-45-67",
		ChurchID:    uuid.New(),
		OwnerID:     "sess-1",
	}
	for _, c := range camps {
		req.CampIDs = append(req.CampIDs, c.ID)
		req.PriceIDs = append(req.PriceIDs, uuid.New())
	}
	return req
}

func (s *ServiceSuite) TestCreate() {
	s.Run("starts in pending payment with an assigned reviewer", func() {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)
		s.Equal(models.StatusPendingPayment, res.Registration.Status)
		s.Equal(s.reviewer.ID, res.Registration.AdminID)
		s.Equal(s.reviewer.BankCardNumber, res.AdminDetails.BankCardNumber)

		stored, err := s.regs.FindByID(s.ctx, res.Registration.ID)
		s.Require().NoError(err)
		s.Equal(res.Registration.ID, stored.ID)
	})

	s.Run("rejects incomplete participant data", func() {
		req := s.createRequest(s.campTeen)
		req.LastName = ""
		_, err := s.svc.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects unknown camp", func() {
		req := s.createRequest(catalogmodels.Camp{ID: uuid.New()})
		_, err := s.svc.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects mismatched price list", func() {
		req := s.createRequest(s.campTeen)
		req.PriceIDs = nil
		_, err := s.svc.Create(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestCreateCapacity() {
	_, err := s.svc.Create(s.ctx, s.createRequest(s.campSmall))
	s.Require().NoError(err)

	s.Run("full camp answers a capacity error", func() {
		_, err := s.svc.Create(s.ctx, s.createRequest(s.campSmall))
		s.True(dErrors.HasCode(err, dErrors.CodeCapacity))
	})

	s.Run("rejected registrations free the seat", func() {
		regs, err := s.regs.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(regs, 1)
		reg := regs[0]
		reg.Status = models.StatusRejected
		s.Require().NoError(s.regs.Update(s.ctx, reg))

		_, err = s.svc.Create(s.ctx, s.createRequest(s.campSmall))
		s.NoError(err)
	})

	s.Run("zero capacity means unlimited", func() {
		for range 3 {
			_, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
			s.Require().NoError(err)
		}
	})

	s.Run("concurrent submissions cannot overbook", func() {
		camp := catalogmodels.Camp{
			ID:        uuid.New(),
			Name:      catalogmodels.CohortTeen,
			StartDate: s.campTeen.StartDate,
			EndDate:   s.campTeen.EndDate,
			Capacity:  1,
		}
		s.catalog.PutCamp(camp)

		const attempts = 8
		errs := make(chan error, attempts)
		var wg sync.WaitGroup
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.svc.Create(s.ctx, s.createRequest(camp))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		created := 0
		for err := range errs {
			if err == nil {
				created++
				continue
			}
			s.True(dErrors.HasCode(err, dErrors.CodeCapacity))
		}
		s.Equal(1, created, "the last seat must be taken exactly once")
	})
}

func (s *ServiceSuite) TestFindCohorts() {
	dob := time.Date(2012, 5, 9, 0, 0, 0, 0, time.UTC)

	req := s.createRequest(s.campSmall, s.campTeen)
	req.DateOfBirth = dob
	res, err := s.svc.Create(s.ctx, req)
	s.Require().NoError(err)

	s.Run("returns held cohorts regardless of name case", func() {
		cohorts, err := s.svc.FindCohorts(s.ctx, "ПЕТРОВ", dob)
		s.Require().NoError(err)
		s.ElementsMatch([]catalogmodels.Cohort{catalogmodels.CohortChildren, catalogmodels.CohortTeen}, cohorts)
	})

	s.Run("different birth date does not match", func() {
		cohorts, err := s.svc.FindCohorts(s.ctx, "Петров", dob.AddDate(0, 0, 1))
		s.Require().NoError(err)
		s.Empty(cohorts)
	})

	s.Run("rejected registrations are invisible", func() {
		reg, err := s.regs.FindByID(s.ctx, res.Registration.ID)
		s.Require().NoError(err)
		reg.Status = models.StatusRejected
		s.Require().NoError(s.regs.Update(s.ctx, reg))

		cohorts, err := s.svc.FindCohorts(s.ctx, "Петров", dob)
		s.Require().NoError(err)
		s.Empty(cohorts)
	})
}

func (s *ServiceSuite) TestSetPaymentType() {
	res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
	s.Require().NoError(err)

	s.Run("cash stays in pending payment", func() {
		reg, err := s.svc.SetPaymentType(s.ctx, res.Registration.ID, s.cashType.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPendingPayment, reg.Status)
		s.Require().NotNil(reg.PaymentTypeID)
		s.Equal(s.cashType.ID, *reg.PaymentTypeID)
	})

	s.Run("unknown payment type is refused", func() {
		_, err := s.svc.SetPaymentType(s.ctx, res.Registration.ID, uuid.New())
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestUploadArtifact() {
	image := []byte("fake-jpeg-bytes")

	s.Run("moves the registration under review and notifies the reviewer", func() {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)

		reg, err := s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cardType.ID, "check.jpg", "image/jpeg", image)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, reg.Status)
		s.Contains(reg.ArtifactPath, res.Registration.ID.String())
		s.Contains(s.notifier.calls, res.Registration.ID)
	})

	s.Run("validates before touching storage", func() {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)
		before := s.artifact.saved

		_, err = s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cardType.ID, "check.pdf", "application/pdf", image)
		s.True(dErrors.HasCode(err, dErrors.CodeRuleViolated))

		oversized := make([]byte, MaxArtifactBytes+1)
		_, err = s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cardType.ID, "check.jpg", "image/jpeg", oversized)
		s.True(dErrors.HasCode(err, dErrors.CodeRuleViolated))

		s.Equal(before, s.artifact.saved)
	})

	s.Run("check applies to card payments only", func() {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)

		_, err = s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cashType.ID, "check.jpg", "image/jpeg", image)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("second upload for a registration under review conflicts", func() {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)

		_, err = s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cardType.ID, "check.jpg", "image/jpeg", image)
		s.Require().NoError(err)

		_, err = s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cardType.ID, "check.jpg", "image/jpeg", image)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("concurrent upload is refused while the first is in flight", func() {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)

		release := make(chan struct{})
		s.artifact.mu.Lock()
		s.artifact.release = release
		s.artifact.mu.Unlock()

		firstDone := make(chan error, 1)
		go func() {
			_, err := s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cardType.ID, "check.jpg", "image/jpeg", image)
			firstDone <- err
		}()

		s.Require().Eventually(func() bool {
			s.svc.mu.Lock()
			defer s.svc.mu.Unlock()
			_, busy := s.svc.uploadsInFlight[res.Registration.ID]
			return busy
		}, time.Second, 5*time.Millisecond)

		_, err = s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cardType.ID, "check.jpg", "image/jpeg", image)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		s.artifact.mu.Lock()
		s.artifact.release = nil
		s.artifact.mu.Unlock()
		close(release)
		s.Require().NoError(<-firstDone)
	})
}

func (s *ServiceSuite) TestSetStatus() {
	// underReview submits a registration and walks it to review the only way
	// there is: through a payment-check upload.
	underReview := func() uuid.UUID {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)
		_, err = s.svc.UploadArtifact(s.ctx, res.Registration.ID, s.cardType.ID,
			"check.jpg", "image/jpeg", []byte("jpeg-bytes"))
		s.Require().NoError(err)
		return res.Registration.ID
	}

	s.Run("resolves a registration under review", func() {
		id := underReview()
		reg, err := s.svc.SetStatus(s.ctx, id, models.StatusPaid)
		s.Require().NoError(err)
		s.Equal(models.StatusPaid, reg.Status)
	})

	s.Run("terminal statuses refuse further verdicts", func() {
		id := underReview()
		_, err := s.svc.SetStatus(s.ctx, id, models.StatusRejected)
		s.Require().NoError(err)
		_, err = s.svc.SetStatus(s.ctx, id, models.StatusPaid)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("pending payment cannot be resolved", func() {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)
		_, err = s.svc.SetStatus(s.ctx, res.Registration.ID, models.StatusPaid)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("under review is not a verdict", func() {
		res, err := s.svc.Create(s.ctx, s.createRequest(s.campTeen))
		s.Require().NoError(err)
		_, err = s.svc.SetStatus(s.ctx, res.Registration.ID, models.StatusUnderReview)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown status is a bad request", func() {
		_, err := s.svc.SetStatus(s.ctx, underReview(), models.Status("archived"))
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("missing registration is not found", func() {
		_, err := s.svc.SetStatus(s.ctx, uuid.New(), models.StatusPaid)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
