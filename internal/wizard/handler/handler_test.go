package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"campreg/internal/admin"
	"campreg/internal/artifact"
	catalogmodels "campreg/internal/catalog/models"
	catalogstore "campreg/internal/catalog/store"
	"campreg/internal/duplicate"
	"campreg/internal/eligibility"
	"campreg/internal/pricing"
	regservice "campreg/internal/registration/service"
	regstore "campreg/internal/registration/store"
	"campreg/internal/wizard/models"
	"campreg/internal/wizard/service"
	wizardstore "campreg/internal/wizard/store"
)

type WizardHandlerSuite struct {
	suite.Suite

	router chi.Router

	church   catalogmodels.Church
	camp     catalogmodels.Camp
	cashType catalogmodels.PaymentType
	cardType catalogmodels.PaymentType
}

func TestWizardHandlerSuite(t *testing.T) {
	suite.Run(t, new(WizardHandlerSuite))
}

func (s *WizardHandlerSuite) SetupTest() {
	ctx := context.Background()
	catalog := catalogstore.NewMemory()

	now := time.Now().UTC()
	campStart := now.AddDate(0, 1, 0)
	s.camp = catalogmodels.Camp{
		ID: uuid.New(), Name: catalogmodels.CohortChildren,
		StartDate: campStart, EndDate: campStart.AddDate(0, 0, 7),
		Prices: []catalogmodels.Price{{
			ID:         uuid.New(),
			StartDate:  now.AddDate(0, 0, -10),
			EndDate:    now.AddDate(0, 0, 10),
			TotalValue: 1000,
		}},
	}
	catalog.PutCamp(s.camp)

	s.church = catalogmodels.Church{ID: uuid.New(), Name: "Слово жизни"}
	catalog.PutChurch(s.church)

	s.cashType = catalogmodels.PaymentType{ID: uuid.New(), Name: "Наличные", Kind: catalogmodels.PaymentKindCash}
	s.cardType = catalogmodels.PaymentType{ID: uuid.New(), Name: "Перевод на карту", Kind: catalogmodels.PaymentKindCard}
	catalog.PutPaymentType(s.cashType)
	catalog.PutPaymentType(s.cardType)

	admins := admin.NewMemory()
	s.Require().NoError(admins.Save(ctx, admin.Admin{ID: uuid.New(), Name: "Мария"}))
	artifacts, err := artifact.NewFileStore(s.T().TempDir())
	s.Require().NoError(err)
	registrar := regservice.New(regstore.NewMemory(), catalog, admin.NewService(admins, nil), artifacts)

	controller := service.New(
		wizardstore.NewMemory(time.Hour),
		catalog,
		pricing.New(),
		eligibility.New(),
		duplicate.New(registrar, duplicate.WithQuietPeriod(10*time.Millisecond)),
		registrar,
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(controller, logger).Register(s.router)
}

func (s *WizardHandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *WizardHandlerSuite) decodeSession(w *httptest.ResponseRecorder) models.Session {
	var session models.Session
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &session))
	return session
}

func (s *WizardHandlerSuite) start() models.Session {
	w := s.do(http.MethodPost, "/wizard/sessions/", nil)
	s.Require().Equal(http.StatusCreated, w.Code)
	return s.decodeSession(w)
}

func (s *WizardHandlerSuite) personalInfo() service.PersonalInfo {
	return service.PersonalInfo{
		FirstName:   "Иван",
		LastName:    "Петров",
		DateOfBirth: s.camp.StartDate.AddDate(-10, -1, 0),
		City:        "Казань",
		Phone:       "+7 900 123-45-67",
	}
}

func (s *WizardHandlerSuite) TestFullFlow() {
	session := s.start()
	base := "/wizard/sessions/" + session.ID.String()

	w := s.do(http.MethodPut, base+"/personal-info", s.personalInfo())
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, base+"/advance", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(models.StepChurch, s.decodeSession(w).Step)

	w = s.do(http.MethodPut, base+"/church", map[string]any{"church_id": s.church.ID})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, base+"/advance", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, base+"/camps/toggle", map[string]any{"camp_id": s.camp.ID})
	s.Require().Equal(http.StatusOK, w.Code)
	var toggle toggleResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &toggle))
	s.Require().True(toggle.Allowed, toggle.Message)

	w = s.do(http.MethodPost, base+"/advance", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(models.StepReview, s.decodeSession(w).Step)

	w = s.do(http.MethodGet, base+"/summary", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var summary service.Summary
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &summary))
	s.Equal(1000, summary.Total)

	w = s.do(http.MethodPost, base+"/advance", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	submitted := s.decodeSession(w)
	s.Equal(models.StepPayment, submitted.Step)
	s.Require().NotNil(submitted.RegistrationID)
	s.Require().NotNil(submitted.AdminDetails)

	w = s.do(http.MethodPut, base+"/payment-type", map[string]any{"payment_type_id": s.cashType.ID})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, base+"/advance", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(models.StepConfirmation, s.decodeSession(w).Step)
}

func (s *WizardHandlerSuite) TestValidationErrorsAreFieldScoped() {
	session := s.start()
	info := s.personalInfo()
	info.LastName = ""

	w := s.do(http.MethodPut, "/wizard/sessions/"+session.ID.String()+"/personal-info", info)
	s.Require().Equal(http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Contains(resp.Fields, "last_name")
}

func (s *WizardHandlerSuite) TestPaymentCheckUpload() {
	session := s.start()
	base := "/wizard/sessions/" + session.ID.String()

	s.do(http.MethodPut, base+"/personal-info", s.personalInfo())
	s.do(http.MethodPost, base+"/advance", nil)
	s.do(http.MethodPut, base+"/church", map[string]any{"church_id": s.church.ID})
	s.do(http.MethodPost, base+"/advance", nil)
	s.do(http.MethodPost, base+"/camps/toggle", map[string]any{"camp_id": s.camp.ID})
	s.do(http.MethodPost, base+"/advance", nil)
	s.do(http.MethodPost, base+"/advance", nil)
	w := s.do(http.MethodPut, base+"/payment-type", map[string]any{"payment_type_id": s.cardType.ID})
	s.Require().Equal(http.StatusOK, w.Code)

	s.Run("image is accepted", func() {
		w := s.upload(base, "check.jpg", "image/jpeg", []byte("jpeg-bytes"))
		s.Require().Equal(http.StatusOK, w.Code)
		s.True(s.decodeSession(w).ArtifactUploaded)
	})

	s.Run("non-image is refused", func() {
		w := s.upload(base, "check.pdf", "application/pdf", []byte("%PDF"))
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *WizardHandlerSuite) upload(base, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	s.Require().NoError(err)
	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, base+"/payment-check", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *WizardHandlerSuite) TestUnknownSession() {
	w := s.do(http.MethodGet, "/wizard/sessions/"+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/wizard/sessions/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *WizardHandlerSuite) TestCancel() {
	session := s.start()
	base := "/wizard/sessions/" + session.ID.String()

	w := s.do(http.MethodDelete, base, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, base, nil)
	s.Equal(http.StatusNotFound, w.Code)
}
