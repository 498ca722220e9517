// Package handler exposes the wizard over HTTP: one session resource with
// step-scoped mutations.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	catalogmodels "campreg/internal/catalog/models"
	"campreg/internal/platform/middleware"
	regservice "campreg/internal/registration/service"
	"campreg/internal/transport/http/shared"
	"campreg/internal/wizard/models"
	"campreg/internal/wizard/service"
	dErrors "campreg/pkg/domain-errors"
)

// multipart form memory limit; the artifact cap is far below this.
const maxUploadForm = regservice.MaxArtifactBytes + 64*1024

type Handler struct {
	wizard *service.Controller
	logger *slog.Logger
}

func New(wizard *service.Controller, logger *slog.Logger) *Handler {
	return &Handler{wizard: wizard, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/wizard/sessions", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleCancel)
			r.Put("/personal-info", h.handlePersonalInfo)
			r.Put("/church", h.handleChurch)
			r.Post("/camps/toggle", h.handleToggleCamp)
			r.Get("/duplicates", h.handleDuplicates)
			r.Get("/summary", h.handleSummary)
			r.Post("/advance", h.handleAdvance)
			r.Post("/back", h.handleBack)
			r.Put("/payment-type", h.handlePaymentType)
			r.Post("/payment-check", h.handlePaymentCheck)
		})
	})
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}

// writeStepError renders validation errors field-scoped and everything else
// through the shared error writer.
func (h *Handler) writeStepError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}
	shared.WriteError(w, err)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Start(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to start wizard session",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	session, err := h.wizard.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.wizard.Cancel(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePersonalInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var info service.PersonalInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	session, err := h.wizard.UpdatePersonalInfo(r.Context(), id, info)
	if err != nil {
		h.writeStepError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

type churchRequest struct {
	ChurchID uuid.UUID `json:"church_id"`
}

func (h *Handler) handleChurch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req churchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	session, err := h.wizard.SelectChurch(r.Context(), id, req.ChurchID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

type toggleRequest struct {
	CampID uuid.UUID `json:"camp_id"`
}

type toggleResponse struct {
	Allowed  bool                 `json:"allowed"`
	Message  string               `json:"message,omitempty"`
	Advisory string               `json:"advisory,omitempty"`
	Cascaded []catalogmodels.Camp `json:"cascaded,omitempty"`
	Session  models.Session       `json:"session"`
}

func (h *Handler) handleToggleCamp(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	out, err := h.wizard.ToggleCamp(r.Context(), id, req.CampID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toggleResponse{
		Allowed:  out.Allowed,
		Message:  out.Message,
		Advisory: out.Advisory,
		Cascaded: out.Cascaded,
		Session:  out.Session,
	})
}

func (h *Handler) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	cohorts, ready, err := h.wizard.Duplicates(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"ready":   ready,
		"cohorts": cohorts,
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	summary, err := h.wizard.Summarize(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	session, err := h.wizard.Advance(r.Context(), id)
	if dErrors.HasCode(err, dErrors.CodeCapacity) {
		// The session has been reset to camp selection; hand both the error
		// and the new state back.
		shared.WriteJSON(w, http.StatusConflict, map[string]any{
			"error":   dErrors.MessageOf(err),
			"session": session,
		})
		return
	}
	if err != nil {
		h.writeStepError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	session, err := h.wizard.Back(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

type paymentTypeRequest struct {
	PaymentTypeID uuid.UUID `json:"payment_type_id"`
}

func (h *Handler) handlePaymentType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req paymentTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	session, err := h.wizard.ChoosePaymentType(r.Context(), id, req.PaymentTypeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}

// handlePaymentCheck accepts the check image as multipart form data under the
// "file" field.
func (h *Handler) handlePaymentCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file field is required"))
		return
	}
	defer file.Close()

	// Read one byte past the cap so the size check fires on oversized files
	// without buffering arbitrary input.
	data, err := io.ReadAll(io.LimitReader(file, regservice.MaxArtifactBytes+1))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read file"))
		return
	}

	session, err := h.wizard.UploadCheck(r.Context(), id, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, session)
}
