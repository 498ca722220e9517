// Package handler exposes the administrator surface: login and the
// registration review endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"campreg/internal/platform/middleware"
	"campreg/internal/registration/models"
	"campreg/internal/transport/http/shared"
	dErrors "campreg/pkg/domain-errors"
)

// Service is the registration surface the review endpoints need.
type Service interface {
	List(ctx context.Context) ([]models.Registration, error)
	Get(ctx context.Context, id uuid.UUID) (models.Registration, error)
	SetStatus(ctx context.Context, id uuid.UUID, next models.Status) (models.Registration, error)
}

// AuthService issues admin tokens.
type AuthService interface {
	Login(ctx context.Context, name, secret string) (string, error)
}

type Handler struct {
	registrations Service
	auth          AuthService
	tokens        middleware.TokenValidator
	logger        *slog.Logger
}

func New(registrations Service, auth AuthService, tokens middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		registrations: registrations,
		auth:          auth,
		tokens:        tokens,
		logger:        logger,
	}
}

// Register mounts the admin routes. Everything except login sits behind the
// bearer-token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAdmin(h.tokens, h.logger))
		r.Get("/admin/registrations", h.handleList)
		r.Get("/admin/registrations/{id}", h.handleGet)
		r.Put("/admin/registrations/{id}/status", h.handleSetStatus)
	})
}

type loginRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Name == "" || req.Secret == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "name and secret are required"))
		return
	}

	token, err := h.auth.Login(ctx, req.Name, req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "admin login failed",
			"request_id", middleware.GetRequestID(ctx),
			"name", req.Name,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regs, err := h.registrations.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list registrations",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	reg, err := h.registrations.Get(ctx, id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reg)
}

type setStatusRequest struct {
	Status models.Status `json:"status"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reg, err := h.registrations.SetStatus(ctx, id, req.Status)
	if err != nil {
		h.logger.WarnContext(ctx, "status change refused",
			"request_id", middleware.GetRequestID(ctx),
			"registration_id", id,
			"admin_id", middleware.GetAdminID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration status set",
		"request_id", middleware.GetRequestID(ctx),
		"registration_id", id,
		"admin_id", middleware.GetAdminID(ctx),
		"status", string(reg.Status),
	)
	shared.WriteJSON(w, http.StatusOK, reg)
}
