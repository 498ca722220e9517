package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campreg/internal/catalog/models"
	"campreg/internal/transport/http/shared"
	dErrors "campreg/pkg/domain-errors"
)

// Service defines the catalog operations the handler consumes.
type Service interface {
	ListChurches(ctx context.Context) ([]models.Church, error)
	ListCamps(ctx context.Context) ([]models.Camp, error)
	ListPaymentTypes(ctx context.Context) ([]models.PaymentType, error)
}

// Handler serves the read-only catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	catalog Service
}

func New(catalog Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, catalog: catalog}
}

// Register mounts the catalog routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/catalog/churches", h.handleListChurches)
	r.Get("/catalog/camps", h.handleListCamps)
	r.Get("/catalog/payment-types", h.handleListPaymentTypes)
}

func (h *Handler) handleListChurches(w http.ResponseWriter, r *http.Request) {
	churches, err := h.catalog.ListChurches(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list churches", "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list churches"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"churches": churches})
}

func (h *Handler) handleListCamps(w http.ResponseWriter, r *http.Request) {
	camps, err := h.catalog.ListCamps(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list camps", "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list camps"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"camps": camps})
}

func (h *Handler) handleListPaymentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.catalog.ListPaymentTypes(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list payment types", "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payment types"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"payment_types": types})
}
