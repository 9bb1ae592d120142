package entities

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/platform/httpx"
	"github.com/fieldforce-hq/fieldforce/internal/rbac"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Handler manages tenant entity endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validate: validator.New()}
}

// MountRoutes registers entity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermEntitiesManage))
		r.Get("/", h.listEntities)
		r.Post("/", h.createEntity)
		r.Patch("/{entityID}/status", h.setStatus)
	})
}

type createEntityRequest struct {
	Name string `json:"name" validate:"required,min=2"`
	Code string `json:"code" validate:"required,min=2"`
}

type setStatusRequest struct {
	Status bool `json:"status"`
}

type entityResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Code   string    `json:"code"`
	Status bool      `json:"status"`
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list entities", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]entityResponse, len(result))
	for i, e := range result {
		out[i] = entityResponse{ID: e.ID, Name: e.Name, Code: e.Code, Status: e.Status}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) createEntity(w http.ResponseWriter, r *http.Request) {
	var req createEntityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	entity, err := h.service.Create(r.Context(), req.Name, req.Code)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entityResponse{ID: entity.ID, Name: entity.Name, Code: entity.Code, Status: entity.Status})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "entityID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.SetStatus(r.Context(), id, req.Status); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
