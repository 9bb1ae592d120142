package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/audit"
	"github.com/fieldforce-hq/fieldforce/internal/platform/httpx"
	"github.com/fieldforce-hq/fieldforce/internal/rbac"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Admin threshold for accessing other users' records without ownership.
const adminLevel = 30

// Handler manages user management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	events   audit.Recorder
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, events audit.Recorder, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, events: events, rbac: rbac, validate: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermUsersRead))
		r.Get("/", h.listUsers)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireOwnerOrMinLevel("userID", adminLevel))
		r.Get("/{userID}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleSuperAdmin, "SM_ADMIN"))
		r.Patch("/{userID}", h.updateUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleSuperAdmin))
		r.Delete("/{userID}", h.deactivateUser)
	})
}

type updateUserRequest struct {
	FullName *string    `json:"fullName" validate:"omitempty,min=2"`
	Phone    *string    `json:"phone" validate:"omitempty,min=10"`
	RoleID   *uuid.UUID `json:"roleId"`
	IsActive *bool      `json:"isActive"`
	// The zero UUID clears the manager reference.
	ReportsTo *uuid.UUID `json:"managerId"`
}

type userResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	FullName    string     `json:"fullName"`
	IsActive    bool       `json:"isActive"`
	RoleID      *uuid.UUID `json:"roleId"`
	RoleName    string     `json:"roleName,omitempty"`
	RoleLevel   int        `json:"roleLevel,omitempty"`
	EntityID    *uuid.UUID `json:"entityId"`
	ReportsTo   *uuid.UUID `json:"managerId"`
	ManagerName string     `json:"managerName,omitempty"`
}

func toResponse(user User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		Phone:       user.Phone,
		FullName:    user.FullName,
		IsActive:    user.IsActive,
		RoleID:      user.RoleID,
		RoleName:    user.RoleName,
		RoleLevel:   user.RoleLevel,
		EntityID:    user.EntityID,
		ReportsTo:   user.ReportsTo,
		ManagerName: user.ManagerName,
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	claims, _ := shared.ClaimsFromContext(r.Context())
	filters := ListFilters{
		RoleName: r.URL.Query().Get("role"),
		Search:   r.URL.Query().Get("search"),
	}
	filters.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filters.PerPage, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if raw := r.URL.Query().Get("isActive"); raw != "" {
		active := raw == "true"
		filters.IsActive = &active
	}

	result, total, err := h.service.ListVisible(r.Context(), claims, filters)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, len(result))
	for i, user := range result {
		out[i] = toResponse(user)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": out,
		"meta": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	user, subs, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	type subordinateResponse struct {
		ID       uuid.UUID `json:"id"`
		FullName string    `json:"fullName"`
		RoleName string    `json:"roleName"`
	}
	outSubs := make([]subordinateResponse, len(subs))
	for i, s := range subs {
		outSubs[i] = subordinateResponse{ID: s.ID, FullName: s.FullName, RoleName: s.RoleName}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":         toResponse(user),
		"subordinates": outSubs,
	})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	params := UpdateParams{
		FullName: req.FullName,
		Phone:    req.Phone,
		RoleID:   req.RoleID,
		IsActive: req.IsActive,
	}
	if req.ReportsTo != nil {
		if *req.ReportsTo == uuid.Nil {
			var cleared *uuid.UUID
			params.ReportsTo = &cleared
		} else {
			params.ReportsTo = &req.ReportsTo
		}
	}
	user, err := h.service.UpdateUser(r.Context(), id, params)
	if err != nil {
		h.logger.Error("update user", slog.Any("error", err), slog.String("user_id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	h.recordAction(r, audit.ActionUserUpdated, id)
	httpx.JSON(w, http.StatusOK, toResponse(user))
}

func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.DeactivateUser(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAction(r, audit.ActionUserDeactivated, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordAction(r *http.Request, action string, subjectID uuid.UUID) {
	if h.events == nil {
		return
	}
	claims, _ := shared.ClaimsFromContext(r.Context())
	event := audit.Event{ActorID: claims.UserID, Action: action, Entity: "user", EntityID: subjectID.String()}
	if err := h.events.Record(r.Context(), event); err != nil {
		h.logger.Warn("record audit event", slog.Any("error", err), slog.String("action", action))
	}
}
