package roles

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

// Handler manages role and permission administration endpoints.
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

func (h *Handler) recordAction(r *http.Request, action string, roleID uuid.UUID) {
	claims, ok := shared.ClaimsFromContext(r.Context())
	if !ok || h.events == nil {
		return
	}
	event := audit.Event{
		ActorID:  claims.UserID,
		Action:   action,
		Entity:   "role",
		EntityID: roleID.String(),
	}
	if err := h.events.Record(r.Context(), event); err != nil {
		h.logger.Warn("audit record failed", slog.Any("error", err))
	}
}

// MountRoutes registers role routes. Listing is open to anyone who can read
// users; mutation requires roles.manage.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermUsersRead))
		r.Get("/", h.listRoles)
		r.Get("/{roleID}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermRolesManage))
		r.Get("/permissions", h.listPermissions)
		r.Post("/", h.createRole)
		r.Patch("/{roleID}", h.updateRole)
		r.Delete("/{roleID}", h.deleteRole)
	})
}

type createRoleRequest struct {
	Name        string      `json:"name" validate:"required,min=2"`
	Level       int         `json:"level" validate:"gte=0"`
	EntityID    *uuid.UUID  `json:"entityId"`
	Permissions []uuid.UUID `json:"permissions"`
}

type updateRoleRequest struct {
	Name        *string      `json:"name" validate:"omitempty,min=2"`
	Level       *int         `json:"level" validate:"omitempty,gte=0"`
	Permissions *[]uuid.UUID `json:"permissions"`
}

type roleResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Level       int        `json:"level"`
	EntityID    *uuid.UUID `json:"entityId"`
	Permissions []string   `json:"permissions,omitempty"`
	UserCount   int        `json:"userCount,omitempty"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	filters := ListFilters{
		Search:  r.URL.Query().Get("search"),
		Page:    intQuery(r, "page"),
		PerPage: intQuery(r, "limit"),
	}
	if raw := r.URL.Query().Get("entityId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "invalid entity id")
			return
		}
		filters.EntityID = &id
	}

	result, total, err := h.service.ListRoles(r.Context(), filters)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, len(result))
	for i, role := range result {
		out[i] = roleResponse{ID: role.ID, Name: role.Name, Level: role.Level, EntityID: role.EntityID}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": out,
		"meta": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	detail, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	names := make([]string, len(detail.Permissions))
	for i, p := range detail.Permissions {
		names[i] = p.Name
	}
	httpx.JSON(w, http.StatusOK, roleResponse{
		ID:          detail.ID,
		Name:        detail.Name,
		Level:       detail.Level,
		EntityID:    detail.EntityID,
		Permissions: names,
		UserCount:   detail.UserCount,
	})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Level, req.EntityID, req.Permissions)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.recordAction(r, audit.ActionRoleCreated, role.ID)
	httpx.JSON(w, http.StatusCreated, roleResponse{ID: role.ID, Name: role.Name, Level: role.Level, EntityID: role.EntityID})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	params := UpdateParams{Name: req.Name, Level: req.Level, PermissionIDs: req.Permissions}
	if err := h.service.UpdateRole(r.Context(), id, params); err != nil {
		h.logger.Error("update role", slog.Any("error", err), slog.String("role_id", id.String()))
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	names := make([]string, len(detail.Permissions))
	for i, p := range detail.Permissions {
		names[i] = p.Name
	}
	h.recordAction(r, audit.ActionRoleUpdated, id)
	httpx.JSON(w, http.StatusOK, roleResponse{ID: detail.ID, Name: detail.Name, Level: detail.Level, EntityID: detail.EntityID, Permissions: names})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAction(r, audit.ActionRoleDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	type permissionResponse struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
	}
	out := make([]permissionResponse, len(perms))
	for i, p := range perms {
		out[i] = permissionResponse{ID: p.ID, Name: p.Name, Description: p.Description}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func intQuery(r *http.Request, key string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(key))
	return v
}
