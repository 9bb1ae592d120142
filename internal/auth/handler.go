package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/platform/httpx"
	"github.com/fieldforce-hq/fieldforce/internal/rbac"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validate: validator.New()}
}

// MountRoutes registers auth routes on the provided router. Login and
// refresh are public; everything else sits behind the access-token guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		// Tight per-IP limit on credential guessing.
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Authenticate)
		r.Get("/me", h.handleMe)
		r.Post("/logout", h.handleLogout)
		r.Post("/change-password", h.handleChangePassword)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(shared.PermUsersCreate))
			r.Post("/register", h.handleRegister)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type registerRequest struct {
	Email     string     `json:"email" validate:"required,email"`
	Phone     string     `json:"phone" validate:"required,min=10"`
	Password  string     `json:"password" validate:"required,min=8"`
	FullName  string     `json:"fullName" validate:"required,min=2"`
	RoleID    *uuid.UUID `json:"roleId"`
	EntityID  *uuid.UUID `json:"entityId"`
	ReportsTo *uuid.UUID `json:"reportingTo"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type userResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	FullName  string     `json:"fullName"`
	IsActive  bool       `json:"isActive"`
	RoleID    *uuid.UUID `json:"roleId"`
	EntityID  *uuid.UUID `json:"entityId"`
	ReportsTo *uuid.UUID `json:"reportingTo"`
}

func toUserResponse(user *User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Phone:     user.Phone,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		RoleID:    user.RoleID,
		EntityID:  user.EntityID,
		ReportsTo: user.ReportsTo,
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":   toUserResponse(user),
		"tokens": pair,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tokens": pair})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := shared.ClaimsFromContext(r.Context())
	user, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("load profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":        toUserResponse(user),
		"roleName":    claims.RoleName,
		"roleLevel":   claims.RoleLevel,
		"permissions": claims.Permissions,
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, pair, err := h.service.Register(r.Context(), RegisterParams{
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		FullName:  req.FullName,
		RoleID:    req.RoleID,
		EntityID:  req.EntityID,
		ReportsTo: req.ReportsTo,
	})
	if err != nil {
		h.logger.Error("register user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"user":   toUserResponse(user),
		"tokens": pair,
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := shared.ClaimsFromContext(r.Context())
	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return false
	}
	return true
}
