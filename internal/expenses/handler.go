package expenses

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/platform/httpx"
	"github.com/fieldforce-hq/fieldforce/internal/rbac"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Handler manages expense claim endpoints.
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

// MountRoutes registers expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermExpensesRead))
		r.Get("/", h.listExpenses)
		r.Get("/{expenseID}", h.getExpense)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermExpensesWrite))
		r.Post("/", h.createExpense)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermExpensesApprove))
		r.Post("/{expenseID}/decision", h.decideExpense)
	})
}

type createExpenseRequest struct {
	Category    string  `json:"category" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description"`
	ExpenseDate string  `json:"expenseDate" validate:"required,datetime=2006-01-02"`
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" validate:"max=500"`
}

type expenseResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"userId"`
	UserName     string     `json:"userName"`
	Category     string     `json:"category"`
	Amount       float64    `json:"amount"`
	Description  string     `json:"description,omitempty"`
	ExpenseDate  string     `json:"expenseDate"`
	Status       string     `json:"status"`
	DecidedBy    *uuid.UUID `json:"decidedBy,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
	DecisionNote string     `json:"decisionNote,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toExpenseResponse(e Expense) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		UserID:       e.UserID,
		UserName:     e.UserName,
		Category:     e.Category,
		Amount:       e.Amount,
		Description:  e.Description,
		ExpenseDate:  e.ExpenseDate.Format("2006-01-02"),
		Status:       e.Status,
		DecidedBy:    e.DecidedBy,
		DecidedAt:    e.DecidedAt,
		DecisionNote: e.DecisionNote,
		CreatedAt:    e.CreatedAt,
	}
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	claims, ok := shared.ClaimsFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}

	q := r.URL.Query()
	filters := ListFilters{
		Status:  q.Get("status"),
		Page:    intQuery(q.Get("page"), 1),
		PerPage: intQuery(q.Get("limit"), 20),
	}
	if raw := q.Get("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "userId must be a UUID")
			return
		}
		filters.UserID = &id
	}
	for param, dst := range map[string]**time.Time{"from": &filters.From, "to": &filters.To} {
		if raw := q.Get(param); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", param+" must be YYYY-MM-DD")
				return
			}
			*dst = &t
		}
	}

	result, total, err := h.service.ListVisible(r.Context(), claims, filters)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]expenseResponse, len(result))
	for i, e := range result {
		out[i] = toExpenseResponse(e)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := shared.ClaimsFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "expenseID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	expense, err := h.service.GetVisible(r.Context(), claims, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := shared.ClaimsFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req createExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	date, _ := time.Parse("2006-01-02", req.ExpenseDate)

	expense, err := h.service.Create(r.Context(), claims, CreateParams{
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		ExpenseDate: date,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (h *Handler) decideExpense(w http.ResponseWriter, r *http.Request) {
	claims, ok := shared.ClaimsFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "expenseID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req decisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	expense, err := h.service.Decide(r.Context(), claims, id, req.Approve, req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toExpenseResponse(expense))
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
