package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/audit"
	"github.com/fieldforce-hq/fieldforce/internal/hierarchy"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// RepositoryPort defines data access methods for expenses.
type RepositoryPort interface {
	ListExpenses(ctx context.Context, filters ListFilters) ([]Expense, int, error)
	GetExpense(ctx context.Context, id uuid.UUID) (Expense, error)
	CreateExpense(ctx context.Context, params CreateParams) (Expense, error)
	Decide(ctx context.Context, id, deciderID uuid.UUID, status, note string) (Expense, error)
}

// VisibilityResolver yields the set of user ids a caller may see.
type VisibilityResolver interface {
	VisibleUserIDs(ctx context.Context, userID uuid.UUID, roleName string) (hierarchy.Visibility, error)
}

// Service handles expense claim logic. Listings and reads are scoped to
// the caller's downline the same way user listings are.
type Service struct {
	repo     RepositoryPort
	resolver VisibilityResolver
	events   audit.Recorder
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver VisibilityResolver, events audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, resolver: resolver, events: events, logger: logger}
}

// ListVisible returns claims inside the caller's visibility set.
func (s *Service) ListVisible(ctx context.Context, caller shared.Claims, filters ListFilters) ([]Expense, int, error) {
	vis, err := s.resolver.VisibleUserIDs(ctx, caller.UserID, caller.RoleName)
	if err != nil {
		return nil, 0, err
	}
	if !vis.Unrestricted {
		filters.VisibleIDs = vis.UserIDs
	}
	return s.repo.ListExpenses(ctx, filters)
}

// GetVisible fetches one claim if the claimant falls inside the caller's
// visibility set. Out-of-scope claims read as absent, not forbidden.
func (s *Service) GetVisible(ctx context.Context, caller shared.Claims, id uuid.UUID) (Expense, error) {
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	vis, err := s.resolver.VisibleUserIDs(ctx, caller.UserID, caller.RoleName)
	if err != nil {
		return Expense{}, err
	}
	if !vis.Contains(expense.UserID) {
		return Expense{}, shared.ErrNotFound
	}
	return expense, nil
}

// Create raises a new pending claim on behalf of the caller.
func (s *Service) Create(ctx context.Context, caller shared.Claims, params CreateParams) (Expense, error) {
	params.UserID = caller.UserID
	params.Category = strings.TrimSpace(params.Category)
	params.Description = strings.TrimSpace(params.Description)
	if params.Category == "" {
		return Expense{}, fmt.Errorf("%w: category is required", shared.ErrValidation)
	}
	if params.Amount <= 0 {
		return Expense{}, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if params.ExpenseDate.IsZero() {
		return Expense{}, fmt.Errorf("%w: expense date is required", shared.ErrValidation)
	}
	return s.repo.CreateExpense(ctx, params)
}

// Decide approves or rejects a pending claim. Approvers can only decide
// claims raised inside their downline, and never their own.
func (s *Service) Decide(ctx context.Context, caller shared.Claims, id uuid.UUID, approve bool, note string) (Expense, error) {
	expense, err := s.GetVisible(ctx, caller, id)
	if err != nil {
		return Expense{}, err
	}
	if expense.UserID == caller.UserID {
		return Expense{}, fmt.Errorf("%w: claimants cannot decide their own expenses", shared.ErrForbidden)
	}

	status := StatusRejected
	if approve {
		status = StatusApproved
	}
	decided, err := s.repo.Decide(ctx, id, caller.UserID, status, strings.TrimSpace(note))
	if err != nil {
		return Expense{}, err
	}

	if err := s.events.Record(ctx, audit.Event{
		ActorID:  caller.UserID,
		Action:   audit.ActionExpenseDecided,
		Entity:   "expense",
		EntityID: id.String(),
		Meta:     map[string]any{"status": status, "claimant": decided.UserID.String()},
	}); err != nil {
		s.logger.Warn("audit record failed", slog.Any("error", err))
	}
	return decided, nil
}
