package expenses

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldforce-hq/fieldforce/internal/audit"
	"github.com/fieldforce-hq/fieldforce/internal/hierarchy"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

type fakeRepo struct {
	expenses map[uuid.UUID]Expense
}

func newFakeRepo(expenses ...Expense) *fakeRepo {
	r := &fakeRepo{expenses: map[uuid.UUID]Expense{}}
	for _, e := range expenses {
		r.expenses[e.ID] = e
	}
	return r
}

func (r *fakeRepo) ListExpenses(_ context.Context, filters ListFilters) ([]Expense, int, error) {
	var out []Expense
	for _, e := range r.expenses {
		if filters.VisibleIDs != nil && !visible(filters.VisibleIDs, e.UserID) {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (r *fakeRepo) GetExpense(_ context.Context, id uuid.UUID) (Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return Expense{}, shared.ErrNotFound
	}
	return e, nil
}

func (r *fakeRepo) CreateExpense(_ context.Context, params CreateParams) (Expense, error) {
	e := Expense{
		ID:          uuid.New(),
		UserID:      params.UserID,
		Category:    params.Category,
		Amount:      params.Amount,
		Description: params.Description,
		ExpenseDate: params.ExpenseDate,
		Status:      StatusPending,
	}
	r.expenses[e.ID] = e
	return e, nil
}

func (r *fakeRepo) Decide(_ context.Context, id, deciderID uuid.UUID, status, note string) (Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return Expense{}, shared.ErrNotFound
	}
	if e.Status != StatusPending {
		return Expense{}, fmt.Errorf("%w: expense already decided", shared.ErrDuplicate)
	}
	e.Status = status
	e.DecidedBy = &deciderID
	e.DecisionNote = note
	r.expenses[id] = e
	return e, nil
}

func visible(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type stubResolver struct {
	visibility hierarchy.Visibility
}

func (s stubResolver) VisibleUserIDs(_ context.Context, _ uuid.UUID, _ string) (hierarchy.Visibility, error) {
	return s.visibility, nil
}

type memRecorder struct {
	events []audit.Event
}

func (m *memRecorder) Record(_ context.Context, event audit.Event) error {
	m.events = append(m.events, event)
	return nil
}

func managerClaims(id uuid.UUID) shared.Claims {
	return shared.Claims{UserID: id, RoleName: "RM", RoleLevel: 40, Permissions: []string{shared.PermExpensesApprove}}
}

func pendingExpense(userID uuid.UUID) Expense {
	return Expense{
		ID:          uuid.New(),
		UserID:      userID,
		Category:    "travel",
		Amount:      420.50,
		ExpenseDate: time.Now(),
		Status:      StatusPending,
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), stubResolver{}, &memRecorder{}, nil)
	caller := managerClaims(uuid.New())

	_, err := svc.Create(context.Background(), caller, CreateParams{Amount: 10, ExpenseDate: time.Now()})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), caller, CreateParams{Category: "travel", Amount: 0, ExpenseDate: time.Now()})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), caller, CreateParams{Category: "travel", Amount: 10})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateStampsCallerAsClaimant(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, stubResolver{}, &memRecorder{}, nil)
	caller := managerClaims(uuid.New())

	// Claimant in the params is ignored in favour of the caller.
	expense, err := svc.Create(context.Background(), caller, CreateParams{
		UserID:      uuid.New(),
		Category:    "travel",
		Amount:      99.99,
		ExpenseDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, caller.UserID, expense.UserID)
	assert.Equal(t, StatusPending, expense.Status)
}

func TestGetVisibleOutOfScopeReadsAsNotFound(t *testing.T) {
	manager := uuid.New()
	outsider := pendingExpense(uuid.New())
	repo := newFakeRepo(outsider)

	svc := NewService(repo, stubResolver{visibility: hierarchy.Visibility{UserIDs: []uuid.UUID{manager}}}, &memRecorder{}, nil)

	_, err := svc.GetVisible(context.Background(), managerClaims(manager), outsider.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDecideApprovesDownlineClaim(t *testing.T) {
	manager := uuid.New()
	report := uuid.New()
	claim := pendingExpense(report)
	repo := newFakeRepo(claim)
	recorder := &memRecorder{}

	svc := NewService(repo, stubResolver{visibility: hierarchy.Visibility{UserIDs: []uuid.UUID{manager, report}}}, recorder, nil)

	decided, err := svc.Decide(context.Background(), managerClaims(manager), claim.ID, true, "ok")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, manager, *decided.DecidedBy)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, audit.ActionExpenseDecided, recorder.events[0].Action)
	assert.Equal(t, manager, recorder.events[0].ActorID)
}

func TestDecideRejectsOwnClaim(t *testing.T) {
	manager := uuid.New()
	claim := pendingExpense(manager)
	repo := newFakeRepo(claim)

	svc := NewService(repo, stubResolver{visibility: hierarchy.Visibility{UserIDs: []uuid.UUID{manager}}}, &memRecorder{}, nil)

	_, err := svc.Decide(context.Background(), managerClaims(manager), claim.ID, true, "")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	got, err := repo.GetExpense(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestDecideOutOfScopeClaim(t *testing.T) {
	manager := uuid.New()
	claim := pendingExpense(uuid.New())
	repo := newFakeRepo(claim)

	svc := NewService(repo, stubResolver{visibility: hierarchy.Visibility{UserIDs: []uuid.UUID{manager}}}, &memRecorder{}, nil)

	_, err := svc.Decide(context.Background(), managerClaims(manager), claim.ID, false, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDecideTwiceConflicts(t *testing.T) {
	manager := uuid.New()
	report := uuid.New()
	claim := pendingExpense(report)
	repo := newFakeRepo(claim)

	svc := NewService(repo, stubResolver{visibility: hierarchy.Visibility{UserIDs: []uuid.UUID{manager, report}}}, &memRecorder{}, nil)

	_, err := svc.Decide(context.Background(), managerClaims(manager), claim.ID, true, "")
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), managerClaims(manager), claim.ID, false, "")
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}
