package expenses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Repository persists expense claims in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectExpense = `
SELECT e.id, e.user_id, u.full_name, e.category, e.amount, e.description,
       e.expense_date, e.status, e.decided_by, e.decided_at,
       COALESCE(e.decision_note, ''), e.created_at, e.updated_at
FROM expenses e
JOIN users u ON u.id = e.user_id`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.UserID, &e.UserName, &e.Category, &e.Amount, &e.Description,
		&e.ExpenseDate, &e.Status, &e.DecidedBy, &e.DecidedAt,
		&e.DecisionNote, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// ListExpenses returns a page of claims matching the filters plus the
// total match count.
func (r *Repository) ListExpenses(ctx context.Context, filters ListFilters) ([]Expense, int, error) {
	where := make([]string, 0, 5)
	args := make([]any, 0, 5)

	if filters.VisibleIDs != nil {
		args = append(args, filters.VisibleIDs)
		where = append(where, fmt.Sprintf("e.user_id = ANY($%d)", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if filters.UserID != nil {
		args = append(args, *filters.UserID)
		where = append(where, fmt.Sprintf("e.user_id = $%d", len(args)))
	}
	if filters.From != nil {
		args = append(args, *filters.From)
		where = append(where, fmt.Sprintf("e.expense_date >= $%d", len(args)))
	}
	if filters.To != nil {
		args = append(args, *filters.To)
		where = append(where, fmt.Sprintf("e.expense_date <= $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM expenses e JOIN users u ON u.id = e.user_id" + clause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("expenses: count: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PerPage < 1 || filters.PerPage > 100 {
		filters.PerPage = 20
	}
	args = append(args, filters.PerPage, (filters.Page-1)*filters.PerPage)
	query := fmt.Sprintf("%s%s ORDER BY e.expense_date DESC, e.created_at DESC LIMIT $%d OFFSET $%d",
		selectExpense, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("expenses: list: %w", err)
	}
	defer rows.Close()

	out := make([]Expense, 0, filters.PerPage)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("expenses: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// GetExpense fetches one claim by id.
func (r *Repository) GetExpense(ctx context.Context, id uuid.UUID) (Expense, error) {
	e, err := scanExpense(r.pool.QueryRow(ctx, selectExpense+" WHERE e.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, shared.ErrNotFound
	}
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: get: %w", err)
	}
	return e, nil
}

// CreateExpense inserts a new pending claim.
func (r *Repository) CreateExpense(ctx context.Context, params CreateParams) (Expense, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (user_id, category, amount, description, expense_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		params.UserID, params.Category, params.Amount, params.Description, params.ExpenseDate, StatusPending,
	).Scan(&id)
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: create: %w", err)
	}
	return r.GetExpense(ctx, id)
}

// Decide moves a pending claim to APPROVED or REJECTED. Claims already
// decided stay as they are and the call reports a conflict.
func (r *Repository) Decide(ctx context.Context, id, deciderID uuid.UUID, status, note string) (Expense, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE expenses
		SET status = $2, decided_by = $3, decided_at = $4, decision_note = $5, updated_at = $4
		WHERE id = $1 AND status = $6`,
		id, status, deciderID, time.Now().UTC(), note, StatusPending)
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: decide: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetExpense(ctx, id); err != nil {
			return Expense{}, err
		}
		return Expense{}, fmt.Errorf("%w: expense already decided", shared.ErrDuplicate)
	}
	return r.GetExpense(ctx, id)
}
