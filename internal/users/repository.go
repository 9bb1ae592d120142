package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectUser = `
SELECT u.id, u.email, u.phone, u.full_name, u.is_active,
       u.role_id, COALESCE(r.name, ''), COALESCE(r.level, 0),
       u.entity_id, u.reports_to, COALESCE(m.full_name, ''),
       u.created_at, u.updated_at
FROM users u
LEFT JOIN roles r ON r.id = u.role_id
LEFT JOIN users m ON m.id = u.reports_to`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Email, &user.Phone, &user.FullName, &user.IsActive,
		&user.RoleID, &user.RoleName, &user.RoleLevel,
		&user.EntityID, &user.ReportsTo, &user.ManagerName,
		&user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

// ListUsers returns users matching the filters plus the filtered total.
func (r *Repository) ListUsers(ctx context.Context, filters ListFilters) ([]User, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filters.VisibleIDs != nil {
		args = append(args, filters.VisibleIDs)
		where += fmt.Sprintf(" AND u.id = ANY($%d)", len(args))
	}
	if filters.RoleName != "" {
		args = append(args, filters.RoleName)
		where += fmt.Sprintf(" AND r.name = $%d", len(args))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		where += fmt.Sprintf(" AND u.is_active = $%d", len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += fmt.Sprintf(" AND (u.full_name ILIKE $%d OR u.email ILIKE $%d)", len(args), len(args))
	}

	countQuery := `SELECT COUNT(*) FROM users u LEFT JOIN roles r ON r.id = u.role_id` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf("%s%s ORDER BY u.created_at DESC LIMIT $%d OFFSET $%d", selectUser, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// ListSubordinates returns a user's direct reports.
func (r *Repository) ListSubordinates(ctx context.Context, managerID uuid.UUID) ([]Subordinate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.full_name, COALESCE(r.name, '')
		 FROM users u LEFT JOIN roles r ON r.id = u.role_id
		 WHERE u.reports_to = $1 ORDER BY u.full_name`, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subordinate
	for rows.Next() {
		var s Subordinate
		if err := rows.Scan(&s.ID, &s.FullName, &s.RoleName); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// UpdateUser applies partial updates. Manager changes take effect for all
// future hierarchy resolutions immediately; downline results are never
// cached across requests.
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateParams) error {
	setReportsTo := params.ReportsTo != nil
	var reportsTo *uuid.UUID
	if setReportsTo {
		reportsTo = *params.ReportsTo
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET
			full_name = COALESCE($2, full_name),
			phone = COALESCE($3, phone),
			role_id = COALESCE($4, role_id),
			is_active = COALESCE($5, is_active),
			reports_to = CASE WHEN $6 THEN $7 ELSE reports_to END,
			updated_at = NOW()
		 WHERE id = $1`,
		id, params.FullName, params.Phone, params.RoleID, params.IsActive, setReportsTo, reportsTo,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeactivateUser flags a user inactive. Accounts are never purged; a
// deactivated user fails authentication but keeps their history.
func (r *Repository) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
