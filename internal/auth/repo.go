package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Snapshot loads the user's current role name, level and permission-name
	// set. This is the only storage read token issuance performs.
	Snapshot(ctx context.Context, userID uuid.UUID) (Snapshot, error)
	CreateUser(ctx context.Context, user User) (*User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, phone, password_hash, full_name, is_active, role_id, entity_id, reports_to, created_at, updated_at`

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Phone, &user.PasswordHash, &user.FullName,
		&user.IsActive, &user.RoleID, &user.EntityID, &user.ReportsTo,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Snapshot loads role and permission state for token issuance. Users with no
// role get level 0 and an empty permission set.
func (r *PGRepository) Snapshot(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	var (
		snap   Snapshot
		roleID *uuid.UUID
	)
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.email, u.is_active, u.role_id,
		        COALESCE(r.name, 'USER'), COALESCE(r.level, 0)
		 FROM users u
		 LEFT JOIN roles r ON r.id = u.role_id
		 WHERE u.id = $1`, userID,
	).Scan(&snap.UserID, &snap.Email, &snap.IsActive, &roleID, &snap.RoleName, &snap.RoleLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, shared.ErrNotFound
		}
		return Snapshot{}, err
	}

	if roleID == nil {
		return snap, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT p.name FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 ORDER BY p.name`, *roleID)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Snapshot{}, err
		}
		snap.Permissions = append(snap.Permissions, name)
	}
	return snap, rows.Err()
}

// CreateUser inserts a new user account.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (*User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	created := user
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, phone, password_hash, full_name, is_active, role_id, entity_id, reports_to, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Phone, user.PasswordHash, user.FullName,
		user.IsActive, user.RoleID, user.EntityID, user.ReportsTo,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: email or phone already registered", shared.ErrDuplicate)
		}
		return nil, err
	}
	return &created, nil
}

// UpdatePassword replaces a user's password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
