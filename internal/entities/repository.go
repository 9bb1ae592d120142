package entities

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

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListEntities returns all entities ordered by name.
func (r *Repository) ListEntities(ctx context.Context) ([]Entity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, code, status, created_at, updated_at FROM entities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Code, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetEntity fetches an entity by id.
func (r *Repository) GetEntity(ctx context.Context, id uuid.UUID) (Entity, error) {
	var e Entity
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, code, status, created_at, updated_at FROM entities WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Code, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entity{}, shared.ErrNotFound
		}
		return Entity{}, err
	}
	return e, nil
}

// CreateEntity inserts a new entity.
func (r *Repository) CreateEntity(ctx context.Context, name, code string) (Entity, error) {
	var e Entity
	err := r.pool.QueryRow(ctx,
		`INSERT INTO entities (id, name, code, status, created_at, updated_at)
		 VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		 RETURNING id, name, code, status, created_at, updated_at`,
		uuid.New(), name, code,
	).Scan(&e.ID, &e.Name, &e.Code, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Entity{}, fmt.Errorf("%w: entity code %q", shared.ErrDuplicate, code)
		}
		return Entity{}, err
	}
	return e, nil
}

// SetStatus toggles an entity's active flag.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE entities SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
