package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldforce-hq/fieldforce/internal/platform/db"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles and permissions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

// ListRoles returns roles matching the filters ordered by level descending.
func (r *Repository) ListRoles(ctx context.Context, filters ListFilters) ([]Role, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if filters.EntityID != nil {
		args = append(args, *filters.EntityID)
		where += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM roles"+where, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(
		"SELECT id, name, level, entity_id, created_at, updated_at FROM roles%s ORDER BY level DESC, name LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Level, &role.EntityID, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// GetRole fetches a role with its permission set and assigned user count.
func (r *Repository) GetRole(ctx context.Context, id uuid.UUID) (RoleDetail, error) {
	var detail RoleDetail
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, level, entity_id, created_at, updated_at FROM roles WHERE id = $1`, id,
	).Scan(&detail.ID, &detail.Name, &detail.Level, &detail.EntityID, &detail.CreatedAt, &detail.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleDetail{}, shared.ErrNotFound
		}
		return RoleDetail{}, err
	}

	perms, err := r.rolePermissions(ctx, id)
	if err != nil {
		return RoleDetail{}, err
	}
	detail.Permissions = perms

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, id).Scan(&detail.UserCount); err != nil {
		return RoleDetail{}, err
	}
	return detail, nil
}

// GetRoleByName fetches a role by (name, entityID). A nil entityID matches
// the global role of that name.
func (r *Repository) GetRoleByName(ctx context.Context, name string, entityID *uuid.UUID) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, level, entity_id, created_at, updated_at FROM roles
		 WHERE name = $1 AND entity_id IS NOT DISTINCT FROM $2`, name, entityID,
	).Scan(&role.ID, &role.Name, &role.Level, &role.EntityID, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a role and its permission mappings in one transaction.
func (r *Repository) CreateRole(ctx context.Context, name string, level int, entityID *uuid.UUID, permissionIDs []uuid.UUID) (Role, error) {
	var role Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (id, name, level, entity_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 RETURNING id, name, level, entity_id, created_at, updated_at`,
			uuid.New(), name, level, entityID,
		).Scan(&role.ID, &role.Name, &role.Level, &role.EntityID, &role.CreatedAt, &role.UpdatedAt)
		if err != nil {
			return err
		}
		return insertMappings(ctx, tx, role.ID, permissionIDs)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Role{}, fmt.Errorf("%w: role %q", shared.ErrDuplicate, name)
		}
		return Role{}, err
	}
	return role, nil
}

// UpdateParams carries partial role updates. A nil field is left untouched;
// a non-nil PermissionIDs fully replaces the mapping set.
type UpdateParams struct {
	Name          *string
	Level         *int
	PermissionIDs *[]uuid.UUID
}

// UpdateRole applies partial updates. Permission replacement happens inside
// the same transaction as the base update so readers never observe a
// half-updated set.
func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, params UpdateParams) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE roles SET
				name = COALESCE($2, name),
				level = COALESCE($3, level),
				updated_at = NOW()
			 WHERE id = $1`,
			id, params.Name, params.Level,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if params.PermissionIDs != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
				return err
			}
			if err := insertMappings(ctx, tx, id, *params.PermissionIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: role name", shared.ErrDuplicate)
		}
		return err
	}
	return nil
}

// DeleteRole removes a role and its mappings. Deletion fails with
// ErrRoleInUse while any user still references the role; the check and the
// delete share a transaction so the count cannot go stale in between.
func (r *Repository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var userCount int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, id).Scan(&userCount); err != nil {
			return err
		}
		if userCount > 0 {
			return fmt.Errorf("%w: %d users assigned", shared.ErrRoleInUse, userCount)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// EnsurePermission upserts a permission by name.
func (r *Repository) EnsurePermission(ctx context.Context, name, description string) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (id, name, description)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		 RETURNING id, name, description`,
		uuid.New(), name, description,
	).Scan(&p.ID, &p.Name, &p.Description)
	if err != nil {
		return Permission{}, err
	}
	return p, nil
}

// DeletePermission removes a permission; role mappings go with it by
// cascade.
func (r *Repository) DeletePermission(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PermissionNames returns the permission-name set mapped to a role.
func (r *Repository) PermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *Repository) rolePermissions(ctx context.Context, roleID uuid.UUID) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.description FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func insertMappings(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	for _, permID := range permissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
			roleID, permID,
		); err != nil {
			return err
		}
	}
	return nil
}
