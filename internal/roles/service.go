package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// RepositoryPort defines data access methods for roles and permissions.
type RepositoryPort interface {
	ListRoles(ctx context.Context, filters ListFilters) ([]Role, int, error)
	GetRole(ctx context.Context, id uuid.UUID) (RoleDetail, error)
	GetRoleByName(ctx context.Context, name string, entityID *uuid.UUID) (Role, error)
	CreateRole(ctx context.Context, name string, level int, entityID *uuid.UUID, permissionIDs []uuid.UUID) (Role, error)
	UpdateRole(ctx context.Context, id uuid.UUID, params UpdateParams) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, name, description string) (Permission, error)
	DeletePermission(ctx context.Context, id uuid.UUID) error
	PermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error)
}

// Service wraps role-permission store business rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns roles matching the filters plus the unfiltered total.
func (s *Service) ListRoles(ctx context.Context, filters ListFilters) ([]Role, int, error) {
	return s.repo.ListRoles(ctx, filters)
}

// GetRole fetches a role with permissions and user count.
func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (RoleDetail, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a role with an optional initial permission set.
func (s *Service) CreateRole(ctx context.Context, name string, level int, entityID *uuid.UUID, permissionIDs []uuid.UUID) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	if level < 0 {
		return Role{}, fmt.Errorf("%w: role level must not be negative", shared.ErrValidation)
	}
	return s.repo.CreateRole(ctx, name, level, entityID, permissionIDs)
}

// UpdateRole applies partial updates; a provided permission set fully
// replaces the existing mapping.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, params UpdateParams) error {
	if params.Name != nil {
		trimmed := strings.TrimSpace(*params.Name)
		if trimmed == "" {
			return fmt.Errorf("%w: role name required", shared.ErrValidation)
		}
		params.Name = &trimmed
	}
	return s.repo.UpdateRole(ctx, id, params)
}

// DeleteRole removes a role unless users still reference it.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteRole(ctx, id)
}

// ListPermissions returns the full permission catalogue.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// PermissionNames returns the permission-name set for a role.
func (s *Service) PermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	return s.repo.PermissionNames(ctx, roleID)
}
