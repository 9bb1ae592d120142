package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/hierarchy"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filters ListFilters) ([]User, int, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	ListSubordinates(ctx context.Context, managerID uuid.UUID) ([]Subordinate, error)
	UpdateUser(ctx context.Context, id uuid.UUID, params UpdateParams) error
	DeactivateUser(ctx context.Context, id uuid.UUID) error
}

// VisibilityResolver yields the set of user ids a caller may see.
type VisibilityResolver interface {
	VisibleUserIDs(ctx context.Context, userID uuid.UUID, roleName string) (hierarchy.Visibility, error)
}

// Service handles user management logic. Listings are scoped to the
// caller's downline: visibility narrows the query rather than rejecting the
// request, so an out-of-scope filter simply returns an empty page.
type Service struct {
	repo     RepositoryPort
	resolver VisibilityResolver
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver VisibilityResolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// ListVisible returns users inside the caller's visibility set, further
// narrowed by the request filters.
func (s *Service) ListVisible(ctx context.Context, caller shared.Claims, filters ListFilters) ([]User, int, error) {
	vis, err := s.resolver.VisibleUserIDs(ctx, caller.UserID, caller.RoleName)
	if err != nil {
		return nil, 0, err
	}
	if !vis.Unrestricted {
		filters.VisibleIDs = vis.UserIDs
	}
	return s.repo.ListUsers(ctx, filters)
}

// GetUser fetches one user with their direct reports.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (User, []Subordinate, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, nil, err
	}
	subs, err := s.repo.ListSubordinates(ctx, id)
	if err != nil {
		return User{}, nil, err
	}
	return user, subs, nil
}

// UpdateUser applies partial updates to a user.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateParams) (User, error) {
	if err := s.repo.UpdateUser(ctx, id, params); err != nil {
		return User{}, err
	}
	return s.repo.GetUser(ctx, id)
}

// DeactivateUser flags a user inactive.
func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeactivateUser(ctx, id)
}
