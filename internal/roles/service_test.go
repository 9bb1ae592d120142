package roles

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

type fakeRepo struct {
	roles       map[uuid.UUID]RoleDetail
	userCounts  map[uuid.UUID]int
	permissions []Permission
	deleted     []uuid.UUID
	updates     []UpdateParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		roles:      map[uuid.UUID]RoleDetail{},
		userCounts: map[uuid.UUID]int{},
	}
}

func (r *fakeRepo) ListRoles(_ context.Context, _ ListFilters) ([]Role, int, error) {
	out := make([]Role, 0, len(r.roles))
	for _, detail := range r.roles {
		out = append(out, detail.Role)
	}
	return out, len(out), nil
}

func (r *fakeRepo) GetRole(_ context.Context, id uuid.UUID) (RoleDetail, error) {
	detail, ok := r.roles[id]
	if !ok {
		return RoleDetail{}, shared.ErrNotFound
	}
	return detail, nil
}

func (r *fakeRepo) GetRoleByName(_ context.Context, name string, _ *uuid.UUID) (Role, error) {
	for _, detail := range r.roles {
		if detail.Name == name {
			return detail.Role, nil
		}
	}
	return Role{}, shared.ErrNotFound
}

func (r *fakeRepo) CreateRole(_ context.Context, name string, level int, entityID *uuid.UUID, _ []uuid.UUID) (Role, error) {
	for _, detail := range r.roles {
		if detail.Name == name {
			return Role{}, shared.ErrDuplicate
		}
	}
	role := Role{ID: uuid.New(), Name: name, Level: level, EntityID: entityID}
	r.roles[role.ID] = RoleDetail{Role: role}
	return role, nil
}

func (r *fakeRepo) UpdateRole(_ context.Context, id uuid.UUID, params UpdateParams) error {
	if _, ok := r.roles[id]; !ok {
		return shared.ErrNotFound
	}
	r.updates = append(r.updates, params)
	return nil
}

func (r *fakeRepo) DeleteRole(_ context.Context, id uuid.UUID) error {
	if _, ok := r.roles[id]; !ok {
		return shared.ErrNotFound
	}
	if n := r.userCounts[id]; n > 0 {
		return fmt.Errorf("%w: %d users assigned", shared.ErrRoleInUse, n)
	}
	delete(r.roles, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRepo) ListPermissions(_ context.Context) ([]Permission, error) {
	return r.permissions, nil
}

func (r *fakeRepo) EnsurePermission(_ context.Context, name, description string) (Permission, error) {
	perm := Permission{ID: uuid.New(), Name: name, Description: description}
	r.permissions = append(r.permissions, perm)
	return perm, nil
}

func (r *fakeRepo) DeletePermission(_ context.Context, _ uuid.UUID) error {
	return nil
}

func (r *fakeRepo) PermissionNames(_ context.Context, roleID uuid.UUID) ([]string, error) {
	detail, ok := r.roles[roleID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	names := make([]string, len(detail.Permissions))
	for i, p := range detail.Permissions {
		names[i] = p.Name
	}
	return names, nil
}

func TestCreateRoleValidation(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateRole(context.Background(), "   ", 10, nil, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateRole(context.Background(), "RM", -1, nil, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRoleTrimsName(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "  RM  ", 40, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "RM", role.Name)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.CreateRole(context.Background(), "RM", 40, nil, nil)
	require.NoError(t, err)

	_, err = svc.CreateRole(context.Background(), "RM", 40, nil, nil)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteRoleBlockedWhileAssigned(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "FIELD_USER", 10, nil, nil)
	require.NoError(t, err)
	repo.userCounts[role.ID] = 3

	err = svc.DeleteRole(context.Background(), role.ID)
	assert.ErrorIs(t, err, shared.ErrRoleInUse)
	assert.Contains(t, err.Error(), "3 users assigned")

	// The role must survive a refused delete untouched.
	_, err = svc.GetRole(context.Background(), role.ID)
	assert.NoError(t, err)
	assert.Empty(t, repo.deleted)
}

func TestDeleteRoleSucceedsWhenUnassigned(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "TEMP", 5, nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRole(context.Background(), role.ID))

	_, err = svc.GetRole(context.Background(), role.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRoleRejectsBlankName(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "RM", 40, nil, nil)
	require.NoError(t, err)

	blank := "   "
	err = svc.UpdateRole(context.Background(), role.ID, UpdateParams{Name: &blank})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.updates)
}

func TestUpdateRolePassesPermissionReplacement(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	role, err := svc.CreateRole(context.Background(), "RM", 40, nil, nil)
	require.NoError(t, err)

	perms := []uuid.UUID{uuid.New(), uuid.New()}
	require.NoError(t, svc.UpdateRole(context.Background(), role.ID, UpdateParams{PermissionIDs: &perms}))

	require.Len(t, repo.updates, 1)
	require.NotNil(t, repo.updates[0].PermissionIDs)
	assert.Equal(t, perms, *repo.updates[0].PermissionIDs)
}
