package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldforce-hq/fieldforce/internal/hierarchy"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

type fakeRepo struct {
	users       map[uuid.UUID]User
	lastFilters ListFilters
}

func newFakeRepo(users ...User) *fakeRepo {
	r := &fakeRepo{users: map[uuid.UUID]User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) ListUsers(_ context.Context, filters ListFilters) ([]User, int, error) {
	r.lastFilters = filters
	var out []User
	for _, u := range r.users {
		if filters.VisibleIDs != nil && !containsID(filters.VisibleIDs, u.ID) {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *fakeRepo) GetUser(_ context.Context, id uuid.UUID) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) ListSubordinates(_ context.Context, managerID uuid.UUID) ([]Subordinate, error) {
	var subs []Subordinate
	for _, u := range r.users {
		if u.ReportsTo != nil && *u.ReportsTo == managerID {
			subs = append(subs, Subordinate{ID: u.ID, FullName: u.FullName})
		}
	}
	return subs, nil
}

func (r *fakeRepo) UpdateUser(_ context.Context, id uuid.UUID, params UpdateParams) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	if params.FullName != nil {
		u.FullName = *params.FullName
	}
	if params.IsActive != nil {
		u.IsActive = *params.IsActive
	}
	if params.ReportsTo != nil {
		u.ReportsTo = *params.ReportsTo
	}
	r.users[id] = u
	return nil
}

func (r *fakeRepo) DeactivateUser(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = false
	r.users[id] = u
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
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

func claimsFor(id uuid.UUID, role string, level int) shared.Claims {
	return shared.Claims{UserID: id, RoleName: role, RoleLevel: level}
}

func TestListVisibleScopesToDownline(t *testing.T) {
	manager := User{ID: uuid.New(), FullName: "Manager"}
	report := User{ID: uuid.New(), FullName: "Report", ReportsTo: &manager.ID}
	outsider := User{ID: uuid.New(), FullName: "Outsider"}
	repo := newFakeRepo(manager, report, outsider)

	svc := NewService(repo, stubResolver{visibility: hierarchy.Visibility{
		UserIDs: []uuid.UUID{manager.ID, report.ID},
	}})

	result, total, err := svc.ListVisible(context.Background(), claimsFor(manager.ID, "RM", 40), ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	ids := make([]uuid.UUID, len(result))
	for i, u := range result {
		ids[i] = u.ID
	}
	assert.ElementsMatch(t, []uuid.UUID{manager.ID, report.ID}, ids)
	assert.NotNil(t, repo.lastFilters.VisibleIDs)
}

func TestListVisibleUnrestrictedSkipsScoping(t *testing.T) {
	a := User{ID: uuid.New()}
	b := User{ID: uuid.New()}
	repo := newFakeRepo(a, b)

	svc := NewService(repo, stubResolver{visibility: hierarchy.Visibility{Unrestricted: true}})

	_, total, err := svc.ListVisible(context.Background(), claimsFor(uuid.New(), shared.RoleSuperAdmin, 100), ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Nil(t, repo.lastFilters.VisibleIDs)
}

func TestListVisibleEmptyDownlineSeesOnlySelf(t *testing.T) {
	field := User{ID: uuid.New()}
	other := User{ID: uuid.New()}
	repo := newFakeRepo(field, other)

	svc := NewService(repo, stubResolver{visibility: hierarchy.Visibility{
		UserIDs: []uuid.UUID{field.ID},
	}})

	result, total, err := svc.ListVisible(context.Background(), claimsFor(field.ID, "FIELD_USER", 10), ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, result, 1)
	assert.Equal(t, field.ID, result[0].ID)
}

func TestGetUserIncludesSubordinates(t *testing.T) {
	manager := User{ID: uuid.New(), FullName: "Manager"}
	report := User{ID: uuid.New(), FullName: "Report", ReportsTo: &manager.ID}
	repo := newFakeRepo(manager, report)

	svc := NewService(repo, stubResolver{})

	got, subs, err := svc.GetUser(context.Background(), manager.ID)
	require.NoError(t, err)
	assert.Equal(t, manager.ID, got.ID)
	require.Len(t, subs, 1)
	assert.Equal(t, report.ID, subs[0].ID)
}

func TestDeactivatePreservesRecord(t *testing.T) {
	user := User{ID: uuid.New(), IsActive: true}
	repo := newFakeRepo(user)

	svc := NewService(repo, stubResolver{})

	require.NoError(t, svc.DeactivateUser(context.Background(), user.ID))

	got, err := repo.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}
