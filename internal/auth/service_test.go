package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

type fakeRepo struct {
	usersByEmail map[string]*User
	usersByID    map[uuid.UUID]*User
	snapshots    map[uuid.UUID]Snapshot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		usersByEmail: map[string]*User{},
		usersByID:    map[uuid.UUID]*User{},
		snapshots:    map[uuid.UUID]Snapshot{},
	}
}

func (r *fakeRepo) add(user *User, snap Snapshot) {
	r.usersByEmail[user.Email] = user
	r.usersByID[user.ID] = user
	r.snapshots[user.ID] = snap
}

func (r *fakeRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := r.usersByEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	user, ok := r.usersByID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (r *fakeRepo) Snapshot(_ context.Context, userID uuid.UUID) (Snapshot, error) {
	snap, ok := r.snapshots[userID]
	if !ok {
		return Snapshot{}, shared.ErrNotFound
	}
	return snap, nil
}

func (r *fakeRepo) CreateUser(_ context.Context, user User) (*User, error) {
	if _, exists := r.usersByEmail[user.Email]; exists {
		return nil, shared.ErrDuplicate
	}
	user.ID = uuid.New()
	created := user
	r.add(&created, Snapshot{UserID: created.ID, Email: created.Email, RoleName: "FIELD_USER", RoleLevel: 10, IsActive: true})
	return &created, nil
}

func (r *fakeRepo) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	user, ok := r.usersByID[userID]
	if !ok {
		return shared.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := newTestTokenManager(t, 15*time.Minute)
	sessions := NewSessionStore(client, time.Hour)
	repo := newFakeRepo()
	svc := NewService(repo, tokens, sessions, nil, nil, bcrypt.MinCost)
	return svc, repo, mr
}

func seedUser(t *testing.T, repo *fakeRepo, email, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "Test User",
		PasswordHash: string(hash),
		IsActive:     active,
	}
	repo.add(user, Snapshot{
		UserID:      user.ID,
		Email:       user.Email,
		RoleName:    "RM",
		RoleLevel:   40,
		Permissions: []string{shared.PermUsersRead},
		IsActive:    active,
	})
	return user
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, repo, _ := newTestService(t)
	want := seedUser(t, repo, "rm@fieldforce.local", "s3cret-pass", true)

	got, err := svc.Authenticate(context.Background(), "rm@fieldforce.local", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
}

func TestAuthenticateIndistinguishableFailures(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "known@fieldforce.local", "s3cret-pass", true)
	seedUser(t, repo, "disabled@fieldforce.local", "s3cret-pass", false)

	cases := map[string]struct {
		email    string
		password string
	}{
		"unknown account":     {"nobody@fieldforce.local", "s3cret-pass"},
		"wrong password":      {"known@fieldforce.local", "wrong-pass"},
		"deactivated account": {"disabled@fieldforce.local", "s3cret-pass"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
			assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
			assert.EqualError(t, err, "invalid email or password")
		})
	}
}

func TestLoginIssuesVerifiablePair(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := seedUser(t, repo, "rm@fieldforce.local", "s3cret-pass", true)

	_, pair, err := svc.Login(context.Background(), "rm@fieldforce.local", "s3cret-pass")
	require.NoError(t, err)

	claims, err := svc.tokens.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "RM", claims.RoleName)
	assert.Equal(t, 40, claims.RoleLevel)
	assert.Equal(t, []string{shared.PermUsersRead}, claims.Permissions)
}

func TestRefreshRotatesAndRecomputesSnapshot(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := seedUser(t, repo, "rm@fieldforce.local", "s3cret-pass", true)

	_, pair, err := svc.Login(context.Background(), "rm@fieldforce.local", "s3cret-pass")
	require.NoError(t, err)

	// Permission grants changed after login; the refresh must pick them up.
	repo.snapshots[user.ID] = Snapshot{
		UserID:      user.ID,
		Email:       user.Email,
		RoleName:    "SM_ADMIN",
		RoleLevel:   50,
		Permissions: []string{shared.PermUsersRead, shared.PermRolesManage},
		IsActive:    true,
	}

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.tokens.VerifyAccess(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "SM_ADMIN", claims.RoleName)
	assert.Equal(t, 50, claims.RoleLevel)
	assert.Contains(t, claims.Permissions, shared.PermRolesManage)
}

func TestRefreshTokenSingleUse(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "rm@fieldforce.local", "s3cret-pass", true)

	_, pair, err := svc.Login(context.Background(), "rm@fieldforce.local", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := seedUser(t, repo, "rm@fieldforce.local", "s3cret-pass", true)

	_, pair, err := svc.Login(context.Background(), "rm@fieldforce.local", "s3cret-pass")
	require.NoError(t, err)

	user.IsActive = false

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "rm@fieldforce.local", "s3cret-pass", true)

	_, pair, err := svc.Login(context.Background(), "rm@fieldforce.local", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "rm@fieldforce.local", "s3cret-pass", true)

	_, pair, err := svc.Login(context.Background(), "rm@fieldforce.local", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.RefreshToken))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := seedUser(t, repo, "rm@fieldforce.local", "s3cret-pass", true)

	err := svc.ChangePassword(context.Background(), user.ID, "wrong-pass", "new-pass-123")
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "s3cret-pass", "new-pass-123"))

	_, err = svc.Authenticate(context.Background(), "rm@fieldforce.local", "new-pass-123")
	assert.NoError(t, err)
}
