package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

const (
	testAccessSecret  = "test-access-secret-0123456789abcdef"
	testRefreshSecret = "test-refresh-secret-0123456789abcdef"
)

func newTestTokenManager(t *testing.T, accessTTL time.Duration) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(TokenConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)
	return m
}

func testClaims() shared.Claims {
	return shared.Claims{
		UserID:      uuid.New(),
		Email:       "rm@fieldforce.local",
		RoleName:    "RM",
		RoleLevel:   40,
		Permissions: []string{shared.PermUsersRead, shared.PermExpensesApprove},
	}
}

func TestNewTokenManagerRejectsShortSecrets(t *testing.T) {
	_, err := NewTokenManager(TokenConfig{AccessSecret: "short", RefreshSecret: testRefreshSecret})
	assert.Error(t, err)

	_, err = NewTokenManager(TokenConfig{AccessSecret: testAccessSecret, RefreshSecret: "short"})
	assert.Error(t, err)
}

func TestMintAndVerifyAccessRoundTrip(t *testing.T) {
	m := newTestTokenManager(t, 15*time.Minute)
	claims := testClaims()

	pair, jti, err := m.Mint(claims)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEmpty(t, jti)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)

	got, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID, got.UserID)
	assert.Equal(t, claims.Email, got.Email)
	assert.Equal(t, claims.RoleName, got.RoleName)
	assert.Equal(t, claims.RoleLevel, got.RoleLevel)
	assert.Equal(t, claims.Permissions, got.Permissions)
}

func TestVerifyRefreshReturnsMintedJTI(t *testing.T) {
	m := newTestTokenManager(t, time.Minute)

	pair, jti, err := m.Mint(testClaims())
	require.NoError(t, err)

	_, gotJTI, err := m.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, jti, gotJTI)
}

func TestVerifyAccessRejectsExpired(t *testing.T) {
	m := newTestTokenManager(t, -time.Minute)

	pair, _, err := m.Mint(testClaims())
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, shared.ErrTokenExpired)
}

func TestVerifyAccessRejectsTamperedToken(t *testing.T) {
	m := newTestTokenManager(t, time.Minute)

	pair, _, err := m.Mint(testClaims())
	require.NoError(t, err)

	raw := []byte(pair.AccessToken)
	raw[len(raw)-1] ^= 0x01

	_, err = m.VerifyAccess(string(raw))
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestVerifyAccessRejectsForeignKey(t *testing.T) {
	m := newTestTokenManager(t, time.Minute)
	other, err := NewTokenManager(TokenConfig{
		AccessSecret:  "another-access-secret-0123456789abcdef",
		RefreshSecret: testRefreshSecret,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	pair, _, err := m.Mint(testClaims())
	require.NoError(t, err)

	_, err = other.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestVerifyAccessRejectsRefreshPurpose(t *testing.T) {
	// Same secret for both purposes so the signature checks out and only
	// the purpose claim can reject the token.
	m, err := NewTokenManager(TokenConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testAccessSecret,
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	pair, _, err := m.Mint(testClaims())
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	_, _, err = m.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestVerifyAccessRejectsGarbage(t *testing.T) {
	m := newTestTokenManager(t, time.Minute)

	_, err := m.VerifyAccess("not-a-token")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}
