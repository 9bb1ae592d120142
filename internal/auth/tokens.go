package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// Token purposes. Access tokens must never be accepted where a refresh token
// is required, and vice versa.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
)

type tokenClaims struct {
	Email       string   `json:"email"`
	RoleName    string   `json:"roleName"`
	RoleLevel   int      `json:"roleLevel"`
	Permissions []string `json:"permissions"`
	Purpose     string   `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager mints and verifies signed, self-contained HS256 tokens.
// Access and refresh tokens use independent secrets in addition to the
// purpose claim.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// TokenConfig collects TokenManager parameters.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewTokenManager constructs a TokenManager. Secrets must be at least 32
// bytes.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.AccessSecret) < 32 {
		return nil, errors.New("auth: JWT secret must be at least 32 characters")
	}
	if len(cfg.RefreshSecret) < 32 {
		return nil, errors.New("auth: JWT refresh secret must be at least 32 characters")
	}
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// Mint signs a token pair carrying the claims snapshot. Both tokens embed
// the same snapshot; the refresh token additionally carries a unique jti for
// the session registry.
func (m *TokenManager) Mint(claims shared.Claims) (TokenPair, string, error) {
	access, err := m.sign(claims, PurposeAccess, m.accessSecret, m.accessTTL, "")
	if err != nil {
		return TokenPair{}, "", err
	}
	jti := uuid.NewString()
	refresh, err := m.sign(claims, PurposeRefresh, m.refreshSecret, m.refreshTTL, jti)
	if err != nil {
		return TokenPair{}, "", err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, jti, nil
}

// VerifyAccess checks signature, expiry and purpose of an access token.
func (m *TokenManager) VerifyAccess(token string) (shared.Claims, error) {
	claims, _, err := m.verify(token, PurposeAccess, m.accessSecret)
	return claims, err
}

// VerifyRefresh checks a refresh token and returns its claims and jti.
func (m *TokenManager) VerifyRefresh(token string) (shared.Claims, string, error) {
	return m.verify(token, PurposeRefresh, m.refreshSecret)
}

func (m *TokenManager) sign(claims shared.Claims, purpose string, secret []byte, ttl time.Duration, jti string) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		Email:       claims.Email,
		RoleName:    claims.RoleName,
		RoleLevel:   claims.RoleLevel,
		Permissions: claims.Permissions,
		Purpose:     purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) verify(tokenString, purpose string, secret []byte) (shared.Claims, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Claims{}, "", shared.ErrTokenExpired
		}
		return shared.Claims{}, "", shared.ErrTokenInvalid
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return shared.Claims{}, "", shared.ErrTokenInvalid
	}
	if tc.Purpose != purpose {
		return shared.Claims{}, "", shared.ErrTokenInvalid
	}
	// Required claim fields must be present, not merely zero-valued.
	if tc.Subject == "" || tc.RoleName == "" || tc.ExpiresAt == nil {
		return shared.Claims{}, "", shared.ErrTokenInvalid
	}
	userID, err := uuid.Parse(tc.Subject)
	if err != nil {
		return shared.Claims{}, "", shared.ErrTokenInvalid
	}

	return shared.Claims{
		UserID:      userID,
		Email:       tc.Email,
		RoleName:    tc.RoleName,
		RoleLevel:   tc.RoleLevel,
		Permissions: tc.Permissions,
	}, tc.ID, nil
}
