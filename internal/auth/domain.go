package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated user account.
type User struct {
	ID           uuid.UUID
	Email        string
	Phone        string
	FullName     string
	PasswordHash string
	IsActive     bool
	RoleID       *uuid.UUID
	EntityID     *uuid.UUID
	ReportsTo    *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot is the point-in-time role and permission state copied into a
// token at issuance. It is not live: revoking a permission mid-session takes
// effect only at refresh or re-login.
type Snapshot struct {
	UserID      uuid.UUID
	Email       string
	RoleName    string
	RoleLevel   int
	Permissions []string
	IsActive    bool
}

// TokenPair is an issued access/refresh token couple.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
