package users

import (
	"time"

	"github.com/google/uuid"
)

// User is the management view of an account, joined with its role.
type User struct {
	ID          uuid.UUID
	Email       string
	Phone       string
	FullName    string
	IsActive    bool
	RoleID      *uuid.UUID
	RoleName    string
	RoleLevel   int
	EntityID    *uuid.UUID
	ReportsTo   *uuid.UUID
	ManagerName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Subordinate is a direct report summary attached to a user detail.
type Subordinate struct {
	ID       uuid.UUID
	FullName string
	RoleName string
}

// ListFilters narrows user listings. VisibleIDs is nil when the caller is
// unrestricted; otherwise only those ids may appear in the result.
type ListFilters struct {
	RoleName   string
	IsActive   *bool
	Search     string
	Page       int
	PerPage    int
	VisibleIDs []uuid.UUID
}

// UpdateParams carries partial user updates. Nil fields are left untouched.
// ReportsTo distinguishes "unset" (nil) from "clear the manager" (pointer to
// nil).
type UpdateParams struct {
	FullName  *string
	Phone     *string
	RoleID    *uuid.UUID
	IsActive  *bool
	ReportsTo **uuid.UUID
}
