package roles

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named, leveled bundle of permissions. A nil EntityID marks a
// global role visible across tenants; (Name, EntityID) is unique.
type Role struct {
	ID        uuid.UUID
	Name      string
	Level     int
	EntityID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permission is an opaque named capability, globally unique by name.
type Permission struct {
	ID          uuid.UUID
	Name        string
	Description string
}

// RoleDetail is a role together with its permission set and user count.
type RoleDetail struct {
	Role
	Permissions []Permission
	UserCount   int
}

// ListFilters narrows role listings.
type ListFilters struct {
	Search   string
	EntityID *uuid.UUID
	Page     int
	PerPage  int
}
