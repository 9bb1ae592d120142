package entities

import (
	"time"

	"github.com/google/uuid"
)

// Entity is an organizational scoping unit roles and users may belong to.
type Entity struct {
	ID        uuid.UUID
	Name      string
	Code      string
	Status    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
