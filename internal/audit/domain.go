// Package audit records security-relevant platform events.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a single audit record.
type Event struct {
	ActorID  uuid.UUID      `json:"actorId"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entityId"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// Actions recorded by the platform.
const (
	ActionLoginSucceeded  = "auth.login.succeeded"
	ActionLoginFailed     = "auth.login.failed"
	ActionTokenRefreshed  = "auth.token.refreshed"
	ActionLogout          = "auth.logout"
	ActionPasswordChanged = "auth.password.changed"
	ActionUserCreated     = "users.created"
	ActionUserUpdated     = "users.updated"
	ActionUserDeactivated = "users.deactivated"
	ActionRoleCreated     = "roles.created"
	ActionRoleUpdated     = "roles.updated"
	ActionRoleDeleted     = "roles.deleted"
	ActionExpenseDecided  = "expenses.decided"
)

// Recorder accepts events for eventual persistence.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}
