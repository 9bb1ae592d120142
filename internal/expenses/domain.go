// Package expenses handles field expense claims and their approval flow.
package expenses

import (
	"time"

	"github.com/google/uuid"
)

// Claim statuses.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Expense is a single reimbursement claim raised by a field user.
type Expense struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	UserName     string
	Category     string
	Amount       float64
	Description  string
	ExpenseDate  time.Time
	Status       string
	DecidedBy    *uuid.UUID
	DecidedAt    *time.Time
	DecisionNote string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListFilters narrows expense listings.
type ListFilters struct {
	Status  string
	UserID  *uuid.UUID
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int

	// VisibleIDs limits results to claims raised by these users. A nil
	// slice means unrestricted.
	VisibleIDs []uuid.UUID
}

// CreateParams carries the fields of a new claim.
type CreateParams struct {
	UserID      uuid.UUID
	Category    string
	Amount      float64
	Description string
	ExpenseDate time.Time
}
