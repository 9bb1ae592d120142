package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure. Deactivated accounts
	// surface this same error so callers cannot enumerate account state.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled is logged internally for deactivated accounts;
	// it must never reach a caller in place of ErrInvalidCredentials.
	ErrAccountDisabled = errors.New("account is deactivated")
	// ErrTokenExpired indicates a token whose exp claim has passed.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid indicates a malformed, tampered or wrong-purpose token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrUnauthenticated indicates a missing or unparseable bearer credential.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates an authenticated caller failed a guard condition.
	ErrForbidden = errors.New("forbidden")
	// ErrRoleInUse blocks deletion of a role still referenced by users.
	ErrRoleInUse = errors.New("role is assigned to users")
	// ErrValidation indicates request-shape validation failure.
	ErrValidation = errors.New("validation failed")
)
