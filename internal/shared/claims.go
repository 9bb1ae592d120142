package shared

import "github.com/google/uuid"

// Claims is the verified identity snapshot extracted from an access token.
// The permission set is copied at issuance time and is not refreshed until
// the token is reissued; see auth.Service.Issue.
type Claims struct {
	UserID      uuid.UUID
	Email       string
	RoleName    string
	RoleLevel   int
	Permissions []string
}

// HasPermission reports whether the snapshot contains the named permission.
// The bypass role never reaches this check.
func (c Claims) HasPermission(name string) bool {
	for _, p := range c.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// IsBypass reports whether the claims carry the bypass role, which is exempt
// from explicit permission checks.
func (c Claims) IsBypass() bool {
	return IsBypassRole(c.RoleName)
}
