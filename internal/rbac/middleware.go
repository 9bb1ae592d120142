// Package rbac implements the authorization guard chain evaluated in front
// of protected operations.
package rbac

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldforce-hq/fieldforce/internal/platform/httpx"
	"github.com/fieldforce-hq/fieldforce/internal/shared"
)

// TokenVerifier verifies an access token and returns its claims.
type TokenVerifier interface {
	VerifyAccess(token string) (shared.Claims, error)
}

// Middleware wires the guard chain for HTTP handlers. Guards compose by
// short-circuiting AND through chi's middleware ordering: the first failure
// writes the response and the rest of the chain never runs. Guards never
// mutate state and never perform I/O; permission checks are set membership
// against the token's snapshot.
type Middleware struct {
	Verifier TokenVerifier
	Logger   *slog.Logger
}

// Authenticate extracts the bearer credential, verifies it as an access
// token and stores the claims in the request context. Absence, malformation,
// expiry and bad signatures all yield 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		claims, err := m.Verifier.VerifyAccess(token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithClaims(r.Context(), claims)))
	})
}

// RequireRole passes callers whose role name is in the allowed set.
func (m Middleware) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return m.guard(func(claims shared.Claims, _ *http.Request) error {
		for _, name := range allowed {
			if claims.RoleName == name {
				return nil
			}
		}
		return fmt.Errorf("%w: role %q is not authorized for this resource", shared.ErrForbidden, claims.RoleName)
	})
}

// RequireMinLevel passes callers whose role level is at least the minimum.
func (m Middleware) RequireMinLevel(minimum int) func(http.Handler) http.Handler {
	return m.guard(func(claims shared.Claims, _ *http.Request) error {
		if claims.RoleLevel >= minimum {
			return nil
		}
		return fmt.Errorf("%w: minimum role level %d required, yours is %d", shared.ErrForbidden, minimum, claims.RoleLevel)
	})
}

// RequirePermission passes the bypass role unconditionally; everyone else
// must hold every required permission in their token snapshot.
func (m Middleware) RequirePermission(required ...string) func(http.Handler) http.Handler {
	return m.guard(func(claims shared.Claims, _ *http.Request) error {
		if claims.IsBypass() {
			return nil
		}
		var missing []string
		for _, p := range required {
			if !claims.HasPermission(p) {
				missing = append(missing, p)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: missing required permissions: %s", shared.ErrForbidden, strings.Join(missing, ", "))
		}
		return nil
	})
}

// RequireOwnerOrMinLevel passes callers requesting their own resource (the
// URL parameter equals their user id) or holding at least the given level.
func (m Middleware) RequireOwnerOrMinLevel(paramKey string, minimum int) func(http.Handler) http.Handler {
	return m.guard(func(claims shared.Claims, r *http.Request) error {
		ownerID, err := uuid.Parse(chi.URLParam(r, paramKey))
		if err == nil && ownerID == claims.UserID {
			return nil
		}
		if claims.RoleLevel >= minimum {
			return nil
		}
		return fmt.Errorf("%w: you can only access your own resources", shared.ErrForbidden)
	})
}

func (m Middleware) guard(check func(shared.Claims, *http.Request) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := shared.ClaimsFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if err := check(claims, r); err != nil {
				if m.Logger != nil {
					m.Logger.Info("authorization denied",
						slog.String("user_id", claims.UserID.String()),
						slog.String("path", r.URL.Path),
						slog.Any("error", err),
					)
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
