package identity

import (
	"context"
	"net/http"
	"slices"

	"internship-service/internal/httputil"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the caller decoded from a session token.
type Principal struct {
	UserID int
	Email  string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// RequireActive rejects suspended accounts on routes that sit behind
// authentication.
func RequireActive(next http.Handler) http.Handler {
	return RequireRoles()(next)
}

// RequireRoles admits callers whose role is listed. With no roles it only
// rejects suspended accounts. Missing authentication is a 401.
func RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				httputil.RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if p.Role == RoleSuspended {
				httputil.RespondWithError(w, http.StatusForbidden, "account suspended")
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, p.Role) {
				httputil.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
