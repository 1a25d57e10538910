package handlers

import (
	"net/http"

	"github.com/qbank-io/apiserver/types"
)

// Authorization policy. Role gates are declarative preconditions checked
// before any handler body runs; viewer visibility rules additionally narrow
// what the query layer may return.

// RequireRole rejects authenticated users whose role is not in the allowed
// set. It must run after RequireAuth.
func RequireRole(roles ...types.Role) func(http.Handler) http.Handler {
	allowed := make(map[types.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allowed[user.Role] {
				writeError(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireEditor allows editors and admins.
func RequireEditor() func(http.Handler) http.Handler {
	return RequireRole(types.RoleAdmin, types.RoleEditor)
}

// RequireAdmin allows admins only.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(types.RoleAdmin)
}

// VisibleStatus forces the status filter to prod for viewers, regardless of
// what they requested. Other roles keep their requested filter.
func VisibleStatus(role types.Role, requested types.Status) types.Status {
	if role == types.RoleViewer {
		return types.StatusProd
	}
	return requested
}

// CanSeeQuestion reports whether the role may see the question at all.
// Viewers cannot see non-prod questions; callers translate a false result
// into "not found" rather than "forbidden" so the question's existence is
// not revealed.
func CanSeeQuestion(role types.Role, question types.Question) bool {
	if role != types.RoleViewer {
		return true
	}
	return question.Status == types.StatusProd && !question.IsDeleted
}

// CanIncludeDeleted reports whether the role may request soft-deleted rows.
func CanIncludeDeleted(role types.Role) bool {
	return role != types.RoleViewer
}
