package middleware

import (
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/internal/guard"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// RequireRoles lets the request through only when the session identity holds one of roles.
// Denials redirect to the login view when there is no identity and to the unauthorized view otherwise.
func RequireRoles(logg *logger.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := guard.Decide(IdentityFromContext(r.Context()), roles...)
			if decision == guard.Allow {
				next.ServeHTTP(w, r)
				return
			}
			if logg != nil {
				ctx := logg.WithFields(r.Context(), map[string]any{
					"decision":       decision.String(),
					"required_roles": roles,
				})
				logg.Info(ctx, "route.denied")
			}
			http.Redirect(w, r, decision.RedirectPath(), http.StatusFound)
		})
	}
}
