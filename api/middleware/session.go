package middleware

import (
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// IdentitySource exposes the identity of the process-wide session.
type IdentitySource interface {
	Identity() *session.Identity
}

// Session seeds every request with the current session identity.
func Session(source IdentitySource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := source.Identity()
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithIdentity(r.Context(), identity)
			if logg != nil {
				ctx = logg.WithUserID(ctx, identity.ID)
				ctx = logg.WithActorRole(ctx, identity.Role.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
