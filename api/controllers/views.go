package controllers

import (
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
)

type viewResponse struct {
	View string            `json:"view"`
	User *session.Identity `json:"user"`
}

// View answers a role-gated view request once the guard has let the request through.
func View(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, viewResponse{View: name, User: middleware.IdentityFromContext(r.Context())})
	}
}
