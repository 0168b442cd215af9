// Package guard decides whether an identity may open a role-gated view.
package guard

import (
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/internal/session"
)

const (
	LoginPath        = session.LoginPath
	UnauthorizedPath = "/unauthorized"
)

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "unknown"
	}
}

// RedirectPath is the view a denied request is sent to, empty for Allow.
func (d Decision) RedirectPath() string {
	switch d {
	case RedirectLogin:
		return LoginPath
	case RedirectUnauthorized:
		return UnauthorizedPath
	default:
		return ""
	}
}

// IsAllowed reports whether identity holds one of the required roles, ignoring case.
// A nil identity or an empty role is never allowed.
func IsAllowed(identity *session.Identity, required ...string) bool {
	if identity == nil {
		return false
	}
	role := strings.TrimSpace(string(identity.Role))
	if role == "" {
		return false
	}
	for _, candidate := range required {
		if strings.EqualFold(role, strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}

// Decide tells login redirects apart from wrong-role redirects by the presence of an identity.
func Decide(identity *session.Identity, required ...string) Decision {
	if identity == nil {
		return RedirectLogin
	}
	if IsAllowed(identity, required...) {
		return Allow
	}
	return RedirectUnauthorized
}
