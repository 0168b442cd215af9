// Package auth inspects the bearer tokens issued by the marketplace backend.
//
// The storefront client never holds the signing secret, so tokens are decoded
// without signature verification and only used to learn their expiry. The
// backend stays the authority on validity.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken signals a credential that is not a JWT and carries no inspectable claims.
var ErrOpaqueToken = errors.New("opaque access token")

// AccessTokenClaims lists the claims the backend places in access tokens.
type AccessTokenClaims struct {
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenInfo is the subset of claims the client acts on.
type TokenInfo struct {
	Subject   string
	Role      string
	ExpiresAt *time.Time
}

// InspectAccessToken decodes the token payload without verifying its signature.
func InspectAccessToken(raw string) (*TokenInfo, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return nil, fmt.Errorf("access token is empty")
	}
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueToken
	}

	claims := &AccessTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode access token: %w", err)
	}

	info := &TokenInfo{
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if info.Subject == "" {
		info.Subject = claims.UserID
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		info.ExpiresAt = &exp
	}
	return info, nil
}

// Expired reports whether the token expires before now+leeway. Tokens without exp never expire.
func (t *TokenInfo) Expired(now time.Time, leeway time.Duration) bool {
	if t == nil || t.ExpiresAt == nil {
		return false
	}
	return !now.Add(leeway).Before(*t.ExpiresAt)
}
