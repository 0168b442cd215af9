package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

// Identity is the signed-in user as the backend describes it.
type Identity struct {
	ID      string     `json:"id"`
	Email   string     `json:"email"`
	Role    enums.Role `json:"role"`
	Name    string     `json:"name,omitempty"`
	Phone   string     `json:"phone,omitempty"`
	Avatar  string     `json:"avatar,omitempty"`
	StoreID string     `json:"storeId,omitempty"`
}

type rawIdentity struct {
	ID      json.RawMessage `json:"id"`
	Email   string          `json:"email"`
	Role    string          `json:"role"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Avatar  string          `json:"avatar"`
	StoreID json.RawMessage `json:"storeId"`
}

var errIdentityShape = errors.New("identity does not match the expected shape")

// ParseIdentity decodes raw JSON into an Identity. An unknown role fails; when the payload
// carries no role at all, fallbackRole is used if it is valid.
func ParseIdentity(raw []byte, fallbackRole enums.Role) (*Identity, error) {
	var in rawIdentity
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}

	roleText := strings.TrimSpace(in.Role)
	if roleText == "" {
		roleText = string(fallbackRole)
	}
	role, err := enums.ParseRole(roleText)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		ID:      flexibleID(in.ID),
		Email:   strings.TrimSpace(in.Email),
		Role:    role,
		Name:    in.Name,
		Phone:   in.Phone,
		Avatar:  in.Avatar,
		StoreID: flexibleID(in.StoreID),
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	return identity, nil
}

// Validate checks the required fields and canonical role.
func (i *Identity) Validate() error {
	if i == nil {
		return errIdentityShape
	}
	if i.ID == "" || i.Email == "" {
		return fmt.Errorf("%w: id and email are required", errIdentityShape)
	}
	if !i.Role.IsValid() {
		return fmt.Errorf("%w: role %q", errIdentityShape, i.Role)
	}
	return nil
}

// Numeric and string ids are both accepted.
func flexibleID(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return trimmed
}
