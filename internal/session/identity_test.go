package session

import (
	"testing"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

func TestParseIdentity(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		fallback enums.Role
		wantRole enums.Role
		wantErr  bool
	}{
		{name: "canonical", raw: `{"id":"1","email":"a@b","role":"admin"}`, wantRole: enums.RoleAdmin},
		{name: "mixed case", raw: `{"id":"1","email":"a@b","role":"Merchant"}`, wantRole: enums.RoleMerchant},
		{name: "fallback role", raw: `{"id":"1","email":"a@b"}`, fallback: enums.RoleCustomer, wantRole: enums.RoleCustomer},
		{name: "payload role beats fallback", raw: `{"id":"1","email":"a@b","role":"admin"}`, fallback: enums.RoleCustomer, wantRole: enums.RoleAdmin},
		{name: "unknown role", raw: `{"id":"1","email":"a@b","role":"owner"}`, wantErr: true},
		{name: "missing email", raw: `{"id":"1","role":"admin"}`, wantErr: true},
		{name: "null id", raw: `{"id":null,"email":"a@b","role":"admin"}`, wantErr: true},
		{name: "not an object", raw: `"admin"`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseIdentity([]byte(tc.raw), tc.fallback)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Role != tc.wantRole {
				t.Fatalf("role %q, want %q", got.Role, tc.wantRole)
			}
		})
	}
}
