package enums

// SessionStatus tracks whether the client currently holds a usable identity.
type SessionStatus string

const (
	SessionStatusUnauthenticated SessionStatus = "unauthenticated"
	SessionStatusAuthenticated   SessionStatus = "authenticated"
	// SessionStatusError follows a failed login or registration; no identity is held.
	SessionStatusError SessionStatus = "error"
)

var validSessionStatuses = []SessionStatus{
	SessionStatusUnauthenticated,
	SessionStatusAuthenticated,
	SessionStatusError,
}

// String implements fmt.Stringer.
func (s SessionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SessionStatus.
func (s SessionStatus) IsValid() bool {
	for _, candidate := range validSessionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
