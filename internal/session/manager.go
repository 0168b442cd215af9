package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/auth"
	"github.com/angelmondragon/packfinderz-storefront/pkg/backend"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
	"go.uber.org/multierr"
)

const (
	LoginPath = "/login"

	genericLoginMessage    = "login failed"
	genericRegisterMessage = "registration failed"
)

// Authenticator is the backend surface used for sign-in.
type Authenticator interface {
	Login(ctx context.Context, role string, creds backend.Credentials) (*backend.AuthResponse, error)
	Register(ctx context.Context, role string, input backend.Registration) (*backend.AuthResponse, error)
}

// Navigator receives navigation side effects such as the post-logout redirect.
type Navigator func(path string)

// State is the observable session.
type State struct {
	Status   enums.SessionStatus `json:"status"`
	Identity *Identity           `json:"user,omitempty"`
	// Error is a displayable message, set only in the error status.
	Error string `json:"error,omitempty"`
}

// Authenticated reports whether an identity is held.
func (s State) Authenticated() bool {
	return s.Status == enums.SessionStatusAuthenticated && s.Identity != nil
}

// RegisterInput is a role-scoped sign-up request.
type RegisterInput struct {
	Role         string
	Registration backend.Registration
}

// Manager owns the session slots. It is the only writer of the token and identity.
type Manager struct {
	slots    storage.Slots
	auth     Authenticator
	navigate Navigator
	logg     *logger.Logger
	leeway   time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	state State
	token string
}

type Option func(*Manager)

func WithNavigator(fn Navigator) Option {
	return func(m *Manager) {
		if fn != nil {
			m.navigate = fn
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(m *Manager) {
		if logg != nil {
			m.logg = logg
		}
	}
}

// WithExpiryLeeway treats tokens expiring within d as already expired.
func WithExpiryLeeway(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.leeway = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(slots storage.Slots, authenticator Authenticator, opts ...Option) *Manager {
	m := &Manager{
		slots:    slots,
		auth:     authenticator,
		navigate: func(string) {},
		logg:     logger.Nop(),
		now:      time.Now,
		state:    State{Status: enums.SessionStatusUnauthenticated},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// State returns the current session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyState(m.state)
}

// Token returns the bearer token, empty when not authenticated.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Identity returns the current identity or nil.
func (m *Manager) Identity() *Identity {
	return m.State().Identity
}

// Restore rebuilds the session from the slots. Anything short of a usable token and a valid
// identity leaves the session unauthenticated with both slots cleared.
func (m *Manager) Restore(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	identity, token, reason := m.readPersisted(ctx)
	if reason != "" {
		m.logg.Info(m.logg.WithField(ctx, "reason", reason), "session not restored")
		if err := m.clearSlots(ctx); err != nil {
			m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "session cleanup incomplete")
		}
		m.token = ""
		m.state = State{Status: enums.SessionStatusUnauthenticated}
		return copyState(m.state)
	}

	m.token = token
	m.state = State{Status: enums.SessionStatusAuthenticated, Identity: identity}
	ctx = m.logg.WithUserID(ctx, identity.ID)
	m.logg.Info(m.logg.WithActorRole(ctx, identity.Role.String()), "session restored")
	return copyState(m.state)
}

func (m *Manager) readPersisted(ctx context.Context) (*Identity, string, string) {
	rawToken, err := m.slots.ReadSlot(ctx, storage.SlotSessionToken)
	if err != nil {
		return nil, "", slotReason("token", err)
	}
	token := strings.TrimSpace(string(rawToken))
	if token == "" {
		return nil, "", "token empty"
	}

	rawUser, err := m.slots.ReadSlot(ctx, storage.SlotSessionUser)
	if err != nil {
		return nil, "", slotReason("identity", err)
	}
	identity, err := ParseIdentity(rawUser, "")
	if err != nil {
		return nil, "", "identity invalid: " + err.Error()
	}

	info, err := auth.InspectAccessToken(token)
	switch {
	case errors.Is(err, auth.ErrOpaqueToken):
	case err != nil:
		return nil, "", "token malformed"
	case info.Expired(m.now(), m.leeway):
		return nil, "", "token expired"
	}
	return identity, token, ""
}

func slotReason(slot string, err error) string {
	if errors.Is(err, storage.ErrSlotNotFound) {
		return slot + " missing"
	}
	return slot + " unreadable: " + err.Error()
}

// Login authenticates against the role-scoped endpoint.
func (m *Manager) Login(ctx context.Context, email, password, role string) (State, error) {
	parsed, err := enums.ParseRole(role)
	if err != nil {
		return m.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown role"))
	}
	resp, err := m.auth.Login(ctx, parsed.String(), backend.Credentials{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return m.fail(ctx, authFailure(err, genericLoginMessage))
	}
	return m.establish(ctx, resp, parsed, genericLoginMessage)
}

// Register creates an account and signs it in.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (State, error) {
	parsed, err := enums.ParseRole(input.Role)
	if err != nil {
		return m.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown role"))
	}
	if parsed == enums.RoleAdmin {
		return m.fail(ctx, pkgerrors.New(pkgerrors.CodeValidation, "admin accounts cannot self-register"))
	}
	resp, err := m.auth.Register(ctx, parsed.String(), input.Registration)
	if err != nil {
		return m.fail(ctx, authFailure(err, genericRegisterMessage))
	}
	return m.establish(ctx, resp, parsed, genericRegisterMessage)
}

func authFailure(err error, fallback string) error {
	msg := backend.ServerMessage(err)
	if msg == "" {
		msg = fallback
	}
	return pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, msg)
}

func (m *Manager) establish(ctx context.Context, resp *backend.AuthResponse, role enums.Role, fallback string) (State, error) {
	token := ""
	if resp != nil {
		token = strings.TrimSpace(resp.AccessToken)
	}
	if token == "" {
		return m.fail(ctx, pkgerrors.New(pkgerrors.CodeAuthFailed, fallback))
	}
	identity, err := ParseIdentity(resp.User, role)
	if err != nil {
		return m.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, fallback))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx = m.logg.WithUserID(ctx, identity.ID)
	ctx = m.logg.WithActorRole(ctx, identity.Role.String())
	if err := m.persist(ctx, token, identity); err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "session persisted partially; it will not survive a restart")
	}
	m.token = token
	m.state = State{Status: enums.SessionStatusAuthenticated, Identity: identity}
	m.logg.Info(ctx, "session established")
	return copyState(m.state), nil
}

func (m *Manager) fail(ctx context.Context, err error) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := genericLoginMessage
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		msg = typed.Message()
	}
	// A failed sign-in ends any previous session, in storage as well.
	if clearErr := m.clearSlots(ctx); clearErr != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", clearErr.Error()), "session cleanup incomplete")
	}
	m.token = ""
	m.state = State{Status: enums.SessionStatusError, Error: msg}
	m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "authentication failed")
	return copyState(m.state), err
}

func (m *Manager) persist(ctx context.Context, token string, identity *Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return multierr.Append(
		m.slots.WriteSlot(ctx, storage.SlotSessionToken, []byte(token)),
		m.slots.WriteSlot(ctx, storage.SlotSessionUser, payload),
	)
}

// Logout forgets the session and navigates to the login view. The returned error only reports
// slot cleanup failures; the in-memory session is always cleared.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	err := m.clearSlots(ctx)
	m.token = ""
	m.state = State{Status: enums.SessionStatusUnauthenticated}
	m.mu.Unlock()

	if err != nil {
		m.logg.Error(ctx, "session slots not fully cleared", err)
	}
	m.navigate(LoginPath)
	return err
}

// UpdateUser replaces the profile in memory and storage, keeping the token. The id and role
// belong to the session; an update that names different ones is refused.
func (m *Manager) UpdateUser(ctx context.Context, identity Identity) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Status != enums.SessionStatusAuthenticated || m.state.Identity == nil {
		return copyState(m.state), pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	current := m.state.Identity

	if id := strings.TrimSpace(identity.ID); id != "" && id != current.ID {
		return copyState(m.state), pkgerrors.New(pkgerrors.CodeForbidden, "user id cannot be changed")
	}
	if raw := strings.TrimSpace(string(identity.Role)); raw != "" {
		role, err := enums.ParseRole(raw)
		if err != nil || role != current.Role {
			return copyState(m.state), pkgerrors.New(pkgerrors.CodeForbidden, "role cannot be changed")
		}
	}
	identity.ID = current.ID
	identity.Role = current.Role
	if err := identity.Validate(); err != nil {
		return copyState(m.state), pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user profile")
	}

	payload, err := json.Marshal(identity)
	if err != nil {
		return copyState(m.state), pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode user profile")
	}
	if err := m.slots.WriteSlot(ctx, storage.SlotSessionUser, payload); err != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "updated profile not persisted")
	}
	updated := identity
	m.state.Identity = &updated
	return copyState(m.state), nil
}

func (m *Manager) clearSlots(ctx context.Context) error {
	var err error
	for _, slot := range []string{storage.SlotSessionToken, storage.SlotSessionUser} {
		err = multierr.Append(err, m.slots.DeleteSlot(ctx, slot))
	}
	return err
}

func copyState(s State) State {
	if s.Identity != nil {
		identity := *s.Identity
		s.Identity = &identity
	}
	return s
}
