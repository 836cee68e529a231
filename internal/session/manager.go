package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/emicollect/client/internal/api"
	"github.com/emicollect/client/internal/models"
)

// User-facing failure reasons. Login and Register resolve every failure,
// local or remote, to one of these (or a message carried over from the
// backend) — nothing propagates as a panic or untyped surprise.
var (
	ErrMissingFields      = errors.New("please fill in all fields")
	ErrInvalidEmail       = errors.New("please enter a valid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters long")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNetwork            = errors.New("network error, please try again")
)

// Backend is the slice of the API client the session manager depends on.
type Backend interface {
	VerifyToken(ctx context.Context, token string) (*api.VerifyResponse, error)
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*api.AuthResponse, error)
}

// CredentialStore persists the bearer token across restarts.
type CredentialStore interface {
	Token() (string, error)
	SaveToken(token string) error
	DeleteToken() error
}

// Navigator receives the navigation side effects of session transitions.
type Navigator interface {
	ToDashboard()
	ToLogin()
}

// Session is a point-in-time snapshot of the authenticated identity.
// User is non-nil exactly when Token is non-empty and the pair was last
// validated against the backend.
type Session struct {
	User      *models.User
	Token     string
	IsLoading bool
}

// Manager owns the session. It is the single mutation path for
// authentication state: Restore, Login, Register and Logout. Everything
// else reads snapshots.
type Manager struct {
	backend  Backend
	store    CredentialStore
	nav      Navigator
	validate *validator.Validate

	mu      sync.Mutex
	user    *models.User
	token   string
	loading bool
}

// NewManager builds a session manager. The session starts empty with
// IsLoading set until Restore has run.
func NewManager(backend Backend, store CredentialStore, nav Navigator) *Manager {
	return &Manager{
		backend:  backend,
		store:    store,
		nav:      nav,
		validate: validator.New(),
		loading:  true,
	}
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Session{User: m.user, Token: m.token, IsLoading: m.loading}
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// IsAuthenticated reports whether a verified user is present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// Restore runs once at process start. It loads the persisted token,
// verifies it against the backend and either adopts the session or
// discards the token. IsLoading is cleared on every path; that is the
// signal gated screens wait on.
func (m *Manager) Restore(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.loading = false
		m.mu.Unlock()
	}()

	stored, err := m.store.Token()
	if err != nil {
		log.Printf("[SESSION] Failed to read stored token: %v", err)
		return
	}
	if stored == "" {
		log.Println("[SESSION] No stored token, starting unauthenticated")
		return
	}

	if exp, ok := Expiry(stored); ok && exp.Before(nowFunc()) {
		log.Printf("[SESSION] Stored token expired at %s, verifying anyway", exp.Format("2006-01-02 15:04:05"))
	}

	resp, err := m.backend.VerifyToken(ctx, stored)
	if err != nil || !resp.Valid {
		if err != nil {
			log.Printf("[SESSION] Token verification failed: %v", err)
		} else {
			log.Println("[SESSION] Stored token rejected by backend")
		}
		if delErr := m.store.DeleteToken(); delErr != nil {
			log.Printf("[SESSION] Failed to remove stale token: %v", delErr)
		}
		return
	}

	m.adopt(resp.User, stored, false)
	log.Printf("[SESSION] Session restored for user %d", resp.User.ID)
	m.nav.ToDashboard()
}

// Login authenticates with email and password. A nil return means the
// session is authenticated, the token persisted and navigation done.
// Empty fields fail before any network call.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return ErrMissingFields
	}

	resp, err := m.backend.Login(ctx, email, password)
	if err != nil {
		log.Printf("[SESSION] Login failed for %s: %v", email, err)
		if _, ok := api.ErrorMessage(err); ok {
			return ErrInvalidCredentials
		}
		return ErrNetwork
	}

	m.adopt(resp.User, resp.Token, true)
	log.Printf("[SESSION] Login successful for user %d", resp.User.ID)
	m.nav.ToDashboard()
	return nil
}

type registerInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Register creates an account; success semantics mirror Login. All local
// validation runs before any network call, and the backend's error
// message (e.g. an email conflict) is surfaced verbatim when present.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	input := registerInput{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := m.validate.Struct(input); err != nil {
		return registrationMessage(err)
	}

	resp, err := m.backend.Register(ctx, input.Name, input.Email, password)
	if err != nil {
		log.Printf("[SESSION] Registration failed for %s: %v", input.Email, err)
		if msg, ok := api.ErrorMessage(err); ok {
			return errors.New(msg)
		}
		return ErrNetwork
	}

	m.adopt(resp.User, resp.Token, true)
	log.Printf("[SESSION] Registration successful for user %d", resp.User.ID)
	m.nav.ToDashboard()
	return nil
}

// Logout clears the session and the persisted token. Best-effort: it
// cannot fail from the caller's point of view.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()

	if err := m.store.DeleteToken(); err != nil {
		log.Printf("[SESSION] Failed to remove persisted token: %v", err)
	}
	log.Println("[SESSION] Logged out")
	m.nav.ToLogin()
}

// adopt installs a verified user/token pair and optionally persists the
// token. Persistence failures are logged, not fatal: the in-memory
// session is already valid for this process.
func (m *Manager) adopt(user models.User, token string, persist bool) {
	m.mu.Lock()
	m.user = &user
	m.token = token
	m.mu.Unlock()

	if persist {
		if err := m.store.SaveToken(token); err != nil {
			log.Printf("[SESSION] Failed to persist token: %v", err)
		}
	}
}

// registrationMessage maps the first violated validation rule to its
// user-visible message.
func registrationMessage(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ErrMissingFields
	}
	fe := fieldErrs[0]
	switch {
	case fe.Tag() == "required":
		return ErrMissingFields
	case fe.Field() == "Email":
		return ErrInvalidEmail
	case fe.Field() == "Password":
		return ErrPasswordTooShort
	}
	return ErrMissingFields
}
