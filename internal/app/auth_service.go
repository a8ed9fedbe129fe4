// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"travelbuddy/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// Default session lifetimes. RememberTTL matches a thirty day window;
// BrowserTTL bounds sessions whose cookie dies with the browser.
const (
	DefaultRememberTTL = 30 * 24 * time.Hour
	DefaultBrowserTTL  = 24 * time.Hour
)

// User-facing messages.
const (
	msgPasswordMismatch   = "Passwords do not match"
	msgUsernameTaken      = "Username already exists"
	msgEmailTaken         = "Email already exists"
	msgInvalidCredentials = "Invalid credentials"
)

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = domain.Auth(msgInvalidCredentials)
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the session's user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// SessionGrant describes a freshly created session for the transport layer.
type SessionGrant struct {
	Token      string
	ExpiresAt  time.Time
	Persistent bool
}

// AuthService handles registration, authentication and session management.
type AuthService struct {
	users       domain.UserRepository
	sessions    domain.SessionRepository
	rememberTTL time.Duration
	browserTTL  time.Duration
	now         func() time.Time
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithSessionTTLs overrides the remember-me and browser session lifetimes.
// Non-positive values keep the defaults.
func WithSessionTTLs(remember, browser time.Duration) AuthOption {
	return func(s *AuthService) {
		if remember > 0 {
			s.rememberTTL = remember
		}
		if browser > 0 {
			s.browserTTL = browser
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:       users,
		sessions:    sessions,
		rememberTTL: DefaultRememberTTL,
		browserTTL:  DefaultBrowserTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new user. The password is stored as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, username, email, password, confirm string) (*domain.User, error) {
	if password != confirm {
		return nil, domain.Validation(msgPasswordMismatch)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict(msgUsernameTaken)
	}

	existing, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict(msgEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, username, email, string(hash))
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, domain.Conflict(msgEmailTaken)
	}
	return user, err
}

// Login authenticates by email and password and creates a session.
// remember selects the long-lived window.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*SessionGrant, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user.ID, remember)
}

// LoginWithEmail creates a session for a user already authenticated by an
// identity provider, provisioning the user on first sight.
func (s *AuthService) LoginWithEmail(ctx context.Context, email string) (*SessionGrant, error) {
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Empty hash: such users cannot log in with a password.
		user, err = s.users.Create(ctx, usernameFromEmail(email), email, "")
		if errors.Is(err, domain.ErrEmailTaken) {
			user, err = s.users.GetByEmail(ctx, email)
		}
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
	}
	return s.startSession(ctx, user.ID, false)
}

func (s *AuthService) startSession(ctx context.Context, userID int64, remember bool) (*SessionGrant, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	ttl := s.browserTTL
	if remember {
		ttl = s.rememberTTL
	}
	now := s.now()
	sess := domain.Session{
		Token:      token,
		UserID:     userID,
		Persistent: remember,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	return &SessionGrant{Token: token, ExpiresAt: sess.ExpiresAt, Persistent: remember}, nil
}

// Logout invalidates a session. An empty token is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// ValidateSession resolves a session token to its user. Sessions that are
// expired or whose user has disappeared are deleted.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrUserNotFound
	}

	return user, nil
}

// PurgeExpiredSessions removes expired sessions from the store.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

func usernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
