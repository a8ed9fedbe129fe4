package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"travelbuddy/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, email, passwordHash)
	}
	return &domain.User{ID: 1, Username: username, Email: email, PasswordHash: passwordHash}, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, s domain.Session) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s domain.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestAuthService_Register_StoresHash(t *testing.T) {
	ctx := context.Background()
	var stored string

	users := &mockUserRepo{
		createFn: func(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
			stored = passwordHash
			return &domain.User{ID: 7, Username: username, Email: email, PasswordHash: passwordHash}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{})

	user, err := svc.Register(ctx, "alice", "a@x.com", "p1", "p1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID != 7 {
		t.Errorf("expected id 7, got %d", user.ID)
	}
	if stored == "" || stored == "p1" {
		t.Fatalf("expected a hash to be stored, got %q", stored)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte("p1")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Failures(t *testing.T) {
	existing := &domain.User{ID: 1, Username: "alice", Email: "a@x.com"}

	tests := []struct {
		name     string
		users    *mockUserRepo
		username string
		email    string
		password string
		confirm  string
		wantKind domain.Kind
		wantMsg  string
	}{
		{
			name:     "password mismatch",
			users:    &mockUserRepo{},
			username: "alice", email: "a@x.com", password: "p1", confirm: "p2",
			wantKind: domain.KindValidation,
			wantMsg:  "Passwords do not match",
		},
		{
			name: "username taken",
			users: &mockUserRepo{
				getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
					return existing, nil
				},
			},
			username: "alice", email: "new@x.com", password: "p1", confirm: "p1",
			wantKind: domain.KindConflict,
			wantMsg:  "Username already exists",
		},
		{
			name: "email taken regardless of username",
			users: &mockUserRepo{
				getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
					return existing, nil
				},
			},
			username: "bob", email: "a@x.com", password: "p1", confirm: "p1",
			wantKind: domain.KindConflict,
			wantMsg:  "Email already exists",
		},
		{
			name: "email taken at write time",
			users: &mockUserRepo{
				createFn: func(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
					return nil, domain.ErrEmailTaken
				},
			},
			username: "carol", email: "a@x.com", password: "p1", confirm: "p1",
			wantKind: domain.KindConflict,
			wantMsg:  "Email already exists",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			created := false
			if tc.users.createFn == nil {
				tc.users.createFn = func(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
					created = true
					return &domain.User{ID: 1}, nil
				}
			}
			svc := NewAuthService(tc.users, &mockSessionRepo{})

			_, err := svc.Register(context.Background(), tc.username, tc.email, tc.password, tc.confirm)
			if got := domain.KindOf(err); got != tc.wantKind {
				t.Fatalf("expected kind %q, got %q (%v)", tc.wantKind, got, err)
			}
			if got := domain.MessageOf(err); got != tc.wantMsg {
				t.Errorf("expected message %q, got %q", tc.wantMsg, got)
			}
			if created {
				t.Error("expected no user to be created")
			}
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	hash := hashFor(t, "testpass123")

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email, PasswordHash: hash}, nil
		},
	}

	var created domain.Session
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, s domain.Session) error {
			created = s
			return nil
		},
	}

	svc := NewAuthService(users, sessions, WithClock(func() time.Time { return now }))
	grant, err := svc.Login(ctx, "a@x.com", "testpass123", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if grant.Token == "" || grant.Token != created.Token {
		t.Errorf("expected granted token to match stored session, got %q vs %q", grant.Token, created.Token)
	}
	if created.UserID != 1 {
		t.Errorf("expected userID 1, got %d", created.UserID)
	}
	if grant.Persistent || created.Persistent {
		t.Error("expected a browser-scoped session")
	}
	if want := now.Add(DefaultBrowserTTL); !created.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, created.ExpiresAt)
	}
}

func TestAuthService_Login_RememberMe(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	hash := hashFor(t, "pw")
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 3, Email: email, PasswordHash: hash}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{}, WithClock(func() time.Time { return now }))
	grant, err := svc.Login(context.Background(), "a@x.com", "pw", true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !grant.Persistent {
		t.Error("expected persistent session")
	}
	if want := now.Add(30 * 24 * time.Hour); !grant.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, grant.ExpiresAt)
	}
	if !grant.ExpiresAt.After(now.Add(DefaultBrowserTTL)) {
		t.Error("remember-me session should outlive a browser session")
	}
}

func TestAuthService_Login_CustomTTLs(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	hash := hashFor(t, "pw")
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 3, Email: email, PasswordHash: hash}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{},
		WithClock(func() time.Time { return now }),
		WithSessionTTLs(48*time.Hour, 0),
	)
	grant, err := svc.Login(context.Background(), "a@x.com", "pw", true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if want := now.Add(48 * time.Hour); !grant.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, grant.ExpiresAt)
	}
	if svc.browserTTL != DefaultBrowserTTL {
		t.Errorf("expected default browser ttl to be kept, got %v", svc.browserTTL)
	}
}

func TestAuthService_Login_EnumerationResistant(t *testing.T) {
	hash := hashFor(t, "correctpass")
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			if email == "known@x.com" {
				return &domain.User{ID: 1, Email: email, PasswordHash: hash}, nil
			}
			return nil, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{})

	_, wrongPassword := svc.Login(context.Background(), "known@x.com", "wrongpass", false)
	_, unknownEmail := svc.Login(context.Background(), "nobody@x.com", "whatever", false)

	if wrongPassword != ErrInvalidCredentials || unknownEmail != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongPassword, unknownEmail)
	}
	if domain.MessageOf(wrongPassword) != domain.MessageOf(unknownEmail) {
		t.Errorf("messages differ: %q vs %q", domain.MessageOf(wrongPassword), domain.MessageOf(unknownEmail))
	}
	if domain.KindOf(wrongPassword) != domain.KindAuth {
		t.Errorf("expected auth kind, got %q", domain.KindOf(wrongPassword))
	}
}

func TestAuthService_Login_PasswordlessUserRejected(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{})
	if _, err := svc.Login(context.Background(), "sso@x.com", "", false); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_StoreFailureIsNotCredentialsError(t *testing.T) {
	storeErr := errors.New("db: connection refused")
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return nil, storeErr
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "a@x.com", "pw", false)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if kind := domain.KindOf(err); kind != "" {
		t.Errorf("expected an infrastructure error, got kind %q", kind)
	}

	// The flow surfaces it as an error, not as a failed login page.
	site := NewSite(svc, nil, nil, nil, nil)
	res, err := site.Login(context.Background(), LoginForm{Email: "a@x.com", Password: "pw"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected Site.Login to return the store error, got %v", err)
	}
	if res.Kind == Failed {
		t.Errorf("expected no failed result, got %+v", res.Failure)
	}
}

func TestAuthService_ValidateSession_Valid(t *testing.T) {
	ctx := context.Background()
	token := "validtoken"

	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    1,
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil
		},
	}

	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "testuser"}, nil
		},
	}

	svc := NewAuthService(users, sessions)
	user, err := svc.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %s", user.Username)
	}
}

func TestAuthService_ValidateSession_Missing(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{})

	if _, err := svc.ValidateSession(context.Background(), ""); err != ErrSessionNotFound {
		t.Errorf("empty token: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.ValidateSession(context.Background(), "unknown"); err != ErrSessionNotFound {
		t.Errorf("unknown token: expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	ctx := context.Background()
	token := "expiredtoken"

	deleted := false
	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    1,
				ExpiresAt: time.Now().Add(-1 * time.Hour),
			}, nil
		},
		deleteFn: func(ctx context.Context, tok string) error {
			deleted = true
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions)
	_, err := svc.ValidateSession(ctx, token)
	if err != ErrSessionExpired {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	if !deleted {
		t.Error("expected session to be deleted")
	}
}

func TestAuthService_ValidateSession_DeletedUserSelfHeals(t *testing.T) {
	deletedToken := ""
	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{Token: tok, UserID: 99, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
		deleteFn: func(ctx context.Context, tok string) error {
			deletedToken = tok
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions)
	_, err := svc.ValidateSession(context.Background(), "orphan")
	if err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if deletedToken != "orphan" {
		t.Errorf("expected orphaned session to be deleted, got %q", deletedToken)
	}
}

func TestAuthService_Logout(t *testing.T) {
	calls := 0
	sessions := &mockSessionRepo{
		deleteFn: func(ctx context.Context, tok string) error {
			calls++
			return nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no delete for empty token, got %d", calls)
	}
	if err := svc.Logout(context.Background(), "tok"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one delete, got %d", calls)
	}
}

func TestAuthService_LoginWithEmail_ProvisionsUser(t *testing.T) {
	var createdName, createdHash string
	users := &mockUserRepo{
		createFn: func(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
			createdName, createdHash = username, passwordHash
			return &domain.User{ID: 5, Username: username, Email: email}, nil
		},
	}
	var session domain.Session
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, s domain.Session) error {
			session = s
			return nil
		},
	}

	svc := NewAuthService(users, sessions)
	grant, err := svc.LoginWithEmail(context.Background(), "sso.user@example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if createdName != "sso.user" {
		t.Errorf("expected username derived from email, got %q", createdName)
	}
	if createdHash != "" {
		t.Errorf("expected empty password hash, got %q", createdHash)
	}
	if session.UserID != 5 || grant.Token != session.Token {
		t.Errorf("unexpected session %+v for grant %+v", session, grant)
	}
}

func TestAuthService_LoginWithEmail_ExistingUser(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 2, Email: email}, nil
		},
		createFn: func(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
			t.Error("did not expect user creation")
			return nil, errors.New("unexpected")
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{})
	if _, err := svc.LoginWithEmail(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.LoginWithEmail(context.Background(), ""); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for empty email, got %v", err)
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	a, err := generateToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generateToken()
	if a == b {
		t.Error("expected distinct tokens")
	}
	if strings.ContainsAny(a, "+/") {
		t.Errorf("expected URL-safe token, got %q", a)
	}
}
