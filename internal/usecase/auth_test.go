package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/infra/config"
	"github.com/arklim/smart-grocery-api/internal/infra/security"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

type userRepoMock struct {
	byID      map[int64]domain.User
	byEmail   map[string]domain.User
	nextID    int64
	createErr error

	updatedPasswordID   int64
	updatedPasswordHash string
	updatedPasswordAt   time.Time

	resetID     int64
	resetHash   string
	resetJTI    string
	resetErr    error
	consumedJTI map[string]bool
}

func newUserRepoMock() *userRepoMock {
	return &userRepoMock{
		byID:        make(map[int64]domain.User),
		byEmail:     make(map[string]domain.User),
		nextID:      1,
		consumedJTI: make(map[string]bool),
	}
}

func (m *userRepoMock) add(user domain.User) domain.User {
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
	return user
}

func (m *userRepoMock) Create(_ context.Context, user domain.User) (*domain.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, exists := m.byEmail[user.Email]; exists {
		return nil, repository.ErrDuplicate
	}
	created := m.add(user)
	return &created, nil
}

func (m *userRepoMock) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if user, ok := m.byID[id]; ok {
		u := user
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := m.byEmail[email]; ok {
		u := user
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) UpdateProfile(_ context.Context, id int64, name, picture *string) (*domain.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if name != nil {
		user.Name = name
	}
	if picture != nil {
		user.Picture = picture
	}
	m.byID[id] = user
	m.byEmail[user.Email] = user
	return &user, nil
}

func (m *userRepoMock) UpdatePassword(_ context.Context, id int64, passwordHash string, changedAt time.Time) error {
	user, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.updatedPasswordID = id
	m.updatedPasswordHash = passwordHash
	m.updatedPasswordAt = changedAt
	user.PasswordHash = &passwordHash
	user.PasswordChangedAt = &changedAt
	m.byID[id] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *userRepoMock) ResetPassword(_ context.Context, id int64, passwordHash, jti string, _ time.Time) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	if m.consumedJTI[jti] {
		return repository.ErrTokenConsumed
	}
	user, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.consumedJTI[jti] = true
	m.resetID = id
	m.resetHash = passwordHash
	m.resetJTI = jti
	user.PasswordHash = &passwordHash
	m.byID[id] = user
	m.byEmail[user.Email] = user
	return nil
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App: config.AppSettings{
			Name:    "smart-grocery-api",
			Env:     "test",
			BaseURL: "http://localhost:5173",
		},
		Auth: config.AuthSettings{
			Secret:        "unit-test-secret-key-for-signing!",
			SessionTTL:    time.Hour,
			ResetTokenTTL: 30 * time.Minute,
		},
		RateLimit: config.RateLimitSettings{
			ForgotIPMax:    3,
			ForgotEmailMax: 3,
			ForgotWindow:   15 * time.Minute,
		},
	}
}

func newTestTokenService(t *testing.T) *security.TokenService {
	t.Helper()

	tokens, err := security.NewTokenService("unit-test-secret-key-for-signing!", "grocery-test")
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return tokens
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newUserRepoMock()
	svc := NewAuthService(testConfig(), repo, newTestTokenService(t), nil, nil, nil)

	user, err := svc.Register(context.Background(), "Alice@Example.com", "C0mplex!Passphrase#2025")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.PasswordHash == nil || *user.PasswordHash == "C0mplex!Passphrase#2025" {
		t.Fatal("expected password to be stored hashed")
	}

	token, loggedIn, err := svc.Login(context.Background(), "ALICE@example.com", "C0mplex!Passphrase#2025")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, loggedIn.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newUserRepoMock()
	svc := NewAuthService(testConfig(), repo, newTestTokenService(t), nil, nil, nil)

	if _, err := svc.Register(context.Background(), "alice@example.com", "C0mplex!Passphrase#2025"); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}
	if _, err := svc.Register(context.Background(), "alice@example.com", "An0ther!Passphrase#2025"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	repo := newUserRepoMock()
	svc := NewAuthService(testConfig(), repo, newTestTokenService(t), nil, nil, nil)

	if _, err := svc.Register(context.Background(), "not-an-email", "C0mplex!Passphrase#2025"); !errors.Is(err, ErrEmailInvalid) {
		t.Fatalf("expected ErrEmailInvalid, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob@example.com", "password"); !errors.Is(err, ErrNewPasswordInvalid) {
		t.Fatalf("expected ErrNewPasswordInvalid, got %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	repo := newUserRepoMock()
	svc := NewAuthService(testConfig(), repo, newTestTokenService(t), nil, nil, nil)

	if _, err := svc.Register(context.Background(), "alice@example.com", "C0mplex!Passphrase#2025"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	external := "google-oauth2|12345"
	repo.add(domain.User{Email: "sso@example.com", ExternalSub: &external})

	corrupt := "not-an-argon2-hash"
	repo.add(domain.User{Email: "corrupt@example.com", PasswordHash: &corrupt})

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "C0mplex!Passphrase#2025"},
		{"wrong password", "alice@example.com", "wrong-password-entirely"},
		{"empty password", "alice@example.com", ""},
		{"passwordless account", "sso@example.com", "C0mplex!Passphrase#2025"},
		{"malformed email", "not-an-email", "C0mplex!Passphrase#2025"},
		{"corrupt stored hash", "corrupt@example.com", "C0mplex!Passphrase#2025"},
	}

	for _, tc := range cases {
		if _, _, err := svc.Login(context.Background(), tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", tc.name, err)
		}
	}
}

func TestResolveTokenRoundTrip(t *testing.T) {
	repo := newUserRepoMock()
	svc := NewAuthService(testConfig(), repo, newTestTokenService(t), nil, nil, nil)

	if _, err := svc.Register(context.Background(), "alice@example.com", "C0mplex!Passphrase#2025"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "alice@example.com", "C0mplex!Passphrase#2025")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	resolved, err := svc.ResolveToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ResolveToken returned error: %v", err)
	}
	if resolved.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, resolved.ID)
	}
}

func TestResolveTokenRejectedAfterPasswordChange(t *testing.T) {
	repo := newUserRepoMock()
	tokens := newTestTokenService(t)
	svc := NewAuthService(testConfig(), repo, tokens, nil, nil, nil)

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens.WithClock(func() time.Time { return issuedAt })
	svc.WithClock(func() time.Time { return issuedAt })

	if _, err := svc.Register(context.Background(), "alice@example.com", "C0mplex!Passphrase#2025"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "alice@example.com", "C0mplex!Passphrase#2025")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	changedAt := issuedAt.Add(5 * time.Minute)
	if err := repo.UpdatePassword(context.Background(), user.ID, "new-hash", changedAt); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}

	tokens.WithClock(func() time.Time { return changedAt.Add(time.Minute) })

	if _, err := svc.ResolveToken(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials after password change, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Alice@Example.COM ")
	if err != nil {
		t.Fatalf("NormalizeEmail returned error: %v", err)
	}
	if got != "alice@example.com" {
		t.Fatalf("expected alice@example.com, got %q", got)
	}

	for _, bad := range []string{"", "   ", "plain", "a b@example.com", "Alice <alice@example.com>"} {
		if _, err := NormalizeEmail(bad); !errors.Is(err, ErrEmailInvalid) {
			t.Fatalf("expected ErrEmailInvalid for %q, got %v", bad, err)
		}
	}
}
