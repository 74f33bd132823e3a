package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/infra/config"
	"github.com/arklim/smart-grocery-api/internal/infra/logger"
	"github.com/arklim/smart-grocery-api/internal/infra/security"
	"github.com/arklim/smart-grocery-api/internal/repository"
)

// AuthService coordinates registration, login, and session token resolution.
type AuthService struct {
	cfg               *config.AppConfig
	users             port.UserRepository
	tokens            *security.TokenService
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
	now               func() time.Time
	sessionTTL        time.Duration
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg *config.AppConfig, users port.UserRepository, tokens *security.TokenService, events port.EventPublisher, validator *security.PasswordValidator, log *zap.Logger) *AuthService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	sessionTTL := cfg.Auth.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = time.Hour
	}

	return &AuthService{
		cfg:               cfg,
		users:             users,
		tokens:            tokens,
		events:            events,
		passwordValidator: validator,
		logger:            log,
		now:               time.Now,
		sessionTTL:        sessionTTL,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register creates a password-backed account. Emails are stored lowercase so
// lookups are case-insensitive.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNewPasswordInvalid, err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user, err := s.users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.events != nil {
		event := domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Email:        user.Email,
			RegisteredAt: now,
			Method:       "password",
		}
		if err := s.events.PublishUserRegistered(ctx, event); err != nil {
			s.logger.Warn("publish user registered event failed", zap.Error(err))
		}
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	return user, nil
}

// Login validates credentials and issues a session token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return "", nil, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		s.logger.Error("Stored password hash failed to decode", zap.Int64("user_id", user.ID), zap.Error(err))
		return "", nil, ErrInvalidCredentials
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, security.PurposeSession, s.sessionTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issue session token: %w", err)
	}

	return token, user, nil
}

// ResolveToken validates a session token and loads its account. Tokens minted
// before the account's last password change are rejected.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Validate(token, security.PurposeSession)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.PasswordChangedAt != nil && claims.IssuedAt != nil {
		// iat has second precision, so truncate before comparing.
		if claims.IssuedAt.Time.Before(user.PasswordChangedAt.UTC().Truncate(time.Second)) {
			return nil, ErrInvalidCredentials
		}
	}

	return user, nil
}

// NormalizeEmail lowercases and validates an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmailInvalid
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrEmailInvalid
	}

	return email, nil
}
