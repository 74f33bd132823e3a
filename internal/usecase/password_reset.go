package usecase

import (
	"context"
	"errors"
	"fmt"
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

const (
	forgotIPScope    = "forgot_ip"
	forgotEmailScope = "forgot_email"

	defaultResetTTL    = 30 * time.Minute
	mailDeliveryBudget = 10 * time.Second

	passwordSourceChange = "change"
	passwordSourceReset  = "reset"
)

// PasswordResetService coordinates the forgot/reset flow and authenticated
// password changes.
type PasswordResetService struct {
	cfg               *config.AppConfig
	users             port.UserRepository
	tokens            *security.TokenService
	rateLimits        port.RateLimitStore
	events            port.EventPublisher
	mailer            port.Mailer
	captcha           port.CaptchaVerifier
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
	now               func() time.Time
	resetTTL          time.Duration
}

// ResetRequestInput captures a forgot-password submission.
type ResetRequestInput struct {
	Email        string
	CaptchaToken string
	IP           string
	UserAgent    string
}

// ResetRequestResult reports the outcome of a forgot-password submission.
// Token and ResetURL are only populated when a reset was actually issued;
// callers must not reveal to the client whether that happened.
type ResetRequestResult struct {
	RequestID string
	Token     string
	ResetURL  string
	ExpiresAt time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(cfg *config.AppConfig, users port.UserRepository, tokens *security.TokenService, rateLimits port.RateLimitStore, events port.EventPublisher, mailer port.Mailer, captcha port.CaptchaVerifier, validator *security.PasswordValidator, log *zap.Logger) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	resetTTL := cfg.Auth.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}

	return &PasswordResetService{
		cfg:               cfg,
		users:             users,
		tokens:            tokens,
		rateLimits:        rateLimits,
		events:            events,
		mailer:            mailer,
		captcha:           captcha,
		passwordValidator: validator,
		logger:            log,
		now:               time.Now,
		resetTTL:          resetTTL,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithTTL allows tests to override the reset token lifetime.
func (s *PasswordResetService) WithTTL(ttl time.Duration) {
	if ttl > 0 {
		s.resetTTL = ttl
	}
}

// RequestReset handles a forgot-password submission. The per-IP gate rejects
// loudly with 429 semantics; everything past it is enumeration-resistant, so
// unknown emails and per-email throttling both produce a success result with
// no token.
func (s *PasswordResetService) RequestReset(ctx context.Context, input ResetRequestInput) (*ResetRequestResult, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if err := s.checkLimit(ctx, forgotIPScope, input.IP, s.cfg.RateLimit.ForgotIPMax, now); err != nil {
		return nil, err
	}

	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, input.CaptchaToken, input.IP); err != nil {
			return nil, ErrCaptchaFailed
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("Password reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)),
				zap.String("ip", logger.MaskIP(input.IP)),
			)
			return &ResetRequestResult{}, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.checkLimit(ctx, forgotEmailScope, email, s.cfg.RateLimit.ForgotEmailMax, now); err != nil {
		// The per-email ceiling stays silent so probing a mailbox's limit
		// cannot confirm the account exists.
		s.logger.Info("Password reset suppressed by per-email limit",
			zap.String("email", logger.MaskEmail(email)),
		)
		return &ResetRequestResult{}, nil
	}

	token, err := s.tokens.Issue(user.ID, security.PurposePasswordReset, s.resetTTL)
	if err != nil {
		return nil, fmt.Errorf("issue reset token: %w", err)
	}

	claims, err := s.tokens.Validate(token, security.PurposePasswordReset)
	if err != nil {
		return nil, fmt.Errorf("inspect reset token: %w", err)
	}

	expiresAt := now.Add(s.resetTTL)
	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", strings.TrimRight(s.cfg.App.BaseURL, "/"), token)

	if s.events != nil {
		var ip *string
		if trimmed := strings.TrimSpace(input.IP); trimmed != "" {
			masked := logger.MaskIP(trimmed)
			ip = &masked
		}
		event := domain.PasswordResetRequestedEvent{
			EventID:     uuid.NewString(),
			UserID:      user.ID,
			RequestID:   claims.ID,
			RequestedAt: now,
			MaskedEmail: logger.MaskEmail(user.Email),
			ExpiresAt:   expiresAt,
			IPAddress:   ip,
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Warn("publish password reset requested event failed", zap.Error(err))
		}
	}

	s.deliverResetEmail(ctx, user, resetURL)

	return &ResetRequestResult{
		RequestID: claims.ID,
		Token:     token,
		ResetURL:  resetURL,
		ExpiresAt: expiresAt,
	}, nil
}

// ConfirmReset redeems a reset token and installs the new password. The jti
// is consumed transactionally, so a replayed token fails even if the first
// redemption happened on another instance.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.Validate(token, security.PurposePasswordReset)
	if err != nil {
		return ErrResetTokenInvalid
	}

	userID, err := claims.UserID()
	if err != nil {
		return ErrResetTokenInvalid
	}

	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrNewPasswordInvalid, err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	tokenExpiry := s.now().UTC().Add(s.resetTTL)
	if claims.ExpiresAt != nil {
		tokenExpiry = claims.ExpiresAt.Time.UTC()
	}

	if err := s.users.ResetPassword(ctx, userID, hash, claims.ID, tokenExpiry); err != nil {
		if errors.Is(err, repository.ErrTokenConsumed) || errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("reset password: %w", err)
	}

	s.publishPasswordChanged(ctx, userID, passwordSourceReset)

	s.logger.Info("Password reset completed", zap.Int64("user_id", userID))

	return nil
}

// ChangePassword updates an authenticated user's password. Accounts that
// already hold a password hash must prove the current one; accounts created
// through an external identity set their first password without it.
func (s *PasswordResetService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.PasswordHash != nil && *user.PasswordHash != "" {
		if strings.TrimSpace(currentPassword) == "" {
			return ErrCurrentPasswordRequired
		}

		ok, err := security.VerifyPassword(currentPassword, *user.PasswordHash)
		if err != nil {
			s.logger.Error("Stored password hash failed to decode", zap.Int64("user_id", userID), zap.Error(err))
			return ErrCurrentPasswordInvalid
		}
		if !ok {
			return ErrCurrentPasswordInvalid
		}
	}

	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrNewPasswordInvalid, err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.publishPasswordChanged(ctx, userID, passwordSourceChange)

	s.logger.Info("Password changed", zap.Int64("user_id", userID))

	return nil
}

// checkLimit enforces one sliding-window scope and records the attempt when
// it passes. Store failures degrade open with a warning.
func (s *PasswordResetService) checkLimit(ctx context.Context, scope, identifier string, limit int, now time.Time) error {
	if s.rateLimits == nil || limit <= 0 {
		return nil
	}

	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" {
		return nil
	}

	window := s.cfg.RateLimit.ForgotWindow
	if window <= 0 {
		window = 15 * time.Minute
	}

	key := scope + ":" + identifier

	if err := s.rateLimits.TrimWindow(ctx, key, window, now); err != nil {
		s.logger.Warn("rate limit trim failed", zap.String("scope", scope), zap.Error(err))
		return nil
	}

	count, err := s.rateLimits.CountAttempts(ctx, key, window, now)
	if err != nil {
		s.logger.Warn("rate limit count failed", zap.String("scope", scope), zap.Error(err))
		return nil
	}

	if count >= limit {
		retryAfter := time.Duration(0)
		if oldest, ok, err := s.rateLimits.OldestAttempt(ctx, key, window, now); err == nil && ok {
			if reset := oldest.Add(window); reset.After(now) {
				retryAfter = reset.Sub(now)
			}
		} else if err != nil {
			s.logger.Warn("rate limit oldest lookup failed", zap.String("scope", scope), zap.Error(err))
		}
		return &RateLimitExceededError{Scope: scope, RetryAfter: retryAfter}
	}

	if err := s.rateLimits.RecordAttempt(ctx, key, now); err != nil {
		s.logger.Warn("rate limit record failed", zap.String("scope", scope), zap.Error(err))
	}

	return nil
}

// deliverResetEmail sends the reset link with a bounded budget. Delivery
// failures are logged and swallowed so the response stays uniform.
func (s *PasswordResetService) deliverResetEmail(ctx context.Context, user *domain.User, resetURL string) {
	if s.mailer == nil {
		return
	}

	mailCtx, cancel := context.WithTimeout(ctx, mailDeliveryBudget)
	defer cancel()

	name := user.Email
	if user.Name != nil && strings.TrimSpace(*user.Name) != "" {
		name = *user.Name
	}

	msg := port.EmailMessage{
		To:      user.Email,
		ToName:  name,
		Subject: "Reset your grocery list password",
		HTML:    resetEmailHTML(name, resetURL, s.resetTTL),
		Text:    resetEmailText(name, resetURL, s.resetTTL),
	}

	if err := s.mailer.Send(mailCtx, msg); err != nil {
		s.logger.Error("password reset email delivery failed",
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}
}

func (s *PasswordResetService) publishPasswordChanged(ctx context.Context, userID int64, source string) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		ChangedAt: s.now().UTC(),
		Source:    source,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed event failed", zap.Error(err))
	}
}

func resetEmailHTML(name, resetURL string, ttl time.Duration) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1>Password reset request</h1>
		<p>Hi %s,</p>
		<p>We received a request to reset your password. Click the button below to choose a new one:</p>
		<p style="text-align: center;">
			<a href="%s" style="display: inline-block; padding: 12px 30px; background-color: #3c8c4e; color: white; text-decoration: none; border-radius: 5px;">Reset password</a>
		</p>
		<p>Or copy and paste this link into your browser:</p>
		<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
		<p><strong>This link expires in %d minutes.</strong></p>
		<p>If you didn't request a password reset, you can safely ignore this email.</p>
	</div>
</body>
</html>`, name, resetURL, resetURL, int(ttl.Minutes()))
}

func resetEmailText(name, resetURL string, ttl time.Duration) string {
	return fmt.Sprintf(`Hi %s,

We received a request to reset your password. Open the link below to choose a new one:
%s

This link expires in %d minutes.

If you didn't request a password reset, you can safely ignore this email.`, name, resetURL, int(ttl.Minutes()))
}
