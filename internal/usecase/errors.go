package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates an account with the email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrEmailInvalid indicates the email address failed validation.
	ErrEmailInvalid = errors.New("invalid email address")
	// ErrUserNotFound indicates the referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrListNotFound indicates the list does not exist or the caller cannot see it.
	ErrListNotFound = errors.New("list not found")
	// ErrItemNotFound indicates the item does not exist or the caller cannot see it.
	ErrItemNotFound = errors.New("item not found")
	// ErrShareNotFound indicates the share does not exist on the list.
	ErrShareNotFound = errors.New("share not found")
	// ErrSelfShare indicates an owner attempted to share a list with themselves.
	ErrSelfShare = errors.New("cannot share a list with its owner")
	// ErrInvalidRole indicates the requested share role is not grantable.
	ErrInvalidRole = errors.New("invalid share role")
	// ErrResetTokenInvalid indicates the reset token is malformed, expired, or already used.
	ErrResetTokenInvalid = errors.New("password reset token invalid")
	// ErrCaptchaFailed indicates the captcha challenge was rejected.
	ErrCaptchaFailed = errors.New("captcha verification failed")
	// ErrCurrentPasswordRequired indicates the change request omitted the current password.
	ErrCurrentPasswordRequired = errors.New("current password is required")
	// ErrCurrentPasswordInvalid indicates the supplied current password did not match.
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
	// ErrNewPasswordInvalid indicates the proposed password failed policy validation.
	ErrNewPasswordInvalid = errors.New("new password rejected by policy")
)

// RateLimitExceededError reports a sliding-window rejection with the scope
// that tripped and how long the caller should wait before retrying.
type RateLimitExceededError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitExceededError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Scope, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded for %s", e.Scope)
}
