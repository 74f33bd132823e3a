package port

import (
	"context"
	"time"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
)

// UserRepository exposes persistence behavior for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, name, picture *string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
	// ResetPassword consumes the reset token's jti and updates the password
	// hash in one transaction. A jti that was consumed before yields
	// repository.ErrTokenConsumed and leaves the hash untouched.
	ResetPassword(ctx context.Context, id int64, passwordHash, jti string, tokenExpiry time.Time) error
}
