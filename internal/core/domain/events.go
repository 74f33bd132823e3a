package domain

import "time"

// UserRegisteredEvent is emitted after a new account is created.
type UserRegisteredEvent struct {
	EventID      string
	UserID       int64
	Email        string
	RegisteredAt time.Time
	Method       string
	Metadata     map[string]any
}

// PasswordChangedEvent is emitted after a password change or reset completes.
type PasswordChangedEvent struct {
	EventID   string
	UserID    int64
	ChangedAt time.Time
	Source    string
	Metadata  map[string]any
}

// PasswordResetRequestedEvent is emitted when a reset email is queued for delivery.
type PasswordResetRequestedEvent struct {
	EventID     string
	UserID      int64
	RequestID   string
	RequestedAt time.Time
	MaskedEmail string
	ExpiresAt   time.Time
	IPAddress   *string
	Metadata    map[string]any
}

// ListSharedEvent is emitted when a list share is created or its role changes.
type ListSharedEvent struct {
	EventID  string
	ListID   int64
	OwnerID  int64
	UserID   int64
	Role     ShareRole
	SharedAt time.Time
	Metadata map[string]any
}
