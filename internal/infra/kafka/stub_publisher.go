package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, userID int64, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Int64("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs grocery.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"email":         event.Email,
		"registered_at": event.RegisteredAt,
		"method":        event.Method,
		"metadata":      event.Metadata,
	}
	p.logEvent("grocery.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishPasswordChanged logs grocery.user.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"changed_at": event.ChangedAt,
		"source":     event.Source,
		"metadata":   event.Metadata,
	}
	p.logEvent("grocery.user.password.changed", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishPasswordResetRequested logs grocery.user.password.reset_requested events.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := map[string]any{
		"request_id":   event.RequestID,
		"requested_at": event.RequestedAt,
		"masked_email": event.MaskedEmail,
		"expires_at":   event.ExpiresAt,
		"ip_address":   event.IPAddress,
		"metadata":     event.Metadata,
	}
	p.logEvent("grocery.user.password.reset_requested", event.UserID, event.RequestedAt, payload)
	return nil
}

// PublishListShared logs grocery.list.shared events.
func (p *StubPublisher) PublishListShared(_ context.Context, event domain.ListSharedEvent) error {
	payload := map[string]any{
		"list_id":   event.ListID,
		"owner_id":  event.OwnerID,
		"role":      event.Role,
		"shared_at": event.SharedAt,
		"metadata":  event.Metadata,
	}
	p.logEvent("grocery.list.shared", event.UserID, event.SharedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
