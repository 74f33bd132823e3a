package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/infra/logger"
)

// LogMailer writes messages to the log instead of delivering them. It is the
// default provider for development environments.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a mailer that only logs.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

// Send logs the message envelope; bodies are omitted since reset links are secrets.
func (m *LogMailer) Send(_ context.Context, msg port.EmailMessage) error {
	m.logger.Info("Email suppressed (log provider)",
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
		zap.Int("text_bytes", len(msg.Text)),
	)
	return nil
}

var _ port.Mailer = (*LogMailer)(nil)
