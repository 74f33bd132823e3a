package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/infra/config"
	"github.com/arklim/smart-grocery-api/internal/infra/logger"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendMailer delivers email through the Resend HTTP API.
type ResendMailer struct {
	httpClient *http.Client
	apiKey     string
	fromEmail  string
	fromName   string
	logger     *zap.Logger
}

// NewResendMailer builds a mailer over the Resend REST endpoint.
func NewResendMailer(cfg config.EmailSettings, log *zap.Logger) *ResendMailer {
	return &ResendMailer{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     cfg.ResendKey,
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		logger:     log,
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send posts a single message to the Resend API.
func (m *ResendMailer) Send(ctx context.Context, msg port.EmailMessage) error {
	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	body, err := json.Marshal(resendRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call resend api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend api status %d: %s", resp.StatusCode, detail)
	}

	m.logger.Info("Email sent",
		zap.String("provider", "resend"),
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
	)

	return nil
}

var _ port.Mailer = (*ResendMailer)(nil)
