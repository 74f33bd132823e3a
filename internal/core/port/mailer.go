package port

import "context"

// EmailMessage carries a single outbound email.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers transactional email through a configured provider.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// CaptchaVerifier validates a client-supplied captcha token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}
