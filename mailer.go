package ledgerauth

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// SMTPMailer delivers account emails through an SSL SMTP relay. Bodies
// are plain HTML carrying the action link; template rendering is out of
// scope for this backend.
type SMTPMailer struct {
	cfg     MailConfig
	baseURL string
	logger  Logger
}

func NewSMTPMailer(cfg MailConfig, baseURL string) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		baseURL: baseURL,
		logger:  defLogger{},
	}
}

func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, email, username, token string) error {
	link := fmt.Sprintf("%s/api/auth/confirmed_email/%s", m.baseURL, token)
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Please confirm your email by following <a href="%s">this link</a>.</p>`,
		username, link,
	)
	return m.send(ctx, email, "Confirm your email", body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, username, token string) error {
	link := fmt.Sprintf("%s/api/auth/password_reset_confirm/%s", m.baseURL, token)
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>To reset your password follow <a href="%s">this link</a>.</p>`,
		username, link,
	)
	return m.send(ctx, email, "Password reset", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	dialer.SSL = true

	return dialer.DialAndSend(msg)
}

var _ Mailer = (*SMTPMailer)(nil)

type noopMailer struct{}

func (noopMailer) SendConfirmation(context.Context, string, string, string) error { return nil }
func (noopMailer) SendPasswordReset(context.Context, string, string, string) error {
	return nil
}
