// Package mail delivers magic-link emails over SMTP using gomail.
package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Sender is the dialing seam. Tests inject a recorder instead of a real
// SMTP connection; *gomail.Dialer satisfies it directly.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends magic-link emails through an SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	sender Sender
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewSMTPMailerWithSender builds a mailer with a custom Sender. Used by
// tests.
func NewSMTPMailerWithSender(cfg SMTPConfig, sender Sender) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, sender: sender}
}

// SendMagicLink emails the sign-in link to the given address. The
// context is accepted for interface symmetry; gomail's dialer does not
// support cancellation mid-send.
func (m *SMTPMailer) SendMagicLink(_ context.Context, to, link string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your sign-in link")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Click the link below to sign in. It can be used once and expires shortly.\n\n%s\n\nIf you did not request this, you can ignore this email.\n", link))
	msg.AddAlternative("text/html", fmt.Sprintf(
		`<p>Click the link below to sign in. It can be used once and expires shortly.</p><p><a href="%s">Sign in</a></p><p>If you did not request this, you can ignore this email.</p>`, link))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send magic link email: %w", err)
	}
	return nil
}
