package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type capturingSender struct {
	messages []*gomail.Message
	err      error
}

func (s *capturingSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, m...)
	return nil
}

func TestSendMagicLink(t *testing.T) {
	cfg := SMTPConfig{From: "no-reply@lantern.example"}

	t.Run("sets headers and embeds the link", func(t *testing.T) {
		sender := &capturingSender{}
		m := NewSMTPMailerWithSender(cfg, sender)

		err := m.SendMagicLink(context.Background(), "alice@example.com", "https://app.example/verify?token=abc")
		require.NoError(t, err)
		require.Len(t, sender.messages, 1)

		msg := sender.messages[0]
		require.Equal(t, []string{"no-reply@lantern.example"}, msg.GetHeader("From"))
		require.Equal(t, []string{"alice@example.com"}, msg.GetHeader("To"))
		require.NotEmpty(t, msg.GetHeader("Subject"))
	})

	t.Run("wraps dial failures", func(t *testing.T) {
		sender := &capturingSender{err: errors.New("connection refused")}
		m := NewSMTPMailerWithSender(cfg, sender)

		err := m.SendMagicLink(context.Background(), "alice@example.com", "https://app.example/verify?token=abc")
		require.ErrorContains(t, err, "send magic link email")
	})
}
