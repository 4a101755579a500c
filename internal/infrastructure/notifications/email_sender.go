package notifications

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/pkg/config"
)

const senderName = "ServiceHub"

// mailDialer is satisfied by *gomail.Dialer
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPEmailSender sends transactional email over SMTP
type SMTPEmailSender struct {
	dialer mailDialer
	from   string
}

// NewSMTPEmailSender creates a sender from mail configuration
func NewSMTPEmailSender(cfg config.MailConfig) (*SMTPEmailSender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("SMTP_USER and SMTP_PASSWORD must be set")
	}
	return &SMTPEmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Send delivers msg, giving up when ctx is done. An abandoned SMTP session
// finishes in the background.
func (s *SMTPEmailSender) Send(ctx context.Context, msg entities.EmailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("email recipient is empty")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, senderName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send email: %w", ctx.Err())
	}
}
