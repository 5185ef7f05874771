package channels

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds SMTP credentials, e.g. a Gmail app password.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) configured() bool {
	return c.Host != "" && c.Port > 0 && c.From != ""
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPEmail sends multipart email over SMTP with gomail.
type SMTPEmail struct {
	dialer mailDialer
	from   string
	logger *zap.Logger
}

func NewSMTPEmail(cfg SMTPConfig, logger *zap.Logger) *SMTPEmail {
	e := &SMTPEmail{from: cfg.From, logger: logger}
	if !cfg.configured() {
		logger.Warn("smtp settings missing; email reminders disabled")
		return e
	}
	e.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return e
}

func buildMessage(from string, msg EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}

// SendEmail dials, sends and hangs up. gomail has no context support, so
// cancellation abandons the SMTP session.
func (e *SMTPEmail) SendEmail(ctx context.Context, msg EmailMessage) error {
	if e.dialer == nil {
		return ErrNotConfigured
	}

	m := buildMessage(e.from, msg)
	done := make(chan error, 1)
	go func() { done <- e.dialer.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		e.logger.Debug("email sent", zap.String("to", msg.To))
		return nil
	}
}
