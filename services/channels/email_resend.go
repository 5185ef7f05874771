package channels

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendEmail sends email through the Resend API.
type ResendEmail struct {
	emails resendEmails
	from   string
	logger *zap.Logger
}

func NewResendEmail(apiKey, from string, logger *zap.Logger) *ResendEmail {
	e := &ResendEmail{from: from, logger: logger}
	if apiKey == "" || from == "" {
		logger.Warn("resend settings missing; email reminders disabled")
		return e
	}
	e.emails = resend.NewClient(apiKey).Emails
	return e
}

func (e *ResendEmail) SendEmail(ctx context.Context, msg EmailMessage) error {
	if e.emails == nil {
		return ErrNotConfigured
	}
	sent, err := e.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend send to %s: %w", msg.To, err)
	}
	e.logger.Debug("email sent", zap.String("to", msg.To), zap.String("id", sent.Id))
	return nil
}
