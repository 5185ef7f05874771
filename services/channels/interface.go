package channels

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a channel whose provider credentials are missing.
var ErrNotConfigured = errors.New("channel not configured")

// SMSSender delivers a text message and returns the provider message id.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// EmailMessage is a multipart email with a plain-text and an HTML body.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers an email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}
