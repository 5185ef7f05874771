package channels

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioConfig holds the Twilio account used for SMS.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (c TwilioConfig) configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// messageCreator is the slice of the Twilio REST API used here.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSMS sends SMS through the Twilio Messages API.
type TwilioSMS struct {
	api    messageCreator
	from   string
	logger *zap.Logger
}

// NewTwilioSMS builds the SMS channel. Without full credentials the channel
// is still returned and reports ErrNotConfigured on every send.
func NewTwilioSMS(cfg TwilioConfig, logger *zap.Logger) *TwilioSMS {
	s := &TwilioSMS{from: cfg.FromNumber, logger: logger}
	if !cfg.configured() {
		logger.Warn("twilio credentials missing; SMS reminders disabled")
		return s
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	s.api = client.Api
	return s
}

// SendSMS normalizes the destination and creates the message. The Twilio
// client has no context support, so cancellation abandons the request.
func (s *TwilioSMS) SendSMS(ctx context.Context, to, body string) (string, error) {
	if s.api == nil {
		return "", ErrNotConfigured
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(NormalizePhone(to))
	params.SetFrom(s.from)
	params.SetBody(body)

	type result struct {
		sid string
		err error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.api.CreateMessage(params)
		if err != nil {
			done <- result{err: fmt.Errorf("twilio create message: %w", err)}
			return
		}
		var sid string
		if resp != nil && resp.Sid != nil {
			sid = *resp.Sid
		}
		done <- result{sid: sid}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("twilio create message: %w", ctx.Err())
	case r := <-done:
		if r.err == nil {
			s.logger.Debug("sms sent", zap.String("sid", r.sid))
		}
		return r.sid, r.err
	}
}
