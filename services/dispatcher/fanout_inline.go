package dispatcher

import (
	"context"
	"fmt"
	"time"

	"medminder/services/channels"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

const DefaultChannelTimeout = 15 * time.Second

// InlineFanout calls the channels from inside the tick. SMS and email run
// concurrently and each gets its own deadline.
type InlineFanout struct {
	sms     channels.SMSSender
	email   channels.EmailSender
	timeout time.Duration
	logger  *zap.Logger
}

func NewInlineFanout(sms channels.SMSSender, email channels.EmailSender, timeout time.Duration, logger *zap.Logger) *InlineFanout {
	if timeout <= 0 {
		timeout = DefaultChannelTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InlineFanout{sms: sms, email: email, timeout: timeout, logger: logger}
}

func (f *InlineFanout) Deliver(ctx context.Context, d Delivery) []ChannelResult {
	wantSMS, wantEmail := wantedChannels(d.User)

	var smsRes, emailRes *ChannelResult
	var wg conc.WaitGroup
	if wantSMS {
		smsRes = &ChannelResult{Channel: ChannelSMS}
		wg.Go(func() {
			*smsRes = f.guard(ctx, ChannelSMS, func(ctx context.Context) (string, error) {
				if f.sms == nil {
					return "", channels.ErrNotConfigured
				}
				return f.sms.SendSMS(ctx, d.User.PhoneNumber, channels.SMSReminderBody(d.Medication))
			})
		})
	}
	if wantEmail {
		emailRes = &ChannelResult{Channel: ChannelEmail}
		wg.Go(func() {
			*emailRes = f.guard(ctx, ChannelEmail, func(ctx context.Context) (string, error) {
				if f.email == nil {
					return "", channels.ErrNotConfigured
				}
				msg, err := channels.EmailReminder(d.User, d.Medication)
				if err != nil {
					return "", err
				}
				return "", f.email.SendEmail(ctx, msg)
			})
		})
	}
	wg.Wait()

	var results []ChannelResult
	for _, r := range []*ChannelResult{smsRes, emailRes} {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

// guard runs one channel call under its own timeout and turns a panic into
// an error result.
func (f *InlineFanout) guard(ctx context.Context, ch Channel, call func(context.Context) (string, error)) ChannelResult {
	res := ChannelResult{Channel: ch}
	var pc panics.Catcher
	pc.Try(func() {
		cctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		res.MessageID, res.Err = call(cctx)
	})
	if r := pc.Recovered(); r != nil {
		f.logger.Error("Channel call panicked", zap.String("channel", string(ch)), zap.Any("panic", r.Value))
		res.MessageID = ""
		res.Err = fmt.Errorf("%s channel: %w", ch, r.AsError())
	}
	return res
}
