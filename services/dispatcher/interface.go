package dispatcher

import (
	"context"
	"errors"
	"time"

	"medminder/models"
)

// ErrTickInProgress is reported when a tick starts while another is running.
var ErrTickInProgress = errors.New("dispatch tick already in progress")

// DispatchService raises medication reminders that are due now.
type DispatchService interface {
	Tick(ctx context.Context) TickReport
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Channel names a delivery channel.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Delivery is an eligible reminder whose event has been recorded.
type Delivery struct {
	NotificationID string
	Medication     models.Medication
	User           models.User
}

// ChannelResult is the outcome of one channel for one delivery.
type ChannelResult struct {
	Channel   Channel
	MessageID string
	Err       error
}

// Fanout hands a delivery to the channels the user opted into. Implementations
// never let one channel's failure affect another.
type Fanout interface {
	Deliver(ctx context.Context, d Delivery) []ChannelResult
}

// wantedChannels applies the user's per-channel opt-ins.
func wantedChannels(u models.User) (sms, email bool) {
	return u.PhoneNumber != "" && u.SMSNotifications, u.Email != "" && u.EmailNotifications
}
