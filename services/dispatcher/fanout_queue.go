package dispatcher

import (
	"context"
	"fmt"

	"medminder/models"
	"medminder/services/channels"
	"medminder/services/tasks"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the queued fan-out needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueuedFanout turns each wanted channel into an asynq task. The worker
// performs the provider call with retries; MessageID carries the task id.
type QueuedFanout struct {
	client   Enqueuer
	maxRetry int
}

func NewQueuedFanout(client Enqueuer, maxRetry int) *QueuedFanout {
	return &QueuedFanout{client: client, maxRetry: maxRetry}
}

func (f *QueuedFanout) Deliver(ctx context.Context, d Delivery) []ChannelResult {
	wantSMS, wantEmail := wantedChannels(d.User)
	base := models.ReminderPayload{
		NotificationID: d.NotificationID,
		MedicationID:   d.Medication.ID,
		UserID:         d.User.ID,
	}

	var results []ChannelResult
	if wantSMS {
		p := base
		p.To = d.User.PhoneNumber
		p.Body = channels.SMSReminderBody(d.Medication)
		results = append(results, f.enqueue(ctx, ChannelSMS, tasks.TypeReminderSMS, p))
	}
	if wantEmail {
		res := ChannelResult{Channel: ChannelEmail}
		msg, err := channels.EmailReminder(d.User, d.Medication)
		if err != nil {
			res.Err = err
			results = append(results, res)
		} else {
			p := base
			p.To = msg.To
			p.Subject = msg.Subject
			p.Body = msg.Text
			p.HTML = msg.HTML
			results = append(results, f.enqueue(ctx, ChannelEmail, tasks.TypeReminderEmail, p))
		}
	}
	return results
}

func (f *QueuedFanout) enqueue(ctx context.Context, ch Channel, taskType string, p models.ReminderPayload) ChannelResult {
	res := ChannelResult{Channel: ch}
	task, opts, err := tasks.NewReminderTask(taskType, p, f.maxRetry)
	if err != nil {
		res.Err = fmt.Errorf("build %s task: %w", taskType, err)
		return res
	}
	info, err := f.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		res.Err = fmt.Errorf("enqueue %s task: %w", taskType, err)
		return res
	}
	res.MessageID = info.ID
	return res
}
