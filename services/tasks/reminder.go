package tasks

import (
	"encoding/json"
	"fmt"

	"medminder/models"

	"github.com/hibiken/asynq"
)

const (
	TypeReminderSMS   = "reminder:sms"
	TypeReminderEmail = "reminder:email"

	// QueueReminders is the asynq queue channel deliveries are enqueued on.
	QueueReminders = "reminders"
)

// NewReminderTask wraps a channel delivery as an asynq task of the given type.
func NewReminderTask(taskType string, payload models.ReminderPayload, maxRetry int) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(taskType, b)
	opts := []asynq.Option{
		asynq.Queue(QueueReminders),
		asynq.MaxRetry(maxRetry),
	}

	return task, opts, nil
}

// ParseReminderPayload decodes a task built by NewReminderTask.
func ParseReminderPayload(t *asynq.Task) (models.ReminderPayload, error) {
	var p models.ReminderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	return p, nil
}
