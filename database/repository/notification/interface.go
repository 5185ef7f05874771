package notificationRepo

import (
	"context"

	"medminder/models"
)

// NotificationRepository persists reminder events.
type NotificationRepository interface {
	// RecordReminder inserts the notification and one linked log entry with
	// the same status. The returned log carries the generated ids.
	RecordReminder(ctx context.Context, n *models.Notification) (*models.NotificationLog, error)
	// ListByMedication returns the most recent notifications for a medication
	// with their log entries, newest first.
	ListByMedication(ctx context.Context, medicationID string, limit int64) ([]models.NotificationWithLogs, error)
}
