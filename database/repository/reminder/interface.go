package reminderRepo

import (
	"context"

	"medminder/models"
)

// ReminderRepository reads the medication schedule on behalf of the dispatcher.
type ReminderRepository interface {
	// FindDueIntakes returns every intake time whose "HH:mm" value equals one of
	// times, joined to its medication, user and notification settings.
	FindDueIntakes(ctx context.Context, times []string) ([]models.DueIntake, error)
}
