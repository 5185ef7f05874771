package dispatcher

import (
	"fmt"
	"time"

	"medminder/models"
)

// notificationsEnabled reports whether any setting is switched on.
func notificationsEnabled(settings []models.NotificationSetting) bool {
	for _, s := range settings {
		if s.On {
			return true
		}
	}
	return false
}

// calendarDay drops the clock part of t as seen in t's own location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// activeOn reports whether med's course covers the local date of now.
// Start and end dates are date-only values stored at UTC midnight, so their
// UTC calendar date is the one that counts. A zero date leaves that side open.
func activeOn(med models.Medication, now time.Time) bool {
	today := calendarDay(now)
	if !med.StartDate.IsZero() && today.Before(calendarDay(med.StartDate.UTC())) {
		return false
	}
	if !med.EndDate.IsZero() && today.After(calendarDay(med.EndDate.UTC())) {
		return false
	}
	return true
}

// reminderMessage is the text stored with the reminder event: the first
// enabled setting's template, or a default naming the medication.
func reminderMessage(med models.Medication, settings []models.NotificationSetting) string {
	for _, s := range settings {
		if s.On && s.Message != "" {
			return s.Message
		}
	}
	if med.Dosage != "" {
		return fmt.Sprintf("Time to take your medication: %s (%s)", med.Name, med.Dosage)
	}
	return fmt.Sprintf("Time to take your medication: %s", med.Name)
}
