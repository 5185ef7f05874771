package models

// DueIntake is one intake time matching the evaluated time of day, joined to
// its medication, the medication's owner and its notification settings.
// Medication or User is nil when the referenced document is missing.
type DueIntake struct {
	IntakeTime IntakeTime
	Medication *Medication
	User       *User
	Settings   []NotificationSetting
}

// ReminderPayload is the body of a queued channel delivery task.
type ReminderPayload struct {
	NotificationID string `json:"notificationId"`
	MedicationID   string `json:"medicationId"`
	UserID         string `json:"userId"`
	To             string `json:"to"`
	Subject        string `json:"subject,omitempty"`
	Body           string `json:"body"`
	HTML           string `json:"html,omitempty"`
}
