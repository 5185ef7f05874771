package models

import "time"

const NotificationStatusSent = "sent"

// Notification records that a reminder event was raised for a medication.
type Notification struct {
	ID           string    `bson:"id" json:"id"`
	MedicationID string    `bson:"medicationId" json:"medicationId"`
	UserID       string    `bson:"userId" json:"userId"`
	IntakeTimeID string    `bson:"intakeTimeId" json:"intakeTimeId"`
	Message      string    `bson:"message" json:"message"`
	Status       string    `bson:"status" json:"status"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// NotificationLog is an append-only entry linked to a Notification.
// Status reflects the reminder event, not per-channel delivery.
type NotificationLog struct {
	ID             string    `bson:"id" json:"id"`
	NotificationID string    `bson:"notificationId" json:"notificationId"`
	Status         string    `bson:"status" json:"status"`
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}

// NotificationWithLogs is the read model served by the ops API.
type NotificationWithLogs struct {
	Notification `bson:",inline"`
	Logs         []NotificationLog `bson:"logs" json:"logs"`
}
