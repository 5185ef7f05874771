// File: medminder/models/medication.go
package models

import "time"

// MedicationType enumerates how a medication is taken.
type MedicationType string

const (
	MedicationPills     MedicationType = "pills"
	MedicationSyrup     MedicationType = "syrup"
	MedicationInjection MedicationType = "injection"
)

// Medication is a course of medication owned by a user.
type Medication struct {
	ID           string         `bson:"id" json:"id"`
	UserID       string         `bson:"userId" json:"userId"`
	Name         string         `bson:"name" json:"name"`
	Dosage       string         `bson:"dosage" json:"dosage"`
	Type         MedicationType `bson:"type" json:"type"`
	StartDate    time.Time      `bson:"startDate" json:"startDate"`
	EndDate      time.Time      `bson:"endDate" json:"endDate"`
	Instructions string         `bson:"instructions,omitempty" json:"instructions,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// IntakeTime is one daily dose of a medication, as "HH:mm" with no date part.
type IntakeTime struct {
	ID           string `bson:"id" json:"id"`
	MedicationID string `bson:"medicationId" json:"medicationId"`
	Time         string `bson:"time" json:"time"`
}

// NotificationSetting toggles reminders for a medication.
type NotificationSetting struct {
	ID           string `bson:"id" json:"id"`
	MedicationID string `bson:"medicationId" json:"medicationId"`
	On           bool   `bson:"on" json:"on"`
	Message      string `bson:"message,omitempty" json:"message,omitempty"`
}
