// models/user.go
package models

import "time"

// User represents a patient with their per-channel notification opt-ins.
type User struct {
	ID                 string    `bson:"id" json:"id"`
	Name               string    `bson:"name" json:"name"`
	Email              string    `bson:"email" json:"email"`
	PhoneNumber        string    `bson:"phoneNumber" json:"phoneNumber"`
	EmailNotifications bool      `bson:"emailNotifications" json:"emailNotifications"`
	SMSNotifications   bool      `bson:"smsNotifications" json:"smsNotifications"`
	Verified           bool      `bson:"verified" json:"verified"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}
