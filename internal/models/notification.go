package models

import "time"

// Notification is one entry in a user's feed. Rows are produced elsewhere;
// this service only reads them, marks them read, and relays change signals.
type Notification struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Body           string    `json:"body,omitempty"`
	RefTable       string    `json:"ref_table,omitempty"`
	RefID          *string   `json:"ref_id,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}
