package models

import "time"

// Roles stored on profile rows. Membership tests are exact string matches.
const (
	RoleUser    = "user"
	RoleSwahiba = "swahiba"
	RoleAdmin   = "admin"
)

// Profile is the persisted identity record behind a principal.
type Profile struct {
	UserID    string    `json:"user_id"`
	DeviceID  *string   `json:"device_id,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Role      string    `json:"role"`
	Banned    bool      `json:"banned"`
	CreatedAt time.Time `json:"created_at"`
}
