package models

import "time"

// ServiceRequest is a help request assigned to a swahiba agent. A request is
// open while its status is null or anything other than "closed"; there is no
// positive "open" value.
type ServiceRequest struct {
	RequestID      string    `json:"request_id"`
	SwahibaID      string    `json:"swahiba_id"`
	RequesterID    *string   `json:"requester_id,omitempty"`
	Status         *string   `json:"status,omitempty"`
	Need           string    `json:"need,omitempty"`
	Nickname       string    `json:"nickname,omitempty"`
	Location       string    `json:"location,omitempty"`
	Description    string    `json:"description,omitempty"`
	Channel        string    `json:"channel,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	ConversationID *string   `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
