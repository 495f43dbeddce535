package model

import "time"

// Notification is the event handed to the notification service when a
// message arrives for another user. The service persists it and may push it
// further; the chat path never waits on that.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Sender    UserPublic `json:"sender"`
	MessageID string     `json:"message_id"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}
