package model

import "time"

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// Message is the canonical chat message snapshot. Handlers never mutate a
// Message in place; transitions in the chat package produce a new snapshot
// which is then persisted as a whole.
type Message struct {
	ID          string            `json:"id"`
	SenderID    string            `json:"sender_id"`
	RecipientID string            `json:"recipient_id"`
	Content     string            `json:"content"`
	Type        MessageType       `json:"type"`
	Status      MessageStatus     `json:"status"`
	Deleted     bool              `json:"deleted"`
	Edited      bool              `json:"edited"`
	EditedAt    *time.Time        `json:"edited_at,omitempty"`
	Reactions   map[string]string `json:"reactions,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Sender      *UserPublic       `json:"sender,omitempty"`
}

// Archived reports whether the thread this message belongs to was archived.
// The flag is duplicated per message row in metadata and kept consistent by
// bulk updates over the participant pair.
func (m *Message) Archived() bool {
	v, ok := m.Metadata["archived"].(bool)
	return ok && v
}

// ChatMetadata is the per-pair aggregate returned by the query service.
// UnreadMessages counts all unread messages addressed to the requesting user
// across every peer, not just this pair. That mirrors the behaviour the
// frontend was built against; do not scope it without coordinating a change.
type ChatMetadata struct {
	TotalMessages  int64    `json:"total_messages"`
	UnreadMessages int64    `json:"unread_messages"`
	LastMessage    *Message `json:"last_message,omitempty"`
}

// RosterEntry is a per-viewer chat summary for one other user. Derived, never
// stored as its own record.
type RosterEntry struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	AvatarURL   string    `json:"avatar_url"`
	UnreadCount int64     `json:"unread_count"`
	LastMessage string    `json:"last_message,omitempty"`
	Archived    bool      `json:"archived"`
	IsOnline    bool      `json:"is_online"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}
