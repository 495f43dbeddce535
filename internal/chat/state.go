// Package chat holds the message lifecycle and the query service over stored
// messages. Lifecycle transitions are pure: each takes the prior snapshot and
// returns the next one, leaving persistence to the caller. That keeps the
// store race between concurrent handlers visible at the call site instead of
// hiding it behind in-place mutation.
package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
)

// DeletedPlaceholder replaces the content of a soft-deleted message.
const DeletedPlaceholder = "This message was deleted"

var ErrInvalidMessage = errors.New("sender, recipient and content are required")

// NewMessage builds a fresh message with status sent. Empty sender, recipient
// or content is rejected; nothing with a blank participant id is ever persisted.
func NewMessage(senderID, recipientID, content string, typ model.MessageType) (model.Message, error) {
	if senderID == "" || recipientID == "" || content == "" {
		return model.Message{}, ErrInvalidMessage
	}
	if typ == "" {
		typ = model.MessageTypeText
	}
	return model.Message{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Type:        typ,
		Status:      model.MessageStatusSent,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// MarkDelivered advances sent -> delivered. Any other current status is an
// idempotent no-op: status only ever moves forward.
func MarkDelivered(m model.Message) model.Message {
	if m.Status == model.MessageStatusSent {
		m.Status = model.MessageStatusDelivered
	}
	return m
}

// MarkRead advances sent or delivered -> read. Already-read messages are left
// as they are.
func MarkRead(m model.Message) model.Message {
	if m.Status == model.MessageStatusSent || m.Status == model.MessageStatusDelivered {
		m.Status = model.MessageStatusRead
	}
	return m
}

// Edit replaces the content and marks the message edited. Only the sender may
// edit; for anyone else the call reports false and returns the snapshot
// untouched. Repeated edits keep updating EditedAt, there is no version history.
func Edit(m model.Message, requesterID, content string, now time.Time) (model.Message, bool) {
	if requesterID == "" || content == "" || requesterID != m.SenderID {
		return m, false
	}
	m.Content = content
	m.Edited = true
	at := now.UTC()
	m.EditedAt = &at
	return m, true
}

// Delete soft-deletes the message: the record survives with its identity and
// timestamps, content is replaced by the placeholder. Sender-only, one-way.
func Delete(m model.Message, requesterID string) (model.Message, bool) {
	if requesterID == "" || requesterID != m.SenderID {
		return m, false
	}
	m.Deleted = true
	m.Content = DeletedPlaceholder
	return m, true
}

// React upserts the user's single reaction on the message; re-reacting
// overwrites the previous value. Any participant may react.
func React(m model.Message, userID, reaction string) model.Message {
	reactions := cloneReactions(m.Reactions)
	reactions[userID] = reaction
	m.Reactions = reactions
	return m
}

// RemoveReaction drops the user's reaction if present.
func RemoveReaction(m model.Message, userID string) model.Message {
	if _, ok := m.Reactions[userID]; !ok {
		return m
	}
	reactions := cloneReactions(m.Reactions)
	delete(reactions, userID)
	m.Reactions = reactions
	return m
}

// cloneReactions copies the map so a transition never aliases the prior
// snapshot's state.
func cloneReactions(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
