package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
)

func TestNewMessage(t *testing.T) {
	m, err := NewMessage("u1", "u2", "hello", "")
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "u1", m.SenderID)
	assert.Equal(t, "u2", m.RecipientID)
	assert.Equal(t, model.MessageTypeText, m.Type)
	assert.Equal(t, model.MessageStatusSent, m.Status)
	assert.False(t, m.CreatedAt.IsZero())

	m2, err := NewMessage("u1", "u2", "pic", model.MessageTypeImage)
	require.NoError(t, err)
	assert.Equal(t, model.MessageTypeImage, m2.Type)
	assert.NotEqual(t, m.ID, m2.ID)
}

func TestNewMessageRejectsBlanks(t *testing.T) {
	cases := []struct {
		name                       string
		sender, recipient, content string
	}{
		{"no sender", "", "u2", "hi"},
		{"no recipient", "u1", "", "hi"},
		{"no content", "u1", "u2", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMessage(tc.sender, tc.recipient, tc.content, "")
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestStatusMovesForwardOnly(t *testing.T) {
	m, err := NewMessage("u1", "u2", "hi", "")
	require.NoError(t, err)

	delivered := MarkDelivered(m)
	assert.Equal(t, model.MessageStatusDelivered, delivered.Status)

	read := MarkRead(delivered)
	assert.Equal(t, model.MessageStatusRead, read.Status)

	// read never regresses
	assert.Equal(t, model.MessageStatusRead, MarkDelivered(read).Status)
	assert.Equal(t, model.MessageStatusRead, MarkRead(read).Status)

	// read straight from sent is allowed
	assert.Equal(t, model.MessageStatusRead, MarkRead(m).Status)
}

func TestEditSenderOnly(t *testing.T) {
	m, err := NewMessage("u1", "u2", "first", "")
	require.NoError(t, err)

	now := time.Now()
	next, ok := Edit(m, "u2", "hijacked", now)
	assert.False(t, ok)
	assert.Equal(t, "first", next.Content)
	assert.False(t, next.Edited)

	next, ok = Edit(m, "u1", "second", now)
	require.True(t, ok)
	assert.Equal(t, "second", next.Content)
	assert.True(t, next.Edited)
	require.NotNil(t, next.EditedAt)
	assert.Equal(t, now.UTC(), *next.EditedAt)
	// prior snapshot untouched
	assert.Equal(t, "first", m.Content)
}

func TestDeleteReplacesContent(t *testing.T) {
	m, err := NewMessage("u1", "u2", "secret", "")
	require.NoError(t, err)

	_, ok := Delete(m, "u2")
	assert.False(t, ok)

	next, ok := Delete(m, "u1")
	require.True(t, ok)
	assert.True(t, next.Deleted)
	assert.Equal(t, DeletedPlaceholder, next.Content)
	// identity and timestamp survive
	assert.Equal(t, m.ID, next.ID)
	assert.Equal(t, m.CreatedAt, next.CreatedAt)
}

func TestReactUpsertsPerUser(t *testing.T) {
	m, err := NewMessage("u1", "u2", "hi", "")
	require.NoError(t, err)

	next := React(m, "u2", "👍")
	assert.Equal(t, map[string]string{"u2": "👍"}, next.Reactions)

	// re-reacting overwrites, never accumulates
	next = React(next, "u2", "❤️")
	assert.Equal(t, map[string]string{"u2": "❤️"}, next.Reactions)

	next = React(next, "u1", "👍")
	assert.Len(t, next.Reactions, 2)

	// the earlier snapshot is never aliased
	assert.Nil(t, m.Reactions)
}

func TestRemoveReaction(t *testing.T) {
	m, err := NewMessage("u1", "u2", "hi", "")
	require.NoError(t, err)
	m = React(m, "u2", "👍")

	withReaction := m
	next := RemoveReaction(m, "u2")
	assert.Empty(t, next.Reactions)
	assert.Equal(t, map[string]string{"u2": "👍"}, withReaction.Reactions)

	// removing an absent reaction is a no-op
	next = RemoveReaction(next, "nobody")
	assert.Empty(t, next.Reactions)
}
