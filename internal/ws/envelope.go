package ws

import (
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
)

// Op tags an inbound envelope with the operation to perform.
type Op string

const (
	OpSend         Op = "send"
	OpRead         Op = "read"
	OpEdit         Op = "edit"
	OpDelete       Op = "delete"
	OpReact        Op = "react"
	OpDelivered    Op = "delivered"
	OpListUsers    Op = "list-users"
	OpListMessages Op = "list-messages"
	OpSearch       Op = "search-messages"
	OpArchive      Op = "archive-chat"
)

// Envelope is an inbound operation frame. The principal is never taken from
// the payload; it is the identity bound to the connection at handshake.
type Envelope struct {
	Op Op `json:"op"`

	// send
	RecipientID string            `json:"recipient_id,omitempty"`
	Content     string            `json:"content,omitempty"`
	Type        model.MessageType `json:"type,omitempty"`

	// read / edit / delete / react / delivered
	MessageID string `json:"message_id,omitempty"`
	Reaction  string `json:"reaction,omitempty"` // empty on react = remove

	// list-messages
	Page int `json:"page,omitempty"`
	Size int `json:"size,omitempty"`

	// search-messages
	Query string `json:"query,omitempty"`

	// archive-chat; nil means archive
	Archived *bool `json:"archived,omitempty"`
}

// FrameType tags an outbound frame.
type FrameType string

const (
	// FrameMessage carries the canonical post-mutation message snapshot.
	FrameMessage FrameType = "message"
	// FrameMessageBatch carries a page of messages or search results.
	FrameMessageBatch FrameType = "message_batch"
	// FrameRoster carries the enriched user list, broadcast on the shared
	// roster topic.
	FrameRoster FrameType = "roster"
	// FrameArchive reports an archive flag change to both participants.
	FrameArchive FrameType = "archive"
	// FrameError goes to the requester's private error channel.
	FrameError FrameType = "error"
)

// Frame is what the server pushes to clients.
type Frame struct {
	Type    FrameType `json:"type"`
	Payload any       `json:"payload"`
}

// ErrorPayload is the structured error frame emitted on list-messages
// failures. Other operations degrade silently.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ArchivePayload names the peer whose thread changed archive state.
type ArchivePayload struct {
	PeerID   string `json:"peer_id"`
	Archived bool   `json:"archived"`
}
