package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
)

// DefaultPageSize is used when a messages request does not name a page size.
const DefaultPageSize = 20

// MessageStore is the persistent message collaborator. Implemented by
// repository.MessageRepository; tests supply an in-memory version.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	Update(ctx context.Context, m *model.Message) error
	Conversation(ctx context.Context, userID, peerID string, limit, offset int) ([]model.Message, error)
	Search(ctx context.Context, userID, query string) ([]model.Message, error)
	CountBetween(ctx context.Context, userID, peerID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	LastMessage(ctx context.Context, userID, peerID string) (*model.Message, error)
	SetArchived(ctx context.Context, userID, peerID string, archived bool) error
}

// Directory resolves user ids to profiles.
type Directory interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListAll(ctx context.Context, limit int) ([]model.User, error)
}

// PresenceReader reports a user's connection status for roster enrichment.
type PresenceReader interface {
	Get(ctx context.Context, userID string) (online bool, lastSeen time.Time, err error)
}

// Service answers thread, search, roster and metadata queries. It owns the
// read-on-fetch side effect of Messages; delivery of the resulting READ
// snapshots to peers stays with the caller.
type Service struct {
	store    MessageStore
	dir      Directory
	presence PresenceReader
}

func NewService(store MessageStore, dir Directory, presence PresenceReader) *Service {
	return &Service{store: store, dir: dir, presence: presence}
}

// Messages returns one page of the conversation between userID and peerID,
// newest first. Every returned message addressed to userID that is not yet
// read is marked read and persisted before the page is handed back; those
// newly-read snapshots are returned separately so the caller can fan them out
// to their senders. A failed mark leaves that message untouched in the page.
func (s *Service) Messages(ctx context.Context, userID, peerID string, page, size int) ([]model.Message, []model.Message, error) {
	if userID == "" || peerID == "" {
		return nil, nil, fmt.Errorf("chat.Messages: %w", ErrInvalidMessage)
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	msgs, err := s.store.Conversation(ctx, userID, peerID, size, page*size)
	if err != nil {
		return nil, nil, fmt.Errorf("chat.Messages: %w", err)
	}

	var read []model.Message
	for i := range msgs {
		m := msgs[i]
		if m.RecipientID != userID || m.Status == model.MessageStatusRead {
			continue
		}
		next := MarkRead(m)
		if err := s.store.Update(ctx, &next); err != nil {
			logger.Errorf("chat mark read message=%s: %v", m.ID, err)
			continue
		}
		msgs[i] = next
		read = append(read, next)
	}
	return msgs, read, nil
}

// Search returns messages containing query (case-insensitive substring) in
// conversations userID takes part in, newest first.
func (s *Service) Search(ctx context.Context, userID, query string) ([]model.Message, error) {
	msgs, err := s.store.Search(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("chat.Search: %w", err)
	}
	return msgs, nil
}

// Metadata aggregates the pair's message count, the viewer's unread count and
// the pair's most recent message. The unread count is global per viewer (see
// model.ChatMetadata).
func (s *Service) Metadata(ctx context.Context, userID, peerID string) (model.ChatMetadata, error) {
	total, err := s.store.CountBetween(ctx, userID, peerID)
	if err != nil {
		return model.ChatMetadata{}, fmt.Errorf("chat.Metadata total: %w", err)
	}
	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return model.ChatMetadata{}, fmt.Errorf("chat.Metadata unread: %w", err)
	}
	last, err := s.store.LastMessage(ctx, userID, peerID)
	if err != nil {
		return model.ChatMetadata{}, fmt.Errorf("chat.Metadata last: %w", err)
	}
	return model.ChatMetadata{TotalMessages: total, UnreadMessages: unread, LastMessage: last}, nil
}

// Roster builds the viewer's user list: everyone in the directory except the
// viewer, each entry enriched with chat metadata and presence. Collaborator
// failures on a single entry degrade that entry instead of failing the roster.
func (s *Service) Roster(ctx context.Context, userID string) ([]model.RosterEntry, error) {
	users, err := s.dir.ListAll(ctx, 500)
	if err != nil {
		return nil, fmt.Errorf("chat.Roster: %w", err)
	}

	roster := make([]model.RosterEntry, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		entry := model.RosterEntry{UserID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}

		meta, err := s.Metadata(ctx, userID, u.ID)
		if err != nil {
			logger.Errorf("chat roster metadata user=%s peer=%s: %v", userID, u.ID, err)
		} else {
			entry.UnreadCount = meta.UnreadMessages
			if meta.LastMessage != nil {
				entry.LastMessage = meta.LastMessage.Content
				entry.Archived = meta.LastMessage.Archived()
			}
		}

		if s.presence != nil {
			online, lastSeen, err := s.presence.Get(ctx, u.ID)
			if err != nil {
				logger.Errorf("chat roster presence user=%s: %v", u.ID, err)
			} else {
				entry.IsOnline = online
				entry.LastSeenAt = lastSeen
			}
		}
		roster = append(roster, entry)
	}
	return roster, nil
}

// SetArchived flips metadata.archived on every message between the pair in
// one bulk update. There is no thread record, so partial updates would leave
// the flag inconsistent across rows.
func (s *Service) SetArchived(ctx context.Context, userID, peerID string, archived bool) error {
	if err := s.store.SetArchived(ctx, userID, peerID, archived); err != nil {
		return fmt.Errorf("chat.SetArchived: %w", err)
	}
	return nil
}
