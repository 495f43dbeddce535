package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
)

const msgCols = `id, sender_id, recipient_id, content, type, status, deleted, edited, edited_at, reactions, metadata, created_at`

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// scanMessage scans a row in msgCols order.
func scanMessage(s interface{ Scan(dest ...any) error }, m *model.Message) error {
	return s.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.Type, &m.Status,
		&m.Deleted, &m.Edited, &m.EditedAt, &m.Reactions, &m.Metadata, &m.CreatedAt)
}

func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	defer logger.DeferLogDuration("msg.Create", time.Now())()
	reactions := m.Reactions
	if reactions == nil {
		reactions = map[string]string{}
	}
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, sender_id, recipient_id, content, type, status, deleted, edited, edited_at, reactions, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.SenderID, m.RecipientID, m.Content, m.Type, m.Status, m.Deleted, m.Edited, m.EditedAt, reactions, metadata, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.Create: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	defer logger.DeferLogDuration("msg.GetByID", time.Now())()
	m := &model.Message{}
	row := r.pool.QueryRow(ctx, `SELECT `+msgCols+` FROM messages WHERE id = $1`, id)
	if err := scanMessage(row, m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("msgRepo.GetByID: %w", err)
	}
	return m, nil
}

// Update persists a whole message snapshot. Identity, participants and
// created_at never change after Create and are not part of the update.
func (r *MessageRepository) Update(ctx context.Context, m *model.Message) error {
	defer logger.DeferLogDuration("msg.Update", time.Now())()
	reactions := m.Reactions
	if reactions == nil {
		reactions = map[string]string{}
	}
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET content = $2, status = $3, deleted = $4, edited = $5, edited_at = $6, reactions = $7, metadata = $8
		 WHERE id = $1`,
		m.ID, m.Content, m.Status, m.Deleted, m.Edited, m.EditedAt, reactions, metadata,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.Update: %w", err)
	}
	return nil
}

// Conversation returns one page of messages exchanged between the pair,
// newest first. Soft-deleted messages stay in the result.
func (r *MessageRepository) Conversation(ctx context.Context, userID, peerID string, limit, offset int) ([]model.Message, error) {
	defer logger.DeferLogDuration("msg.Conversation", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT `+msgCols+` FROM messages
		 WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`, userID, peerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("msgRepo.Conversation query: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows, limit, "msgRepo.Conversation")
}

// Search finds messages containing query (ILIKE) in conversations userID is
// part of, newest first.
func (r *MessageRepository) Search(ctx context.Context, userID, query string) ([]model.Message, error) {
	defer logger.DeferLogDuration("msg.Search", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT `+msgCols+` FROM messages
		 WHERE (sender_id = $1 OR recipient_id = $1) AND content ILIKE '%' || $2 || '%'
		 ORDER BY created_at DESC`, userID, query,
	)
	if err != nil {
		return nil, fmt.Errorf("msgRepo.Search query: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows, 32, "msgRepo.Search")
}

func (r *MessageRepository) CountBetween(ctx context.Context, userID, peerID string) (int64, error) {
	defer logger.DeferLogDuration("msg.CountBetween", time.Now())()
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)`,
		userID, peerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("msgRepo.CountBetween: %w", err)
	}
	return n, nil
}

// CountUnread counts every unread message addressed to the user, across all
// peers.
func (r *MessageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	defer logger.DeferLogDuration("msg.CountUnread", time.Now())()
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND status != 'read'`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("msgRepo.CountUnread: %w", err)
	}
	return n, nil
}

// LastMessage returns the most recent message between the pair, or nil when
// the pair has no history.
func (r *MessageRepository) LastMessage(ctx context.Context, userID, peerID string) (*model.Message, error) {
	defer logger.DeferLogDuration("msg.LastMessage", time.Now())()
	m := &model.Message{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+msgCols+` FROM messages
		 WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		 ORDER BY created_at DESC
		 LIMIT 1`, userID, peerID,
	)
	if err := scanMessage(row, m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("msgRepo.LastMessage: %w", err)
	}
	return m, nil
}

// SetArchived flips metadata.archived on every message between the pair in a
// single statement.
func (r *MessageRepository) SetArchived(ctx context.Context, userID, peerID string, archived bool) error {
	defer logger.DeferLogDuration("msg.SetArchived", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET metadata = jsonb_set(metadata, '{archived}', to_jsonb($3::boolean), true)
		 WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)`,
		userID, peerID, archived,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.SetArchived: %w", err)
	}
	return nil
}

func collectMessages(rows pgx.Rows, sizeHint int, op string) ([]model.Message, error) {
	messages := make([]model.Message, 0, sizeHint)
	for rows.Next() {
		var m model.Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return messages, nil
}
