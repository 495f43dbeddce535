package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
)

// NotificationRepository persists notification events for the notify service.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	defer logger.DeferLogDuration("notif.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, sender_id, sender_name, sender_avatar, message_id, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, n.Type, n.Sender.ID, n.Sender.Username, n.Sender.AvatarURL, n.MessageID, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("notifRepo.Create: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	defer logger.DeferLogDuration("notif.ListByUser", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, sender_id, sender_name, sender_avatar, message_id, is_read, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("notifRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	items := make([]model.Notification, 0, limit)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Sender.ID, &n.Sender.Username, &n.Sender.AvatarURL,
			&n.MessageID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notifRepo.ListByUser scan: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notifRepo.ListByUser rows: %w", err)
	}
	return items, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	defer logger.DeferLogDuration("notif.MarkAllRead", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID,
	)
	if err != nil {
		return fmt.Errorf("notifRepo.MarkAllRead: %w", err)
	}
	return nil
}

// Delete removes one notification, owner-guarded.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	defer logger.DeferLogDuration("notif.Delete", time.Now())()
	_, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("notifRepo.Delete: %w", err)
	}
	return nil
}

func (r *NotificationRepository) DeleteAll(ctx context.Context, userID string) error {
	defer logger.DeferLogDuration("notif.DeleteAll", time.Now())()
	_, err := r.pool.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("notifRepo.DeleteAll: %w", err)
	}
	return nil
}
