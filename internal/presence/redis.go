package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineKeyPrefix = "presence:online:"
	lastSeenKey     = "presence:last_seen"

	// Online markers expire on their own so a crashed process does not leave
	// users online forever; live connections refresh via SetOnline on register.
	onlineTTL = 24 * time.Hour
)

// Redis implements Tracker on a shared Redis instance.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (p *Redis) SetOnline(ctx context.Context, userID string) error {
	if err := p.rdb.Set(ctx, onlineKeyPrefix+userID, "1", onlineTTL).Err(); err != nil {
		return fmt.Errorf("presence.SetOnline: %w", err)
	}
	return nil
}

func (p *Redis) SetOffline(ctx context.Context, userID string, at time.Time) error {
	pipe := p.rdb.TxPipeline()
	pipe.Del(ctx, onlineKeyPrefix+userID)
	pipe.HSet(ctx, lastSeenKey, userID, at.UTC().Format(time.RFC3339))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("presence.SetOffline: %w", err)
	}
	return nil
}

func (p *Redis) Get(ctx context.Context, userID string) (bool, time.Time, error) {
	online, err := p.rdb.Exists(ctx, onlineKeyPrefix+userID).Result()
	if err != nil {
		return false, time.Time{}, fmt.Errorf("presence.Get online: %w", err)
	}
	raw, err := p.rdb.HGet(ctx, lastSeenKey, userID).Result()
	if errors.Is(err, redis.Nil) {
		return online > 0, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("presence.Get last_seen: %w", err)
	}
	lastSeen, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return online > 0, time.Time{}, nil
	}
	return online > 0, lastSeen, nil
}
