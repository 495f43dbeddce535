package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	subsKeyPrefix   = "push:subs:"
	maxSubsPerUser  = 10
	subscriptionTTL = 30 * 24 * time.Hour
)

// Subscription is the browser-side Web Push subscription.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// SubscriptionStore keeps per-user Web Push subscriptions in Redis.
// A user holds at most maxSubsPerUser subscriptions (one per browser);
// the whole set expires after subscriptionTTL of inactivity.
type SubscriptionStore struct {
	redis *redis.Client
}

func NewSubscriptionStore(rdb *redis.Client) *SubscriptionStore {
	return &SubscriptionStore{redis: rdb}
}

// Add appends a subscription for the user, trimming to the per-user cap.
func (s *SubscriptionStore) Add(ctx context.Context, userID string, sub Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("push.Add encode: %w", err)
	}
	key := subsKeyPrefix + userID
	pipe := s.redis.Pipeline()
	pipe.RPush(ctx, key, string(raw))
	pipe.LTrim(ctx, key, -maxSubsPerUser, -1)
	pipe.Expire(ctx, key, subscriptionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push.Add: %w", err)
	}
	return nil
}

// Remove drops the subscription with the given endpoint.
func (s *SubscriptionStore) Remove(ctx context.Context, userID, endpoint string) error {
	key := subsKeyPrefix + userID
	list, err := s.redis.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("push.Remove: %w", err)
	}
	var kept []string
	for _, item := range list {
		var sub Subscription
		if json.Unmarshal([]byte(item), &sub) == nil && sub.Endpoint != endpoint {
			kept = append(kept, item)
		}
	}
	s.redis.Del(ctx, key)
	for _, v := range kept {
		s.redis.RPush(ctx, key, v)
	}
	if len(kept) > 0 {
		s.redis.Expire(ctx, key, subscriptionTTL)
	}
	return nil
}

// List returns the user's current subscriptions, skipping unparsable entries.
func (s *SubscriptionStore) List(ctx context.Context, userID string) ([]Subscription, error) {
	list, err := s.redis.LRange(ctx, subsKeyPrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("push.List: %w", err)
	}
	var subs []Subscription
	for _, item := range list {
		var sub Subscription
		if json.Unmarshal([]byte(item), &sub) == nil && sub.Endpoint != "" {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}
