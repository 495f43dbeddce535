package push

import (
	"context"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
)

// Sender delivers Web Push payloads to every subscription a user holds.
// A nil vapid disables delivery while subscriptions keep being stored.
type Sender struct {
	store *SubscriptionStore
	vapid *webpush.Options
}

func NewSender(store *SubscriptionStore, keys *VAPIDKeys) *Sender {
	var opts *webpush.Options
	if keys != nil && keys.PublicKey != "" && keys.PrivateKey != "" {
		opts = &webpush.Options{
			Subscriber:      "chat-notify",
			VAPIDPublicKey:  keys.PublicKey,
			VAPIDPrivateKey: keys.PrivateKey,
			TTL:             30,
		}
	}
	return &Sender{store: store, vapid: opts}
}

// Enabled reports whether VAPID keys are configured.
func (s *Sender) Enabled() bool { return s.vapid != nil }

// Send pushes payload to all of the user's subscriptions. Gone endpoints
// (404/410) are pruned from the store. Per-endpoint failures are logged and
// never abort the remaining sends.
func (s *Sender) Send(ctx context.Context, userID string, payload []byte) {
	if s.vapid == nil {
		return
	}
	subs, err := s.store.List(ctx, userID)
	if err != nil {
		logger.Errorf("push send: %v", err)
		return
	}
	for i := range subs {
		sub := &subs[i]
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
		}
		resp, err := webpush.SendNotificationWithContext(ctx, payload, wpSub, s.vapid)
		if err != nil {
			logger.Errorf("push send %s: %v", sub.Endpoint[:min(50, len(sub.Endpoint))], err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			if err := s.store.Remove(ctx, userID, sub.Endpoint); err != nil {
				logger.Errorf("push prune: %v", err)
			}
		}
	}
}
