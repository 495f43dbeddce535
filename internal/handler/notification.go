package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/internal/middleware"
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
	"github.com/DulakshanaMalith/Photography-Learning/internal/push"
	"github.com/DulakshanaMalith/Photography-Learning/internal/repository"
)

const defaultNotificationLimit = 50

// NotificationHandler is the notify service's HTTP surface: it accepts events
// from the chat API, keeps per-user history, and pushes to subscribed browsers.
type NotificationHandler struct {
	repo   *repository.NotificationRepository
	subs   *push.SubscriptionStore
	sender *push.Sender
}

func NewNotificationHandler(repo *repository.NotificationRepository, subs *push.SubscriptionStore, sender *push.Sender) *NotificationHandler {
	return &NotificationHandler{repo: repo, subs: subs, sender: sender}
}

// Accept ingests a notification event. The event is persisted first; Web Push
// delivery happens in the background and its failures stay here.
func (h *NotificationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var n model.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if n.UserID == "" || n.Sender.ID == "" {
		writeError(w, http.StatusBadRequest, "user_id and sender required")
		return
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Type == "" {
		n.Type = "message"
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if err := h.repo.Create(r.Context(), &n); err != nil {
		logger.Errorf("notify accept: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store notification")
		return
	}

	if h.sender.Enabled() {
		go h.pushOut(n)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) pushOut(n model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	payload, err := json.Marshal(map[string]any{
		"title": n.Sender.Username,
		"body":  "sent you a message",
		"data":  map[string]string{"message_id": n.MessageID, "sender_id": n.Sender.ID},
	})
	if err != nil {
		logger.Errorf("notify payload: %v", err)
		return
	}
	h.sender.Send(ctx, n.UserID, payload)
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit := queryInt(r, "limit", defaultNotificationLimit)
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	items, err := h.repo.ListByUser(r.Context(), userID, limit)
	if err != nil {
		logger.Errorf("notify list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// MarkAllRead flips every unread notification of the caller.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := h.repo.MarkAllRead(r.Context(), userID); err != nil {
		logger.Errorf("notify mark read: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes one notification owned by the caller.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id, userID); err != nil {
		logger.Errorf("notify delete: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll clears the caller's notification history.
func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := h.repo.DeleteAll(r.Context(), userID); err != nil {
		logger.Errorf("notify delete all: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete notifications")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subscribe stores the caller's Web Push subscription.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	var sub push.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "subscription (endpoint, keys.p256dh, keys.auth) required")
		return
	}
	if err := h.subs.Add(r.Context(), userID, sub); err != nil {
		logger.Errorf("notify subscribe: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unsubscribe drops the subscription with the given endpoint.
func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint required")
		return
	}
	if err := h.subs.Remove(r.Context(), userID, req.Endpoint); err != nil {
		logger.Errorf("notify unsubscribe: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
