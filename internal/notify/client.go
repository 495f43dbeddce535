// Package notify is the client side of the notification service. Dispatch is
// best-effort: the chat path logs failures and moves on, it never waits on or
// rolls back for a notification.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/internal/model"
)

// Client posts notification events to the notify service. A nil or empty-URL
// client is a no-op, which keeps the chat path independent of deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL; empty baseURL disables dispatch.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		return &Client{}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Accept forwards the event. Errors are logged, never returned: notification
// delivery is isolated from the messaging critical path.
func (c *Client) Accept(ctx context.Context, n model.Notification) {
	if c.baseURL == "" {
		return
	}
	body, err := json.Marshal(n)
	if err != nil {
		logger.Errorf("notify marshal: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notify", bytes.NewReader(body))
	if err != nil {
		logger.Errorf("notify request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Errorf("notify: %v", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		logger.Errorf("notify: unexpected status %d", resp.StatusCode)
	}
}
