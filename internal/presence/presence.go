// Package presence tracks which users currently hold a live connection and
// when they were last seen. Backed by Redis in production; the memory
// implementation serves -dev mode and tests.
package presence

import (
	"context"
	"time"
)

// Tracker is written by the connection hub and read by the roster query.
type Tracker interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string, at time.Time) error
	Get(ctx context.Context, userID string) (online bool, lastSeen time.Time, err error)
}
