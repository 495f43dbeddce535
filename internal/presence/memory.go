package presence

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Tracker for -dev mode and tests.
type Memory struct {
	mu       sync.RWMutex
	online   map[string]bool
	lastSeen map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{
		online:   make(map[string]bool),
		lastSeen: make(map[string]time.Time),
	}
}

func (p *Memory) SetOnline(_ context.Context, userID string) error {
	p.mu.Lock()
	p.online[userID] = true
	p.mu.Unlock()
	return nil
}

func (p *Memory) SetOffline(_ context.Context, userID string, at time.Time) error {
	p.mu.Lock()
	delete(p.online, userID)
	p.lastSeen[userID] = at.UTC()
	p.mu.Unlock()
	return nil
}

func (p *Memory) Get(_ context.Context, userID string) (bool, time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online[userID], p.lastSeen[userID], nil
}
