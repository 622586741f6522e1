package activity

import (
	"context"
	"sync"
)

// InMemory is a slice-backed Store for tests and development runs.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string][]Entry // userID -> most recent first
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string][]Entry)}
}

func (m *InMemory) Append(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.UserID] = append([]Entry{*e}, m.entries[e.UserID]...)
	return nil
}

func (m *InMemory) ListByUser(_ context.Context, userID string, page, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.entries[userID]
	start := (page - 1) * limit
	if start >= len(entries) {
		return nil, nil
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	out := make([]Entry, end-start)
	copy(out, entries[start:end])
	return out, nil
}
