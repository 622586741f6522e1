package video

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemory is a map-backed Store for tests and single-node development runs.
type InMemory struct {
	mu      sync.RWMutex
	videos  map[string]*Video
	history map[string][]historyEntry // userID -> most recent first
}

type historyEntry struct {
	videoID   string
	watchedAt time.Time
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		videos:  make(map[string]*Video),
		history: make(map[string][]historyEntry),
	}
}

func (m *InMemory) Create(_ context.Context, v *Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.videos[v.ID] = &cp
	return nil
}

func (m *InMemory) Find(_ context.Context, id string) (*Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *InMemory) FindMany(_ context.Context, ids []string) ([]Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.videos[id]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *InMemory) Update(_ context.Context, v *Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[v.ID]; !ok {
		return ErrNotFound
	}
	cp := *v
	m.videos[v.ID] = &cp
	return nil
}

func (m *InMemory) Feed(_ context.Context, page, limit int) ([]Video, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Video
	for _, v := range m.videos {
		if v.Published {
			all = append(all, *v)
		}
	}
	sortNewestFirst(all)
	return paginate(all, page, limit), int64(len(all)), nil
}

func (m *InMemory) ListByOwner(_ context.Context, ownerID string, f OwnerFilter) ([]Video, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	title := strings.ToLower(f.Title)
	var all []Video
	for _, v := range m.videos {
		if v.OwnerID != ownerID {
			continue
		}
		if f.Published != nil && v.Published != *f.Published {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(v.Title), title) {
			continue
		}
		all = append(all, *v)
	}
	sortNewestFirst(all)
	return paginate(all, f.Page, f.Limit), int64(len(all)), nil
}

func (m *InMemory) IncrementViews(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return ErrNotFound
	}
	v.Views++
	return nil
}

func (m *InMemory) TouchHistory(_ context.Context, userID, videoID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.history[userID]
	filtered := entries[:0]
	for _, e := range entries {
		if e.videoID != videoID {
			filtered = append(filtered, e)
		}
	}
	m.history[userID] = append([]historyEntry{{videoID: videoID, watchedAt: at}}, filtered...)
	return nil
}

func (m *InMemory) WatchHistory(_ context.Context, userID string, page, limit int) ([]Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.history[userID]
	start := (page - 1) * limit
	if start >= len(entries) {
		return nil, nil
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	out := make([]Video, 0, end-start)
	for _, e := range entries[start:end] {
		if v, ok := m.videos[e.videoID]; ok {
			out = append(out, *v)
		}
	}
	return out, nil
}

func sortNewestFirst(vs []Video) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].CreatedAt.Equal(vs[j].CreatedAt) {
			return vs[i].ID > vs[j].ID
		}
		return vs[i].CreatedAt.After(vs[j].CreatedAt)
	})
}

func paginate(vs []Video, page, limit int) []Video {
	start := (page - 1) * limit
	if start >= len(vs) {
		return nil
	}
	end := start + limit
	if end > len(vs) {
		end = len(vs)
	}
	return vs[start:end]
}
