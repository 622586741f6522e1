package social

import (
	"context"
	"sort"
	"sync"
)

// InMemory is a map-backed Store for tests and single-node development runs.
type InMemory struct {
	mu       sync.RWMutex
	comments map[string]*Comment
	ratings  map[string]*Rating      // key: userID/kind/targetID
	subs     map[string]Subscription // key: subscriberID/channelID
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		comments: make(map[string]*Comment),
		ratings:  make(map[string]*Rating),
		subs:     make(map[string]Subscription),
	}
}

func ratingKey(userID string, kind TargetKind, targetID string) string {
	return userID + "/" + string(kind) + "/" + targetID
}

func subKey(subscriberID, channelID string) string {
	return subscriberID + "/" + channelID
}

func (m *InMemory) CreateComment(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *InMemory) FindComment(_ context.Context, id string) (*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *InMemory) UpdateComment(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	m.comments[c.ID] = &cp
	return nil
}

func (m *InMemory) DeleteComment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	for key, r := range m.ratings {
		if r.Kind == TargetComment && r.TargetID == id {
			delete(m.ratings, key)
		}
	}
	return nil
}

func (m *InMemory) ListComments(_ context.Context, videoID string, page, limit int) ([]Comment, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Comment
	for _, c := range m.comments {
		if c.VideoID == videoID {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *InMemory) FindRating(_ context.Context, userID string, kind TargetKind, targetID string) (*Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.ratings[ratingKey(userID, kind, targetID)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *InMemory) UpsertRating(_ context.Context, r *Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.ratings[ratingKey(r.UserID, r.Kind, r.TargetID)] = &cp
	return nil
}

func (m *InMemory) CountRatings(_ context.Context, kind TargetKind, targetID string) (RatingCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var counts RatingCounts
	for _, r := range m.ratings {
		if r.Kind != kind || r.TargetID != targetID {
			continue
		}
		if r.Like {
			counts.Likes++
		} else {
			counts.Dislikes++
		}
	}
	return counts, nil
}

func (m *InMemory) LikedVideoIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var liked []Rating
	for _, r := range m.ratings {
		if r.UserID == userID && r.Kind == TargetVideo && r.Like {
			liked = append(liked, *r)
		}
	}
	sort.Slice(liked, func(i, j int) bool {
		return liked[i].CreatedAt.After(liked[j].CreatedAt)
	})
	out := make([]string, len(liked))
	for i, r := range liked {
		out[i] = r.TargetID
	}
	return out, nil
}

func (m *InMemory) CreateSubscription(_ context.Context, s *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[subKey(s.SubscriberID, s.ChannelID)] = *s
	return nil
}

func (m *InMemory) DeleteSubscription(_ context.Context, subscriberID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := subKey(subscriberID, channelID)
	if _, ok := m.subs[key]; !ok {
		return ErrNotFound
	}
	delete(m.subs, key)
	return nil
}

func (m *InMemory) IsSubscribed(_ context.Context, subscriberID, channelID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.subs[subKey(subscriberID, channelID)]
	return ok, nil
}

func (m *InMemory) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, s := range m.subs {
		if s.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (m *InMemory) CountSubscribedTo(_ context.Context, subscriberID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, s := range m.subs {
		if s.SubscriberID == subscriberID {
			n++
		}
	}
	return n, nil
}

func (m *InMemory) SubscriberIDs(_ context.Context, channelID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var recent []Subscription
	for _, s := range m.subs {
		if s.ChannelID == channelID {
			recent = append(recent, s)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	out := make([]string, len(recent))
	for i, s := range recent {
		out[i] = s.SubscriberID
	}
	return out, nil
}

func (m *InMemory) SubscribedToIDs(_ context.Context, subscriberID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var recent []Subscription
	for _, s := range m.subs {
		if s.SubscriberID == subscriberID {
			recent = append(recent, s)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	out := make([]string, len(recent))
	for i, s := range recent {
		out[i] = s.ChannelID
	}
	return out, nil
}
