package activity

import (
	"context"
	"encoding/json"
	"time"

	"cliphub.org/internal/ids"
	"cliphub.org/internal/obs"
)

// Recorder persists activity entries and mirrors each one to the process
// log as a structured line.
type Recorder struct {
	store Store
	now   func() time.Time
}

// Option configures Recorder.
type Option func(*Recorder)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores one entry for the user and emits the matching log line.
// The store write is authoritative; the log line is best effort.
func (r *Recorder) Record(ctx context.Context, userID, method, endpoint, ip, userAgent string) error {
	e := &Entry{
		ID:         ids.New(),
		UserID:     userID,
		Method:     method,
		Endpoint:   endpoint,
		IP:         ip,
		UserAgent:  userAgent,
		OccurredAt: r.now().UTC(),
	}
	if err := r.store.Append(ctx, e); err != nil {
		return err
	}
	line := map[string]any{
		"ts":       e.OccurredAt.Format(time.RFC3339Nano),
		"type":     "activity",
		"user_id":  e.UserID,
		"method":   e.Method,
		"endpoint": e.Endpoint,
		"ip":       e.IP,
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		line["request_id"] = rid
	}
	if data, err := json.Marshal(line); err == nil {
		obs.Logger().Println(string(data))
	}
	return nil
}

// List returns the user's recent activity, most recent first.
func (r *Recorder) List(ctx context.Context, userID string, page, limit int) ([]Entry, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return r.store.ListByUser(ctx, userID, page, limit)
}
