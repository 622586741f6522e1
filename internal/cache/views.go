// Package cache provides the Redis-backed view dedupe used by the video
// catalog. When no Redis address is configured it falls back to an
// in-process map so single-node runs behave the same.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultViewWindow = 24 * time.Hour

// Views answers "has this viewer seen this video recently?" so a rewatch
// inside the window does not bump the view counter again.
type Views struct {
	client *redis.Client
	window time.Duration

	mu   sync.Mutex
	seen map[string]time.Time // fallback when client is nil
	now  func() time.Time
}

// ViewsOption configures Views.
type ViewsOption func(*Views)

// WithWindow overrides the dedupe window.
func WithWindow(d time.Duration) ViewsOption {
	return func(v *Views) {
		if d > 0 {
			v.window = d
		}
	}
}

// WithClock overrides the time source used by the in-process fallback.
func WithClock(fn func() time.Time) ViewsOption {
	return func(v *Views) {
		if fn != nil {
			v.now = fn
		}
	}
}

// NewViews connects to Redis at addr. An empty addr selects the
// in-process fallback.
func NewViews(addr string, opts ...ViewsOption) *Views {
	v := &Views{window: defaultViewWindow, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	if addr == "" {
		v.seen = make(map[string]time.Time)
		return v
	}
	v.client = redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return v
}

func viewKey(videoID, viewerID string) string {
	return "cliphub:view:" + videoID + ":" + viewerID
}

// FirstView reports whether this is the viewer's first view of the video
// within the window, and marks it seen. On a Redis error the view counts;
// overcounting beats silently dropping views.
func (v *Views) FirstView(ctx context.Context, videoID, viewerID string) bool {
	if v.client == nil {
		return v.firstViewLocal(videoID, viewerID)
	}
	ok, err := v.client.SetNX(ctx, viewKey(videoID, viewerID), 1, v.window).Result()
	if err != nil {
		return true
	}
	return ok
}

func (v *Views) firstViewLocal(videoID, viewerID string) bool {
	key := viewKey(videoID, viewerID)
	now := v.now()
	v.mu.Lock()
	defer v.mu.Unlock()
	if at, ok := v.seen[key]; ok && now.Sub(at) < v.window {
		return false
	}
	v.seen[key] = now
	return true
}

// Health pings Redis. The in-process fallback is always healthy.
func (v *Views) Health(ctx context.Context) error {
	if v.client == nil {
		return nil
	}
	return v.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (v *Views) Close() error {
	if v.client == nil {
		return nil
	}
	return v.client.Close()
}
