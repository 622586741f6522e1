package video

import (
	"context"
	"time"
)

// Store describes video catalog persistence.
type Store interface {
	Create(ctx context.Context, v *Video) error
	Find(ctx context.Context, id string) (*Video, error)
	// FindMany returns the videos for the given ids, preserving input order
	// and skipping ids that no longer resolve.
	FindMany(ctx context.Context, ids []string) ([]Video, error)
	Update(ctx context.Context, v *Video) error
	// Feed lists published videos, newest first.
	Feed(ctx context.Context, page, limit int) ([]Video, int64, error)
	ListByOwner(ctx context.Context, ownerID string, f OwnerFilter) ([]Video, int64, error)
	IncrementViews(ctx context.Context, id string) error

	// TouchHistory moves the video to the front of the user's watch
	// history, inserting it if absent.
	TouchHistory(ctx context.Context, userID, videoID string, at time.Time) error
	WatchHistory(ctx context.Context, userID string, page, limit int) ([]Video, error)
}
