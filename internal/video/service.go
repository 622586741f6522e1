package video

import (
	"context"
	"strings"
	"time"

	"cliphub.org/internal/ids"
)

// ViewDeduper reports whether this is the viewer's first view of the video
// within the dedupe window. Implemented by the Redis-backed cache; a nil
// deduper counts every fetch.
type ViewDeduper interface {
	FirstView(ctx context.Context, videoID, viewerID string) bool
}

// Service implements the video catalog operations.
type Service struct {
	store Store
	views ViewDeduper
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithViewDeduper installs once-per-viewer view counting.
func WithViewDeduper(d ViewDeduper) Option {
	return func(s *Service) { s.views = d }
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the video service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublishParams are the inputs to Publish and Edit.
type PublishParams struct {
	Title       string
	Description string
	VideoFile   string
	Thumbnail   string
	Duration    int64
	Published   bool
}

func (p *PublishParams) validate(requireAssets bool) error {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.VideoFile = strings.TrimSpace(p.VideoFile)
	p.Thumbnail = strings.TrimSpace(p.Thumbnail)
	if p.Title == "" || len(p.Title) > maxTitleLen {
		return ErrInvalidInput
	}
	if p.Description == "" || len(p.Description) > maxDescriptionLen {
		return ErrInvalidInput
	}
	if requireAssets {
		if p.VideoFile == "" || p.Thumbnail == "" {
			return ErrInvalidInput
		}
		if p.Duration <= 0 {
			return ErrInvalidInput
		}
	}
	return nil
}

// Publish creates a video owned by ownerID.
func (s *Service) Publish(ctx context.Context, ownerID string, p PublishParams) (*Video, error) {
	if err := p.validate(true); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	v := &Video{
		ID:          ids.New(),
		OwnerID:     ownerID,
		Title:       p.Title,
		Description: p.Description,
		VideoFile:   p.VideoFile,
		Thumbnail:   p.Thumbnail,
		Duration:    p.Duration,
		Published:   p.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Edit updates title, description, published flag and optionally the
// thumbnail. Only the owner may edit.
func (s *Service) Edit(ctx context.Context, ownerID, videoID string, p PublishParams) (*Video, error) {
	if err := p.validate(false); err != nil {
		return nil, err
	}
	v, err := s.store.Find(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	v.Title = p.Title
	v.Description = p.Description
	v.Published = p.Published
	if p.Thumbnail != "" {
		v.Thumbnail = p.Thumbnail
	}
	v.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Feed lists published videos, newest first.
func (s *Service) Feed(ctx context.Context, page, limit int) (Page, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.store.Feed(ctx, page, limit)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Get fetches a single video. When viewerID is set, the fetch records watch
// history and counts a view, deduplicated per viewer when a deduper is
// configured. History and view bookkeeping are best effort; their failures
// never fail the read.
func (s *Service) Get(ctx context.Context, id, viewerID string) (*Video, error) {
	v, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerID != "" {
		_ = s.store.TouchHistory(ctx, viewerID, id, s.now().UTC())
		if s.views == nil || s.views.FirstView(ctx, id, viewerID) {
			if err := s.store.IncrementViews(ctx, id); err == nil {
				v.Views++
			}
		}
	}
	return v, nil
}

// GetMany hydrates a list of video ids.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.store.FindMany(ctx, ids)
}

// Mine lists the owner's videos with optional filters.
func (s *Service) Mine(ctx context.Context, ownerID string, f OwnerFilter) (Page, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	f.Title = strings.TrimSpace(f.Title)
	items, total, err := s.store.ListByOwner(ctx, ownerID, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// History returns the user's watch history, most recent first.
func (s *Service) History(ctx context.Context, userID string, page, limit int) ([]Video, error) {
	page, limit = normalizePage(page, limit)
	return s.store.WatchHistory(ctx, userID, page, limit)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
