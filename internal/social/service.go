package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"cliphub.org/internal/ids"
)

// Service implements the engagement operations: comments, ratings and
// subscriptions.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the engagement service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddComment posts a comment on a video.
func (s *Service) AddComment(ctx context.Context, authorID, videoID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxCommentLen {
		return nil, ErrInvalidInput
	}
	now := s.now().UTC()
	c := &Comment{
		ID:        ids.New(),
		VideoID:   videoID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// EditComment rewrites a comment's content. Only the author may edit.
func (s *Service) EditComment(ctx context.Context, authorID, commentID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxCommentLen {
		return nil, ErrInvalidInput
	}
	c, err := s.store.FindComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != authorID {
		return nil, ErrForbidden
	}
	c.Content = content
	c.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Comment loads a single comment by id.
func (s *Service) Comment(ctx context.Context, id string) (*Comment, error) {
	return s.store.FindComment(ctx, id)
}

// DeleteComment removes a comment. Only the author may delete.
func (s *Service) DeleteComment(ctx context.Context, authorID, commentID string) error {
	c, err := s.store.FindComment(ctx, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID != authorID {
		return ErrForbidden
	}
	return s.store.DeleteComment(ctx, commentID)
}

// Comments lists a video's comments with rating tallies. viewerID may be
// empty for anonymous listings; it only affects the Liked flag.
func (s *Service) Comments(ctx context.Context, videoID, viewerID string, page, limit int) (CommentPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	comments, total, err := s.store.ListComments(ctx, videoID, page, limit)
	if err != nil {
		return CommentPage{}, err
	}
	items := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		counts, err := s.store.CountRatings(ctx, TargetComment, c.ID)
		if err != nil {
			return CommentPage{}, err
		}
		view := CommentView{Comment: c, Likes: counts.Likes, Dislikes: counts.Dislikes}
		if viewerID != "" {
			r, err := s.store.FindRating(ctx, viewerID, TargetComment, c.ID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return CommentPage{}, err
			}
			view.Liked = err == nil && r.Like
		}
		items = append(items, view)
	}
	return CommentPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Rate records the user's reaction to a target. Repeating the polarity
// already held fails with ErrAlreadyRated and leaves the rating in
// place; the opposite polarity flips it.
func (s *Service) Rate(ctx context.Context, userID string, kind TargetKind, targetID string, like bool) (RatingStatus, error) {
	if kind != TargetVideo && kind != TargetComment {
		return RatingStatus{}, ErrInvalidInput
	}
	existing, err := s.store.FindRating(ctx, userID, kind, targetID)
	switch {
	case errors.Is(err, ErrNotFound):
		r := &Rating{
			ID:        ids.New(),
			UserID:    userID,
			Kind:      kind,
			TargetID:  targetID,
			Like:      like,
			CreatedAt: s.now().UTC(),
		}
		if err := s.store.UpsertRating(ctx, r); err != nil {
			return RatingStatus{}, err
		}
	case err != nil:
		return RatingStatus{}, err
	case existing.Like == like:
		return RatingStatus{}, ErrAlreadyRated
	default:
		existing.Like = like
		if err := s.store.UpsertRating(ctx, existing); err != nil {
			return RatingStatus{}, err
		}
	}
	return s.ratingStatus(ctx, userID, kind, targetID)
}

func (s *Service) ratingStatus(ctx context.Context, userID string, kind TargetKind, targetID string) (RatingStatus, error) {
	counts, err := s.store.CountRatings(ctx, kind, targetID)
	if err != nil {
		return RatingStatus{}, err
	}
	status := RatingStatus{RatingCounts: counts}
	r, err := s.store.FindRating(ctx, userID, kind, targetID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return RatingStatus{}, err
	}
	if err == nil {
		status.Liked = r.Like
		status.Disliked = !r.Like
	}
	return status, nil
}

// VideoRatings returns a video's like and dislike tallies.
func (s *Service) VideoRatings(ctx context.Context, videoID string) (RatingCounts, error) {
	return s.store.CountRatings(ctx, TargetVideo, videoID)
}

// LikedVideoIDs lists the ids of videos the user likes, most recent first.
func (s *Service) LikedVideoIDs(ctx context.Context, userID string) ([]string, error) {
	return s.store.LikedVideoIDs(ctx, userID)
}

// ToggleSubscription flips the user's subscription to a channel and
// reports the resulting state. Users cannot subscribe to themselves.
func (s *Service) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, ErrInvalidInput
	}
	subscribed, err := s.store.IsSubscribed(ctx, subscriberID, channelID)
	if err != nil {
		return false, err
	}
	if subscribed {
		if err := s.store.DeleteSubscription(ctx, subscriberID, channelID); err != nil {
			return false, err
		}
		return false, nil
	}
	err = s.store.CreateSubscription(ctx, &Subscription{
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ChannelStats summarizes a channel. viewerID may be empty; it only
// affects IsSubscribed.
func (s *Service) ChannelStats(ctx context.Context, channelID, viewerID string) (ChannelStats, error) {
	subs, err := s.store.CountSubscribers(ctx, channelID)
	if err != nil {
		return ChannelStats{}, err
	}
	following, err := s.store.CountSubscribedTo(ctx, channelID)
	if err != nil {
		return ChannelStats{}, err
	}
	stats := ChannelStats{Subscribers: subs, SubscribedTo: following}
	if viewerID != "" && viewerID != channelID {
		stats.IsSubscribed, err = s.store.IsSubscribed(ctx, viewerID, channelID)
		if err != nil {
			return ChannelStats{}, err
		}
	}
	return stats, nil
}

// SubscriberIDs lists who follows the channel.
func (s *Service) SubscriberIDs(ctx context.Context, channelID string) ([]string, error) {
	return s.store.SubscriberIDs(ctx, channelID)
}

// SubscribedToIDs lists the channels the user follows.
func (s *Service) SubscribedToIDs(ctx context.Context, subscriberID string) ([]string, error) {
	return s.store.SubscribedToIDs(ctx, subscriberID)
}
