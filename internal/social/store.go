package social

import "context"

// Store describes engagement persistence.
type Store interface {
	CreateComment(ctx context.Context, c *Comment) error
	FindComment(ctx context.Context, id string) (*Comment, error)
	UpdateComment(ctx context.Context, c *Comment) error
	DeleteComment(ctx context.Context, id string) error
	// ListComments returns the video's comments, newest first.
	ListComments(ctx context.Context, videoID string, page, limit int) ([]Comment, int64, error)

	// FindRating returns the user's rating of the target, or ErrNotFound.
	FindRating(ctx context.Context, userID string, kind TargetKind, targetID string) (*Rating, error)
	UpsertRating(ctx context.Context, r *Rating) error
	CountRatings(ctx context.Context, kind TargetKind, targetID string) (RatingCounts, error)
	// LikedVideoIDs lists ids of videos the user likes, most recent first.
	LikedVideoIDs(ctx context.Context, userID string) ([]string, error)

	CreateSubscription(ctx context.Context, s *Subscription) error
	DeleteSubscription(ctx context.Context, subscriberID, channelID string) error
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error)
	// SubscriberIDs lists who follows the channel; SubscribedToIDs lists
	// the channels the user follows.
	SubscriberIDs(ctx context.Context, channelID string) ([]string, error)
	SubscribedToIDs(ctx context.Context, subscriberID string) ([]string, error)
}
