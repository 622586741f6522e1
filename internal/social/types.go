package social

import (
	"errors"
	"time"
)

const maxCommentLen = 500

// TargetKind names what a rating is attached to.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
)

// Comment is a viewer comment on a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentView is a comment decorated with its rating tallies and the
// viewer's own reaction.
type CommentView struct {
	Comment
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Liked    bool  `json:"liked"`
}

// CommentPage is a paginated comment listing.
type CommentPage struct {
	Items []CommentView `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// Rating is a single user's like or dislike of a video or comment.
// A user holds at most one rating per target; repeating the polarity
// already held is rejected, the opposite polarity flips it in place.
type Rating struct {
	ID        string
	UserID    string
	Kind      TargetKind
	TargetID  string
	Like      bool
	CreatedAt time.Time
}

// RatingCounts are the per-target tallies.
type RatingCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// RatingStatus is the outcome of a rate call: the new tallies plus the
// caller's own reaction.
type RatingStatus struct {
	RatingCounts
	Liked    bool `json:"liked"`
	Disliked bool `json:"disliked"`
}

// Subscription records that a user follows a channel.
type Subscription struct {
	SubscriberID string    `json:"subscriber_id"`
	ChannelID    string    `json:"channel_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChannelStats summarize a channel for its public profile.
type ChannelStats struct {
	Subscribers  int64 `json:"subscribers"`
	SubscribedTo int64 `json:"subscribed_to"`
	IsSubscribed bool  `json:"is_subscribed"`
}

var (
	ErrNotFound     = errors.New("social: not found")
	ErrInvalidInput = errors.New("social: invalid input")
	ErrForbidden    = errors.New("social: not the author")

	// ErrAlreadyRated is returned when the user repeats the rating they
	// already hold on a target.
	ErrAlreadyRated = errors.New("social: already rated")

	// ErrStoreUnavailable wraps driver and connectivity failures.
	ErrStoreUnavailable = errors.New("social: store unavailable")
)
