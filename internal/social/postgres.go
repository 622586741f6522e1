package social

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var _ Store = (*PGStore)(nil)

const commentColumns = `id, video_id, author_id, content, created_at, updated_at`

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateComment(ctx context.Context, c *Comment) error {
	_, err := s.db.ExecContext(ctx,
		`insert into comments(id, video_id, author_id, content, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6)`,
		c.ID, c.VideoID, c.AuthorID, c.Content, c.CreatedAt, c.UpdatedAt)
	return storeErr(err)
}

func (s *PGStore) FindComment(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	err := s.db.QueryRowContext(ctx,
		`select `+commentColumns+` from comments where id=$1`, id).
		Scan(&c.ID, &c.VideoID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

func (s *PGStore) UpdateComment(ctx context.Context, c *Comment) error {
	return s.exec(ctx,
		`update comments set content=$2, updated_at=$3 where id=$1`,
		c.ID, c.Content, c.UpdatedAt)
}

func (s *PGStore) DeleteComment(ctx context.Context, id string) error {
	if err := s.exec(ctx, `delete from comments where id=$1`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`delete from ratings where kind=$1 and target_id=$2`, TargetComment, id)
	return storeErr(err)
}

func (s *PGStore) ListComments(ctx context.Context, videoID string, page, limit int) ([]Comment, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from comments where video_id=$1`, videoID).Scan(&total); err != nil {
		return nil, 0, storeErr(err)
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+commentColumns+` from comments where video_id=$1
		 order by created_at desc, id desc limit $2 offset $3`,
		videoID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer rows.Close()
	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.VideoID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, storeErr(err)
		}
		out = append(out, c)
	}
	return out, total, storeErr(rows.Err())
}

func (s *PGStore) FindRating(ctx context.Context, userID string, kind TargetKind, targetID string) (*Rating, error) {
	var r Rating
	err := s.db.QueryRowContext(ctx,
		`select id, user_id, kind, target_id, liked, created_at from ratings
		 where user_id=$1 and kind=$2 and target_id=$3`,
		userID, kind, targetID).
		Scan(&r.ID, &r.UserID, &r.Kind, &r.TargetID, &r.Like, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &r, nil
}

func (s *PGStore) UpsertRating(ctx context.Context, r *Rating) error {
	_, err := s.db.ExecContext(ctx,
		`insert into ratings(id, user_id, kind, target_id, liked, created_at)
		 values($1,$2,$3,$4,$5,$6)
		 on conflict (user_id, kind, target_id) do update set liked=excluded.liked`,
		r.ID, r.UserID, r.Kind, r.TargetID, r.Like, r.CreatedAt)
	return storeErr(err)
}

func (s *PGStore) CountRatings(ctx context.Context, kind TargetKind, targetID string) (RatingCounts, error) {
	var counts RatingCounts
	err := s.db.QueryRowContext(ctx,
		`select count(*) filter (where liked), count(*) filter (where not liked)
		 from ratings where kind=$1 and target_id=$2`,
		kind, targetID).Scan(&counts.Likes, &counts.Dislikes)
	return counts, storeErr(err)
}

func (s *PGStore) LikedVideoIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select target_id from ratings
		 where user_id=$1 and kind=$2 and liked order by created_at desc`,
		userID, TargetVideo)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (s *PGStore) CreateSubscription(ctx context.Context, sub *Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`insert into subscriptions(subscriber_id, channel_id, created_at)
		 values($1,$2,$3) on conflict do nothing`,
		sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	return storeErr(err)
}

func (s *PGStore) DeleteSubscription(ctx context.Context, subscriberID, channelID string) error {
	return s.exec(ctx,
		`delete from subscriptions where subscriber_id=$1 and channel_id=$2`,
		subscriberID, channelID)
}

func (s *PGStore) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	var subscribed bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from subscriptions where subscriber_id=$1 and channel_id=$2)`,
		subscriberID, channelID).Scan(&subscribed)
	return subscribed, storeErr(err)
}

func (s *PGStore) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`select count(*) from subscriptions where channel_id=$1`, channelID).Scan(&n)
	return n, storeErr(err)
}

func (s *PGStore) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`select count(*) from subscriptions where subscriber_id=$1`, subscriberID).Scan(&n)
	return n, storeErr(err)
}

func (s *PGStore) SubscriberIDs(ctx context.Context, channelID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select subscriber_id from subscriptions where channel_id=$1 order by created_at desc`,
		channelID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (s *PGStore) SubscribedToIDs(ctx context.Context, subscriberID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select channel_id from subscriptions where subscriber_id=$1 order by created_at desc`,
		subscriberID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (s *PGStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, id)
	}
	return out, storeErr(rows.Err())
}

// storeErr wraps driver failures in ErrStoreUnavailable so callers can
// tell an unreachable database from a domain outcome.
func storeErr(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
