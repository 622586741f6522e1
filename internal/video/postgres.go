package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var _ Store = (*PGStore)(nil)

const videoColumns = `id, owner_id, title, description, video_file, thumbnail, duration, views, published, created_at, updated_at`

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, v *Video) error {
	_, err := s.db.ExecContext(ctx,
		`insert into videos(id, owner_id, title, description, video_file, thumbnail, duration, views, published, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.ID, v.OwnerID, v.Title, v.Description, v.VideoFile, v.Thumbnail, v.Duration, v.Views, v.Published, v.CreatedAt, v.UpdatedAt,
	)
	return storeErr(err)
}

func (s *PGStore) Find(ctx context.Context, id string) (*Video, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+videoColumns+` from videos where id=$1`, id)
	return scanVideo(row)
}

func (s *PGStore) FindMany(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// array_position keeps the caller's ordering; ids that no longer
	// resolve are simply absent from the result.
	rows, err := s.db.QueryContext(ctx,
		`select `+videoColumns+` from videos
		 where id = any($1) order by array_position($1, id)`, ids)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectVideos(rows)
}

func (s *PGStore) Update(ctx context.Context, v *Video) error {
	return s.exec(ctx,
		`update videos set title=$2, description=$3, thumbnail=$4, published=$5, updated_at=$6 where id=$1`,
		v.ID, v.Title, v.Description, v.Thumbnail, v.Published, v.UpdatedAt)
}

func (s *PGStore) Feed(ctx context.Context, page, limit int) ([]Video, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from videos where published`).Scan(&total); err != nil {
		return nil, 0, storeErr(err)
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+videoColumns+` from videos where published
		 order by created_at desc, id desc limit $1 offset $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer rows.Close()
	items, err := collectVideos(rows)
	return items, total, err
}

func (s *PGStore) ListByOwner(ctx context.Context, ownerID string, f OwnerFilter) ([]Video, int64, error) {
	where := `owner_id=$1`
	args := []any{ownerID}
	if f.Published != nil {
		args = append(args, *f.Published)
		where += ` and published=$2`
	}
	if f.Title != "" {
		args = append(args, "%"+f.Title+"%")
		where += fmt.Sprintf(` and title ilike $%d`, len(args))
	}
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from videos where `+where, args...).Scan(&total); err != nil {
		return nil, 0, storeErr(err)
	}
	n := len(args)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`select `+videoColumns+` from videos where `+where+
			` order by created_at desc, id desc limit $%d offset $%d`, n+1, n+2),
		args...)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer rows.Close()
	items, err := collectVideos(rows)
	return items, total, err
}

func (s *PGStore) IncrementViews(ctx context.Context, id string) error {
	return s.exec(ctx, `update videos set views=views+1 where id=$1`, id)
}

func (s *PGStore) TouchHistory(ctx context.Context, userID, videoID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`insert into watch_history(user_id, video_id, watched_at) values($1,$2,$3)
		 on conflict (user_id, video_id) do update set watched_at=excluded.watched_at`,
		userID, videoID, at)
	return storeErr(err)
}

func (s *PGStore) WatchHistory(ctx context.Context, userID string, page, limit int) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+prefixed("v", videoColumns)+` from watch_history h
		 join videos v on v.id = h.video_id
		 where h.user_id=$1 order by h.watched_at desc limit $2 offset $3`,
		userID, limit, (page-1)*limit)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	return collectVideos(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row *sql.Row) (*Video, error) {
	v, err := scanVideoFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return v, nil
}

func scanVideoFrom(row rowScanner) (*Video, error) {
	var v Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail,
		&v.Duration, &v.Views, &v.Published, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVideos(rows *sql.Rows) ([]Video, error) {
	var out []Video
	for rows.Next() {
		v, err := scanVideoFrom(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, *v)
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

// prefixed qualifies each column with a table alias for join queries.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
