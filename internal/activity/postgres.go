package activity

import (
	"context"
	"database/sql"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Append(ctx context.Context, e *Entry) error {
	_, err := s.db.ExecContext(ctx,
		`insert into activity(id, user_id, method, endpoint, ip, user_agent, occurred_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.UserID, e.Method, e.Endpoint, e.IP, e.UserAgent, e.OccurredAt)
	return err
}

func (s *PGStore) ListByUser(ctx context.Context, userID string, page, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, user_id, method, endpoint, ip, user_agent, occurred_at
		 from activity where user_id=$1
		 order by occurred_at desc, id desc limit $2 offset $3`,
		userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Method, &e.Endpoint, &e.IP, &e.UserAgent, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
