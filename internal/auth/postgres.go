package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ UserStore = (*PGStore)(nil)

const userColumns = `id, username, email, fullname, avatar, cover, password_hash, refresh_token, created_at, updated_at`

// PGStore implements UserStore using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, email, fullname, avatar, cover, password_hash, refresh_token, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Username, u.Email, u.Fullname, u.Avatar, u.Cover, u.PasswordHash, u.RefreshToken, u.CreatedAt, u.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return storeErr(err)
}

func (s *PGStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGStore) FindByUsernameOrEmail(ctx context.Context, identifier string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=lower($1) or email=lower($1)`, identifier)
	return scanUser(row)
}

func (s *PGStore) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	return s.exec(ctx,
		`update users set refresh_token=$2, updated_at=now() where id=$1`, userID, token)
}

func (s *PGStore) UpdateCredentials(ctx context.Context, userID, passwordHash string) error {
	return s.exec(ctx,
		`update users set password_hash=$2, refresh_token='', updated_at=now() where id=$1`, userID, passwordHash)
}

func (s *PGStore) UpdateProfile(ctx context.Context, userID, fullname, email, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`update users set fullname=$2, email=$3, username=$4, updated_at=now()
		 where id=$1 returning `+userColumns, userID, fullname, email, username)
	return scanUser(row)
}

func (s *PGStore) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`update users set avatar=$2, updated_at=now() where id=$1 returning `+userColumns, userID, avatarURL)
	return scanUser(row)
}

func (s *PGStore) UpdateCover(ctx context.Context, userID, coverURL string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`update users set cover=$2, updated_at=now() where id=$1 returning `+userColumns, userID, coverURL)
	return scanUser(row)
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

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.Avatar, &u.Cover,
		&u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

// storeErr wraps driver failures in ErrStoreUnavailable so callers can
// tell an unreachable database from a domain outcome.
func storeErr(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
