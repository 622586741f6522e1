package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"cliphub.org/internal/ids"
)

// Sessions orchestrates the authentication session lifecycle: login, logout,
// refresh rotation and password changes. It is the only writer of the stored
// refresh token, which enforces the single-session invariant: at most one
// refresh token is valid per identity at any time.
type Sessions struct {
	store  UserStore
	tokens *Tokens
}

// NewSessions constructs the session manager.
func NewSessions(store UserStore, tokens *Tokens) *Sessions {
	return &Sessions{store: store, tokens: tokens}
}

// RegisterParams are the inputs to Register. Asset URLs point at already
// hosted media; this service does not store files.
type RegisterParams struct {
	Username string
	Email    string
	Fullname string
	Password string
	Avatar   string
	Cover    string
}

// Register creates a new identity. Username and email are stored lower-cased
// and must both be unique.
func (s *Sessions) Register(ctx context.Context, p RegisterParams) (*User, error) {
	p.Username = strings.ToLower(strings.TrimSpace(p.Username))
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Fullname = strings.TrimSpace(p.Fullname)
	if p.Username == "" || p.Email == "" || p.Fullname == "" || p.Password == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(p.Avatar) == "" {
		return nil, ErrInvalidInput
	}

	for _, identifier := range []string{p.Username, p.Email} {
		if _, err := s.store.FindByUsernameOrEmail(ctx, identifier); err == nil {
			return nil, ErrAlreadyExists
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &User{
		ID:           ids.New(),
		Username:     p.Username,
		Email:        p.Email,
		Fullname:     p.Fullname,
		Avatar:       strings.TrimSpace(p.Avatar),
		Cover:        strings.TrimSpace(p.Cover),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a fresh token pair, overwriting any
// previously stored refresh token. An unknown identifier and a wrong
// password both surface as ErrInvalidCredentials.
func (s *Sessions) Login(ctx context.Context, identifier, password string) (TokenPair, *User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	u, err := s.store.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	pair, err := s.rotate(ctx, u)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, u, nil
}

// Logout clears the stored refresh token. Clearing an already-empty field or
// a missing identity is not an error.
func (s *Sessions) Logout(ctx context.Context, userID string) error {
	err := s.store.UpdateRefreshToken(ctx, userID, "")
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Refresh exchanges a valid, current refresh token for a new pair. The
// presented token must verify AND match the stored value; a superseded or
// revoked token fails with ErrTokenMismatch even when its signature is still
// good, which is what makes rotation revoke predecessors.
func (s *Sessions) Refresh(ctx context.Context, presented string) (TokenPair, *User, error) {
	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		return TokenPair{}, nil, ErrUnauthorized
	}
	u, err := s.store.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrNotFound
		}
		return TokenPair{}, nil, err
	}
	if u.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(u.RefreshToken), []byte(presented)) != 1 {
		return TokenPair{}, nil, ErrTokenMismatch
	}
	pair, err := s.rotate(ctx, u)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, u, nil
}

// ChangePassword verifies the old password, replaces the hash and clears the
// stored refresh token, forcing re-login everywhere.
func (s *Sessions) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}
	u, err := s.store.Find(ctx, userID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(u.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdateCredentials(ctx, userID, hash)
}

// VerifyAccess validates an access token and returns its claims.
func (s *Sessions) VerifyAccess(token string) (*Claims, error) {
	return s.tokens.VerifyAccess(token)
}

// User loads an identity by id.
func (s *Sessions) User(ctx context.Context, id string) (*User, error) {
	return s.store.Find(ctx, id)
}

// UpdateProfile changes username/email/fullname after re-verifying the
// password. Only the changed fields are written.
func (s *Sessions) UpdateProfile(ctx context.Context, userID, fullname, email, username, password string) (*User, error) {
	fullname = strings.TrimSpace(fullname)
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.ToLower(strings.TrimSpace(username))
	if fullname == "" || email == "" || username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	u, err := s.store.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.store.UpdateProfile(ctx, userID, fullname, email, username)
}

// UpdateAvatar replaces the avatar URL.
func (s *Sessions) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*User, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		return nil, ErrInvalidInput
	}
	return s.store.UpdateAvatar(ctx, userID, avatarURL)
}

// UpdateCover replaces the cover URL.
func (s *Sessions) UpdateCover(ctx context.Context, userID, coverURL string) (*User, error) {
	coverURL = strings.TrimSpace(coverURL)
	if coverURL == "" {
		return nil, ErrInvalidInput
	}
	return s.store.UpdateCover(ctx, userID, coverURL)
}

// rotate issues a fresh pair and persists the new refresh token, overwriting
// the previous one. Two concurrent rotations for the same identity race on
// the write; the last write wins and the loser's token fails on next use.
func (s *Sessions) rotate(ctx context.Context, u *User) (TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccess(u)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.UpdateRefreshToken(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	u.RefreshToken = refresh
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}
