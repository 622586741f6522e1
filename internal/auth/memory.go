package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

var _ UserStore = (*InMemory)(nil)

// InMemory implements UserStore with in-process locking. Used for
// development without a database and in tests.
type InMemory struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewInMemory creates an empty user store.
func NewInMemory() *InMemory {
	return &InMemory{users: make(map[string]*User)}
}

func (s *InMemory) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrAlreadyExists
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemory) FindByUsernameOrEmail(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.ToLower(identifier)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == identifier || u.Email == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) UpdateCredentials(ctx context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.RefreshToken = ""
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) UpdateProfile(ctx context.Context, userID, fullname, email, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	u.Fullname = fullname
	u.Email = email
	u.Username = username
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (s *InMemory) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*User, error) {
	return s.updateAsset(userID, avatarURL, true)
}

func (s *InMemory) UpdateCover(ctx context.Context, userID, coverURL string) (*User, error) {
	return s.updateAsset(userID, coverURL, false)
}

func (s *InMemory) updateAsset(userID, url string, avatar bool) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if avatar {
		u.Avatar = url
	} else {
		u.Cover = url
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}
