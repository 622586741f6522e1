package auth

import "context"

// UserStore describes the persistence operations the session core depends
// on. The refresh token column is written exclusively through Sessions.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	// FindByUsernameOrEmail matches either field; username matching is
	// case-insensitive.
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*User, error)
	// UpdateRefreshToken overwrites the stored refresh token. An empty
	// token clears it.
	UpdateRefreshToken(ctx context.Context, userID, token string) error
	// UpdateCredentials replaces the password hash and clears the stored
	// refresh token in the same write.
	UpdateCredentials(ctx context.Context, userID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID, fullname, email, username string) (*User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (*User, error)
	UpdateCover(ctx context.Context, userID, coverURL string) (*User, error)
}
