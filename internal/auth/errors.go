package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown identifier and a wrong
	// password; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUnauthorized indicates a missing, malformed or expired token.
	ErrUnauthorized = errors.New("auth: unauthorized")

	// ErrTokenMismatch indicates a refresh token that is validly signed but
	// superseded by rotation or revoked by logout/password change.
	ErrTokenMismatch = errors.New("auth: refresh token superseded or revoked")

	// ErrNotFound indicates the referenced identity does not exist.
	ErrNotFound = errors.New("auth: not found")

	// ErrInvalidUser indicates a verified token whose identity has since
	// been deleted.
	ErrInvalidUser = errors.New("auth: invalid user")

	ErrAlreadyExists    = errors.New("auth: already exists")
	ErrInvalidInput     = errors.New("auth: invalid input")
	ErrStoreUnavailable = errors.New("auth: store unavailable")
)
