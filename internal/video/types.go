package video

import (
	"errors"
	"time"
)

const (
	maxTitleLen       = 150
	maxDescriptionLen = 1000
)

// Video is a published or draft upload. File and thumbnail are URLs of
// already-hosted assets; this service never touches media bytes.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"video_file"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    int64     `json:"duration"` // seconds
	Views       int64     `json:"views"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Page is a paginated listing with the total match count.
type Page struct {
	Items []Video `json:"items"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

// OwnerFilter narrows an owner listing.
type OwnerFilter struct {
	Published *bool
	Title     string // case-insensitive substring
	Page      int
	Limit     int
}

var (
	ErrNotFound     = errors.New("video: not found")
	ErrInvalidInput = errors.New("video: invalid input")
	ErrForbidden    = errors.New("video: not the owner")

	// ErrStoreUnavailable wraps driver and connectivity failures.
	ErrStoreUnavailable = errors.New("video: store unavailable")
)
