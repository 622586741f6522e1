package activity

import (
	"context"
	"strings"
	"time"
)

// Entry is one recorded API action by an authenticated user.
type Entry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store describes activity persistence.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	// ListByUser returns the user's entries, most recent first.
	ListByUser(ctx context.Context, userID string, page, limit int) ([]Entry, error)
}

type ctxKey string

const requestIDKey ctxKey = "activity_request_id"

// WithRequestID attaches the request identifier to the context so recorded
// entries can be correlated with request logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request id if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
