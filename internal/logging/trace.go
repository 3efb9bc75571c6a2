// Package logging provides request ID tracing for distributed debugging.
package logging

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// NewRequestID generates a unique, lexicographically time-sortable
// request ID, so a grep across logs for a prefix yields them in
// creation order.
func NewRequestID() string {
	return ulid.Make().String()
}

// WithRequestID adds a request ID to context.
// If id is empty, generates a new one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRequestID()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID extracts request ID from context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// RequestIDFromContext is an alias for GetRequestID.
func RequestIDFromContext(ctx context.Context) string {
	return GetRequestID(ctx)
}
