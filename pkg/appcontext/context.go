// Package appcontext provides utility functions for working with context in the application.

package appcontext

import "context"

type contextKey string

// String returns the string representation of the context key.
func (c contextKey) String() string {
	return string(c)
}

// ContextSyncAttempt represents the context key for the sync attempt id.
var (
	ContextSyncAttempt = contextKey("syncAttempt")
)

// WithSyncAttempt returns a new context carrying the sync attempt id.
func WithSyncAttempt(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextSyncAttempt, id)
}

// GetSyncAttempt retrieves the sync attempt id from the context.
func GetSyncAttempt(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextSyncAttempt).(string)
	return id, ok
}
