package appcontext

import (
	"context"
	"testing"
)

func TestContextSyncAttempt(t *testing.T) {
	testID := "attempt-42"
	ctx := WithSyncAttempt(context.Background(), testID)

	id, ok := GetSyncAttempt(ctx)
	if !ok || id != testID {
		t.Errorf("Failed to retrieve sync attempt id from context. Got: %s, want: %s", id, testID)
	}
}

func TestContextSyncAttemptMissing(t *testing.T) {
	if id, ok := GetSyncAttempt(context.Background()); ok {
		t.Errorf("Expected no sync attempt id, got %s", id)
	}
}
