// Package identity hands out the anonymous ids the chat and voice features
// attach to a visitor.
package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vbonduro/shopassist/internal/storage"
)

// AnonymousUserID returns the device's anonymous user id, creating and
// persisting one on first use.
func AnonymousUserID(ctx context.Context, kv storage.KV) (string, error) {
	return getOrCreate(ctx, kv, storage.KeyAnonUserID, "user_")
}

// ConversationID returns the device's current chat conversation id.
func ConversationID(ctx context.Context, kv storage.KV) (string, error) {
	return getOrCreate(ctx, kv, storage.KeyConversationID, "conv_")
}

// ResetConversation starts a new conversation and returns its id.
func ResetConversation(ctx context.Context, kv storage.KV) (string, error) {
	id := "conv_" + uuid.NewString()
	if err := kv.Set(ctx, storage.KeyConversationID, id); err != nil {
		return "", fmt.Errorf("failed to persist conversation id: %w", err)
	}
	return id, nil
}

func getOrCreate(ctx context.Context, kv storage.KV, key, prefix string) (string, error) {
	id, ok, err := kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = prefix + uuid.NewString()
	if err := kv.Set(ctx, key, id); err != nil {
		return "", fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return id, nil
}
