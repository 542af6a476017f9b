package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/storage"
)

func TestAnonymousUserIDIsStable(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()

	first, err := AnonymousUserID(ctx, kv)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "user_"))

	second, err := AnonymousUserID(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResetConversation(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()

	conv, err := ConversationID(ctx, kv)
	require.NoError(t, err)

	next, err := ResetConversation(ctx, kv)
	require.NoError(t, err)
	assert.NotEqual(t, conv, next)

	current, err := ConversationID(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, next, current)
}
