package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/chat"
)

func messagesServer(t *testing.T, status int, resp any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req["model"])
		assert.Equal(t, chat.SystemPrompt, req["system"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestReply(t *testing.T) {
	server := messagesServer(t, http.StatusOK, map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"stop_reason": "end_turn",
		"content":     []map[string]any{{"type": "text", "text": "We ship worldwide."}},
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
	})

	c := New("sk-test", "claude-test", anthropic.WithBaseURL(server.URL))
	out, err := c.Reply(context.Background(), "do you ship abroad?")
	require.NoError(t, err)
	assert.Equal(t, "We ship worldwide.", out)
}

func TestReplyEmptyContent(t *testing.T) {
	server := messagesServer(t, http.StatusOK, map[string]any{
		"id":      "msg_2",
		"type":    "message",
		"role":    "assistant",
		"content": []map[string]any{},
	})

	_, err := New("sk-test", "claude-test", anthropic.WithBaseURL(server.URL)).Reply(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestReplyAPIError(t *testing.T) {
	server := messagesServer(t, http.StatusTooManyRequests, map[string]any{
		"type":  "error",
		"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
	})

	_, err := New("sk-test", "claude-test", anthropic.WithBaseURL(server.URL)).Reply(context.Background(), "hello")
	assert.Error(t, err)
}
