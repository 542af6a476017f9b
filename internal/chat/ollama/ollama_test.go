package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/shopassist/internal/chat"
)

func TestReply(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    got.Model,
			"response": "  We open at 9am.\n",
		})
	}))
	defer server.Close()

	text, err := New(server.URL+"/", "llama3", time.Second).Reply(context.Background(), "When do you open?")

	require.NoError(t, err)
	assert.Equal(t, "We open at 9am.", text)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "When do you open?", got.Prompt)
	assert.Equal(t, chat.SystemPrompt, got.System)
	assert.False(t, got.Stream)
}

func TestReplyEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"   "}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "llama3", time.Second).Reply(context.Background(), "hi")

	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestReplyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL, "llama3", time.Second).Reply(context.Background(), "hi")

	assert.Error(t, err)
}

func TestReplyNetworkError(t *testing.T) {
	_, err := New("http://localhost:99999", "llama3", time.Second).Reply(context.Background(), "hi")

	assert.Error(t, err)
}

func TestReplyTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := New(server.URL, "llama3", 50*time.Millisecond).Reply(context.Background(), "hi")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
