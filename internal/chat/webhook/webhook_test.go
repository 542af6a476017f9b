package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, map[string]string{"query": "store hours?"}, in)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"output":"  We open at 9am. "}]`))
	}))
	defer server.Close()

	out, err := New(server.URL, 0, true, nil).Reply(context.Background(), "store hours?")
	require.NoError(t, err)
	assert.Equal(t, "We open at 9am.", out)
}

func TestReplyErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "empty array", status: http.StatusOK, body: `[]`, want: ErrEmptyResponse},
		{name: "blank output", status: http.StatusOK, body: `[{"output":""}]`, want: ErrEmptyResponse},
		{name: "object instead of array", status: http.StatusOK, body: `{"output":"hi"}`, want: ErrMalformedResponse},
		{name: "not json", status: http.StatusOK, body: `oops`, want: ErrMalformedResponse},
		{name: "server error", status: http.StatusBadGateway, body: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL, 0, false, nil).Reply(context.Background(), "hi")
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestReplyTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := New(server.URL, 50*time.Millisecond, false, nil).Reply(context.Background(), "hi")
	assert.Error(t, err)
}

func TestNewDefaultsTimeout(t *testing.T) {
	c := New("http://example.invalid", 0, false, nil)
	assert.Equal(t, DefaultTimeout, c.client.Timeout)
}

func TestReplyDebugLogsAtInfoLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"output":"Yes, we ship abroad."}]`))
	}))
	defer server.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_, err := New(server.URL, 0, true, logger).Reply(context.Background(), "do you ship abroad?")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "do you ship abroad?")
	assert.Contains(t, logs.String(), "Yes, we ship abroad.")

	logs.Reset()
	_, err = New(server.URL, 0, false, logger).Reply(context.Background(), "do you ship abroad?")
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "do you ship abroad?")
}
