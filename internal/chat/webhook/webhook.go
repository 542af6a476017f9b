// Package webhook implements chat.Responder over the assistant's HTTP
// webhook: POST {"query": ...} answered with [{"output": ...}].
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrEmptyResponse     = errors.New("assistant returned an empty response")
	ErrMalformedResponse = errors.New("assistant returned a malformed response")
)

type request struct {
	Query string `json:"query"`
}

type reply struct {
	Output string `json:"output"`
}

type Client struct {
	url    string
	client *http.Client
	debug  bool
	logger *slog.Logger
}

// New returns a client for url. A zero timeout means DefaultTimeout. With
// debug set, request and response bodies are logged.
func New(url string, timeout time.Duration, debug bool, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
		debug:  debug,
		logger: logger,
	}
}

func (c *Client) Reply(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(request{Query: query})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	if c.debug {
		c.logger.Info("chat webhook request", "url", c.url, "body", string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat webhook: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close chat webhook response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read chat webhook response: %w", err)
	}
	if c.debug {
		c.logger.Info("chat webhook response", "status", resp.StatusCode, "body", string(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("chat webhook returned status %d", resp.StatusCode)
	}

	var replies []reply
	if err := json.Unmarshal(body, &replies); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(replies) == 0 {
		return "", ErrEmptyResponse
	}
	out := strings.TrimSpace(replies[0].Output)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
