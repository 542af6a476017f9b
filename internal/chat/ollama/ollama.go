// Package ollama implements chat.Responder against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vbonduro/shopassist/internal/chat"
)

var ErrEmptyReply = errors.New("ollama returned no text")

type Client struct {
	host   string
	model  string
	client *http.Client
}

// New returns a client for model on host. A zero timeout means
// chat.DefaultReplyTimeout.
func New(host, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = chat.DefaultReplyTimeout
	}
	return &Client{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

func (c *Client) Reply(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		System: chat.SystemPrompt,
		Prompt: query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
