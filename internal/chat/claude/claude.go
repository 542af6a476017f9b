// Package claude implements chat.Responder with the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/shopassist/internal/chat"
)

// Replies are short chat turns; 1024 tokens leaves room for a detailed answer.
const maxTokens = 1024

var ErrEmptyReply = errors.New("claude returned no text")

type Client struct {
	api   *anthropic.Client
	model string
}

// New returns a responder for model. opts are passed to the Anthropic client,
// e.g. anthropic.WithBaseURL in tests.
func New(apiKey, model string, opts ...anthropic.ClientOption) *Client {
	return &Client{
		api:   anthropic.NewClient(apiKey, opts...),
		model: model,
	}
}

func (c *Client) Reply(ctx context.Context, query string) (string, error) {
	resp, err := c.api.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    chat.SystemPrompt,
		MaxTokens: maxTokens,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(query)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	var parts []string
	for _, blk := range resp.Content {
		if blk.Type == anthropic.MessagesContentTypeText {
			parts = append(parts, blk.GetText())
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
