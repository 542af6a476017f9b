// Package newsletter posts sign-ups to the newsletter webhook.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/vbonduro/shopassist/internal/api"
)

// Source tags every sign-up sent from this site.
const Source = "website_footer"

var ErrNotConfigured = errors.New("newsletter webhook not configured")

type signup struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

type Client struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func New(url string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{url: url, client: &http.Client{Timeout: 10 * time.Second}, logger: logger}
}

// Subscribe validates email and forwards it to the webhook.
func (c *Client) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return api.Invalid(fmt.Errorf("email: %w", err))
	}
	if c.url == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(signup{Email: email, Source: Source})
	if err != nil {
		return fmt.Errorf("failed to marshal signup: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call newsletter webhook: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close newsletter response body", "error", err)
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("newsletter webhook returned status %d", resp.StatusCode)
	}

	c.logger.Info("newsletter signup forwarded")
	return nil
}
