// Package voice builds the iframe URL of the embedded voice agent.
package voice

import (
	"errors"
	"fmt"
	"net/url"
)

var ErrNotConfigured = errors.New("voice service url not configured")

// EmbedURL adds the embed flag, theme and anonymous user id to base.
// Existing query parameters on base are kept.
func EmbedURL(base, theme, userID string) (string, error) {
	if base == "" {
		return "", ErrNotConfigured
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid voice service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid voice service url scheme %q", u.Scheme)
	}

	q := u.Query()
	q.Set("embed", "true")
	q.Set("theme", theme)
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Origin returns scheme://host of base, for the frame-src policy.
func Origin(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
