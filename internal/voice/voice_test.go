package voice

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedURL(t *testing.T) {
	got, err := EmbedURL("https://voice.example.com/agent?lang=en", "dark", "user_123")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "voice.example.com", u.Host)
	assert.Equal(t, "/agent", u.Path)
	q := u.Query()
	assert.Equal(t, "true", q.Get("embed"))
	assert.Equal(t, "dark", q.Get("theme"))
	assert.Equal(t, "user_123", q.Get("userId"))
	assert.Equal(t, "en", q.Get("lang"))
}

func TestEmbedURLErrors(t *testing.T) {
	_, err := EmbedURL("", "dark", "u")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = EmbedURL("javascript:alert(1)", "dark", "u")
	assert.Error(t, err)
}

func TestOrigin(t *testing.T) {
	assert.Equal(t, "https://voice.example.com", Origin("https://voice.example.com/agent?x=1"))
	assert.Equal(t, "", Origin(""))
}
