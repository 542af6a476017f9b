package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, "webhook", cfg.ChatBackend)
	assert.Equal(t, 30*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 5*time.Second, cfg.AuthVerifyTimeout)
	assert.Equal(t, 10*time.Second, cfg.AuthFailsafe)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("CHAT_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("CHAT_TIMEOUT", "15000")
	t.Setenv("CHAT_DEBUG", "true")
	t.Setenv("BLOG_CACHE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "claude", cfg.ChatBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, 15*time.Second, cfg.ChatTimeout)
	assert.True(t, cfg.ChatDebug)
	assert.Equal(t, time.Minute, cfg.BlogCacheTTL)
}

func TestLoadOllama(t *testing.T) {
	t.Setenv("CHAT_BACKEND", "ollama")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.ChatBackend)
	assert.Equal(t, "http://gpu-box:11434", cfg.OllamaHost)
	assert.Equal(t, "llama3.2", cfg.OllamaModel)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopassist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend_url: https://api.shop.example.com
voice_service_url: https://voice.example.com
chat_timeout: 45s
log_format: text
listen_addr: ":7000"
`), 0o600))
	t.Setenv("SHOPASSIST_CONFIG", path)
	t.Setenv("LISTEN_ADDR", ":7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.shop.example.com", cfg.BackendURL)
	assert.Equal(t, "https://voice.example.com", cfg.VoiceServiceURL)
	assert.Equal(t, 45*time.Second, cfg.ChatTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":7001", cfg.ListenAddr)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("SHOPASSIST_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("AUTH_FAILSAFE", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad bool", func(t *testing.T) {
		t.Setenv("CHAT_DEBUG", "maybe")
		_, err := Load()
		assert.Error(t, err)
	})
}
