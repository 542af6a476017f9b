package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	BackendURL string `yaml:"backend_url"`

	ChatBackend  string        `yaml:"chat_backend"`
	ChatAPIURL   string        `yaml:"chat_api_url"`
	ChatTimeout  time.Duration `yaml:"chat_timeout"`
	ChatDebug    bool          `yaml:"chat_debug"`
	ClaudeAPIKey string        `yaml:"claude_api_key"`
	ClaudeModel  string        `yaml:"claude_model"`
	OllamaHost   string        `yaml:"ollama_host"`
	OllamaModel  string        `yaml:"ollama_model"`

	NewsletterWebhookURL string `yaml:"newsletter_webhook_url"`
	VoiceServiceURL      string `yaml:"voice_service_url"`

	// Firebase settings are passed through to the page config only; admin
	// login goes through the backend.
	FirebaseProjectID string `yaml:"firebase_project_id"`
	FirebaseAPIKey    string `yaml:"firebase_api_key"`

	BlogCacheTTL      time.Duration `yaml:"blog_cache_ttl"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
	AuthVerifyTimeout time.Duration `yaml:"auth_verify_timeout"`
	AuthFailsafe      time.Duration `yaml:"auth_failsafe"`
	SecureCookies     bool          `yaml:"secure_cookies"`

	LogLevel  string `yaml:"log_level"`
	LogFile   string `yaml:"log_file"`
	LogFormat string `yaml:"log_format"`
}

// Load builds the config from defaults, then the YAML file named by
// SHOPASSIST_CONFIG if set, then environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        ":8080",
		DBPath:            "/data/shopassist.db",
		BackendURL:        "http://localhost:5000",
		ChatBackend:       "webhook",
		ChatTimeout:       30 * time.Second,
		ClaudeModel:       "claude-sonnet-4-5",
		OllamaHost:        "http://localhost:11434",
		OllamaModel:       "llama3.2",
		BlogCacheTTL:      5 * time.Minute,
		SessionTTL:        12 * time.Hour,
		AuthVerifyTimeout: 5 * time.Second,
		AuthFailsafe:      10 * time.Second,
		LogLevel:          "info",
		LogFormat:         "json",
	}

	if path := os.Getenv("SHOPASSIST_CONFIG"); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.BackendURL = getEnv("BACKEND_URL", cfg.BackendURL)
	cfg.ChatBackend = getEnv("CHAT_BACKEND", cfg.ChatBackend)
	cfg.ChatAPIURL = getEnv("CHAT_API_URL", cfg.ChatAPIURL)
	cfg.ClaudeAPIKey = getEnv("CLAUDE_API_KEY", cfg.ClaudeAPIKey)
	cfg.ClaudeModel = getEnv("CLAUDE_MODEL", cfg.ClaudeModel)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OllamaModel = getEnv("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.NewsletterWebhookURL = getEnv("NEWSLETTER_WEBHOOK_URL", cfg.NewsletterWebhookURL)
	cfg.VoiceServiceURL = getEnv("VOICE_SERVICE_URL", cfg.VoiceServiceURL)
	cfg.FirebaseProjectID = getEnv("FIREBASE_PROJECT_ID", cfg.FirebaseProjectID)
	cfg.FirebaseAPIKey = getEnv("FIREBASE_API_KEY", cfg.FirebaseAPIKey)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CHAT_TIMEOUT", &cfg.ChatTimeout},
		{"BLOG_CACHE_TTL", &cfg.BlogCacheTTL},
		{"SESSION_TTL", &cfg.SessionTTL},
		{"AUTH_VERIFY_TIMEOUT", &cfg.AuthVerifyTimeout},
		{"AUTH_FAILSAFE", &cfg.AuthFailsafe},
	}
	for _, d := range durations {
		if err := envDuration(d.key, d.dst); err != nil {
			return nil, err
		}
	}
	if err := envBool("CHAT_DEBUG", &cfg.ChatDebug); err != nil {
		return nil, err
	}
	if err := envBool("SECURE_COOKIES", &cfg.SecureCookies); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// envDuration accepts Go durations ("30s") or a plain number of milliseconds.
func envDuration(key string, dst *time.Duration) error {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return nil
	}
	if ms, err := strconv.Atoi(val); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func envBool(key string, dst *bool) error {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}
