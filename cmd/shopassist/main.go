package main

import (
	"log"
	"log/slog"

	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/api"
	"github.com/vbonduro/shopassist/internal/chat"
	"github.com/vbonduro/shopassist/internal/chat/claude"
	"github.com/vbonduro/shopassist/internal/chat/ollama"
	"github.com/vbonduro/shopassist/internal/chat/webhook"
	"github.com/vbonduro/shopassist/internal/config"
	"github.com/vbonduro/shopassist/internal/db"
	"github.com/vbonduro/shopassist/internal/logging"
	"github.com/vbonduro/shopassist/internal/metrics"
	"github.com/vbonduro/shopassist/internal/newsletter"
	"github.com/vbonduro/shopassist/internal/session"
	"github.com/vbonduro/shopassist/internal/site"
	"github.com/vbonduro/shopassist/internal/storage"
	"github.com/vbonduro/shopassist/internal/web"
	"github.com/vbonduro/shopassist/internal/web/templates"
)

const (
	maxConsoles      = 256
	maxConversations = 1024
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	m := metrics.New()
	backend := api.New(cfg.BackendURL, api.WithObserver(m), api.WithLogger(logger))
	store := storage.NewStore(database)

	registry := admin.NewRegistry(backend, store, maxConsoles, cfg.SessionTTL, logger,
		session.WithTimeouts(cfg.AuthVerifyTimeout, cfg.AuthFailsafe))
	defer registry.Close()

	deps := web.Deps{
		Site:       site.New(backend, cfg.BlogCacheTTL, logger),
		Chat:       chat.NewConversations(newResponder(cfg, logger), maxConversations, cfg.SessionTTL, logger,
			chat.WithReplyTimeout(cfg.ChatTimeout)),
		Newsletter: newsletter.New(cfg.NewsletterWebhookURL, logger),
		Admin:      registry,
		Store:      store,
		Metrics:    m,
	}
	settings := web.Settings{
		BackendURL:        cfg.BackendURL,
		ChatBackend:       cfg.ChatBackend,
		VoiceServiceURL:   cfg.VoiceServiceURL,
		NewsletterEnabled: cfg.NewsletterWebhookURL != "",
		FirebaseProjectID: cfg.FirebaseProjectID,
		SecureCookies:     cfg.SecureCookies,
	}
	server := web.NewServer(deps, settings, templates.FS, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newResponder(cfg *config.Config, logger *slog.Logger) chat.Responder {
	switch cfg.ChatBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Warn("CLAUDE_API_KEY is empty, falling back to the chat webhook")
			break
		}
		logger.Info("using Claude chat backend", "model", cfg.ClaudeModel)
		return claude.New(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama chat backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return ollama.New(cfg.OllamaHost, cfg.OllamaModel, cfg.ChatTimeout)
	}
	logger.Info("using webhook chat backend", "url", cfg.ChatAPIURL)
	return webhook.New(cfg.ChatAPIURL, cfg.ChatTimeout, cfg.ChatDebug, logger)
}
