package main

import (
	"context"
	stdlog "log"
	"time"

	"github.com/agentpanel/agentpanel/internal/agent"
	"github.com/agentpanel/agentpanel/internal/ai"
	"github.com/agentpanel/agentpanel/internal/config"
	"github.com/agentpanel/agentpanel/internal/conversation"
	"github.com/agentpanel/agentpanel/internal/db"
	"github.com/agentpanel/agentpanel/internal/host"
	"github.com/agentpanel/agentpanel/internal/httpapi"
	"github.com/agentpanel/agentpanel/internal/httpapi/handlers"
	"github.com/agentpanel/agentpanel/internal/logger"
	"github.com/agentpanel/agentpanel/internal/session"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		stdlog.Fatalf("logger: %v", err)
	}
	defer log.Sync()

	gdb, err := db.Open(cfg.DBPath, log)
	if err != nil {
		log.Fatal("open database failed", "path", cfg.DBPath, "error", err)
	}
	store := conversation.NewStore(gdb, log)

	var sessions session.Store
	switch cfg.SessionBackend {
	case "redis":
		rs := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			time.Duration(cfg.SessionTTLSecs)*time.Second)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rs.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Fatal("redis ping failed", "addr", cfg.RedisAddr, "error", err)
		}
		sessions = rs
	default:
		sessions = session.NewMemoryStore()
	}

	reg := ai.NewRegistry()
	reg.Register("anthropic", func() (ai.Provider, error) {
		return ai.NewAnthropicProvider(cfg.AnthropicAPIKey), nil
	})
	reg.Register("ollama", func() (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL), nil
	})
	reg.Register("openrouter", func() (ai.Provider, error) {
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})

	adapters := agent.NewManager()
	for _, name := range reg.Names() {
		adapters.Register(name, func() (*agent.Adapter, error) {
			p, err := reg.Get(name)
			if err != nil {
				return nil, err
			}
			return agent.NewAdapter(name, p, cfg.PrimaryModel, cfg.FallbackModels, cfg.MaxTokens, log), nil
		})
	}

	h := handlers.NewHandler(cfg, log, store, sessions, adapters, nil, nil, host.NoopAuth{})
	r := httpapi.NewRouter(h, cfg)

	log.Info("server starting", "addr", cfg.HTTPAddr, "adapter", cfg.AdapterType, "session_backend", cfg.SessionBackend)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}
