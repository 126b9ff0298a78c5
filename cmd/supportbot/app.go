package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"supportbot/internal/config"
	"supportbot/internal/faq"
	"supportbot/internal/infrastructure"
	"supportbot/internal/llm"
	"supportbot/internal/observability"
	"supportbot/internal/repository"
	"supportbot/internal/routing"
)

// app holds the components every subcommand shares.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	db    infrastructure.Database
	store *repository.Store

	faqs        *repository.FAQRepository
	chats       *repository.ChatRepository
	escalations *repository.EscalationRepository
	metrics     *repository.MetricsRepository
	users       *repository.UserRepository
	catalog     *faq.Catalog
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	db, store, err := infrastructure.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &app{
		cfg:         cfg,
		log:         logger,
		db:          db,
		store:       store,
		faqs:        repository.NewFAQRepository(store),
		chats:       repository.NewChatRepository(store),
		escalations: repository.NewEscalationRepository(store),
		metrics:     repository.NewMetricsRepository(store),
		users:       repository.NewUserRepository(store),
	}
	a.catalog = faq.NewCatalog(a.faqs, logger)
	if err := a.catalog.Reload(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info().
		Str("driver", cfg.Database.Driver).
		Int("faq_entries", a.catalog.Len()).
		Msg("database ready")
	return a, nil
}

func (a *app) Close() {
	a.db.Close()
}

// assistant builds the LLM-backed assistant for the configured provider.
func (a *app) assistant(ctx context.Context) (*llm.Assistant, error) {
	var completer llm.Completer
	switch a.cfg.LLM.Provider {
	case "gemini":
		g, err := llm.NewGeminiClient(ctx, a.cfg.LLM.GeminiAPIKey, a.cfg.LLM.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		completer = g
	default:
		if a.cfg.LLM.APIKey == "" {
			a.log.Warn().Msg("OPENROUTER_API_KEY is not set; unmatched questions will be escalated")
		}
		retry := llm.DefaultRetryConfig()
		retry.MaxRetries = a.cfg.LLM.MaxRetries
		if a.cfg.LLM.InitialBackoff > 0 {
			retry.InitialBackoff = a.cfg.LLM.InitialBackoff
		}
		completer = llm.NewOpenRouterClient(llm.OpenRouterConfig{
			APIKey:  a.cfg.LLM.APIKey,
			BaseURL: a.cfg.LLM.BaseURL,
			Model:   a.cfg.LLM.Model,
			Referer: a.cfg.LLM.Referer,
			Title:   a.cfg.LLM.Title,
			Timeout: a.cfg.LLM.Timeout,
			Retry:   retry,
		}, a.log)
	}

	acfg := llm.DefaultAssistantConfig()
	acfg.Timeout = a.cfg.LLM.Timeout
	acfg.MaxContextMessages = a.cfg.Routing.MaxContextMessages
	acfg.MaxTurnChars = a.cfg.Routing.MaxTurnChars
	return llm.NewAssistant(completer, acfg, a.log), nil
}

func (a *app) router(assistant routing.Assistant) *routing.Router {
	return routing.NewRouter(assistant, routing.Config{
		FAQThreshold:         a.cfg.Routing.FAQThreshold,
		RelatednessThreshold: a.cfg.Routing.RelatednessThreshold,
		SupportEmail:         a.cfg.Escalation.SupportEmail,
	}, a.log)
}
