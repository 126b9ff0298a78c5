package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"supportbot/internal/infrastructure"
	httpapi "supportbot/internal/interfaces/http"
	"supportbot/internal/usecases"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the optional Telegram channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log

	assistant, err := a.assistant(ctx)
	if err != nil {
		return err
	}

	publisher, err := infrastructure.NewEscalationPublisher(ctx, cfg.Events, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	limiter := infrastructure.NewMessageRateLimiter(cfg.RateLimit.MessagesPerSecond, cfg.RateLimit.MessageBurst)
	go limiter.Run(ctx, 5*time.Minute)

	chat := usecases.NewChatService(usecases.ChatServiceDeps{
		Chats:       a.chats,
		Escalations: a.escalations,
		Metrics:     a.metrics,
		Catalog:     a.catalog,
		Router:      a.router(assistant),
		Publisher:   publisher,
		Locks:       infrastructure.NewSessionManager(),
		Limiter:     limiter,
	}, usecases.ChatConfig{
		MaxMessageLength:   cfg.Routing.MaxMessageLength,
		MaxContextMessages: cfg.Routing.MaxContextMessages,
		ContextMessages:    cfg.Escalation.ContextMessages,
		UrgentKeywords:     cfg.Escalation.UrgentKeywords,
		EventsDriver:       cfg.Events.Driver,
	}, log)
	sessions := usecases.NewSessionService(a.chats, a.metrics, assistant, log)
	faqs := usecases.NewFAQUsecase(a.faqs, a.escalations, a.catalog, log)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn().Msg("JWT_SECRET is not set; using a random secret, admin tokens will not survive a restart")
	}
	auth := usecases.NewAuthUsecase(a.users, secret, cfg.Auth.TokenTTL)
	created, err := auth.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		log.Warn().Err(err).Msg("failed to ensure admin user")
	} else if created {
		log.Info().Str("username", cfg.Auth.AdminUsername).Msg("admin user created")
	}

	if cfg.Observability.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpapi.SetupRoutes(r, httpapi.Deps{
		Chat:           chat,
		Sessions:       sessions,
		FAQs:           faqs,
		Auth:           auth,
		DB:             a.store,
		Catalog:        a.catalog,
		Middleware:     httpapi.NewMiddleware(secret),
		Logger:         log,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AdminRate:      rate.Limit(cfg.RateLimit.AdminPerSecond),
		AdminBurst:     cfg.RateLimit.AdminBurst,
	})

	if cfg.Telegram.Enabled {
		tg, err := infrastructure.NewTelegramChannel(cfg.Telegram.Token, cfg.Telegram.Debug, chat, a.catalog.Entries, log)
		if err != nil {
			log.Error().Err(err).Msg("telegram disabled")
		} else {
			go tg.Run(ctx)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
