package main

import (
	"context"
	"errors"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	cacheadapter "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/cache/adapter"
	cacheport "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/cache/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/config"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/database"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/logging"
	queueadapter "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/queue/adapter"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/realtime"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/task"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/adapter"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	chathttp "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/http"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/token"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "chat-relay"})
	logger := logging.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage selection: a configured database that cannot be reached is a
	// fatal misconfiguration, not a reason to fall back to memory.
	var store repository.ChatStore
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := database.InitSchema(connectCtx, pool); err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("failed to initialise schema")
		}
		cancel()
		defer pool.Close()
		store = adapter.NewPgChatStore(pool)
	} else {
		logger.Warn().Msg("CHAT_DATABASE_URL not set, using in-memory store")
		store = adapter.NewMemChatStore()
	}
	logger.Info().Str("storage", store.Kind()).Msg("storage ready")

	// Redis wires up the unread-badge cache and the refresh queue. Everything
	// else works without it.
	var (
		cache     cacheport.Cache
		refresher *task.UnreadsRefresher
	)
	if cfg.RedisURL != "" {
		redisCache, err := cacheadapter.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		cache = redisCache

		qc, err := queueadapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create queue client")
		}
		defer qc.Close()
		refresher = &task.UnreadsRefresher{Q: qc, Cache: cache, Logger: logger}

		qs, err := queueadapter.NewAsynqServer(cfg.RedisURL, cfg.AsynqConcurrency, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create queue server")
		}
		task.RegisterRefreshUnreadsTask(qs, store, cache)
		go func() {
			if err := qs.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("queue server stopped")
			}
		}()
	}

	var resolver token.IdentityResolver
	if cfg.MedusaBackendURL != "" {
		resolver = token.NewMedusaResolver(cfg.MedusaBackendURL, cfg.MedusaPublishableKey)
	}
	tokens := token.NewService(cfg.JWTSecret, cfg.TokenTTLSeconds, resolver)

	registry := realtime.NewRegistry()
	defer registry.Close()

	router := chathttp.NewRouter(chathttp.Deps{
		Cfg:       cfg,
		Store:     store,
		Tokens:    tokens,
		Cache:     cache,
		Registry:  registry,
		Refresher: refresher,
		Logger:    logger,
	})

	srv := &nethttp.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("chat relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
