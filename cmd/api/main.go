package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	v1 "github.com/TheTrueVester/leasy-chat/cmd/api/router/v1"
	cacheadapter "github.com/TheTrueVester/leasy-chat/internal/infrastructure/cache/adapter"
	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/config"
	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/database"
	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/logging"
	queueadapter "github.com/TheTrueVester/leasy-chat/internal/infrastructure/queue/adapter"
	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/realtime"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/task"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/application/usecase"
	useradapter "github.com/TheTrueVester/leasy-chat/internal/repository/adapter"
	userrepo "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the database on startup
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := database.EnsureSchema(connectCtx, pool); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}

	// User identity lookups go through Redis when it is configured,
	// straight to Postgres otherwise.
	var users userrepo.UserDirectory = useradapter.NewPgUserDirectory(pool)
	if cfg.RedisURL != "" {
		cache, err := cacheadapter.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, identity cache disabled")
		} else {
			defer cache.Close()
			users = useradapter.NewCachedUserDirectory(users, cache, cfg.IdentityCacheTTL())
		}
	}

	// Offline notifications are queued through asynq when Redis is
	// configured. Without it the send path still works, it just cannot
	// flag unread messages for offline recipients asynchronously.
	var notif usecase.Notifier
	if cfg.RedisURL != "" {
		client, err := queueadapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("create queue client")
		}
		defer client.Close()

		srv, err := queueadapter.NewAsynqServer(cfg.RedisURL, 10)
		if err != nil {
			log.Fatal().Err(err).Msg("create queue server")
		}
		task.RegisterNotifyOfflineTask(srv, users)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Error().Err(err).Msg("queue server stopped")
			}
		}()

		notif = task.NewQueueNotifier(client)
	}

	registry := realtime.NewRegistry()
	router := realtime.NewRouter(registry)
	supervisor := realtime.NewSupervisor(registry, cfg.ProbeInterval(), cfg.PongTimeout())
	go supervisor.Run(ctx)

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	v1.RegisterRoutes(r, pool, users, router, notif, registry, router, supervisor)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	registry.Close()
}
