//	@title			ImageFeed API
//	@version		1.0
//	@description	Backend for ImageFeed: upload images and videos, browse the shared feed, delete your own posts.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/imagefeed/service/internal/auth"
	"github.com/imagefeed/service/internal/config"
	"github.com/imagefeed/service/internal/db"
	"github.com/imagefeed/service/internal/events"
	"github.com/imagefeed/service/internal/logger"
	"github.com/imagefeed/service/internal/metrics"
	"github.com/imagefeed/service/internal/post"
	"github.com/imagefeed/service/internal/storage"
	"github.com/imagefeed/service/internal/user"

	_ "github.com/imagefeed/service/docs/swagger"
)

const identityCacheTTL = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// run wires the service and blocks until a shutdown signal or a server error.
// Every resource it opens is released before it returns.
func run() error {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.IsProduction())

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("database migration: %w", err)
	}

	store, err := storage.NewMinioStorage(ctx,
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StoragePublicBase,
		cfg.StorageUseSSL,
	)
	if err != nil {
		return fmt.Errorf("object storage init: %w", err)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	// Wire dependencies: repository → service → handler
	userRepo := user.NewRepository(pool)
	var directory user.Directory = userRepo
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		directory = user.NewCachedDirectory(userRepo, rdb, identityCacheTTL)
		log.Info().Str("addr", opts.Addr).Msg("identity cache enabled")
	}
	userSvc := user.NewService(userRepo, directory)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(userSvc, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := auth.NewHandler(authSvc)

	var publisher post.Publisher = events.Noop{}
	if cfg.NatsURL != "" {
		nc, err := events.Connect(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("event bus connection: %w", err)
		}
		defer nc.Drain() //nolint:errcheck
		publisher = events.NewNatsPublisher(nc)
	}

	postRepo := post.NewPostgresRepository(pool)
	postSvc := post.NewService(postRepo, userSvc, store, publisher, post.Options{
		Folder: cfg.UploadFolder,
		Tag:    cfg.UploadTag,
	})
	postHandler := post.NewHandler(postSvc, cfg.UploadMaxBytes)

	r := newRouter(routerDeps{
		jwtSecret: cfg.JWTSecret,
		auth:      authHandler,
		users:     userHandler,
		posts:     postHandler,
		health:    pool.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       5 * time.Minute, // large video uploads
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal or a listen failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	serveErr := make(chan error, 1)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		log.Info().Msgf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
