// @title           PDF Tools Tracking API
// @version         1.0
// @description     User accounts, page visits and tool usage counters for the PDF tools site.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Optional. Format: Bearer <token>
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
	"github.com/rs/zerolog"

	"github.com/pdftoolpro/tracking-api/internal/api"
	"github.com/pdftoolpro/tracking-api/internal/core/service"
	"github.com/pdftoolpro/tracking-api/internal/infrastructure/config"
	mongostore "github.com/pdftoolpro/tracking-api/internal/infrastructure/db/mongo"
	redisstore "github.com/pdftoolpro/tracking-api/internal/infrastructure/db/redis"
	"github.com/pdftoolpro/tracking-api/internal/infrastructure/http/handlers"
	"github.com/pdftoolpro/tracking-api/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	watchInterval   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "tracking-api",
	})

	store, err := mongostore.Open(ctx, mongostore.Config{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		ConnectTimeout:         cfg.Mongo.ConnectTimeout,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
		SocketTimeout:          cfg.Mongo.SocketTimeout,
		OperationTimeout:       cfg.Mongo.OperationTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	go store.Watch(ctx, watchInterval)

	readiness := []handlers.Dependency{{Name: "mongodb", Ping: store.Ping}}

	var idem service.IdempotencyStore
	var closeRedis func() error
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, idempotency keys disabled")
		} else {
			idem = redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
			closeRedis = rdb.Close
			readiness = append(readiness, handlers.Dependency{
				Name: "redis",
				Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			})
			log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
		}
	}

	authService := service.NewAuthService(mongostore.NewAuthRepository(store), cfg.JWTSecret, cfg.TokenTTL, log)
	trackingService := service.NewTrackingService(
		mongostore.NewVisitRepository(store),
		mongostore.NewToolUsageRepository(store),
		idem,
		log,
	)

	deps := api.Dependencies{
		Auth:        authService,
		Identifier:  authService,
		Tracking:    trackingService,
		Readiness:   readiness,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		Registerer:  prometheus.DefaultRegisterer,
		Gatherer:    prometheus.DefaultGatherer,
	}
	if cfg.ServeStatic {
		deps.StaticDir = cfg.StaticDir
	}
	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("received interruption signal, shutting down")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	closeStores(shutdownCtx, log, store, closeRedis)

	log.Info().Msg("shutdown complete")
	return serveErr
}

func closeStores(ctx context.Context, log zerolog.Logger, store *mongostore.Store, closeRedis func() error) {
	if err := store.Close(ctx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	if closeRedis != nil {
		if err := closeRedis(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}
}
