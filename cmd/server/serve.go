package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/coffee-shop-api/internal/auth"
	"github.com/iliyamo/coffee-shop-api/internal/config"
	"github.com/iliyamo/coffee-shop-api/internal/database"
	"github.com/iliyamo/coffee-shop-api/internal/handler"
	"github.com/iliyamo/coffee-shop-api/internal/migrate"
	"github.com/iliyamo/coffee-shop-api/internal/queue"
	"github.com/iliyamo/coffee-shop-api/internal/repository"
	"github.com/iliyamo/coffee-shop-api/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Info("starting", zap.String("version", version), zap.String("env", cfg.Env), zap.String("db", cfg.DB.Driver))

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrate.Up(ctx, db, cfg.DB.Driver, logger); err != nil {
		return err
	}

	verifier, err := auth.FromConfig(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	cacheCfg, rlCfg := config.LoadCacheConfig(), config.LoadRateLimitConfig()
	if cacheCfg.Enabled || rlCfg.Enabled {
		rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig())
		if err != nil {
			// the API stays usable without Redis
			logger.Warn("redis unavailable; cache and rate limit disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var events handler.EventPublisher
	if cfg.Events.Enabled {
		pub := queue.NewPublisher(cfg.Events.URL, logger)
		defer pub.Close()
		events = pub
	}

	e := router.New(router.Deps{
		Store:       repository.NewDrinkRepo(db),
		Verifier:    verifier,
		Events:      events,
		DB:          db,
		Redis:       rdb,
		Log:         logger,
		CORSOrigins: cfg.CORSOrigins,
		Cache:       cacheCfg,
		RateLimit:   rlCfg,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr))
		errCh <- e.Start(addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(sctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
