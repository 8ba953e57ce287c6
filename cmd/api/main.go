package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/barter-backend/internal/cache"
	"github.com/shinyyama/barter-backend/internal/config"
	"github.com/shinyyama/barter-backend/internal/db"
	"github.com/shinyyama/barter-backend/internal/events"
	"github.com/shinyyama/barter-backend/internal/logger"
	"github.com/shinyyama/barter-backend/internal/metrics"
	"github.com/shinyyama/barter-backend/internal/server"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogEncoding)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var categoryCache cache.CategoryCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCategoryCache(cfg.RedisAddr, cfg.RedisPassword, time.Hour)
		if err != nil {
			log.Warn("redis unavailable, category cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			categoryCache = rc
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			log.Warn("nats unavailable, events disabled", zap.Error(err))
		} else {
			defer np.Close()
			publisher = np
		}
	}

	srv, err := server.New(ctx, server.Options{
		Config:    cfg,
		Log:       log,
		Cache:     categoryCache,
		Publisher: publisher,
		Metrics:   metrics.New("barter"),
	})
	if err != nil {
		log.Fatal("init server", zap.Error(err))
	}

	// Listen first so health checks pass while the database comes up.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(":" + cfg.Port)
	}()

	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			log.Error("db connect", zap.Error(err))
			return
		}
		if err := db.Migrate(conn); err != nil {
			log.Error("auto migrate", zap.Error(err))
			return
		}
		srv.SetDB(conn)
		log.Info("database ready", zap.String("driver", cfg.DBDriver))
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}
}
