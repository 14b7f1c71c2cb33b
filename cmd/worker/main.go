// Package main runs the background maintenance worker (expired-poll view sweeping).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/castpoll/backend/config"
	"github.com/castpoll/backend/internal/polls"
	"github.com/castpoll/backend/internal/worker"
	"github.com/castpoll/backend/pkg/cache"
	"github.com/castpoll/backend/pkg/database"
	"github.com/castpoll/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	views := cache.New(rdb.Client, logger, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	pollRepo := polls.NewRepository(pool)
	sweeper := worker.NewSweeper(pollRepo, views, logger,
		time.Duration(cfg.Worker.SweepIntervalSeconds)*time.Second)

	go sweeper.Run(ctx)
	logger.Info("worker started", zap.Int("sweep_interval_sec", cfg.Worker.SweepIntervalSeconds))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
