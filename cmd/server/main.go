package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/cache"
	"github.com/spark-dating/spark-core/internal/config"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/jobs"
	"github.com/spark-dating/spark-core/internal/logger"
	"github.com/spark-dating/spark-core/internal/metrics"
	"github.com/spark-dating/spark-core/internal/server"
	"github.com/spark-dating/spark-core/internal/service/vip"
)

func main() {
	_ = godotenv.Load()

	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("db init failed", "error", err)
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(cfg)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		cancel()
		log.Error("redis ping failed", "error", err)
		os.Exit(1)
	}
	cancel()

	appCtx := app.New(database, redisCache, log, metrics.Registry("spark"), cfg)

	scheduler := jobs.NewScheduler(appCtx)
	if err := scheduler.Start(); err != nil {
		log.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(appCtx, vip.NewService(appCtx))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	scheduler.Stop()
}
