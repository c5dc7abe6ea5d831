package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"swiftparcel/internal/commons"
	"swiftparcel/internal/config"
	"swiftparcel/internal/infrastructure/logger"
	"swiftparcel/internal/infrastructure/mysql"
	redisinfra "swiftparcel/internal/infrastructure/redis"
	"swiftparcel/internal/infrastructure/storage"
	"swiftparcel/internal/order"
	"swiftparcel/internal/order/repository"
	"swiftparcel/internal/server"
	"swiftparcel/internal/tracking"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	redisClient, err := redisinfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	defer redisClient.Close()
	zapLogger.Info("redis connected")

	photos, err := storage.NewLocalPhotoStorage(cfg.Order.EvidenceDir)
	if err != nil {
		zapLogger.Fatal("preparing evidence storage", zap.Error(err))
	}

	orderCtrl := order.NewModule(db, cfg, photos, zapLogger)
	trackCtrl := tracking.NewModule(
		redisClient,
		repository.NewMySQLOrderRepository(db),
		cfg.Tracking,
		float64(cfg.Pricing.AverageSpeedKMH),
		zapLogger,
	)

	router := server.NewRouter(orderCtrl, trackCtrl, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return commons.LoadConfig(path)
	}
	return config.Load()
}
