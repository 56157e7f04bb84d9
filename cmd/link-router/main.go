package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/gerrit-link-router/internal/changes"
	"github.com/aescanero/gerrit-link-router/internal/config"
	"github.com/aescanero/gerrit-link-router/internal/display"
	"github.com/aescanero/gerrit-link-router/internal/router"
	"github.com/aescanero/gerrit-link-router/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting link router",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", cfg.WorkerID),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	services, err := changes.NewServices(cfg.ModuleBaseURL)
	if err != nil {
		logger.Fatal("failed to locate change services", zap.Error(err))
	}
	logger.Info("change services located", zap.String("change_list", services.ChangeList))

	routerConfig, err := cfg.RouterConfig()
	if err != nil {
		logger.Fatal("failed to read routing config", zap.Error(err))
	}

	routerInstance, err := router.NewRouter(services, routerConfig, logger)
	if err != nil {
		logger.Fatal("failed to initialize router", zap.Error(err))
	}
	logger.Info("router initialized",
		zap.Int("rewrite_rules", len(routerConfig.Rules)),
		zap.String("not_found_policy", string(routerConfig.NotFound)),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	screens := display.NewRedisDisplay(redisClient, cfg.ResultStream, cfg.NoticeStream, cfg.SessionTTL, logger)

	w := worker.NewWorker(cfg, redisClient, routerInstance, screens, screens, logger)
	if err := w.Start(); err != nil {
		logger.Fatal("failed to start worker", zap.Error(err))
	}

	healthServer := worker.NewHealthServer(cfg.HealthPort, redisClient, routerInstance, logger).WithSessions(screens)
	if err := healthServer.Start(); err != nil {
		logger.Fatal("failed to start health server", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("link router running, press Ctrl+C to stop")
	<-sigChan

	logger.Info("shutdown signal received, stopping worker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := healthServer.Stop(); err != nil {
		logger.Error("failed to stop health server", zap.Error(err))
	}

	if err := w.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop worker", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("failed to close redis connection", zap.Error(err))
	}

	logger.Info("link router stopped")
}

// initLogger initializes the logger
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
