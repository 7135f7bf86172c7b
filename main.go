package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/web-detect/internal/config"
	"github.com/example/web-detect/internal/handlers"
	"github.com/example/web-detect/internal/logging"
	"github.com/example/web-detect/internal/repository"
	"github.com/example/web-detect/internal/usecase"
	"github.com/example/web-detect/internal/visionclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// the client outlives ctx, so it gets its own background context
	vision, err := visionclient.New(context.Background(), visionclient.Config{
		CredentialsFile: cfg.CredentialsFile,
		Endpoint:        cfg.VisionEndpoint,
		Timeout:         cfg.VisionTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create vision client", zap.Error(err))
	}
	defer vision.Close()

	var opts []usecase.Option
	if cfg.DatabaseDSN != "" {
		repo := repository.NewDetectionRepository(initDatabase(ctx, cfg.DatabaseDSN, logger), logger)
		if err := repo.AutoMigrate(ctx); err != nil {
			logger.Fatal("auto migrate failed", zap.Error(err))
		}
		opts = append(opts, usecase.WithAuditLog(repo))
	}
	if cfg.RedisAddr != "" {
		redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
		redisClient := initRedis(redisCtx, cfg.RedisAddr, logger)
		redisCancel()
		defer redisClient.Close()
		opts = append(opts, usecase.WithStats(usecase.NewRedisStats(redisClient)))
	}

	uc := usecase.NewWebDetectionUseCase(vision, logger, opts...)
	router := handlers.NewRouter(uc, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("web detection gateway listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.Bool("audit_log", cfg.DatabaseDSN != ""),
		zap.Bool("stats", cfg.RedisAddr != ""),
	)
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func initDatabase(ctx context.Context, dsn string, zapLogger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, addr string, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

// serveHTTPServer runs the gateway until SIGINT or SIGTERM, then lets in-flight
// detections finish for up to drain.
func serveHTTPServer(server *http.Server, drain time.Duration, logger *zap.Logger) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	return runGateway(server, nil, signals, drain, logger)
}

// runGateway serves on listener, or on server.Addr when listener is nil, and
// shuts down on the first value received from stop. Closing stop without a
// value leaves the server running until it fails on its own.
func runGateway(server *http.Server, listener net.Listener, stop <-chan os.Signal, drain time.Duration, logger *zap.Logger) error {
	served := make(chan error, 1)
	go func() { served <- listenAndServe(server, listener) }()

	select {
	case err := <-served:
		return err
	case sig, ok := <-stop:
		if !ok {
			return <-served
		}
		logger.Info("stopping web detection gateway",
			zap.String("signal", sig.String()),
			zap.Duration("drain_timeout", drain),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("in-flight detections did not finish before the drain timeout", zap.Error(err))
		return err
	}
	return <-served
}

func listenAndServe(server *http.Server, listener net.Listener) error {
	var err error
	if listener == nil {
		err = server.ListenAndServe()
	} else {
		err = server.Serve(listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
