package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tempizhere/linkward/internal/app"
	"github.com/tempizhere/linkward/internal/cache"
	"github.com/tempizhere/linkward/internal/config"
	"github.com/tempizhere/linkward/internal/grpc"
	"github.com/tempizhere/linkward/internal/log"
	"github.com/tempizhere/linkward/internal/middleware"
	"github.com/tempizhere/linkward/internal/policy"
	"github.com/tempizhere/linkward/internal/repository"
	"github.com/tempizhere/linkward/internal/service"
	"github.com/tempizhere/linkward/internal/watcher"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	logger := log.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

// run собирает зависимости и обслуживает HTTP и gRPC до отмены контекста
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	list, err := policy.Load(cfg.PolicyListPath)
	if err != nil {
		return err
	}

	repo, db, err := newRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	svc := newService(cfg, repo, list, logger)
	sessions := middleware.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL, logger)

	var database repository.Database
	if db != nil {
		database = db
	}

	httpServer := &http.Server{
		Addr:              cfg.RunAddr,
		Handler:           app.NewRouter(app.NewApp(svc, database, sessions, logger), cfg.TrustedSubnet, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer := grpc.NewGRPCServer(grpc.NewServer(svc, database, logger), cfg.TrustedSubnet, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", cfg.RunAddr), zap.String("base_url", cfg.BaseURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("Starting gRPC server", zap.String("address", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("Server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	return serveErr
}

// newRepository выбирает хранилище: PostgreSQL, если задан DSN, затем файл, затем память
func newRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Repository, *sql.DB, error) {
	switch {
	case cfg.DatabaseDSN != "":
		db, err := app.NewDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewPostgresRepository(db, logger)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("Using PostgreSQL storage")
		return repo, db, nil
	case cfg.FileStoragePath != "":
		repo, err := repository.NewFileRepository(cfg.FileStoragePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using file storage", zap.String("path", cfg.FileStoragePath))
		return repo, nil, nil
	default:
		logger.Info("Using in-memory storage")
		return repository.NewMemoryRepository(), nil, nil
	}
}

func newService(cfg *config.Config, repo repository.Repository, list *policy.List, logger *zap.Logger) *service.Service {
	return service.NewService(
		repo,
		policy.NewEngine(list),
		cache.NewLinkCache(cfg.MaxCacheSize, logger),
		watcher.NewWatcher(cfg.SuspiciousClickCount, cfg.SuspiciousWindow(), logger),
		service.Options{
			BaseURL:           cfg.BaseURL,
			PhishingPassword:  cfg.PhishingPassword,
			VerboseConsole:    cfg.VerboseConsole,
			VerboseSuspicious: cfg.VerboseSuspicious,
		},
		logger,
	)
}
