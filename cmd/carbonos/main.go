// Package main запускает HTTP-сервер сервиса учёта углеродного следа.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/carbonos/internal/catalog"
	"github.com/mmeshcher/carbonos/internal/config"
	"github.com/mmeshcher/carbonos/internal/handler"
	"github.com/mmeshcher/carbonos/internal/middleware"
	"github.com/mmeshcher/carbonos/internal/service"
	"github.com/mmeshcher/carbonos/internal/storage"
)

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Backend() {
	case config.BackendPostgres:
		return storage.NewPostgresStore(ctx, cfg.DatabaseURI)
	case config.BackendSQLite:
		return storage.NewSQLiteStore(ctx, cfg.SQLitePath)
	default:
		return storage.NewMemoryStore(), nil
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		sugar.Fatalw("storage initialization error", "backend", cfg.Backend(), "error", err.Error())
	}
	sugar.Infow("storage ready", "backend", cfg.Backend())

	opts := []service.Option{}
	if cfg.CatalogFile != "" {
		businesses, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			sugar.Fatalw("catalog loading error", "file", cfg.CatalogFile, "error", err.Error())
		}
		sugar.Infow("catalog loaded", "file", cfg.CatalogFile, "businesses", len(businesses))
		opts = append(opts, service.WithCatalog(businesses))
	}

	svc := service.NewService(store, opts...)
	defer svc.Close()

	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is not set, identity cookies will not survive a restart")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting carbonos server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
