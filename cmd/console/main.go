package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hanko-field/catalog-console/internal/handlers"
	"github.com/hanko-field/catalog-console/internal/platform/config"
	"github.com/hanko-field/catalog-console/internal/platform/observability"
	"github.com/hanko-field/catalog-console/internal/repositories"
	"github.com/hanko-field/catalog-console/internal/repositories/httpapi"
	"github.com/hanko-field/catalog-console/internal/repositories/memory"
	"github.com/hanko-field/catalog-console/internal/services"
)

func main() {
	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("console")

	catalogRepo, err := newCatalogRepository(cfg.Catalog)
	if err != nil {
		logger.Fatal("failed to initialise catalog client", zap.Error(err))
	}
	if cfg.Catalog.UseMemory() {
		logger.Warn("no catalog service configured; using in-memory catalog")
	}

	store := services.NewSnapshotStore(nil)
	coordinator, err := services.NewMutationCoordinator(services.MutationCoordinatorDeps{
		Catalog:  catalogRepo,
		Snapshot: store,
		Logger:   logger.Named("mutations"),
	})
	if err != nil {
		logger.Fatal("failed to initialise mutation coordinator", zap.Error(err))
	}
	reader, err := services.NewCatalogReader(services.CatalogReaderDeps{
		Catalog:         catalogRepo,
		Snapshot:        store,
		Logger:          logger.Named("reader"),
		IncludeDisabled: cfg.Catalog.IncludeDisabled,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog reader", zap.Error(err))
	}
	editor, err := services.NewCatalogEditor(services.CatalogEditorDeps{
		Coordinator: coordinator,
		Snapshot:    store,
		SKUScope:    cfg.Catalog.SKUScope,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog editor", zap.Error(err))
	}

	healthRepo, err := repositories.NewProbeHealthRepository([]repositories.Probe{{
		Name: "catalog_service",
		Check: func(ctx context.Context) error {
			_, err := catalogRepo.ListCategories(ctx, false)
			return err
		},
	}})
	if err != nil {
		logger.Fatal("failed to initialise health checks", zap.Error(err))
	}
	health := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfoFromEnv(startedAt)),
		handlers.WithHealthRepository(healthRepo),
	)

	catalogHandlers := handlers.NewAdminCatalogHandlers(reader, editor, coordinator)
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(cfg.Observability.TraceProjectID),
			observability.RecoveryMiddleware(logger),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithAdminRoutes(catalogHandlers.Routes),
		handlers.WithRequestTimeout(cfg.Server.RequestTimeout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	refreshCtx, cancel := context.WithTimeout(ctx, cfg.Catalog.Timeout)
	if err := reader.Refresh(refreshCtx); err != nil {
		logger.Warn("initial catalog load failed; serving until the next refresh", zap.Error(err))
	}
	cancel()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	serveErr := make(chan error, 1)
	go func() {
		serverLogger.Info("catalog console listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received; draining requests")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newCatalogRepository(cfg config.CatalogConfig) (repositories.CatalogRepository, error) {
	if cfg.UseMemory() {
		return memory.NewCatalogService(), nil
	}
	client, err := httpapi.NewClient(cfg.BaseURL,
		httpapi.WithToken(cfg.Token),
		httpapi.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildInfoFromEnv(started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("CONSOLE_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("CONSOLE_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	return handlers.BuildInfo{Version: version, CommitSHA: commit, StartedAt: started}
}
