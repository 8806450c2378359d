package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	githubadapter "github.com/openmat/matdir/internal/adapter/github"
	"github.com/openmat/matdir/internal/adapter/httpapi"
	"github.com/openmat/matdir/internal/config"
	"github.com/openmat/matdir/internal/dataset"
	"github.com/openmat/matdir/internal/geocode"
	"github.com/openmat/matdir/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable geocode cache (feature-flagged via GEOCODE_CACHE_PATH).
	var store *geocode.Store
	if cfg.GeocodeCachePath != "" {
		store, err = geocode.OpenStore(cfg.GeocodeCachePath)
		if err != nil {
			logger.Error("failed to open geocode cache", "path", cfg.GeocodeCachePath, "error", err)
			os.Exit(1)
		}
		logger.Info("durable geocode cache enabled", "path", cfg.GeocodeCachePath)
	} else {
		logger.Info("durable geocode cache disabled")
	}

	queue := geocode.NewQueue(cfg.GeocodeDelay, clockwork.NewRealClock(), metrics, logger)
	go queue.Run(ctx)

	locator := geocode.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeTimeout, metrics, logger)
	resolver := geocode.NewResolver(locator, store, queue, cfg.GeocodeTimeout, metrics, logger)

	source := &dataset.Source{
		DirectoryPath: cfg.DirectoryCSV,
		EventsPath:    cfg.EventsCSV,
		Metrics:       metrics,
		Logger:        logger,
	}
	data := dataset.NewStore()

	snap, err := source.Load(ctx)
	if err != nil {
		logger.Error("initial dataset load failed", "error", err)
		os.Exit(1)
	}
	data.Replace(snap)

	if cfg.ReloadInterval > 0 {
		refresher := dataset.NewRefresher(source, data, cfg.ReloadInterval, logger)
		go func() {
			_ = refresher.Run(ctx)
		}()
	}

	// Admin commit flow (enabled via GITHUB_OWNER / GITHUB_REPO).
	var admin *githubadapter.Service
	if cfg.AdminEnabled() {
		client := githubadapter.NewClient(cfg.GitHubBaseURL, cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubBranch, 15*time.Second, logger)
		admin = githubadapter.NewService(client, cfg.DirectoryCSV, cfg.EventsCSV, metrics, logger)
		logger.Info("admin commit flow enabled", "owner", cfg.GitHubOwner, "repo", cfg.GitHubRepo, "branch", cfg.GitHubBranch)
	} else {
		logger.Info("admin commit flow disabled")
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, httpapi.Deps{
		Data:               data,
		Resolver:           resolver,
		Admin:              admin,
		Logger:             logger,
		AdminRatePerMinute: cfg.AdminRatePerMinute,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("geocode cache close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
