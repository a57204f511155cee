package server

import (
	"context"
	"os/signal"
	"syscall"

	"ClmmLens/internal/domain/repository"
	"ClmmLens/internal/usecase"
	"ClmmLens/pkg/cache"
	pkgch "ClmmLens/pkg/clickhouse"
	"ClmmLens/pkg/config"
	xhttp "ClmmLens/pkg/http"
	applogger "ClmmLens/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	tracker    *usecase.SpotTracker
	publisher  repository.ReportPublisher
	cache      cache.Service
	chClient   *pkgch.Client
}

// New creates a new App. tracker and chClient are nil when their features are
// disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	tracker *usecase.SpotTracker,
	publisher repository.ReportPublisher,
	c cache.Service,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		tracker:    tracker,
		publisher:  publisher,
		cache:      c,
		chClient:   chClient,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.tracker != nil {
		// the oracle falls back to the provider, so a dead stream is not fatal
		if err := a.tracker.Start(ctx); err != nil {
			a.log.Warn("spot tracker start failed", applogger.Error(err))
		} else {
			a.log.Info("spot tracker started")
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops components in dependency order.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.tracker != nil {
		if err := a.tracker.Stop(ctx); err != nil {
			a.log.Warn("spot tracker stop error", applogger.Error(err))
		}
	}

	a.log.RemoveCollector()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("report publisher close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
