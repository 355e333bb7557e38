package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/ai-fitcoach/internal/infra/config"
	"github.com/yanqian/ai-fitcoach/internal/infra/telemetry"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	server         *http.Server
	shutdownTracer telemetry.Shutdown
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, shutdownTracer telemetry.Shutdown) *App {
	return &App{
		cfg:            cfg,
		logger:         logger.With("component", "bootstrap"),
		server:         server,
		shutdownTracer: shutdownTracer,
	}
}

// Run starts the HTTP server and blocks until shutdown. Open plan streams
// get the shutdown grace period to finish.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		runErr = a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	if a.shutdownTracer != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracer(flushCtx); err != nil {
			a.logger.Warn("tracer shutdown failed", "error", err)
		}
	}
	return runErr
}
