package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/switchboard"
	httpAdapter "github.com/aretw0/switchboard/pkg/adapters/http"
	"github.com/aretw0/switchboard/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg *config.Config) error {
	logger := NewLogger(cfg.Log)

	streams := httpAdapter.NewStreamManager(logger)
	app, err := NewApp(ctx, cfg, logger, switchboard.WithLifecycleHooks(streams.Hooks()))
	if err != nil {
		return err
	}
	defer app.Close()

	handler := httpAdapter.NewHandler(app.Engine,
		httpAdapter.WithStreams(streams),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})),
		httpAdapter.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting Switchboard Server", "addr", srv.Addr, "store", cfg.Store.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Start shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		logger.Info("Switchboard Server stopped gracefully")
		return nil
	}
}
