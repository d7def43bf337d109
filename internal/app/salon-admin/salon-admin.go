package salonadmin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/salon-admin/internal/config"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	core   *Core
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	core, err := NewCore(ctx, cfg, logger, CoreOptions{
		Registerer: prometheus.DefaultRegisterer,
		OnSessionExpired: func() {
			logger.Warn("session expired, login required")
		},
	})
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	RegisterRoutes(router, logger, core, cfg.HTTPServer)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		core:   core,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.core.Watch(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeCore()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeCore()
		return err
	}
}

func (a *App) closeCore() {
	if err := a.core.Close(); err != nil {
		a.logger.Error("failed to close resources", slog.Any("err", err))
	}
}
