package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsecure/docsecure/internal/config"
	"github.com/docsecure/docsecure/internal/observability"
	"github.com/docsecure/docsecure/internal/storage"
)

// App owns the process lifecycle: the HTTP server, the blob bucket and the
// observability runtime, shut down in that order.
type App struct {
	Config          *config.Config
	Logger          *slog.Logger
	Server          *http.Server
	Blobs           storage.BlobStore
	Observability   *observability.Runtime
	ShutdownTimeout time.Duration
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, blobs storage.BlobStore, runtime *observability.Runtime) *App {
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &App{
		Config:          cfg,
		Logger:          logger,
		Server:          server,
		Blobs:           blobs,
		Observability:   runtime,
		ShutdownTimeout: timeout,
	}
}

// Run serves until the context is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down", "timeout", a.ShutdownTimeout)
	return a.Shutdown(context.Background())
}

func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.Blobs != nil {
		if err := a.Blobs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Observability != nil {
		if err := a.Observability.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
