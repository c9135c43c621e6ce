package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// Run serves HTTP until ctx is cancelled or the listener fails and then shuts
// everything down. The returned error is the listener failure, if any.
func (a *App) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		slog.InfoContext(ctx, "http server listening", "address", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.InfoContext(ctx, "shutdown requested")
	case serveErr = <-errc:
		slog.ErrorContext(ctx, "http server stopped", "error", serveErr)
	}

	timeout := a.config.GetSecond("app.server.shutdown_timeout_seconds")
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	a.shutdown(sctx)
	return serveErr
}

// shutdown stops intake first (HTTP, consumers, sweepers) and releases the
// shared resources last.
func (a *App) shutdown(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to stop http server", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background jobs ended with errors", "error", err)
	}

	a.closeAll(ctx)
	slog.InfoContext(ctx, "shutdown complete")
}
