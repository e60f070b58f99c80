// Package shutdown runs long-lived servers until a signal or context
// cancellation, then stops them within a deadline.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Server is a blocking server that can be stopped gracefully. *http.Server
// satisfies it.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// DefaultTimeout bounds graceful shutdown.
const DefaultTimeout = 10 * time.Second

// Signals are the signals that trigger shutdown.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// Run serves until ctx is cancelled or a shutdown signal arrives, then calls
// Shutdown with a timeout. A server that stops on its own returns its error;
// http.ErrServerClosed is treated as a clean stop.
func Run(ctx context.Context, logger *slog.Logger, timeout time.Duration, srv Server) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sigCtx, stop := signal.NotifyContext(ctx, Signals...)
	defer stop()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveDone:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
	}

	if ctx.Err() != nil {
		logger.Info("context cancelled, shutting down")
	} else {
		logger.Info("received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	select {
	case err := <-serveDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded")
		return shutdownCtx.Err()
	}

	logger.Info("shutdown complete")
	return nil
}
