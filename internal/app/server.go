package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start binds the HTTP listener, serves in the background and returns a
// channel that is closed once a termination signal arrives.
func (a *App) Start() <-chan struct{} {
	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		slog.Error("failed to bind http listener", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}

	slog.Info("http server listening", "address", l.Addr().String())
	serveErr := a.Serve(l)

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		select {
		case <-sigCtx.Done():
			slog.Info("termination signal received")
		case err := <-serveErr:
			slog.Error("http server stopped unexpectedly", "error", err)
		}
	}()

	return done
}

// Serve runs the HTTP server on l. The returned channel yields the serve
// error unless the server was shut down cleanly.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		if err := a.httpServer.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	return errChan
}

// Stop shuts the HTTP server down, drains in-flight event publishes and then
// closes resources in registration order.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	slog.InfoContext(ctx, "waiting for pending event publishes")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "event publishing finished with errors", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
			continue
		}
		slog.InfoContext(ctx, "resource closed", "name", closer.name)
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
