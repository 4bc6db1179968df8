package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Serve starts the workers and the HTTP server and blocks until ctx is done
// or the server fails. Shutdown drains HTTP requests before stopping the
// workers.
func (app *application) Serve(ctx context.Context) error {
	addr := net.JoinHostPort("", strconv.Itoa(app.config.Server.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return app.serve(ctx, listener)
}

func (app *application) serve(ctx context.Context, listener net.Listener) error {
	if err := app.runner.Start(); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to start job runner: %w", err)
	}
	go app.purgeExpired(ctx)

	server := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case err := <-serverErr:
		app.runner.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
	}
	app.runner.Stop()

	app.logger.Info("server shutdown completed")
	return nil
}
