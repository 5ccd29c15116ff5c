package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/lazycard/internal/api"
	"github.com/spf13/cobra"
)

const readHeaderTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API and the periodic backup job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				return app.serve(ctx)
			})
		},
	}
}

// setupRouter builds the HTTP handler over the application services.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterDeps{
		Topics:   api.NewTopicHandler(app.topics, app.retention, app.logger),
		Cards:    api.NewCardHandler(app.cards, app.retention, app.logger),
		Due:      api.NewDueHandler(app.due, nil, app.logger),
		Sessions: api.NewSessionHandler(app.sessions, app.logger),
		Backups:  api.NewBackupHandler(app.snapshots, app.backups, app.logger),
		Metrics:  app.metrics,
		Logger:   app.logger,
	})
}

// serve starts the backup scheduler and the HTTP server and blocks until ctx
// is cancelled or the server fails, then shuts the server down gracefully.
func (app *application) serve(ctx context.Context) error {
	if err := app.snapshots.Start(); err != nil {
		return fmt.Errorf("failed to start backup scheduler: %w", err)
	}

	addr := net.JoinHostPort(app.config.Server.Host, strconv.Itoa(app.config.Server.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return app.startHTTPServer(ctx, listener, app.setupRouter())
}

// startHTTPServer serves router on listener with graceful shutdown support.
func (app *application) startHTTPServer(ctx context.Context, listener net.Listener, router http.Handler) error {
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.String("addr", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server shutdown completed")
	return nil
}
