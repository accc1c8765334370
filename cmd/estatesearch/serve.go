package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/db/postgres"
	chiTransport "github.com/kailas-cloud/estatesearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/estatesearch/internal/usecase/health"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP search API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("Starting estatesearch API server",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("env", a.env),
		zap.Int("http_port", a.cfg.HTTP.Port),
		zap.Strings("es_addrs", a.cfg.Elasticsearch.Addrs),
	)

	stack, closeStack, err := a.buildSearchStack()
	if err != nil {
		return err
	}
	defer closeStack()

	if err := stack.es.Ping(ctx); err != nil {
		a.logger.Warn("Elasticsearch not reachable at startup", zap.Error(err))
	}

	// Pass nil interface (not typed nil pointer!) when no database is configured.
	var database healthuc.Pinger
	if a.cfg.Database.DSN != "" {
		pg, err := postgres.New(ctx, a.cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		database = pg
	}

	server := chiTransport.NewServer(chiTransport.Services{
		Properties:    stack.properties,
		Wikipedia:     stack.wikipedia,
		Neighborhoods: stack.neighborhoods,
		Health:        healthuc.New(stack.es, stack.embedder.base, database),
	}, chiTransport.Config{
		APIKeys:        a.cfg.HTTP.APIKeys,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
	}, a.logger)

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  seconds(a.cfg.HTTP.ReadTimeoutSec),
		WriteTimeout: seconds(a.cfg.HTTP.WriteTimeoutSec),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(a.cfg.HTTP.ShutdownSec))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
		return err
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}
