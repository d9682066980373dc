package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	yayawebhook "github.com/dawitel/yaya-webhook"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		addr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}

			cfg, err := yayawebhook.LoadConfigFromEnv(files...)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if addr != "" {
				cfg.HTTP.Address = addr
			}

			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&envFile, "env-file", "e", "", "Path to a .env file (defaults to ./.env)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides SERVER_ADDR)")

	return cmd
}

func newRouter(client *yayawebhook.Client, path string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post(path, client.HandleWebhook())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := client.Health(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

func runServer(ctx context.Context, cfg *yayawebhook.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := yayawebhook.NewLogger(cfg.Logging, os.Stdout)

	client, err := yayawebhook.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start client: %w", err)
	}
	defer client.Stop()

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      newRouter(client, cfg.HTTP.Path),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Address).
			Str("path", cfg.HTTP.Path).
			Msg("YaYa webhook server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
