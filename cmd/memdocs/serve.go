package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apimiddleware "github.com/memdocs-io/memdocs/infrastructure/api/middleware"
	"github.com/memdocs-io/memdocs/internal/config"
)

const shutdownGrace = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. The repository's .memdocs.yml
  3. .env file (if --env-file specified or .env exists in current directory)
  4. Environment variables
  5. Command line flags

Environment variables:
  HOST               Server host to bind to (default: 127.0.0.1)
  PORT               Server port to listen on (default: 7910)
  DATA_DIR           State directory (default: .memdocs)
  DB_URL             Catalog database URL (default: sqlite:///{data_dir}/memdocs.db)
  LOG_LEVEL          Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT         Log format: pretty, json (default: pretty)
  API_KEYS           Comma-separated API keys for write protection
  ANTHROPIC_API_KEY  Summarization API key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on")

	return cmd
}

func runServe(envFile, host string, port int) error {
	var overrides []config.AppConfigOption
	if host != "" {
		overrides = append(overrides, config.WithHost(host))
	}
	if port != 0 {
		overrides = append(overrides, config.WithPort(port))
	}

	client, err := buildClient(envFile, overrides...)
	if err != nil {
		return err
	}
	defer client.Close()

	logger := client.Logger()
	addr := client.Config().Addr()

	apiServer := client.APIServer()
	router := apiServer.Router()
	router.Use(apimiddleware.Logging(logger))
	apiServer.MountRoutes()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting memdocs server",
		slog.String("addr", addr),
		slog.String("version", version),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return apiServer.ListenAndServe(addr)
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
