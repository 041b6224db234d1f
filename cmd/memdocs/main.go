// Package main is the entry point for the memdocs CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	memdocs "github.com/memdocs-io/memdocs"
	"github.com/memdocs-io/memdocs/internal/config"
	"github.com/memdocs-io/memdocs/internal/log"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memdocs",
		Short: "Documentation review and project memory",
		Long:  `Memdocs reviews code changes, maintains generated documentation, and builds a searchable memory of past reviews.`,
	}

	cmd.AddCommand(reviewCmd())
	cmd.AddCommand(queryCmd())
	cmd.AddCommand(statsCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(cleanupCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig assembles configuration from defaults, the repository's
// .memdocs.yml, a .env file, and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildClient creates a memdocs client from the effective configuration.
// Flag overrides are applied on top of the loaded config.
func buildClient(envFile string, overrides ...config.AppConfigOption) (*memdocs.Client, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}
	return buildClientFromConfig(cfg.Apply(overrides...))
}

func buildClientFromConfig(cfg config.AppConfig) (*memdocs.Client, error) {
	logger := log.NewLogger(cfg)
	client, err := memdocs.New(
		memdocs.WithConfig(cfg),
		memdocs.WithLogger(logger.Slog()),
	)
	if err != nil {
		return nil, fmt.Errorf("create memdocs client: %w", err)
	}
	return client, nil
}

// cmdContext returns a context cancelled on SIGINT or SIGTERM.
func cmdContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}
