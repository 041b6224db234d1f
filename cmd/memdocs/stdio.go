package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants search project memory and read generated
documentation. Configuration is loaded from environment variables and the
repository's .memdocs.yml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	client, err := buildClient(envFile)
	if err != nil {
		return err
	}
	defer client.Close()

	client.Logger().Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", client.Config().DataDir()),
	)

	return client.ServeStdio()
}
