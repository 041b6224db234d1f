package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memdocs-io/memdocs/application/service"
)

func exportCmd() *cobra.Command {
	var (
		envFile string
		target  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export documentation as editor context",
		Long: `Export the latest documentation, code map, and memory graph as a
context file for an AI editor.

Targets:
  cursor    .cursorrules
  claude    .claude-context.md
  continue  .continue/context.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(envFile, target, output)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&target, "target", service.ExportTargetCursor, "Export target: cursor, claude, continue")
	cmd.Flags().StringVar(&output, "output", "", "Output path (default: the target's conventional path)")

	return cmd
}

func runExport(envFile, target, output string) error {
	client, err := buildClient(envFile)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Export.Export(cmdContext(), target, output)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %s context to %s (%d symbol(s))\n", target, result.Path, result.Symbols)
	return nil
}
