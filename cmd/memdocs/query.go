package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memdocs-io/memdocs/internal/config"
)

func queryCmd() *cobra.Command {
	var (
		envFile string
		k       int
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search project memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(envFile, strings.Join(args, " "), k)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().IntVar(&k, "k", config.DefaultQueryK, "Number of results")

	return cmd
}

func runQuery(envFile, text string, k int) error {
	client, err := buildClient(envFile)
	if err != nil {
		return err
	}
	defer client.Close()

	if !client.Memory.Enabled() {
		return fmt.Errorf("semantic search not available: no embedding model loaded (run 'memdocs download-model')")
	}

	results, err := client.Memory.Query(cmdContext(), text, k)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, res := range results {
		doc := res.Document()
		fmt.Printf("%d. [%.3f] %s\n", i+1, res.Score(), doc.DocID())
		if features := doc.Features(); len(features) > 0 {
			fmt.Printf("   features: %s\n", strings.Join(features, ", "))
		}
		if files := doc.FilePaths(); len(files) > 0 {
			fmt.Printf("   files:    %s\n", strings.Join(files, ", "))
		}
		fmt.Printf("   %s\n", doc.Preview(200))
	}

	return nil
}
