package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory and review statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStats(envFile string) error {
	client, err := buildClient(envFile)
	if err != nil {
		return err
	}
	defer client.Close()

	stats, err := client.Reviews.Stats(cmdContext(), 5)
	if err != nil {
		return err
	}

	if stats.Memory.Enabled() {
		fmt.Printf("Memory: %d chunk(s), %d active, dimension %d\n",
			stats.Memory.Total(), stats.Memory.Active(), stats.Memory.Dimension())
	} else {
		fmt.Println("Memory: disabled (no embedding model loaded)")
	}
	fmt.Printf("Reviews: %d total\n", stats.TotalRuns)

	if len(stats.Recent) > 0 {
		fmt.Println("Recent:")
		for _, rec := range stats.Recent {
			fmt.Printf("  %s  %s  %-6s  %d file(s), %d feature(s)\n",
				rec.CreatedAt().Format("2006-01-02 15:04"),
				rec.DocID(),
				rec.ScopeLevel(),
				rec.FileCount(),
				rec.FeatureCount(),
			)
		}
	}

	return nil
}
