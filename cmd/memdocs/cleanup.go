package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultCleanupAge = "90d"

func cleanupCmd() *cobra.Command {
	var (
		envFile   string
		olderThan string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge old reviews from the catalog and memory index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(envFile, olderThan, dryRun)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&olderThan, "older-than", defaultCleanupAge, "Age threshold, e.g. 90d, 12h")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed without removing it")

	return cmd
}

func runCleanup(envFile, olderThan string, dryRun bool) error {
	age, err := parseAge(olderThan)
	if err != nil {
		return err
	}

	client, err := buildClient(envFile)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Reviews.Cleanup(cmdContext(), age, dryRun)
	if err != nil {
		return err
	}

	verb := "Removed"
	if result.DryRun {
		verb = "Would remove"
	}
	fmt.Printf("%s %d review(s) older than %s\n", verb, len(result.Reviews), olderThan)
	for _, rec := range result.Reviews {
		fmt.Printf("  %s  %s\n", rec.CreatedAt().Format("2006-01-02"), rec.DocID())
	}
	if !result.DryRun && result.ChunksPurged > 0 {
		fmt.Printf("Purged %d memory chunk(s)\n", result.ChunksPurged)
	}

	return nil
}

// parseAge parses a duration that may carry a "d" (day) suffix, which
// time.ParseDuration does not accept.
func parseAge(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days < 0 {
			return 0, fmt.Errorf("invalid age %q: want a positive number of days, e.g. 90d", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	age, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid age %q: %w", s, err)
	}
	if age < 0 {
		return 0, fmt.Errorf("invalid age %q: must not be negative", s)
	}
	return age, nil
}
