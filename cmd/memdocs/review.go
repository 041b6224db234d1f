package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memdocs-io/memdocs/application/service"
	"github.com/memdocs-io/memdocs/internal/config"
)

func reviewCmd() *cobra.Command {
	var (
		envFile   string
		paths     []string
		repoPath  string
		commitSHA string
		trigger   string
		emit      string
		rules     string
		maxFiles  int
		force     bool
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review changed files and update documentation",
		Long: `Review changed files: determine scope, summarize the change with an
LLM, scrub private data, write documentation outputs, and index the result
into vector memory.

Requires ANTHROPIC_API_KEY (or ai.api_key in .memdocs.yml).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(reviewParams{
				envFile:   envFile,
				paths:     paths,
				repoPath:  repoPath,
				commit:    commitSHA,
				trigger:   trigger,
				emit:      emit,
				rules:     rules,
				maxFiles:  maxFiles,
				force:     force,
				outputDir: outputDir,
			})
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringSliceVar(&paths, "path", []string{"."}, "Paths to review (repeatable)")
	cmd.Flags().StringVar(&repoPath, "repo", "", "Repository root (default: current directory)")
	cmd.Flags().StringVar(&commitSHA, "commit", "", "Commit to review (default: HEAD)")
	cmd.Flags().StringVar(&trigger, "on", "manual", "Review trigger: pr, commit, release, schedule, manual")
	cmd.Flags().StringVar(&emit, "emit", "both", "Outputs to produce: docs, memory, both")
	cmd.Flags().StringVar(&rules, "rules", "", "Privacy rules: strict, standard, permissive")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "Override the file-count ceiling")
	cmd.Flags().BoolVar(&force, "force", false, "Review past the file-count ceiling")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "State directory (default: .memdocs)")

	return cmd
}

type reviewParams struct {
	envFile   string
	paths     []string
	repoPath  string
	commit    string
	trigger   string
	emit      string
	rules     string
	maxFiles  int
	force     bool
	outputDir string
}

func runReview(p reviewParams) error {
	emitDocs, emitMemory, err := parseEmit(p.emit)
	if err != nil {
		return err
	}

	overrides, err := reviewOverrides(p)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(p.envFile)
	if err != nil {
		return err
	}
	cfg = cfg.Apply(overrides...)
	if p.maxFiles > 0 {
		cfg = cfg.Apply(config.WithPolicyConfig(cfg.Policy().WithMaxFiles(p.maxFiles)))
	}

	client, err := buildClientFromConfig(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	client.Logger().Info("starting review",
		"trigger", p.trigger,
		"paths", p.paths,
		"version", version,
	)

	result, err := client.Reviews.Run(cmdContext(), service.ReviewRequest{
		Paths:      p.paths,
		Commit:     p.commit,
		Force:      p.force,
		EmitDocs:   emitDocs,
		EmitMemory: emitMemory,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Reviewed %d file(s) at %s scope\n", result.Scope.FileCount(), result.Scope.Level())
	if result.Scope.Escalated() {
		fmt.Printf("  scope escalated: %s\n", result.Scope.EscalationReason())
	}
	for _, warning := range result.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	fmt.Printf("  features: %d\n", len(result.Index.Features()))
	if result.Redactions > 0 {
		fmt.Printf("  redactions: %d\n", result.Redactions)
	}
	if result.Report.Indexed {
		fmt.Printf("  memory: %d chunk(s) indexed\n", result.Report.Chunks)
	}
	fmt.Printf("  doc: %s\n", result.Review.DocID())

	return nil
}

func reviewOverrides(p reviewParams) ([]config.AppConfigOption, error) {
	var overrides []config.AppConfigOption
	if p.repoPath != "" {
		overrides = append(overrides, config.WithRepoPath(p.repoPath))
	}
	if p.outputDir != "" {
		overrides = append(overrides, config.WithDataDir(p.outputDir))
	}
	if p.rules != "" {
		mode, err := parseRules(p.rules)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, config.WithPrivacyConfig(config.NewPrivacyConfig().WithMode(mode)))
	}
	return overrides, nil
}

func parseEmit(emit string) (emitDocs, emitMemory bool, err error) {
	switch emit {
	case "docs":
		return true, false, nil
	case "memory":
		return false, true, nil
	case "both", "":
		return true, true, nil
	default:
		return false, false, fmt.Errorf("invalid --emit value %q: want docs, memory, or both", emit)
	}
}

func parseRules(rules string) (config.PrivacyMode, error) {
	switch rules {
	case "strict":
		return config.PrivacyStrict, nil
	case "standard":
		return config.PrivacyStandard, nil
	case "permissive":
		return config.PrivacyOff, nil
	default:
		return "", fmt.Errorf("invalid --rules value %q: want strict, standard, or permissive", rules)
	}
}
