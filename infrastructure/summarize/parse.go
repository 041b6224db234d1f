package summarize

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/review"
)

// Wire schema for the model's YAML response. Missing or empty fields are
// tolerated; only malformed YAML and invalid feature ids are errors.
type wireIndex struct {
	Features []wireFeature `yaml:"features"`
	Impacts  wireImpacts   `yaml:"impacts"`
	Refs     wireRefs      `yaml:"refs"`
}

type wireFeature struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Risk        []string `yaml:"risk"`
	Tags        []string `yaml:"tags"`
}

type wireImpacts struct {
	APIs              []string `yaml:"apis"`
	BreakingChanges   []string `yaml:"breaking_changes"`
	TestsAdded        int      `yaml:"tests_added"`
	TestsModified     int      `yaml:"tests_modified"`
	MigrationRequired bool     `yaml:"migration_required"`
}

type wireRefs struct {
	PR      int      `yaml:"pr"`
	Issues  []int    `yaml:"issues"`
	Commits []string `yaml:"commits"`
}

// parseResponse turns the model output into a DocumentIndex. The changed
// file list always comes from the extracted context, never from the model.
func parseResponse(content string, extracted review.ExtractedContext, scope review.Scope, now time.Time) (docs.DocumentIndex, error) {
	var wire wireIndex
	if err := yaml.Unmarshal([]byte(extractYAML(content)), &wire); err != nil {
		return docs.DocumentIndex{}, fmt.Errorf("parse summary YAML: %w", err)
	}

	features := make([]docs.FeatureSummary, 0, len(wire.Features))
	for i, f := range wire.Features {
		feature, err := docs.NewFeatureSummary(f.ID, f.Title, f.Description, f.Risk, f.Tags)
		if err != nil {
			return docs.DocumentIndex{}, fmt.Errorf("summary feature %d: %w", i, err)
		}
		features = append(features, feature)
	}

	impacts := docs.NewImpactSummary(
		wire.Impacts.APIs,
		wire.Impacts.BreakingChanges,
		wire.Impacts.TestsAdded,
		wire.Impacts.TestsModified,
		wire.Impacts.MigrationRequired,
	)
	refs := docs.NewReferenceSummary(wire.Refs.PR, wire.Refs.Issues, extracted.FilePaths(), wire.Refs.Commits)

	return docs.NewDocumentIndex(extracted.Diff().Commit(), now, scope, features, impacts, refs), nil
}

// extractYAML strips a surrounding markdown code fence, if any.
func extractYAML(content string) string {
	trimmed := strings.TrimSpace(content)

	if i := strings.Index(trimmed, "```yaml"); i >= 0 {
		rest := trimmed[i+len("```yaml"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}

	if strings.HasPrefix(trimmed, "```") {
		rest := strings.TrimPrefix(trimmed, "```")
		if j := strings.Index(rest, "\n"); j >= 0 {
			rest = rest[j+1:]
		}
		if j := strings.LastIndex(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}

	return trimmed
}
