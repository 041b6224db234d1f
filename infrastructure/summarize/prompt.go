package summarize

import (
	"fmt"
	"strings"

	"github.com/memdocs-io/memdocs/domain/review"
)

const (
	// maxPromptFiles caps how many files the prompt describes in full.
	maxPromptFiles = 10
	// maxPromptSymbols caps how many symbols the prompt lists per file.
	maxPromptSymbols = 5
)

const systemPrompt = "You are a senior engineer documenting code changes. " +
	"Analyze the provided context and respond with YAML only, no prose."

const yamlSchema = `Respond with YAML matching this schema exactly:

features:
  - id: feat-001
    title: Short feature title
    description: What changed and why it matters
    risk:
      - potential risk or regression
    tags:
      - category tag
impacts:
  apis:
    - affected API surface
  breaking_changes: []
  tests_added: 0
  tests_modified: 0
  migration_required: false
refs:
  pr: 0
  issues: []
  files_changed: []
  commits: []
`

// buildPrompt renders the extracted context for the model: scope header,
// git change summary, then per-file detail capped at maxPromptFiles.
func buildPrompt(extracted review.ExtractedContext, scope review.Scope) string {
	var b strings.Builder

	b.WriteString("Analyze these code changes and generate a structured document index.\n\n")
	fmt.Fprintf(&b, "Level: %s\n", scope.Level())
	fmt.Fprintf(&b, "File count: %d\n", scope.FileCount())
	if scope.Escalated() {
		fmt.Fprintf(&b, "Escalated: %s\n", scope.EscalationReason())
	}
	b.WriteString("\n")

	diff := extracted.Diff()
	if diff.IsEmpty() {
		b.WriteString("No git information available\n")
	} else {
		fmt.Fprintf(&b, "Commit: %s\n", diff.Commit())
		fmt.Fprintf(&b, "Author: %s\n", diff.Author())
		fmt.Fprintf(&b, "Message: %s\n", diff.Message())
		writeFileList(&b, "Added", diff.Added())
		writeFileList(&b, "Modified", diff.Modified())
		writeFileList(&b, "Deleted", diff.Deleted())
	}
	b.WriteString("\n")

	files := extracted.Files()
	shown := files
	if len(shown) > maxPromptFiles {
		shown = shown[:maxPromptFiles]
	}
	for _, f := range shown {
		fmt.Fprintf(&b, "File: %s\n", f.Path())
		fmt.Fprintf(&b, "Language: %s\n", f.Language())
		fmt.Fprintf(&b, "LOC: %d\n", f.Lines())
		symbols := f.Symbols()
		if len(symbols) > maxPromptSymbols {
			symbols = symbols[:maxPromptSymbols]
		}
		for _, sym := range symbols {
			fmt.Fprintf(&b, "  %s\n", sym.Signature())
		}
		b.WriteString("\n")
	}
	if extra := len(files) - maxPromptFiles; extra > 0 {
		fmt.Fprintf(&b, "... and %d more files\n\n", extra)
	}

	b.WriteString(yamlSchema)
	b.WriteString("\nGenerate the YAML now:")

	return b.String()
}

func writeFileList(b *strings.Builder, label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(paths, ", "))
}
