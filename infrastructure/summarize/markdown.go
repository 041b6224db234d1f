package summarize

import (
	"fmt"
	"strings"

	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/review"
)

// renderMarkdown produces the human-readable summary written alongside the
// JSON outputs and chunked into the memory index.
func renderMarkdown(index docs.DocumentIndex, diff review.GitDiff) string {
	var b strings.Builder

	features := index.Features()
	if len(features) > 0 {
		fmt.Fprintf(&b, "# %s\n\n", features[0].Title())
	} else {
		b.WriteString("# Code Changes Summary\n\n")
	}

	if index.Commit() != "" {
		fmt.Fprintf(&b, "**Commit:** %s\n", index.Commit())
	}
	fmt.Fprintf(&b, "**Scope:** %s\n", scopeLabel(index.Scope().Level()))
	fmt.Fprintf(&b, "**Date:** %s\n\n", index.Timestamp().Format("2006-01-02"))

	b.WriteString("## Summary\n\n")
	if len(features) == 0 {
		b.WriteString("No features identified.\n")
	}
	for _, f := range features {
		if f.Description() != "" {
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Title(), f.Description())
		} else {
			fmt.Fprintf(&b, "- **%s**\n", f.Title())
		}
	}
	b.WriteString("\n")

	if !diff.IsEmpty() {
		b.WriteString("## Changes\n\n")
		writeChangeGroup(&b, "Added", diff.Added())
		writeChangeGroup(&b, "Modified", diff.Modified())
		writeChangeGroup(&b, "Deleted", diff.Deleted())
	}

	b.WriteString("## Impact\n\n")
	impacts := index.Impacts()
	wroteImpact := false
	for _, api := range impacts.APIs() {
		fmt.Fprintf(&b, "- %s\n", api)
		wroteImpact = true
	}
	for _, bc := range impacts.BreakingChanges() {
		fmt.Fprintf(&b, "- **Breaking:** %s\n", bc)
		wroteImpact = true
	}
	if impacts.MigrationRequired() {
		b.WriteString("- Migration required\n")
		wroteImpact = true
	}
	if !wroteImpact {
		b.WriteString("No API impact identified.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Risks\n\n")
	wroteRisk := false
	for _, f := range features {
		for _, risk := range f.Risks() {
			fmt.Fprintf(&b, "- %s\n", risk)
			wroteRisk = true
		}
	}
	if !wroteRisk {
		b.WriteString("No risks identified.\n")
	}
	b.WriteString("\n")

	refs := index.Refs()
	if refs.PR() > 0 || len(refs.Issues()) > 0 || index.Commit() != "" {
		b.WriteString("## References\n\n")
		if refs.PR() > 0 {
			fmt.Fprintf(&b, "- PR: #%d\n", refs.PR())
		}
		for _, issue := range refs.Issues() {
			fmt.Fprintf(&b, "- Issue: #%d\n", issue)
		}
		if index.Commit() != "" {
			fmt.Fprintf(&b, "- Commit: %s\n", index.Commit())
		}
	}

	return b.String()
}

func writeChangeGroup(b *strings.Builder, label string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:** %d files\n", label, len(paths))
	for _, p := range paths {
		fmt.Fprintf(b, "- %s\n", p)
	}
	b.WriteString("\n")
}

func scopeLabel(level review.ScopeLevel) string {
	switch level {
	case review.ScopeFile:
		return "File-level"
	case review.ScopeModule:
		return "Module-level"
	case review.ScopeRepo:
		return "Repo-level"
	default:
		return string(level)
	}
}
