package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/memdocs-io/memdocs/domain/docs"
)

// Export targets.
const (
	ExportTargetCursor   = "cursor"
	ExportTargetClaude   = "claude"
	ExportTargetContinue = "continue"
)

// Default output paths per export target.
const (
	cursorOutputPath   = ".cursorrules"
	claudeOutputPath   = ".claude-context.md"
	continueOutputPath = ".continue/context.md"
)

// graphFeatureLimit caps how many recent features the Memory Graph
// section lists.
const graphFeatureLimit = 5

// ExportResult describes a completed export.
type ExportResult struct {
	Path    string
	Symbols int
}

// ExportService renders the generated documentation into context files
// consumed by AI coding assistants.
type ExportService struct {
	docStore docs.Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewExportService creates an ExportService.
func NewExportService(docStore docs.Store, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{docStore: docStore, logger: logger, now: time.Now}
}

// Export writes the context file for the given target. An empty outputPath
// uses the target's conventional location.
func (s *ExportService) Export(ctx context.Context, target, outputPath string) (ExportResult, error) {
	summary, err := s.docStore.Summary(ctx)
	if err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			return ExportResult{}, errors.New("no summary found, run a review first")
		}
		return ExportResult{}, fmt.Errorf("load summary: %w", err)
	}

	symbols, err := s.docStore.Symbols(ctx, "")
	if err != nil && !errors.Is(err, docs.ErrNotFound) {
		return ExportResult{}, fmt.Errorf("load symbols: %w", err)
	}
	symbolsSection := renderCodeMap(symbols)

	var graphSection string
	graph, err := s.docStore.Graph(ctx)
	if err == nil {
		graphSection = renderGraphSection(graph)
	} else if !errors.Is(err, docs.ErrNotFound) {
		return ExportResult{}, fmt.Errorf("load memory graph: %w", err)
	}

	var content string
	switch target {
	case ExportTargetCursor:
		if outputPath == "" {
			outputPath = cursorOutputPath
		}
		content = s.renderCursor(summary, symbolsSection, graphSection)
	case ExportTargetClaude:
		if outputPath == "" {
			outputPath = claudeOutputPath
		}
		content = summary + symbolsSection + graphSection + "\n"
	case ExportTargetContinue:
		if outputPath == "" {
			outputPath = continueOutputPath
		}
		content = "# Project Context\n\n" + summary + symbolsSection + graphSection + "\n"
	default:
		return ExportResult{}, fmt.Errorf("unknown export target: %s", target)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ExportResult{}, fmt.Errorf("create export directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return ExportResult{}, fmt.Errorf("write export file %s: %w", outputPath, err)
	}

	s.logger.Info("exported context", "target", target, "path", outputPath, "symbols", len(symbols))
	return ExportResult{Path: outputPath, Symbols: len(symbols)}, nil
}

func (s *ExportService) renderCursor(summary, symbolsSection, graphSection string) string {
	var b strings.Builder
	b.WriteString("# Project Memory (Auto-generated by memdocs)\n")
	fmt.Fprintf(&b, "# Last updated: %s\n\n", s.now().Format("2006-01-02 15:04:05"))
	b.WriteString("## Documentation\n\n")
	b.WriteString(summary)
	b.WriteString(symbolsSection)
	b.WriteString(graphSection)
	b.WriteString("\n\n---\n\n")
	b.WriteString("## Tips for Cursor\n\n")
	b.WriteString("- Ask: \"What does [function_name] do?\"\n")
	b.WriteString("- Ask: \"Where is [feature] implemented?\"\n")
	b.WriteString("- Ask: \"Explain the architecture\"\n")
	b.WriteString("- Reference symbols by file:line (e.g. src/auth/jwt.py:33)\n\n")
	b.WriteString("*Regenerate with: `memdocs export --target cursor`*\n")
	return b.String()
}

// renderCodeMap formats the symbol map grouped by file, sorted by path.
func renderCodeMap(symbols []docs.SymbolEntry) string {
	if len(symbols) == 0 {
		return ""
	}

	byFile := make(map[string][]docs.SymbolEntry)
	for _, entry := range symbols {
		byFile[entry.File()] = append(byFile[entry.File()], entry)
	}
	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	var b strings.Builder
	b.WriteString("\n\n## Code Map\n")
	for _, file := range files {
		fmt.Fprintf(&b, "\n### %s\n\n", file)
		for _, entry := range byFile[file] {
			sym := entry.Symbol()
			if sig := sym.Signature(); sig != "" {
				fmt.Fprintf(&b, "- **%s** `%s` (line %d)\n  ```\n  %s\n  ```\n",
					sym.Kind(), sym.Name(), sym.Line(), sig)
			} else {
				fmt.Fprintf(&b, "- **%s** `%s` (line %d)\n", sym.Kind(), sym.Name(), sym.Line())
			}
		}
	}
	return b.String()
}

// renderGraphSection formats the most recent features from the memory
// graph.
func renderGraphSection(graph docs.MemoryGraph) string {
	features := graph.Features()
	if len(features) == 0 {
		return ""
	}
	if len(features) > graphFeatureLimit {
		features = features[:graphFeatureLimit]
	}

	var b strings.Builder
	b.WriteString("\n\n## Memory Graph\n\n")
	b.WriteString("**Recent Features:**\n")
	for _, feature := range features {
		fmt.Fprintf(&b, "- %s\n", feature.Title())
	}
	return b.String()
}
