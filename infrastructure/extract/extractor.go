// Package extract gathers the raw material for a review: the head commit
// diff and per-file context (language, line counts, symbols, imports).
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/infrastructure/git"
)

// Extractor reads change context from a repository working tree. A nil
// Reader disables git metadata; extraction still succeeds with an empty
// diff.
type Extractor struct {
	repoPath string
	reader   git.Reader
	ignore   git.IgnorePattern
	logger   *slog.Logger
}

// NewExtractor creates an Extractor rooted at repoPath.
func NewExtractor(repoPath string, reader git.Reader, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ignore, err := git.NewIgnorePattern(repoPath)
	if err != nil {
		return nil, fmt.Errorf("extractor root %s: %w", repoPath, err)
	}

	return &Extractor{
		repoPath: repoPath,
		reader:   reader,
		ignore:   ignore,
		logger:   logger,
	}, nil
}

// Extract gathers the diff and file contexts for the given paths. Paths may
// be files, directories, or glob patterns, all relative to the repository
// root. An empty commit means HEAD.
func (e *Extractor) Extract(ctx context.Context, paths []string, commit string) (review.ExtractedContext, error) {
	diff, err := e.extractDiff(ctx, commit)
	if err != nil {
		return review.ExtractedContext{}, err
	}

	files, err := e.expandPaths(paths)
	if err != nil {
		return review.ExtractedContext{}, err
	}

	contexts := make([]review.FileContext, 0, len(files))
	for _, path := range files {
		fc, ok := e.extractFile(path)
		if ok {
			contexts = append(contexts, fc)
		}
	}

	e.logger.Debug("extraction complete",
		"files", len(contexts),
		"commit", diff.Commit(),
	)

	return review.NewExtractedContext(diff, contexts, paths), nil
}

func (e *Extractor) extractDiff(ctx context.Context, commit string) (review.GitDiff, error) {
	if e.reader == nil {
		return review.GitDiff{}, nil
	}

	var diff review.GitDiff
	var err error
	if commit == "" {
		diff, err = e.reader.HeadCommit(ctx, e.repoPath)
	} else {
		diff, err = e.reader.ChangedFiles(ctx, e.repoPath, commit)
	}
	if err != nil {
		if errors.Is(err, git.ErrNoRepository) {
			e.logger.Debug("no git repository, continuing without diff", "path", e.repoPath)
			return review.GitDiff{}, nil
		}
		return review.GitDiff{}, err
	}
	return diff, nil
}

// expandPaths resolves files, directories, and glob patterns to a sorted,
// de-duplicated list of repository-relative file paths.
func (e *Extractor) expandPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var expanded []string
	add := func(rel string) {
		rel = filepath.ToSlash(rel)
		if !seen[rel] {
			seen[rel] = true
			expanded = append(expanded, rel)
		}
	}

	for _, path := range paths {
		full := filepath.Join(e.repoPath, path)
		info, err := os.Stat(full)
		switch {
		case err == nil && info.Mode().IsRegular():
			add(path)
		case err == nil && info.IsDir():
			files, err := e.findCodeFiles(full)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
		case strings.Contains(path, "*"):
			matches, err := filepath.Glob(full)
			if err != nil {
				return nil, fmt.Errorf("glob %s: %w", path, err)
			}
			for _, m := range matches {
				if mi, err := os.Stat(m); err == nil && mi.Mode().IsRegular() {
					rel, err := filepath.Rel(e.repoPath, m)
					if err != nil {
						continue
					}
					add(rel)
				}
			}
		}
	}

	sort.Strings(expanded)
	return expanded, nil
}

func (e *Extractor) findCodeFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !codeExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if e.ignore.ShouldIgnore(path) {
			return nil
		}
		rel, err := filepath.Rel(e.repoPath, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

// extractFile reads one file and builds its context. Missing, binary, and
// unreadable files are skipped.
func (e *Extractor) extractFile(path string) (review.FileContext, bool) {
	content, err := os.ReadFile(filepath.Join(e.repoPath, path))
	if err != nil || !utf8.Valid(content) {
		return review.FileContext{}, false
	}

	text := string(content)
	language := detectLanguage(path)

	lines := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}

	return review.NewFileContext(
		path,
		language,
		lines,
		extractSymbols(text, language),
		extractImports(text, language),
	), true
}

// extractSymbols scans content line by line against the language's symbol
// table. Signatures are the declaration line with trailing punctuation
// stripped.
func extractSymbols(content, language string) []review.Symbol {
	table, ok := symbolTables[language]
	if !ok {
		return nil
	}

	var symbols []review.Symbol
	for i, line := range strings.Split(content, "\n") {
		for _, pattern := range table {
			m := pattern.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			signature := strings.TrimRight(strings.TrimSpace(line), " :{")
			symbols = append(symbols, review.NewSymbol(m[1], pattern.kind, i+1, signature))
			break
		}
	}
	return symbols
}
