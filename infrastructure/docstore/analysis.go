package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Analysis errors. The MCP layer turns these into tool error payloads.
var (
	// ErrNoAnalysis indicates no analysis directory exists for the file.
	ErrNoAnalysis = errors.New("no analysis found")

	// ErrNoAnalysisIndex indicates the analysis directory has no index.json.
	ErrNoAnalysisIndex = errors.New("no index.json found")
)

// AnalysisFeature is one feature entry of a per-file analysis document.
type AnalysisFeature struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Risk        []string `json:"risk,omitempty"`
}

// analysisDocument is the index.json of a per-file analysis directory.
// These are written by external analysis workflows; the store only reads
// them.
type analysisDocument struct {
	Commit        string            `json:"commit"`
	Timestamp     string            `json:"timestamp"`
	Scope         analysisScope     `json:"scope"`
	Features      []AnalysisFeature `json:"features"`
	Impacts       map[string]any    `json:"impacts"`
	SeverityScore float64           `json:"severity_score"`
}

type analysisScope struct {
	Paths []string `json:"paths"`
}

// FileAnalysis is the aggregated analysis of one file.
type FileAnalysis struct {
	Issues      []AnalysisFeature
	Impacts     map[string]any
	Predictions []AnalysisFeature
	Summary     string
	Full        map[string]any
}

// AnalysisFileSummary is one row of the all-files overview.
type AnalysisFileSummary struct {
	File            string  `json:"file"`
	Commit          string  `json:"commit"`
	PredictionCount int     `json:"prediction_count"`
	SeverityScore   float64 `json:"severity_score"`
}

// AnalysisOverview aggregates every per-file analysis directory.
type AnalysisOverview struct {
	Files      []AnalysisFileSummary `json:"files"`
	TotalFiles int                   `json:"total_files"`
}

// FileAnalysis loads the analysis for one file. The analysis directory is
// matched by the file's base name without extension.
func (s *FileStore) FileAnalysis(filePath string) (FileAnalysis, error) {
	dir, err := s.analysisDir(filePath)
	if err != nil {
		return FileAnalysis{}, err
	}

	raw, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return FileAnalysis{}, fmt.Errorf("%w in %s", ErrNoAnalysisIndex, dir)
		}
		return FileAnalysis{}, fmt.Errorf("read analysis index: %w", err)
	}

	var doc analysisDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return FileAnalysis{}, fmt.Errorf("decode analysis index: %w", err)
	}
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return FileAnalysis{}, fmt.Errorf("decode analysis index: %w", err)
	}

	analysis := FileAnalysis{
		Issues:  doc.Features,
		Impacts: doc.Impacts,
		Full:    full,
	}
	for _, f := range doc.Features {
		if hasTag(f, "prediction") {
			analysis.Predictions = append(analysis.Predictions, f)
		}
	}
	if summary, err := os.ReadFile(filepath.Join(dir, SummaryFileName)); err == nil {
		analysis.Summary = string(summary)
	}

	return analysis, nil
}

// AnalysisOverview aggregates every analysis directory under the docs
// directory, sorted by directory name. Directories without an index.json
// are skipped.
func (s *FileStore) AnalysisOverview() (AnalysisOverview, error) {
	entries, err := os.ReadDir(s.docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return AnalysisOverview{Files: []AnalysisFileSummary{}}, nil
		}
		return AnalysisOverview{}, fmt.Errorf("read docs directory: %w", err)
	}

	overview := AnalysisOverview{Files: []AnalysisFileSummary{}}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.docsDir, entry.Name(), IndexFileName))
		if err != nil {
			continue
		}
		var doc analysisDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}

		file := entry.Name()
		if len(doc.Scope.Paths) > 0 {
			file = doc.Scope.Paths[0]
		}
		predictions := 0
		for _, f := range doc.Features {
			if hasTag(f, "prediction") {
				predictions++
			}
		}
		overview.Files = append(overview.Files, AnalysisFileSummary{
			File:            file,
			Commit:          doc.Commit,
			PredictionCount: predictions,
			SeverityScore:   doc.SeverityScore,
		})
	}

	sort.Slice(overview.Files, func(i, j int) bool {
		return overview.Files[i].File < overview.Files[j].File
	})
	overview.TotalFiles = len(overview.Files)
	return overview, nil
}

// analysisDir resolves the analysis directory for a file path: the base
// name without extension, falling back to the full path with separators
// flattened.
func (s *FileStore) analysisDir(filePath string) (string, error) {
	base := filepath.Base(filePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	flattened := strings.NewReplacer("/", "_", "\\", "_", ".", "_").Replace(filePath)

	for _, name := range []string{stem, flattened} {
		dir := filepath.Join(s.docsDir, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrNoAnalysis, filePath)
}

func hasTag(f AnalysisFeature, tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
