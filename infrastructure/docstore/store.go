// Package docstore persists generated documentation as files: JSON document
// indexes, markdown summaries, a YAML symbol map, and the memory graph.
package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/memdocs-io/memdocs/domain/docs"
)

// File names written under the docs directory.
const (
	IndexFileName   = "index.json"
	SummaryFileName = "summary.md"
	SymbolsFileName = "symbols.yaml"
	GraphFileName   = "graph.json"
)

// FileStore implements docs.Store over a docs directory and a memory
// directory, typically .memdocs/docs and .memdocs/memory.
type FileStore struct {
	docsDir   string
	memoryDir string
	logger    *slog.Logger
}

// NewFileStore creates a FileStore.
func NewFileStore(docsDir, memoryDir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		docsDir:   docsDir,
		memoryDir: memoryDir,
		logger:    logger,
	}
}

// DocsDir returns the documentation output directory.
func (s *FileStore) DocsDir() string { return s.docsDir }

// WriteOutputs writes index.json, the per-document JSON, summary.md, and
// symbols.yaml. index.json always reflects the latest review.
func (s *FileStore) WriteOutputs(ctx context.Context, index docs.DocumentIndex, markdown string, symbols []docs.SymbolEntry) error {
	if err := os.MkdirAll(s.docsDir, 0o755); err != nil {
		return fmt.Errorf("create docs directory %s: %w", s.docsDir, err)
	}

	doc, err := encodeDocument(index)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", index.DocID(), err)
	}
	if err := os.WriteFile(filepath.Join(s.docsDir, IndexFileName), doc, 0o644); err != nil {
		return fmt.Errorf("write index.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.docsDir, index.DocID()+".json"), doc, 0o644); err != nil {
		return fmt.Errorf("write document json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.docsDir, SummaryFileName), []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write summary.md: %w", err)
	}

	syms, err := encodeSymbols(symbols)
	if err != nil {
		return fmt.Errorf("encode symbols: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.docsDir, SymbolsFileName), syms, 0o644); err != nil {
		return fmt.Errorf("write symbols.yaml: %w", err)
	}

	s.logger.Debug("documentation written",
		"doc_id", index.DocID(),
		"dir", s.docsDir,
		"symbols", len(symbols),
	)
	return nil
}

// WriteGraph writes the memory graph under the memory directory.
func (s *FileStore) WriteGraph(ctx context.Context, graph docs.MemoryGraph) error {
	if err := os.MkdirAll(s.memoryDir, 0o755); err != nil {
		return fmt.Errorf("create memory directory %s: %w", s.memoryDir, err)
	}

	data, err := encodeGraph(graph)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.memoryDir, GraphFileName), data, 0o644); err != nil {
		return fmt.Errorf("write graph.json: %w", err)
	}
	return nil
}

// LatestIndex returns the most recently written document index.
func (s *FileStore) LatestIndex(ctx context.Context) (docs.DocumentIndex, error) {
	data, err := s.readFile(filepath.Join(s.docsDir, IndexFileName))
	if err != nil {
		return docs.DocumentIndex{}, err
	}
	return decodeDocument(data)
}

// DocumentByID returns the document index written for the given doc ID.
func (s *FileStore) DocumentByID(ctx context.Context, docID string) (docs.DocumentIndex, error) {
	data, err := s.readFile(filepath.Join(s.docsDir, docID+".json"))
	if err != nil {
		return docs.DocumentIndex{}, err
	}
	return decodeDocument(data)
}

// Summary returns the latest markdown summary.
func (s *FileStore) Summary(ctx context.Context) (string, error) {
	data, err := s.readFile(filepath.Join(s.docsDir, SummaryFileName))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Symbols returns the symbol map, filtered by file path when non-empty.
func (s *FileStore) Symbols(ctx context.Context, filePath string) ([]docs.SymbolEntry, error) {
	data, err := s.readFile(filepath.Join(s.docsDir, SymbolsFileName))
	if err != nil {
		return nil, err
	}
	entries, err := decodeSymbols(data)
	if err != nil {
		return nil, err
	}
	if filePath == "" {
		return entries, nil
	}

	var filtered []docs.SymbolEntry
	for _, e := range entries {
		if e.File() == filePath {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Graph returns the latest memory graph.
func (s *FileStore) Graph(ctx context.Context) (docs.MemoryGraph, error) {
	data, err := s.readFile(filepath.Join(s.memoryDir, GraphFileName))
	if err != nil {
		return docs.MemoryGraph{}, err
	}
	return decodeGraph(data)
}

func (s *FileStore) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, docs.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

var _ docs.Store = (*FileStore)(nil)
