// Package service provides application layer services that orchestrate
// domain operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/memory"
	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/infrastructure/extract"
	"github.com/memdocs-io/memdocs/infrastructure/guard"
	"github.com/memdocs-io/memdocs/infrastructure/policy"
	"github.com/memdocs-io/memdocs/infrastructure/summarize"
)

// ReviewRequest holds the parameters of one review run.
type ReviewRequest struct {
	// Paths are the requested paths; "." requests a repo-level review.
	Paths []string
	// Commit restricts git context to a specific commit; empty means HEAD.
	Commit string
	// Force overrides the file-count ceiling.
	Force bool
	// EmitDocs controls whether documentation outputs are written.
	EmitDocs bool
	// EmitMemory controls whether the run is indexed into vector memory.
	EmitMemory bool
}

// ReviewResult is the outcome of a completed review run.
type ReviewResult struct {
	Review     review.Review
	Index      docs.DocumentIndex
	Markdown   string
	Scope      review.Scope
	Warnings   []string
	Report     IndexReport
	Redactions int
}

// CleanupResult describes what a cleanup pass removed.
type CleanupResult struct {
	// Reviews are the catalog rows that matched the cutoff.
	Reviews []review.Review
	// ChunksPurged is the number of vector rows compacted away.
	ChunksPurged int
	// DryRun reports whether anything was actually deleted.
	DryRun bool
}

// StatsResult combines memory statistics with catalog history.
type StatsResult struct {
	Memory    memory.Stats
	TotalRuns int64
	Recent    []review.Review
}

// ReviewService runs the full review pipeline: extract, scope, summarize,
// redact, write outputs, index into memory, and record the run in the
// catalog.
type ReviewService struct {
	extractor  *extract.Extractor
	policy     *policy.Engine
	summarizer *summarize.Summarizer
	guard      *guard.Guard
	docStore   docs.Store
	memory     *MemoryService
	catalog    review.Store
	logger     *slog.Logger
}

// NewReviewService creates a ReviewService from its collaborators.
func NewReviewService(
	extractor *extract.Extractor,
	engine *policy.Engine,
	summarizer *summarize.Summarizer,
	g *guard.Guard,
	docStore docs.Store,
	mem *MemoryService,
	catalog review.Store,
	logger *slog.Logger,
) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{
		extractor:  extractor,
		policy:     engine,
		summarizer: summarizer,
		guard:      g,
		docStore:   docStore,
		memory:     mem,
		catalog:    catalog,
		logger:     logger,
	}
}

// Memory returns the memory service so query surfaces can share it.
func (s *ReviewService) Memory() *MemoryService { return s.memory }

// Catalog returns the review history store.
func (s *ReviewService) Catalog() review.Store { return s.catalog }

// Run executes the review pipeline. Summarization failures are hard
// errors; memory indexing failures are logged and never block the run.
func (s *ReviewService) Run(ctx context.Context, req ReviewRequest) (ReviewResult, error) {
	if s.summarizer == nil {
		return ReviewResult{}, errors.New("summarizer not configured: set ANTHROPIC_API_KEY or ai.api_key in .memdocs.yml")
	}

	extracted, err := s.extractor.Extract(ctx, req.Paths, req.Commit)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("extract context: %w", err)
	}

	scope, err := s.policy.DetermineScope(req.Paths, extracted, req.Force)
	if err != nil {
		return ReviewResult{}, err
	}
	warnings := s.policy.ValidateScope(scope)
	for _, w := range warnings {
		s.logger.Warn(w)
	}
	if scope.Escalated() {
		s.logger.Info("scope escalated",
			"level", scope.Level().String(),
			"reason", scope.EscalationReason(),
		)
	}

	index, markdown, err := s.summarizer.Summarize(ctx, extracted, scope)
	if err != nil {
		return ReviewResult{}, err
	}

	redacted, matches, err := s.guard.RedactDocument(index.DocID(), markdown)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("apply privacy guard: %w", err)
	}
	if len(matches) > 0 {
		s.logger.Info("redacted sensitive values", "count", len(matches))
	}

	if req.EmitDocs {
		symbols := docs.SymbolsFromContext(extracted)
		if err := s.docStore.WriteOutputs(ctx, index, redacted, symbols); err != nil {
			return ReviewResult{}, fmt.Errorf("write documentation: %w", err)
		}
		if err := s.docStore.WriteGraph(ctx, docs.GraphFromIndex(index)); err != nil {
			return ReviewResult{}, fmt.Errorf("write memory graph: %w", err)
		}
	}

	var report IndexReport
	if req.EmitMemory {
		report, err = s.memory.IndexDocument(ctx, index, redacted)
		if err != nil {
			// Memory is an optional feature; a failed embedding run must
			// not lose the generated documentation.
			s.logger.Warn("memory indexing failed", "error", err)
			report = IndexReport{}
		}
	}

	rev := review.NewReview(index.DocID(), index.Commit(), scope, len(index.Features()), report.Chunks)
	saved, err := s.catalog.Save(ctx, rev)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("record review: %w", err)
	}

	s.logger.Info("review complete",
		"doc_id", saved.DocID(),
		"level", scope.Level().String(),
		"files", scope.FileCount(),
		"features", len(index.Features()),
		"chunks", report.Chunks,
	)

	return ReviewResult{
		Review:     saved,
		Index:      index,
		Markdown:   redacted,
		Scope:      scope,
		Warnings:   warnings,
		Report:     report,
		Redactions: len(matches),
	}, nil
}

// Cleanup removes catalog rows created before the cutoff and compacts
// their chunks out of the vector index. With dryRun the matching rows are
// reported but nothing is deleted.
func (s *ReviewService) Cleanup(ctx context.Context, olderThan time.Duration, dryRun bool) (CleanupResult, error) {
	cutoff := time.Now().Add(-olderThan)

	if dryRun {
		recent, err := s.catalog.Recent(ctx, 0)
		if err != nil {
			return CleanupResult{}, fmt.Errorf("list reviews: %w", err)
		}
		var matching []review.Review
		for _, r := range recent {
			if r.CreatedAt().Before(cutoff) {
				matching = append(matching, r)
			}
		}
		return CleanupResult{Reviews: matching, DryRun: true}, nil
	}

	removed, err := s.catalog.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("delete reviews: %w", err)
	}

	docIDs := make([]string, len(removed))
	for i, r := range removed {
		docIDs[i] = r.DocID()
	}
	purged, err := s.memory.Forget(docIDs)
	if err != nil {
		return CleanupResult{}, err
	}

	return CleanupResult{Reviews: removed, ChunksPurged: purged}, nil
}

// Stats returns memory statistics together with the most recent catalog
// rows.
func (s *ReviewService) Stats(ctx context.Context, recentLimit int) (StatsResult, error) {
	total, err := s.catalog.Count(ctx)
	if err != nil {
		return StatsResult{}, fmt.Errorf("count reviews: %w", err)
	}
	recent, err := s.catalog.Recent(ctx, recentLimit)
	if err != nil {
		return StatsResult{}, fmt.Errorf("list reviews: %w", err)
	}
	return StatsResult{
		Memory:    s.memory.Stats(),
		TotalRuns: total,
		Recent:    recent,
	}, nil
}
