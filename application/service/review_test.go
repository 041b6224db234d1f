package service_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memdocs-io/memdocs/application/service"
	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/infrastructure/docstore"
	"github.com/memdocs-io/memdocs/infrastructure/extract"
	"github.com/memdocs-io/memdocs/infrastructure/guard"
	"github.com/memdocs-io/memdocs/infrastructure/persistence"
	"github.com/memdocs-io/memdocs/infrastructure/policy"
	"github.com/memdocs-io/memdocs/infrastructure/provider"
	"github.com/memdocs-io/memdocs/infrastructure/summarize"
	"github.com/memdocs-io/memdocs/internal/config"
	"github.com/memdocs-io/memdocs/internal/testdb"
)

const pipelineYAML = `features:
  - id: feat-001
    title: Token refresh
    description: Added automatic token refresh. Contact admin@example.com for rollout.
    risk:
      - Sessions may drop during rollout
    tags:
      - auth
impacts:
  apis:
    - POST /auth/refresh
  breaking_changes: []
  tests_added: 1
  tests_modified: 0
  migration_required: false
refs:
  pr: 42
  issues: []
  commits: []
`

type stubGenerator struct {
	content string
	err     error
}

func (g *stubGenerator) ChatCompletion(_ context.Context, _ provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	if g.err != nil {
		return provider.ChatCompletionResponse{}, g.err
	}
	return provider.NewChatCompletionResponse(g.content, "end_turn", provider.NewUsage(100, 200, 300)), nil
}

type pipelineFixture struct {
	svc      *service.ReviewService
	docsDir  string
	repoDir  string
	filePath string
}

func newPipeline(t *testing.T) pipelineFixture {
	t.Helper()
	logger := slog.Default()

	repoDir := t.TempDir()
	filePath := filepath.Join(repoDir, "auth.py")
	source := "import os\n\ndef refresh_token(session):\n    return session\n"
	require.NoError(t, os.WriteFile(filePath, []byte(source), 0o644))

	extractor, err := extract.NewExtractor(repoDir, nil, logger)
	require.NoError(t, err)

	summarizer, err := summarize.NewSummarizer("", config.NewSummaryConfig(), logger,
		summarize.WithGenerator(&stubGenerator{content: pipelineYAML}))
	require.NoError(t, err)

	g, err := guard.NewGuard(config.NewPrivacyConfig(), logger)
	require.NoError(t, err)

	stateDir := t.TempDir()
	docsDir := filepath.Join(stateDir, "docs")
	memoryDir := filepath.Join(stateDir, "memory")
	docStore := docstore.NewFileStore(docsDir, memoryDir, logger)

	mem := newMemoryService(t, &stubEmbedder{available: true})
	catalog := persistence.NewReviewStore(testdb.New(t))

	svc := service.NewReviewService(
		extractor,
		policy.NewEngine(config.NewPolicyConfig()),
		summarizer,
		g,
		docStore,
		mem,
		catalog,
		logger,
	)
	return pipelineFixture{svc: svc, docsDir: docsDir, repoDir: repoDir, filePath: filePath}
}

func TestReviewService_Run(t *testing.T) {
	fx := newPipeline(t)
	ctx := context.Background()

	result, err := fx.svc.Run(ctx, service.ReviewRequest{
		Paths:      []string{fx.filePath},
		EmitDocs:   true,
		EmitMemory: true,
	})
	require.NoError(t, err)

	assert.Equal(t, review.ScopeFile, result.Scope.Level())
	require.Len(t, result.Index.Features(), 1)
	assert.Equal(t, "Token refresh", result.Index.Features()[0].Title())

	// The guard runs standard mode, so the email in the description is
	// scrubbed from the markdown output.
	assert.NotContains(t, result.Markdown, "admin@example.com")
	assert.Contains(t, result.Markdown, "[REDACTED:EMAIL]")
	assert.Equal(t, 1, result.Redactions)

	assert.True(t, result.Report.Indexed)
	assert.Positive(t, result.Report.Chunks)

	assert.NotZero(t, result.Review.ID())
	assert.Equal(t, result.Index.DocID(), result.Review.DocID())
	assert.Equal(t, 1, result.Review.FeatureCount())

	for _, name := range []string{"index.json", "summary.md", "symbols.yaml"} {
		_, err := os.Stat(filepath.Join(fx.docsDir, name))
		assert.NoError(t, err, name)
	}
}

func TestReviewService_RunDocsOnly(t *testing.T) {
	fx := newPipeline(t)

	result, err := fx.svc.Run(context.Background(), service.ReviewRequest{
		Paths:    []string{fx.filePath},
		EmitDocs: true,
	})
	require.NoError(t, err)

	assert.False(t, result.Report.Indexed)
	assert.Zero(t, result.Review.ChunksIndexed())

	_, err = os.Stat(filepath.Join(fx.docsDir, "summary.md"))
	assert.NoError(t, err)
}

func TestReviewService_RunMemoryFailureDoesNotBlock(t *testing.T) {
	fx := newPipeline(t)
	// Swap in a service whose embedder always fails.
	fx = pipelineWithFailingEmbedder(t, fx)

	result, err := fx.svc.Run(context.Background(), service.ReviewRequest{
		Paths:      []string{fx.filePath},
		EmitDocs:   true,
		EmitMemory: true,
	})
	require.NoError(t, err)

	assert.False(t, result.Report.Indexed)
	assert.NotZero(t, result.Review.ID())
}

func pipelineWithFailingEmbedder(t *testing.T, fx pipelineFixture) pipelineFixture {
	t.Helper()
	logger := slog.Default()

	extractor, err := extract.NewExtractor(fx.repoDir, nil, logger)
	require.NoError(t, err)
	summarizer, err := summarize.NewSummarizer("", config.NewSummaryConfig(), logger,
		summarize.WithGenerator(&stubGenerator{content: pipelineYAML}))
	require.NoError(t, err)
	g, err := guard.NewGuard(config.NewPrivacyConfig(), logger)
	require.NoError(t, err)

	stateDir := t.TempDir()
	fx.docsDir = filepath.Join(stateDir, "docs")
	docStore := docstore.NewFileStore(fx.docsDir, filepath.Join(stateDir, "memory"), logger)

	fx.svc = service.NewReviewService(
		extractor,
		policy.NewEngine(config.NewPolicyConfig()),
		summarizer,
		g,
		docStore,
		newMemoryService(t, &stubEmbedder{available: true, fail: true}),
		persistence.NewReviewStore(testdb.New(t)),
		logger,
	)
	return fx
}

func TestReviewService_RunFileCountCeiling(t *testing.T) {
	logger := slog.Default()
	repoDir := t.TempDir()
	var paths []string
	for i := 0; i < 3; i++ {
		rel := filepath.Join("pkg", "file"+string(rune('a'+i))+".py")
		p := filepath.Join(repoDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("def f():\n    pass\n"), 0o644))
		paths = append(paths, rel)
	}

	extractor, err := extract.NewExtractor(repoDir, nil, logger)
	require.NoError(t, err)
	summarizer, err := summarize.NewSummarizer("", config.NewSummaryConfig(), logger,
		summarize.WithGenerator(&stubGenerator{content: pipelineYAML}))
	require.NoError(t, err)
	g, err := guard.NewGuard(config.NewPrivacyConfig(), logger)
	require.NoError(t, err)

	engine := policy.NewEngine(config.NewPolicyConfig().WithMaxFiles(2))
	stateDir := t.TempDir()
	docStore := docstore.NewFileStore(filepath.Join(stateDir, "docs"), filepath.Join(stateDir, "memory"), logger)

	svc := service.NewReviewService(
		extractor, engine, summarizer, g, docStore,
		newMemoryService(t, &stubEmbedder{available: true}),
		persistence.NewReviewStore(testdb.New(t)),
		logger,
	)

	_, err = svc.Run(context.Background(), service.ReviewRequest{Paths: paths, EmitDocs: true})
	require.ErrorContains(t, err, "exceeds limit")

	_, err = svc.Run(context.Background(), service.ReviewRequest{Paths: paths, EmitDocs: true, Force: true})
	require.NoError(t, err)
}

func TestReviewService_Cleanup(t *testing.T) {
	fx := newPipeline(t)
	ctx := context.Background()

	result, err := fx.svc.Run(ctx, service.ReviewRequest{
		Paths:      []string{fx.filePath},
		EmitDocs:   true,
		EmitMemory: true,
	})
	require.NoError(t, err)

	old := review.ReconstructReview(
		0, "docs-old", "0ld1234", review.ScopeFile,
		1, false, "", 1, 0,
		time.Now().Add(-30*24*time.Hour),
	)
	_, err = fx.svc.Catalog().Save(ctx, old)
	require.NoError(t, err)

	dry, err := fx.svc.Cleanup(ctx, 7*24*time.Hour, true)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	require.Len(t, dry.Reviews, 1)
	assert.Equal(t, "docs-old", dry.Reviews[0].DocID())

	total, err := fx.svc.Catalog().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "dry run must not delete")

	cleaned, err := fx.svc.Cleanup(ctx, 7*24*time.Hour, false)
	require.NoError(t, err)
	require.Len(t, cleaned.Reviews, 1)
	assert.Zero(t, cleaned.ChunksPurged, "old run had no chunks")

	total, err = fx.svc.Catalog().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// The recent run's chunks are untouched.
	assert.Positive(t, result.Report.Chunks)
	assert.Equal(t, result.Report.Chunks, fx.svc.Memory().Stats().Active())
}

func TestReviewService_Stats(t *testing.T) {
	fx := newPipeline(t)
	ctx := context.Background()

	_, err := fx.svc.Run(ctx, service.ReviewRequest{
		Paths:      []string{fx.filePath},
		EmitDocs:   true,
		EmitMemory: true,
	})
	require.NoError(t, err)

	stats, err := fx.svc.Stats(ctx, 10)
	require.NoError(t, err)

	assert.True(t, stats.Memory.Enabled())
	assert.Positive(t, stats.Memory.Active())
	assert.Equal(t, int64(1), stats.TotalRuns)
	require.Len(t, stats.Recent, 1)
}
