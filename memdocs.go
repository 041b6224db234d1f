// Package memdocs provides a library for automated documentation review:
// scoped change analysis, LLM summarization, privacy scrubbing, and a
// searchable vector memory of past reviews.
//
// Basic usage:
//
//	client, err := memdocs.New(
//	    memdocs.WithRepoPath("."),
//	    memdocs.WithAnthropicAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Review changed files and update documentation
//	result, err := client.Reviews.Run(ctx, service.ReviewRequest{
//	    Paths:      []string{"src/auth.py"},
//	    EmitDocs:   true,
//	    EmitMemory: true,
//	})
//
//	// Semantic search over past reviews
//	hits, err := client.Memory.Query(ctx, "token refresh", 5)
package memdocs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/memdocs-io/memdocs/application/service"
	"github.com/memdocs-io/memdocs/domain/memory"
	"github.com/memdocs-io/memdocs/infrastructure/api"
	"github.com/memdocs-io/memdocs/infrastructure/chunking"
	"github.com/memdocs-io/memdocs/infrastructure/docstore"
	"github.com/memdocs-io/memdocs/infrastructure/extract"
	"github.com/memdocs-io/memdocs/infrastructure/git"
	"github.com/memdocs-io/memdocs/infrastructure/guard"
	"github.com/memdocs-io/memdocs/infrastructure/persistence"
	"github.com/memdocs-io/memdocs/infrastructure/policy"
	"github.com/memdocs-io/memdocs/infrastructure/provider"
	"github.com/memdocs-io/memdocs/infrastructure/search"
	"github.com/memdocs-io/memdocs/infrastructure/summarize"
	"github.com/memdocs-io/memdocs/internal/config"
	"github.com/memdocs-io/memdocs/internal/database"
	"github.com/memdocs-io/memdocs/internal/log"
	mcpinternal "github.com/memdocs-io/memdocs/internal/mcp"
)

// ErrClientClosed is returned by Close when the client is already closed.
var ErrClientClosed = service.ErrClientClosed

// Client is the main entry point for the memdocs library.
//
// Access resources via struct fields:
//
//	client.Reviews.Run(ctx, req)
//	client.Memory.Query(ctx, "token refresh", 5)
//	client.Export.Export(ctx, service.ExportTargetCursor, "")
type Client struct {
	// Public resource fields (direct service access)
	Reviews *service.ReviewService
	Memory  *service.MemoryService
	Export  *service.ExportService

	cfg      config.AppConfig
	db       database.Database
	docStore *docstore.FileStore
	catalog  persistence.ReviewStore
	guard    *guard.Guard

	hugotEmbedding *provider.HugotEmbedding
	closers        []io.Closer

	logger *slog.Logger
	closed atomic.Bool
	mu     sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	app := cfg.app

	logger := cfg.logger
	if logger == nil {
		logger = log.NewLogger(app).Slog()
	}

	if err := app.EnsureDataDir(); err != nil {
		return nil, err
	}

	// Open the catalog database and migrate the schema.
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, app.DBURL())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), db.Close())
	}
	if err := persistence.ValidateSchema(ctx, db); err != nil {
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), db.Close())
	}

	catalog := persistence.NewReviewStore(db)
	docStore := docstore.NewFileStore(app.DocsDir(), app.MemoryDir(), logger)

	closers := cfg.closers

	// One disk-backed HTTP cache shared by every provider client, so
	// repeated identical requests replay without hitting the network.
	var cachingTransport *provider.CachingTransport
	if cacheDir := app.HTTPCacheDir(); cacheDir != "" {
		cachingTransport, err = provider.NewCachingTransport(cacheDir, nil)
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}
		closers = append(closers, cachingTransport)
	}

	fail := func(err error) (*Client, error) {
		if cachingTransport != nil {
			err = errors.Join(err, cachingTransport.Close())
		}
		return nil, errors.Join(err, db.Close())
	}

	// Embedding provider: an explicit override, a remote endpoint, or the
	// built-in local model. A missing local model disables memory rather
	// than failing construction.
	embCfg := app.Embedding()
	embedder := cfg.embedder
	var hugotEmbedding *provider.HugotEmbedding
	if embedder == nil {
		if embCfg.IsRemote() {
			openaiCfg := provider.OpenAIConfig{
				APIKey:         embCfg.APIKey(),
				BaseURL:        embCfg.BaseURL(),
				EmbeddingModel: embCfg.Model(),
			}
			if cachingTransport != nil {
				openaiCfg.HTTPClient = &http.Client{Transport: cachingTransport}
			}
			remote := provider.NewOpenAIProviderFromConfig(openaiCfg)
			embedder = provider.NewMemoryEmbedder(remote, embCfg.Dimension(), embCfg.BatchSize(), true)
		} else {
			hugotEmbedding = provider.NewHugotEmbedding(embCfg.CacheDir())
			available := hugotEmbedding.Available()
			if !available {
				logger.Info("no local embedding model found; memory disabled",
					slog.String("cache_dir", embCfg.CacheDir()))
			}
			embedder = provider.NewMemoryEmbedder(hugotEmbedding, embCfg.Dimension(), embCfg.BatchSize(), available)
		}
	}

	// Memory stays optional past construction too: a broken tokenizer cache
	// or a corrupt index file degrades to a disabled service instead of
	// blocking the client.
	mem, err := buildMemoryService(app, embedder, logger)
	if err != nil {
		logger.Warn("memory unavailable; continuing with memory disabled", slog.Any("error", err))
		mem = service.NewMemoryService(nil, nil, nil, logger)
	}

	// Summarizer is only constructed when a generator or API key is
	// available; reviews fail with a clear error otherwise while query,
	// stats, and export keep working.
	var summarizer *summarize.Summarizer
	apiKey := app.AnthropicAPIKey()
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.generator != nil || apiKey != "" {
		var sumOpts []summarize.Option
		if cfg.generator != nil {
			sumOpts = append(sumOpts, summarize.WithGenerator(cfg.generator))
		} else {
			genOpts := []provider.AnthropicOption{provider.WithAnthropicModel(app.Summary().Model())}
			if cachingTransport != nil {
				genOpts = append(genOpts, provider.WithAnthropicTransport(cachingTransport))
			}
			sumOpts = append(sumOpts, summarize.WithGenerator(provider.NewAnthropicProvider(apiKey, genOpts...)))
		}
		summarizer, err = summarize.NewSummarizer(apiKey, app.Summary(), logger, sumOpts...)
		if err != nil {
			return fail(fmt.Errorf("create summarizer: %w", err))
		}
	}

	g, err := guard.NewGuard(app.Privacy(), logger, guard.WithAuditLog(guard.NewAuditLog(app.AuditPath())))
	if err != nil {
		return fail(fmt.Errorf("create privacy guard: %w", err))
	}

	reader, err := git.NewReader(app.GitProvider(), logger)
	if err != nil {
		return fail(err)
	}
	extractor, err := extract.NewExtractor(app.RepoPath(), reader, logger)
	if err != nil {
		return fail(err)
	}

	engine := policy.NewEngine(app.Policy())

	client := &Client{
		cfg:            app,
		db:             db,
		docStore:       docStore,
		catalog:        catalog,
		guard:          g,
		hugotEmbedding: hugotEmbedding,
		closers:        closers,
		logger:         logger,
	}

	client.Memory = mem
	client.Reviews = service.NewReviewService(extractor, engine, summarizer, g, docStore, mem, catalog, logger)
	client.Export = service.NewExportService(docStore, logger)

	return client, nil
}

// buildMemoryService assembles the chunker, embedder, and vector index. An
// unavailable embedder yields a disabled service without touching tokenizer
// or index state.
func buildMemoryService(app config.AppConfig, embedder memory.Embedder, logger *slog.Logger) (*service.MemoryService, error) {
	if embedder == nil || !embedder.Available() {
		return service.NewMemoryService(nil, embedder, nil, logger), nil
	}

	chunker, err := chunking.NewTokenChunker(chunking.DefaultTokenParams())
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}
	index, err := search.NewVectorIndex(app.MemoryDir(), embedder.Dimension(), logger)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	return service.NewMemoryService(chunker, embedder, index, logger), nil
}

// Close releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hugotEmbedding != nil {
		if err := c.hugotEmbedding.Close(); err != nil {
			c.logger.Error("failed to close embedding provider", slog.Any("error", err))
		}
	}

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Debug("memdocs client closed")
	return nil
}

// Config returns the resolved application configuration.
func (c *Client) Config() config.AppConfig {
	return c.cfg
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// DocStore returns the file-based documentation store.
func (c *Client) DocStore() *docstore.FileStore {
	return c.docStore
}

// MCPServer creates an MCP server exposing the memory index and
// documentation store as tools.
func (c *Client) MCPServer() *mcpinternal.Server {
	return mcpinternal.NewServer(c.Memory, c.docStore, c.docStore, c.logger)
}

// ServeStdio runs the MCP server over stdin/stdout until the stream closes.
func (c *Client) ServeStdio() error {
	return c.MCPServer().ServeStdio()
}

// APIServer creates an HTTP API server over this client.
func (c *Client) APIServer() *api.APIServer {
	return api.NewAPIServer(c.Reviews, c.docStore, c.MCPServer(), c.cfg.APIKeys(), c.logger)
}
