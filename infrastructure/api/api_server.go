package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/memdocs-io/memdocs/application/service"
	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/memory"
	"github.com/memdocs-io/memdocs/domain/review"
	apimiddleware "github.com/memdocs-io/memdocs/infrastructure/api/middleware"
	"github.com/memdocs-io/memdocs/internal/config"
	mcpinternal "github.com/memdocs-io/memdocs/internal/mcp"
)

// recentReviewLimit caps the run history returned by the stats endpoint.
const recentReviewLimit = 5

// APIServer exposes the review pipeline and memory index over HTTP.
type APIServer struct {
	reviews      *service.ReviewService
	docStore     docs.Store
	mcp          *mcpinternal.Server
	apiKeys      []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates an APIServer. mcpSrv may be nil, in which case no
// /mcp endpoint is mounted. apiKeys configures write-protection: when keys
// are set, mutating methods (including MCP tool calls over POST) require a
// valid X-API-KEY header. The JSON endpoints are read-only and stay open.
func NewAPIServer(reviews *service.ReviewService, docStore docs.Store, mcpSrv *mcpinternal.Server, apiKeys []string, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIServer{
		reviews:  reviews,
		docStore: docStore,
		mcp:      mcpSrv,
		apiKeys:  apiKeys,
		logger:   logger,
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call
// MountRoutes(). If not called, ListenAndServe creates a default router
// with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-KEY"},
		MaxAge:         300,
	}))
	router.Use(apimiddleware.WriteProtectAuth(a.apiKeys))

	router.Get("/healthz", a.handleHealth)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Get("/search", a.handleSearch)
		r.Get("/stats", a.handleStats)
		r.Get("/documents/{id}", a.handleDocument)
		r.Get("/summary", a.handleSummary)
	})

	// MCP endpoint — no timeout middleware. MCP uses streaming responses
	// and manages its own session state via response headers, which is
	// incompatible with chi's Timeout middleware that wraps the
	// ResponseWriter.
	if a.mcp != nil {
		httpHandler := server.NewStreamableHTTPServer(a.mcp.MCPServer())
		router.Mount("/mcp", httpHandler)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	srv := NewServer(addr, a.logger)
	a.server = &srv

	if a.routerCalled && a.router != nil {
		srv.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(srv.Router())
	}

	return srv.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}

func (a *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	k := config.DefaultQueryK
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "query parameter 'k' must be a positive integer")
			return
		}
		k = parsed
	}

	mem := a.reviews.Memory()
	if !mem.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "semantic search not available: no embedding model loaded")
		return
	}

	results, err := mem.Query(r.Context(), query, k)
	if err != nil {
		a.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: searchResults(results)})
}

func (a *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.reviews.Stats(r.Context(), recentReviewLimit)
	if err != nil {
		a.logger.Error("stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Memory:    memoryStatsDTO(stats.Memory),
		TotalRuns: stats.TotalRuns,
		Recent:    reviewDTOs(stats.Recent),
	})
}

func (a *APIServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")

	index, err := a.docStore.DocumentByID(r.Context(), docID)
	if err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found: "+docID)
			return
		}
		a.logger.Error("document lookup failed", "doc_id", docID, "error", err)
		writeError(w, http.StatusInternalServerError, "document lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, documentDTO(index))
}

func (a *APIServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.docStore.Summary(r.Context())
	if err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no summary found, run a review first")
			return
		}
		a.logger.Error("summary read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "summary read failed")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(summary))
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	DocID    string   `json:"doc_id"`
	Score    float64  `json:"score"`
	Features []string `json:"features"`
	Files    []string `json:"files"`
	Preview  string   `json:"preview"`
}

type statsResponse struct {
	Memory    memoryStats `json:"memory"`
	TotalRuns int64       `json:"total_runs"`
	Recent    []reviewDTO `json:"recent"`
}

type memoryStats struct {
	Enabled   bool `json:"enabled"`
	Total     int  `json:"total_chunks"`
	Active    int  `json:"active_chunks"`
	Dimension int  `json:"dimension"`
}

type reviewDTO struct {
	DocID            string    `json:"doc_id"`
	Commit           string    `json:"commit"`
	Scope            string    `json:"scope"`
	FileCount        int       `json:"file_count"`
	Escalated        bool      `json:"escalated"`
	EscalationReason string    `json:"escalation_reason,omitempty"`
	FeatureCount     int       `json:"feature_count"`
	ChunksIndexed    int       `json:"chunks_indexed"`
	CreatedAt        time.Time `json:"created_at"`
}

func searchResults(results []memory.Result) []searchResult {
	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		doc := res.Document()
		out = append(out, searchResult{
			DocID:    doc.DocID(),
			Score:    res.Score(),
			Features: doc.Features(),
			Files:    doc.FilePaths(),
			Preview:  doc.Preview(200),
		})
	}
	return out
}

func memoryStatsDTO(stats memory.Stats) memoryStats {
	return memoryStats{
		Enabled:   stats.Enabled(),
		Total:     stats.Total(),
		Active:    stats.Active(),
		Dimension: stats.Dimension(),
	}
}

func reviewDTOs(reviews []review.Review) []reviewDTO {
	out := make([]reviewDTO, 0, len(reviews))
	for _, rec := range reviews {
		out = append(out, reviewDTO{
			DocID:            rec.DocID(),
			Commit:           rec.Commit(),
			Scope:            string(rec.ScopeLevel()),
			FileCount:        rec.FileCount(),
			Escalated:        rec.Escalated(),
			EscalationReason: rec.EscalationReason(),
			FeatureCount:     rec.FeatureCount(),
			ChunksIndexed:    rec.ChunksIndexed(),
			CreatedAt:        rec.CreatedAt(),
		})
	}
	return out
}

func documentDTO(index docs.DocumentIndex) map[string]any {
	features := make([]map[string]any, 0, len(index.Features()))
	for _, f := range index.Features() {
		feature := map[string]any{
			"id":          f.ID(),
			"title":       f.Title(),
			"description": f.Description(),
		}
		if len(f.Risks()) > 0 {
			feature["risk"] = f.Risks()
		}
		if len(f.Tags()) > 0 {
			feature["tags"] = f.Tags()
		}
		features = append(features, feature)
	}

	return map[string]any{
		"doc_id":    index.DocID(),
		"commit":    index.Commit(),
		"timestamp": index.Timestamp().UTC().Format(time.RFC3339),
		"scope": map[string]any{
			"level": string(index.Scope().Level()),
			"paths": index.Scope().Files(),
		},
		"features": features,
		"impacts": map[string]any{
			"apis":               index.Impacts().APIs(),
			"breaking_changes":   index.Impacts().BreakingChanges(),
			"tests_added":        index.Impacts().TestsAdded(),
			"tests_modified":     index.Impacts().TestsModified(),
			"migration_required": index.Impacts().MigrationRequired(),
		},
		"refs": map[string]any{
			"pr":            index.Refs().PR(),
			"issues":        index.Refs().Issues(),
			"files_changed": index.Refs().FilesChanged(),
			"commits":       index.Refs().Commits(),
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
