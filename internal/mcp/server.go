// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/memory"
	"github.com/memdocs-io/memdocs/infrastructure/docstore"
	"github.com/memdocs-io/memdocs/internal/config"
)

// Memory provides semantic memory queries for MCP tools.
type Memory interface {
	Query(ctx context.Context, text string, k int) ([]memory.Result, error)
	Enabled() bool
}

// AnalysisStore provides per-file analysis aggregation for MCP tools.
type AnalysisStore interface {
	FileAnalysis(filePath string) (docstore.FileAnalysis, error)
	AnalysisOverview() (docstore.AnalysisOverview, error)
}

// Valid query_analysis types.
var analysisQueryTypes = map[string]bool{
	"issues":      true,
	"predictions": true,
	"empathy":     true,
	"all":         true,
}

// Server wraps the MCP server with memdocs-specific tools.
type Server struct {
	mcpServer *server.MCPServer
	memory    Memory
	docStore  docs.Store
	analysis  AnalysisStore
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(mem Memory, docStore docs.Store, analysis AnalysisStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		memory:   mem,
		docStore: docStore,
		analysis: analysis,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"memdocs",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools registers all memdocs tools with the MCP server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_memory",
		mcp.WithDescription("Search project memory semantically for features, changes, and decisions"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The search query"),
		),
		mcp.WithNumber("k",
			mcp.Description("Number of results to return (default: 5)"),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearchMemory)

	symbolsTool := mcp.NewTool("get_symbols",
		mcp.WithDescription("Get the extracted code symbol map, optionally filtered by file path"),
		mcp.WithString("file_path",
			mcp.Description("Filter symbols to a single file"),
		),
	)
	mcpServer.AddTool(symbolsTool, s.handleGetSymbols)

	docTool := mcp.NewTool("get_documentation",
		mcp.WithDescription("Get generated documentation: the latest document or a specific one by id"),
		mcp.WithString("doc_id",
			mcp.Description("Document id; omit for the latest document"),
		),
	)
	mcpServer.AddTool(docTool, s.handleGetDocumentation)

	summaryTool := mcp.NewTool("get_summary",
		mcp.WithDescription("Get the latest markdown summary"),
	)
	mcpServer.AddTool(summaryTool, s.handleGetSummary)

	analysisTool := mcp.NewTool("query_analysis",
		mcp.WithDescription("Query per-file analysis results: issues, predictions, empathy, or all"),
		mcp.WithString("query_type",
			mcp.Description("One of issues, predictions, empathy, all (default: all)"),
		),
		mcp.WithString("file_path",
			mcp.Description("Restrict the query to one file; omit for an all-files overview"),
		),
	)
	mcpServer.AddTool(analysisTool, s.handleQueryAnalysis)
}

// handleSearchMemory handles the search_memory tool invocation. When
// semantic search is unavailable the error travels inside the result
// payload so assistants can surface it, not as a protocol failure.
func (s *Server) handleSearchMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	k := request.GetInt("k", config.DefaultQueryK)

	if s.memory == nil || !s.memory.Enabled() {
		return jsonResult([]map[string]string{
			{"error": "semantic search not available: no embedding model loaded"},
		})
	}

	results, err := s.memory.Query(ctx, query, k)
	if err != nil {
		s.logger.Error("memory query failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	type searchResult struct {
		Score    float64  `json:"score"`
		Features []string `json:"features"`
		Files    []string `json:"files"`
		Preview  string   `json:"preview"`
		DocID    string   `json:"doc_id"`
	}

	payload := make([]searchResult, len(results))
	for i, r := range results {
		doc := r.Document()
		payload[i] = searchResult{
			Score:    r.Score(),
			Features: doc.Features(),
			Files:    doc.FilePaths(),
			Preview:  doc.Preview(200),
			DocID:    doc.DocID(),
		}
	}
	return jsonResult(payload)
}

// handleGetSymbols handles the get_symbols tool invocation.
func (s *Server) handleGetSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath := request.GetString("file_path", "")

	entries, err := s.docStore.Symbols(ctx, filePath)
	if err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			return mcp.NewToolResultError("No symbols found"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("read symbols: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultError("No symbols found"), nil
	}

	type symbolEntry struct {
		File      string `json:"file"`
		Name      string `json:"name"`
		Kind      string `json:"kind"`
		Line      int    `json:"line"`
		Signature string `json:"signature,omitempty"`
	}

	payload := struct {
		Symbols []symbolEntry `json:"symbols"`
	}{Symbols: make([]symbolEntry, len(entries))}

	for i, entry := range entries {
		sym := entry.Symbol()
		payload.Symbols[i] = symbolEntry{
			File:      entry.File(),
			Name:      sym.Name(),
			Kind:      sym.Kind(),
			Line:      sym.Line(),
			Signature: sym.Signature(),
		}
	}
	return jsonResult(payload)
}

// handleGetDocumentation handles the get_documentation tool invocation.
func (s *Server) handleGetDocumentation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID := request.GetString("doc_id", "")

	var (
		index docs.DocumentIndex
		err   error
	)
	if docID == "" {
		index, err = s.docStore.LatestIndex(ctx)
		if errors.Is(err, docs.ErrNotFound) {
			return mcp.NewToolResultError("No documentation found"), nil
		}
	} else {
		index, err = s.docStore.DocumentByID(ctx, docID)
		if errors.Is(err, docs.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Document not found: %s", docID)), nil
		}
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read documentation: %v", err)), nil
	}

	return jsonResult(documentResponse(index))
}

// handleGetSummary handles the get_summary tool invocation. It returns
// the raw markdown, not JSON.
func (s *Server) handleGetSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.docStore.Summary(ctx)
	if err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			return mcp.NewToolResultText("No summary found. Run a review first."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("read summary: %v", err)), nil
	}
	return mcp.NewToolResultText(summary), nil
}

// handleQueryAnalysis handles the query_analysis tool invocation.
func (s *Server) handleQueryAnalysis(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryType := request.GetString("query_type", "all")
	if !analysisQueryTypes[queryType] {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid query_type: %s", queryType)), nil
	}

	filePath := request.GetString("file_path", "")
	if filePath == "" {
		overview, err := s.analysis.AnalysisOverview()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("read analysis overview: %v", err)), nil
		}
		return jsonResult(overview)
	}

	analysis, err := s.analysis.FileAnalysis(filePath)
	switch {
	case errors.Is(err, docstore.ErrNoAnalysis):
		return mcp.NewToolResultError(fmt.Sprintf("No analysis found for %s", filePath)), nil
	case errors.Is(err, docstore.ErrNoAnalysisIndex):
		return mcp.NewToolResultError(fmt.Sprintf("No index.json found for %s", filePath)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("read analysis: %v", err)), nil
	}

	payload := map[string]any{}
	switch queryType {
	case "issues":
		payload["issues"] = analysis.Issues
		payload["impacts"] = analysis.Impacts
	case "predictions":
		payload["predictions"] = analysis.Predictions
	case "empathy":
		payload["empathy"] = featuresWithTag(analysis.Issues, "empathy")
	case "all":
		payload["issues"] = analysis.Issues
		payload["impacts"] = analysis.Impacts
		payload["predictions"] = analysis.Predictions
		payload["summary"] = analysis.Summary
		payload["full_analysis"] = analysis.Full
	}
	return jsonResult(payload)
}

// documentResponse mirrors the on-disk index.json shape.
func documentResponse(index docs.DocumentIndex) map[string]any {
	features := make([]map[string]any, len(index.Features()))
	for i, f := range index.Features() {
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
		features[i] = feature
	}

	scope := index.Scope()
	return map[string]any{
		"doc_id":    index.DocID(),
		"commit":    index.Commit(),
		"timestamp": index.Timestamp().UTC().Format(time.RFC3339),
		"scope": map[string]any{
			"level": scope.Level().String(),
			"paths": scope.Files(),
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

func featuresWithTag(features []docstore.AnalysisFeature, tag string) []docstore.AnalysisFeature {
	var matched []docstore.AnalysisFeature
	for _, f := range features {
		for _, t := range f.Tags {
			if t == tag {
				matched = append(matched, f)
				break
			}
		}
	}
	return matched
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
