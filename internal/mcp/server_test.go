package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/memory"
	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/infrastructure/docstore"
)

// fakeMemory implements Memory with canned results.
type fakeMemory struct {
	enabled bool
	results []memory.Result
}

func (f *fakeMemory) Enabled() bool { return f.enabled }

func (f *fakeMemory) Query(_ context.Context, _ string, _ int) ([]memory.Result, error) {
	return f.results, nil
}

// sendMessage marshals a JSON-RPC request, sends it through HandleMessage,
// and returns the JSONRPCResponse. It fatals on marshal failure or unexpected
// response type.
func sendMessage(t *testing.T, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	result := srv.MCPServer().HandleMessage(context.Background(), raw)

	resp, ok := result.(mcp.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T: %+v", result, result)
	}
	return resp
}

// toolText is the text payload of a tools/call result.
type toolText struct {
	IsError bool
	Text    string
}

// callTool invokes a tool through the JSON-RPC surface and returns the
// first text content of its result.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) toolText {
	t.Helper()

	resp := sendMessage(t, srv, "tools/call", 1, map[string]any{
		"name":      name,
		"arguments": args,
	})

	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)

	var result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(b, &result))
	require.NotEmpty(t, result.Content)
	return toolText{IsError: result.IsError, Text: result.Content[0].Text}
}

type serverFixture struct {
	srv     *Server
	store   *docstore.FileStore
	docsDir string
}

func newServerFixture(t *testing.T, mem Memory) serverFixture {
	t.Helper()
	stateDir := t.TempDir()
	docsDir := filepath.Join(stateDir, "docs")
	store := docstore.NewFileStore(docsDir, filepath.Join(stateDir, "memory"), slog.Default())
	return serverFixture{
		srv:     NewServer(mem, store, store, slog.Default()),
		store:   store,
		docsDir: docsDir,
	}
}

func testIndex(t *testing.T, commit string) docs.DocumentIndex {
	t.Helper()
	feature, err := docs.NewFeatureSummary(
		"feat-001", "Token refresh", "Automatic token refresh on expiry.",
		nil, nil,
	)
	require.NoError(t, err)
	return docs.NewDocumentIndex(
		commit,
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		review.NewScope(review.ScopeFile, []string{"src/auth.py"}),
		[]docs.FeatureSummary{feature},
		docs.NewImpactSummary([]string{"POST /auth/refresh"}, nil, 1, 0, false),
		docs.NewReferenceSummary(42, nil, []string{"src/auth.py"}, []string{commit}),
	)
}

func writeOutputs(t *testing.T, fx serverFixture, commit string) {
	t.Helper()
	symbols := []docs.SymbolEntry{
		docs.NewSymbolEntry("src/auth.py", review.NewSymbol("refresh_token", "function", 12, "def refresh_token(session)")),
		docs.NewSymbolEntry("src/store.py", review.NewSymbol("TokenStore", "class", 30, "class TokenStore")),
	}
	require.NoError(t, fx.store.WriteOutputs(context.Background(), testIndex(t, commit), "# Token refresh\n\nBody.\n", symbols))
}

func TestServer_ListTools(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})

	resp := sendMessage(t, fx.srv, "tools/list", 1, nil)

	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(b, &result))

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{
		"search_memory", "get_symbols", "get_documentation", "get_summary", "query_analysis",
	}, names)
}

func TestServer_SearchMemoryDisabled(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{enabled: false})

	result := callTool(t, fx.srv, "search_memory", map[string]any{"query": "anything"})
	require.False(t, result.IsError)

	var payload []map[string]string
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	require.Len(t, payload, 1)
	assert.Contains(t, payload[0]["error"], "not available")
}

func TestServer_SearchMemory(t *testing.T) {
	doc := memory.NewDocument(
		"abc1234",
		"Automatic token refresh on expiry.",
		[]string{"Token refresh"},
		[]string{"src/auth.py"},
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	)
	fx := newServerFixture(t, &fakeMemory{
		enabled: true,
		results: []memory.Result{memory.NewResult(0, 0.95, doc)},
	})

	result := callTool(t, fx.srv, "search_memory", map[string]any{"query": "token refresh", "k": 3})
	require.False(t, result.IsError)

	var payload []struct {
		Score    float64  `json:"score"`
		Features []string `json:"features"`
		Files    []string `json:"files"`
		Preview  string   `json:"preview"`
		DocID    string   `json:"doc_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	require.Len(t, payload, 1)
	assert.InDelta(t, 0.95, payload[0].Score, 1e-9)
	assert.Equal(t, []string{"Token refresh"}, payload[0].Features)
	assert.Equal(t, []string{"src/auth.py"}, payload[0].Files)
	assert.Equal(t, "Automatic token refresh on expiry.", payload[0].Preview)
	assert.Equal(t, "abc1234", payload[0].DocID)
}

func TestServer_SearchMemoryMissingQuery(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{enabled: true})

	result := callTool(t, fx.srv, "search_memory", map[string]any{})
	assert.True(t, result.IsError)
}

func TestServer_GetSymbols(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeOutputs(t, fx, "abc1234")

	result := callTool(t, fx.srv, "get_symbols", map[string]any{})
	require.False(t, result.IsError)

	var payload struct {
		Symbols []struct {
			File string `json:"file"`
			Name string `json:"name"`
			Kind string `json:"kind"`
			Line int    `json:"line"`
		} `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	assert.Len(t, payload.Symbols, 2)
}

func TestServer_GetSymbolsFiltered(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeOutputs(t, fx, "abc1234")

	result := callTool(t, fx.srv, "get_symbols", map[string]any{"file_path": "src/auth.py"})
	require.False(t, result.IsError)

	var payload struct {
		Symbols []struct {
			File string `json:"file"`
			Name string `json:"name"`
		} `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	require.Len(t, payload.Symbols, 1)
	assert.Equal(t, "refresh_token", payload.Symbols[0].Name)
}

func TestServer_GetSymbolsMissing(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})

	result := callTool(t, fx.srv, "get_symbols", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "No symbols found")
}

func TestServer_GetDocumentationLatest(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeOutputs(t, fx, "abc1234")

	result := callTool(t, fx.srv, "get_documentation", map[string]any{})
	require.False(t, result.IsError)

	var payload struct {
		Commit string `json:"commit"`
		Scope  struct {
			Level string   `json:"level"`
			Paths []string `json:"paths"`
		} `json:"scope"`
		Features []struct {
			ID string `json:"id"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	assert.Equal(t, "abc1234", payload.Commit)
	assert.Equal(t, "file", payload.Scope.Level)
	require.Len(t, payload.Features, 1)
	assert.Equal(t, "feat-001", payload.Features[0].ID)
}

func TestServer_GetDocumentationByID(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeOutputs(t, fx, "abc1234")

	result := callTool(t, fx.srv, "get_documentation", map[string]any{"doc_id": "abc1234"})
	require.False(t, result.IsError)

	var payload struct {
		Commit string `json:"commit"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	assert.Equal(t, "abc1234", payload.Commit)
}

func TestServer_GetDocumentationNotFound(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeOutputs(t, fx, "abc1234")

	result := callTool(t, fx.srv, "get_documentation", map[string]any{"doc_id": "nonexistent"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "not found")
}

func TestServer_GetDocumentationNoIndex(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})

	result := callTool(t, fx.srv, "get_documentation", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "No documentation found")
}

func TestServer_GetSummary(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeOutputs(t, fx, "abc1234")

	result := callTool(t, fx.srv, "get_summary", map[string]any{})
	require.False(t, result.IsError)
	assert.Contains(t, result.Text, "# Token refresh")
}

func TestServer_GetSummaryMissing(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})

	result := callTool(t, fx.srv, "get_summary", map[string]any{})
	require.False(t, result.IsError)
	assert.Contains(t, result.Text, "No summary found")
}

func writeAnalysisFixture(t *testing.T, fx serverFixture) {
	t.Helper()
	dir := filepath.Join(fx.docsDir, "auth")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	index := map[string]any{
		"commit":    "abc1234",
		"timestamp": "2026-03-01T12:00:00Z",
		"scope":     map[string]any{"paths": []string{"src/auth.py"}},
		"features": []map[string]any{
			{"id": "feat-001", "title": "Potential race", "tags": []string{"prediction"}},
			{"id": "feat-002", "title": "Confusing error path", "tags": []string{"empathy"}},
		},
		"impacts":        map[string]any{"apis": []string{"POST /auth/refresh"}},
		"severity_score": 0.7,
	}
	b, err := json.Marshal(index)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), b, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.md"), []byte("Auth analysis"), 0o644))
}

func TestServer_QueryAnalysisInvalidType(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})

	result := callTool(t, fx.srv, "query_analysis", map[string]any{"query_type": "invalid"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "Invalid query_type")
}

func TestServer_QueryAnalysisFileNotFound(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})

	result := callTool(t, fx.srv, "query_analysis", map[string]any{"file_path": "nonexistent.py"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "No analysis found")
}

func TestServer_QueryAnalysisNoIndex(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	require.NoError(t, os.MkdirAll(filepath.Join(fx.docsDir, "auth"), 0o755))

	result := callTool(t, fx.srv, "query_analysis", map[string]any{"file_path": "src/auth.py"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text, "No index.json found")
}

func TestServer_QueryAnalysisIssues(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeAnalysisFixture(t, fx)

	result := callTool(t, fx.srv, "query_analysis", map[string]any{
		"file_path":  "src/auth.py",
		"query_type": "issues",
	})
	require.False(t, result.IsError)

	var payload struct {
		Issues  []struct{ ID string } `json:"issues"`
		Impacts map[string]any        `json:"impacts"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	assert.Len(t, payload.Issues, 2)
	assert.Contains(t, payload.Impacts, "apis")
}

func TestServer_QueryAnalysisAll(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeAnalysisFixture(t, fx)

	result := callTool(t, fx.srv, "query_analysis", map[string]any{
		"file_path":  "src/auth.py",
		"query_type": "all",
	})
	require.False(t, result.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	assert.Contains(t, payload, "issues")
	assert.Contains(t, payload, "predictions")
	assert.Contains(t, payload, "summary")
	assert.Contains(t, payload, "full_analysis")
	assert.Equal(t, "Auth analysis", payload["summary"])
}

func TestServer_QueryAnalysisEmpathy(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeAnalysisFixture(t, fx)

	result := callTool(t, fx.srv, "query_analysis", map[string]any{
		"file_path":  "src/auth.py",
		"query_type": "empathy",
	})
	require.False(t, result.IsError)

	var payload struct {
		Empathy []struct {
			ID string `json:"id"`
		} `json:"empathy"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	require.Len(t, payload.Empathy, 1)
	assert.Equal(t, "feat-002", payload.Empathy[0].ID)
}

func TestServer_QueryAnalysisOverview(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})
	writeAnalysisFixture(t, fx)

	result := callTool(t, fx.srv, "query_analysis", map[string]any{"query_type": "all"})
	require.False(t, result.IsError)

	var payload struct {
		Files []struct {
			File            string  `json:"file"`
			PredictionCount int     `json:"prediction_count"`
			SeverityScore   float64 `json:"severity_score"`
		} `json:"files"`
		TotalFiles int `json:"total_files"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Text), &payload))
	assert.Equal(t, 1, payload.TotalFiles)
	require.Len(t, payload.Files, 1)
	assert.Equal(t, "src/auth.py", payload.Files[0].File)
	assert.Equal(t, 1, payload.Files[0].PredictionCount)
}

func TestServer_UnknownTool(t *testing.T) {
	fx := newServerFixture(t, &fakeMemory{})

	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      "unknown_tool",
			"arguments": map[string]any{},
		},
	})
	require.NoError(t, err)

	result := fx.srv.MCPServer().HandleMessage(context.Background(), raw)

	// mcp-go answers unknown tools with a JSON-RPC error, not a panic.
	_, isError := result.(mcp.JSONRPCError)
	assert.True(t, isError)
}
