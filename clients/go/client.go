// Package memdocs is a typed HTTP client for the memdocs API server.
package memdocs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a running memdocs API server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sets the API key sent in the X-API-KEY header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates a Client for the given base URL, e.g.
// "http://127.0.0.1:7910".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchResult is one semantic search hit.
type SearchResult struct {
	DocID    string   `json:"doc_id"`
	Score    float64  `json:"score"`
	Features []string `json:"features"`
	Files    []string `json:"files"`
	Preview  string   `json:"preview"`
}

// MemoryStats describes the state of the vector index.
type MemoryStats struct {
	Enabled   bool `json:"enabled"`
	Total     int  `json:"total_chunks"`
	Active    int  `json:"active_chunks"`
	Dimension int  `json:"dimension"`
}

// ReviewRun is one recorded review run.
type ReviewRun struct {
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

// Stats is the server stats payload.
type Stats struct {
	Memory    MemoryStats `json:"memory"`
	TotalRuns int64       `json:"total_runs"`
	Recent    []ReviewRun `json:"recent"`
}

// Feature is one feature summary in a document.
type Feature struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Risk        []string `json:"risk,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Impacts describes API and test impact of a document.
type Impacts struct {
	APIs              []string `json:"apis"`
	BreakingChanges   []string `json:"breaking_changes"`
	TestsAdded        int      `json:"tests_added"`
	TestsModified     int      `json:"tests_modified"`
	MigrationRequired bool     `json:"migration_required"`
}

// Refs holds cross references recorded with a document.
type Refs struct {
	PR           int      `json:"pr"`
	Issues       []int    `json:"issues"`
	FilesChanged []string `json:"files_changed"`
	Commits      []string `json:"commits"`
}

// Scope is the review scope of a document.
type Scope struct {
	Level string   `json:"level"`
	Paths []string `json:"paths"`
}

// Document is a full documentation index entry.
type Document struct {
	DocID     string    `json:"doc_id"`
	Commit    string    `json:"commit"`
	Timestamp time.Time `json:"timestamp"`
	Scope     Scope     `json:"scope"`
	Features  []Feature `json:"features"`
	Impacts   Impacts   `json:"impacts"`
	Refs      Refs      `json:"refs"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("memdocs api: %d: %s", e.StatusCode, e.Message)
}

// Health checks the server health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var payload map[string]string
	return c.getJSON(ctx, "/healthz", nil, &payload)
}

// Search runs a semantic search. k <= 0 uses the server default.
func (c *Client) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	params := url.Values{"q": []string{query}}
	if k > 0 {
		params.Set("k", strconv.Itoa(k))
	}

	var payload struct {
		Results []SearchResult `json:"results"`
	}
	if err := c.getJSON(ctx, "/api/v1/search", params, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// Stats returns the server statistics.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var payload Stats
	if err := c.getJSON(ctx, "/api/v1/stats", nil, &payload); err != nil {
		return Stats{}, err
	}
	return payload, nil
}

// Document fetches a documentation entry by its doc ID.
func (c *Client) Document(ctx context.Context, docID string) (Document, error) {
	var payload Document
	if err := c.getJSON(ctx, "/api/v1/documents/"+url.PathEscape(docID), nil, &payload); err != nil {
		return Document{}, err
	}
	return payload, nil
}

// Summary fetches the latest summary markdown.
func (c *Client) Summary(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/api/v1/summary", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
