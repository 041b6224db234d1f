package memdocs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"query parameter 'q' is required"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"doc_id":"abc1234","score":0.91,"features":["Token refresh"],"files":["src/auth.py"],"preview":"Adds automatic token refresh."}]}`))
	})
	mux.HandleFunc("GET /api/v1/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"memory":{"enabled":true,"total_chunks":3,"active_chunks":3,"dimension":384},"total_runs":2,"recent":[]}`))
	})
	mux.HandleFunc("GET /api/v1/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "abc1234" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"document not found: ` + r.PathValue("id") + `"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"doc_id":"abc1234","commit":"abc1234","timestamp":"2026-03-14T10:00:00Z","scope":{"level":"file","paths":["src/auth.py"]},"features":[{"id":"feat-001","title":"Token refresh","description":"Adds token refresh."}],"impacts":{"apis":["POST /auth/refresh"],"breaking_changes":[],"tests_added":1,"tests_modified":0,"migration_required":false},"refs":{"pr":42,"issues":[],"files_changed":["src/auth.py"],"commits":["abc1234"]}}`))
	})
	mux.HandleFunc("GET /api/v1/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "" && r.Header.Get("X-API-KEY") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte("# Token refresh\n"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Health(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
}

func TestClient_Search(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)

	results, err := client.Search(context.Background(), "token refresh", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() returned %d results, want 1", len(results))
	}
	if results[0].DocID != "abc1234" {
		t.Errorf("DocID = %q, want abc1234", results[0].DocID)
	}
	if results[0].Score != 0.91 {
		t.Errorf("Score = %v, want 0.91", results[0].Score)
	}
}

func TestClient_Search_ErrorPayload(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)

	_, err := client.Search(context.Background(), "", 0)
	if err == nil {
		t.Fatal("Search() with empty query should fail")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error should be *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Message != "query parameter 'q' is required" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestClient_Stats(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if !stats.Memory.Enabled {
		t.Error("Memory.Enabled = false, want true")
	}
	if stats.TotalRuns != 2 {
		t.Errorf("TotalRuns = %d, want 2", stats.TotalRuns)
	}
	if stats.Memory.Dimension != 384 {
		t.Errorf("Dimension = %d, want 384", stats.Memory.Dimension)
	}
}

func TestClient_Document(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)

	doc, err := client.Document(context.Background(), "abc1234")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if doc.Scope.Level != "file" {
		t.Errorf("Scope.Level = %q, want file", doc.Scope.Level)
	}
	if len(doc.Features) != 1 || doc.Features[0].Title != "Token refresh" {
		t.Errorf("Features = %+v", doc.Features)
	}
}

func TestClient_Document_NotFound(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)

	_, err := client.Document(context.Background(), "zzz9999")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Document() error = %v, want 404 APIError", err)
	}
}

func TestClient_Summary_SendsAPIKey(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, WithAPIKey("secret"))

	summary, err := client.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary != "# Token refresh\n" {
		t.Errorf("Summary() = %q", summary)
	}
}
