package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// ─── Ready ───────────────────────────────────────────────────────────────────

func TestReady_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ready", Model: "test", Dimension: 2})
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Ready(context.Background()); err != nil {
		t.Errorf("Ready = %v, want nil", err)
	}
}

func TestReady_ModelStillLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "loading"})
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Ready(context.Background()); err == nil {
		t.Error("a loading server must not report ready")
	}
}

func TestReady_Unreachable(t *testing.T) {
	err := NewClient("http://127.0.0.1:1").Ready(context.Background())
	if err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
	if !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("err = %v", err)
	}
}

// ─── Encode ──────────────────────────────────────────────────────────────────

func TestEncode_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/encode" || r.Method != http.MethodPost {
			t.Errorf("%s %s, want POST /encode", r.Method, r.URL.Path)
		}
		var req encodeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Query != "always blocks" {
			t.Errorf("query = %q", req.Query)
		}
		_ = json.NewEncoder(w).Encode(encodeResponse{Embedding: []float64{0.5, 0.5}, Dimension: 2})
	}))
	defer srv.Close()

	vec, err := NewClient(srv.URL).Encode(context.Background(), "always blocks")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("vector = %v", vec)
	}
}

func TestEncode_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(encodeResponse{Error: "model busy"})
			return
		}
		_ = json.NewEncoder(w).Encode(encodeResponse{Embedding: []float64{1, 0}})
	}))
	defer srv.Close()

	vec, err := NewClient(srv.URL).Encode(context.Background(), "q")
	if err != nil {
		t.Fatalf("Encode should succeed on retry: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("vector = %v", vec)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestEncode_ServerErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(encodeResponse{Error: "empty query"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.maxRetries = 0
	_, err := c.Encode(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "empty query") {
		t.Errorf("err = %v, want the server's error message", err)
	}
}

func TestEncode_EmptyVectorRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(encodeResponse{Embedding: []float64{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.maxRetries = 0
	if _, err := c.Encode(context.Background(), "q"); err == nil {
		t.Error("an empty vector must be rejected")
	}
}

func TestEncode_ContextCancelStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(encodeResponse{Error: "down"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewClient(srv.URL).Encode(ctx, "q")
	if err == nil {
		t.Fatal("expected an error")
	}
	// Must give up with the context, not sit out the full backoff.
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation did not interrupt the retry backoff")
	}
}
