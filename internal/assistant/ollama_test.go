package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req["model"] != "llama3.2" {
			t.Errorf("model = %v", req["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"Snow accumulates.","done":true}`))
	}))
	defer srv.Close()

	g, err := NewOllamaGenerator(srv.URL, "", time.Second)
	if err != nil {
		t.Fatalf("NewOllamaGenerator: %v", err)
	}
	got, err := g.Generate(context.Background(), "why?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Snow accumulates." {
		t.Errorf("Generate = %q", got)
	}
}

func TestOllamaGenerator_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g, err := NewOllamaGenerator(url, "m", time.Second)
	if err != nil {
		t.Fatalf("NewOllamaGenerator: %v", err)
	}
	if _, err := g.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected error from closed server")
	}
}
