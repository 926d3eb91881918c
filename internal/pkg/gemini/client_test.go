package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "gemini-1.5-flash",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  hello from gemini "}]}}]}`))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL).GenerateText(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello from gemini" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestGenerateTextMissingKey(t *testing.T) {
	c := newTestClient("http://unused")
	c.APIKey = ""
	if _, err := c.GenerateText(context.Background(), "hi"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateTextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).GenerateText(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error on upstream 503")
	}
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).GenerateText(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error on empty candidates")
	}
}
