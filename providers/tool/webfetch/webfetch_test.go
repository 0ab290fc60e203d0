package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch_ConvertsHTMLToMarkdown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><h1>Grafos</h1><p>Um <strong>nó</strong> por vez.</p></body></html>`))
	}))
	defer server.Close()

	output, err := NewFetcher().Fetch(context.Background(), Input{URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if !strings.Contains(output.Markdown, "# Grafos") || !strings.Contains(output.Markdown, "**nó**") {
		t.Errorf("Markdown = %q", output.Markdown)
	}
	if output.URL != server.URL {
		t.Errorf("URL = %q, want %q", output.URL, server.URL)
	}
	if output.Truncated {
		t.Error("short page should not be truncated")
	}
}

func TestFetch_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>novo</p>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	output, err := NewFetcher().Fetch(context.Background(), Input{URL: server.URL + "/old"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if output.URL != server.URL+"/new" {
		t.Errorf("final URL = %q", output.URL)
	}
}

func TestFetch_Truncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>` + strings.Repeat("a", 100) + `</p>`))
	}))
	defer server.Close()

	output, err := NewFetcher(WithMaxChars(10)).Fetch(context.Background(), Input{URL: server.URL})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(output.Markdown) != 10 || !output.Truncated {
		t.Errorf("output = %+v", output)
	}
}

func TestFetch_Errors(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	if _, err := NewFetcher().Fetch(context.Background(), Input{URL: "   "}); err == nil {
		t.Error("Expected error for empty URL")
	}
	if _, err := NewFetcher().Fetch(context.Background(), Input{URL: notFound.URL}); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected status error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFetcher().Fetch(ctx, Input{URL: notFound.URL}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := map[string]string{
		"go.dev":               "https://go.dev",
		" http://example.com ": "http://example.com",
		"https://example.com":  "https://example.com",
		"":                     "",
	}
	for input, want := range tests {
		if got := normalizeURL(input); got != want {
			t.Errorf("normalizeURL(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNewWebFetchTool(t *testing.T) {
	info := NewWebFetchTool().ToolInfo()
	if info.Name != "fetch_page" || info.Parameters["type"] != "object" {
		t.Errorf("ToolInfo() = %+v", info)
	}
}
