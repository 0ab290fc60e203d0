package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, status int, body string, captured *searchRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tvly-test" {
			t.Errorf("Authorization = %q", got)
		}
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSearch_FormatsResults(t *testing.T) {
	var captured searchRequest
	server := newTestServer(t, http.StatusOK, `{
		"query": "LangGraph",
		"results": [
			{"title": "LangGraph", "url": "https://example.com/langgraph", "content": "Framework de grafos para agentes.", "score": 0.9},
			{"title": "Docs", "url": "https://example.com/docs", "content": "Documentação.", "score": 0.7}
		]
	}`, &captured)

	searcher := NewSearcher(WithAPIKey("tvly-test"), WithBaseURL(server.URL+"/"))
	got, err := searcher.Search(context.Background(), SearchInput{Query: "  LangGraph  "})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if captured.Query != "LangGraph" || captured.MaxResults != defaultMaxResults || captured.SearchDepth != "basic" {
		t.Errorf("request = %+v", captured)
	}
	for _, want := range []string{"1. LangGraph", "URL: https://example.com/langgraph", "2. Docs"} {
		if !strings.Contains(got, want) {
			t.Errorf("result missing %q:\n%s", want, got)
		}
	}
}

func TestSearch_TextualFailures(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"results": []}`, nil)
	failing := newTestServer(t, http.StatusUnauthorized, `{"detail":{"error":"invalid key"}}`, nil)

	tests := []struct {
		name     string
		searcher *Searcher
		query    string
		want     string
	}{
		{"missing key", NewSearcher(WithAPIKey("")), "Go", MessageMissingAPIKey},
		{"empty query", NewSearcher(WithAPIKey("tvly-test"), WithBaseURL(server.URL)), "   ", MessageEmptyQuery},
		{"no results", NewSearcher(WithAPIKey("tvly-test"), WithBaseURL(server.URL)), "Go", MessageNoResults},
		{"api error", NewSearcher(WithAPIKey("tvly-test"), WithBaseURL(failing.URL)), "Go", "Erro ao buscar na web:"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.searcher.Search(context.Background(), SearchInput{Query: tc.query})
			if err != nil {
				t.Fatalf("failures must be textual, got error %v", err)
			}
			if !strings.HasPrefix(got, tc.want) {
				t.Errorf("Search() = %q, want prefix %q", got, tc.want)
			}
		})
	}
}

func TestWithMaxResults(t *testing.T) {
	if got := NewSearcher(WithMaxResults(50)).maxResults; got != maxResults {
		t.Errorf("maxResults = %d, want cap %d", got, maxResults)
	}
	if got := NewSearcher(WithMaxResults(0)).maxResults; got != defaultMaxResults {
		t.Errorf("maxResults = %d, want default %d", got, defaultMaxResults)
	}
}

func TestNewSearchTool(t *testing.T) {
	t.Setenv(envAPIKey, "")
	search := NewSearchTool()

	info := search.ToolInfo()
	if info.Name != "search" || info.Description == "" {
		t.Errorf("ToolInfo() = %+v", info)
	}

	output, err := search.Call(context.Background(), `{"query":"clima"}`)
	if err != nil || output != MessageMissingAPIKey {
		t.Errorf("Call() = %q, %v", output, err)
	}
}
