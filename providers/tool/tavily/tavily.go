package tavily

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/AndersonCRodrigues/langgraph-langsmith/internal/utils"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	envAPIKey         = "TAVILY_API_KEY"
	defaultMaxResults = 3
	maxResults        = 20
	snippetLength     = 300
)

// Textual results returned to the model.
const (
	MessageMissingAPIKey = "TAVILY_API_KEY não foi definida."
	MessageEmptyQuery    = "Consulta de busca não pode estar vazia."
	MessageNoResults     = "Nenhuma informação encontrada na web."
	messageSearchFailed  = "Erro ao buscar na web: %v"
)

// SearchInput represents the input parameters for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"description=A consulta de busca,required"`
}

// Searcher performs Tavily searches.
type Searcher struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithAPIKey sets the API key instead of reading TAVILY_API_KEY.
func WithAPIKey(apiKey string) Option {
	return func(s *Searcher) {
		s.apiKey = apiKey
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *Searcher) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithMaxResults sets the number of results requested, capped at 20.
func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxResults = min(n, maxResults)
		}
	}
}

// WithHttpClient sets a custom HTTP client.
func WithHttpClient(client *http.Client) Option {
	return func(s *Searcher) {
		if client != nil {
			s.client = client
		}
	}
}

// NewSearcher creates a Searcher with the default of 3 results per query.
func NewSearcher(opts ...Option) *Searcher {
	searcher := &Searcher{
		apiKey:     os.Getenv(envAPIKey),
		baseURL:    defaultBaseURL,
		maxResults: defaultMaxResults,
		client:     &http.Client{},
	}
	for _, opt := range opts {
		opt(searcher)
	}
	return searcher
}

// NewSearchTool creates the "search" tool.
func NewSearchTool(opts ...Option) *tool.Tool[SearchInput, string] {
	return tool.NewTool[SearchInput, string](
		"search",
		NewSearcher(opts...).Search,
		tool.WithDescription("Busca informações na web baseada na consulta fornecida. Use para perguntas que exigem informações atualizadas."),
	)
}

// Search runs the query and formats the results for the model.
func (s *Searcher) Search(ctx context.Context, input SearchInput) (string, error) {
	if s.apiKey == "" {
		return MessageMissingAPIKey, nil
	}

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return MessageEmptyQuery, nil
	}

	request := searchRequest{
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  s.maxResults,
	}

	_, response, err := utils.DoPostSync[searchResponse](ctx, s.client, s.baseURL+"/search", s.apiKey, request)
	if err != nil {
		return fmt.Sprintf(messageSearchFailed, err), nil
	}

	return formatResults(response), nil
}

func formatResults(response *searchResponse) string {
	if response == nil || (len(response.Results) == 0 && response.Answer == "") {
		return MessageNoResults
	}

	var sb strings.Builder
	if response.Answer != "" {
		sb.WriteString(response.Answer)
		sb.WriteString("\n")
	}
	for i, result := range response.Results {
		fmt.Fprintf(&sb, "\n%d. %s\n   URL: %s\n   %s\n",
			i+1, result.Title, result.URL, utils.TruncateString(result.Content, snippetLength))
	}
	return strings.TrimSpace(sb.String())
}

// searchRequest is the body of POST /search.
type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer,omitempty"`
}

// searchResponse represents the raw API response from Tavily Search
type searchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []searchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

// searchResult represents a single result from Tavily Search API
type searchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
