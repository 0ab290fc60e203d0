package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/AndersonCRodrigues/langgraph-langsmith/internal/utils"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the default User-Agent header value
	DefaultUserAgent = "agentgraph-webfetch/1.0"
	// MaxBodySize is the maximum response body size (10MB)
	MaxBodySize = 10 * 1024 * 1024
	// DefaultMaxChars caps the Markdown returned to the model
	DefaultMaxChars = 8000

	maxRedirects = 10
)

// Input holds the parameters passed to the tool by the language model.
type Input struct {
	URL            string `json:"url" jsonschema:"description=The URL of the web page to fetch (partial URLs like 'go.dev' are accepted),required"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"description=Request timeout in seconds (default: 30),minimum=1,maximum=300"`
}

// Output holds the fetched page. URL is the final URL after redirects.
type Output struct {
	URL       string `json:"url"`
	Markdown  string `json:"markdown"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Fetcher downloads pages and converts them to Markdown.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxChars  int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHttpClient sets a custom HTTP client.
func WithHttpClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithMaxChars caps the Markdown length returned to the model.
func WithMaxChars(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxChars = n
		}
	}
}

// NewFetcher creates a Fetcher with connection, TLS and header timeouts.
func NewFetcher(opts ...Option) *Fetcher {
	fetcher := &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				ForceAttemptHTTP2:     true,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (>%d)", maxRedirects)
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		maxChars:  DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// NewWebFetchTool returns the "fetch_page" tool.
func NewWebFetchTool(opts ...Option) *tool.Tool[Input, Output] {
	return tool.NewTool[Input, Output](
		"fetch_page",
		NewFetcher(opts...).Fetch,
		tool.WithDescription("Fetches a web page and returns its content converted to Markdown. Use it to read a page found with the search tool."),
	)
}

// Fetch retrieves the web page at req.URL and returns its content as Markdown.
// It fails when the URL is empty, the status is not 200 OK, the body exceeds
// [MaxBodySize] or the context ends first.
func (f *Fetcher) Fetch(ctx context.Context, req Input) (Output, error) {
	url := normalizeURL(req.URL)
	if url == "" {
		return Output{}, errors.New("URL cannot be empty")
	}

	timeout := DefaultTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Output{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return Output{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer utils.CloseWithLog(resp.Body, url)

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return Output{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(htmlBytes) > MaxBodySize {
		return Output{}, fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize)
	}

	markdown, err := htmltomarkdown.ConvertString(string(htmlBytes))
	if err != nil {
		return Output{}, fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	output := Output{URL: resp.Request.URL.String(), Markdown: strings.TrimSpace(markdown)}
	if runes := []rune(output.Markdown); len(runes) > f.maxChars {
		output.Markdown = string(runes[:f.maxChars])
		output.Truncated = true
	}
	return output, nil
}

// normalizeURL trims the URL and prepends https:// when no scheme is given.
func normalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url
}
