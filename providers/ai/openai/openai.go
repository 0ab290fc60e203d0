package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/AndersonCRodrigues/langgraph-langsmith/internal/utils"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"

	// DefaultModel is used when neither the provider nor the request names one.
	DefaultModel = "gpt-3.5-turbo-0125"

	// DefaultMaxTokens caps completions when the request does not.
	DefaultMaxTokens = 2048
)

// ErrMissingAPIKey is returned by SendMessage when no key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not defined")

// OpenAIProvider implements the Provider interface for OpenAI API
type OpenAIProvider struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	client      *http.Client
}

var _ ai.Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider instance with default
// values, reading OPENAI_API_KEY, OPENAI_BASE_URL and OPENAI_MODEL.
func NewOpenAIProvider() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = DefaultModel
	}

	return &OpenAIProvider{
		apiKey:    os.Getenv("OPENAI_API_KEY"),
		baseURL:   baseURL,
		model:     model,
		maxTokens: DefaultMaxTokens,
		client:    &http.Client{},
	}
}

// WithAPIKey sets the API key for the provider
func (p *OpenAIProvider) WithAPIKey(apiKey string) *OpenAIProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
func (p *OpenAIProvider) WithBaseURL(baseURL string) *OpenAIProvider {
	if baseURL != "" {
		p.baseURL = baseURL
	}
	return p
}

// WithModel sets the default model
func (p *OpenAIProvider) WithModel(model string) *OpenAIProvider {
	if model != "" {
		p.model = model
	}
	return p
}

// WithTemperature sets the default sampling temperature
func (p *OpenAIProvider) WithTemperature(temperature float32) *OpenAIProvider {
	p.temperature = temperature
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) *OpenAIProvider {
	if httpClient != nil {
		p.client = httpClient
	}
	return p
}

// Model returns the default model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// SendMessage implements the Provider interface
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body := p.buildRequest(request)

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "OpenAI provider preparing request",
			observability.String(observability.AttrLLMProvider, "openai"),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, body.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(body.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(body.Tools)),
		)
	}

	httpResponse, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, body)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if resp == nil {
		return nil, fmt.Errorf("empty response from OpenAI API: %s", httpResponse.Status)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat completion: no choices in response")
	}

	result := chatCompletionToGeneric(*resp)

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, result.ID),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
			observability.Int(observability.AttrHTTPStatusCode, httpResponse.StatusCode),
		)
	}

	return result, nil
}

// IsStopMessage reports whether the given chat response should be treated as a stop/end signal.
func (p *OpenAIProvider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	if len(message.ToolCalls) > 0 {
		return false
	}
	return message.FinishReason != "tool_calls"
}

// buildRequest applies the provider defaults to a generic request.
func (p *OpenAIProvider) buildRequest(request ai.ChatRequest) chatCompletionRequest {
	if request.Model == "" {
		request.Model = p.model
	}

	config := ai.GenerationConfig{
		MaxTokens:   p.maxTokens,
		Temperature: utils.Ptr(p.temperature),
	}
	if override := request.GenerationConfig; override != nil {
		if override.MaxTokens > 0 {
			config.MaxTokens = override.MaxTokens
		}
		if override.Temperature != nil {
			config.Temperature = override.Temperature
		}
		config.TopP = override.TopP
	}
	request.GenerationConfig = &config

	return requestToChatCompletion(request)
}
