// Package gemini implements [ai.Provider] and [ai.Embedder] on top of the
// Google Gen AI SDK (google.golang.org/genai) using the Gemini API backend.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gemini-2.5-flash-lite"

	// DefaultEmbeddingModel is the model used by Embed.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// DefaultMaxTokens caps completions when the request does not.
	DefaultMaxTokens = 2048

	// DefaultTopP is the nucleus sampling default.
	DefaultTopP = 0.95
)

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY is not defined")

// Config configures a Gemini provider. Zero values select the defaults.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	TopP           float32
	MaxTokens      int32

	// BaseURL overrides the API endpoint, mainly for tests and proxies.
	BaseURL string
}

// ConfigFromEnv reads GOOGLE_API_KEY, GOOGLE_MODEL and GOOGLE_EMBEDDING_MODEL.
func ConfigFromEnv() Config {
	return Config{
		APIKey:         os.Getenv("GOOGLE_API_KEY"),
		Model:          os.Getenv("GOOGLE_MODEL"),
		EmbeddingModel: os.Getenv("GOOGLE_EMBEDDING_MODEL"),
	}
}

// GeminiProvider implements the Provider interface for the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	config Config
}

var (
	_ ai.Provider = (*GeminiProvider)(nil)
	_ ai.Embedder = (*GeminiProvider)(nil)
)

// New creates a Gemini provider. The client is created eagerly so that a
// missing or invalid key is reported at construction time.
func New(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg = withDefaults(cfg)

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: cfg}, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.TopP == 0 {
		cfg.TopP = DefaultTopP
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return cfg
}

// Model returns the chat model name.
func (p *GeminiProvider) Model() string {
	return p.config.Model
}

// SendMessage implements the Provider interface.
func (p *GeminiProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	model := request.Model
	if model == "" {
		model = p.config.Model
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "Gemini provider preparing request",
			observability.String(observability.AttrLLMProvider, "gemini"),
			observability.String(observability.AttrLLMModel, model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	contents := messagesToContents(request.Messages)
	config := buildConfig(p.config, request)

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	result, err := responseToGeneric(model, resp)
	if err != nil {
		return nil, err
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, result.ID),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
		)
	}

	return result, nil
}

// IsStopMessage reports whether the response ends the model's turn.
func (p *GeminiProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return message == nil || len(message.ToolCalls) == 0
}

// Embed returns one embedding vector per text using the embedding model.
func (p *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{
			Role:  roleUser,
			Parts: []*genai.Part{{Text: text}},
		})
	}

	resp, err := p.client.Models.EmbedContent(ctx, p.config.EmbeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed content: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		if embedding != nil {
			vectors[i] = embedding.Values
		}
	}
	return vectors, nil
}
