package ai

import "context"

// Provider is implemented by every LLM backend.
type Provider interface {
	// SendMessage sends a chat request and returns the completed response.
	// Errors cover transport failures, non-2xx statuses, cancellation and
	// undecodable responses.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response ends the model's turn,
	// meaning no tool calls are pending.
	IsStopMessage(message *ChatResponse) bool
}

// Embedder turns texts into embedding vectors, one per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
