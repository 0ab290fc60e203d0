package ai

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability/slogobs"
)

type scriptedProvider struct {
	response *ChatResponse
	err      error
	calls    int
}

func (p *scriptedProvider) SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	p.calls++
	return p.response, p.err
}

func (p *scriptedProvider) IsStopMessage(response *ChatResponse) bool {
	return len(response.ToolCalls) == 0
}

func TestSendObserved_WithoutObserver(t *testing.T) {
	provider := &scriptedProvider{response: &ChatResponse{Content: "ok"}}

	response, err := SendObserved(context.Background(), provider, ChatRequest{})
	if err != nil || response.Content != "ok" || provider.calls != 1 {
		t.Errorf("SendObserved() = %+v, %v after %d calls", response, err, provider.calls)
	}
}

func TestSendObserved_RecordsSuccess(t *testing.T) {
	var logs bytes.Buffer
	observer := slogobs.New(slogobs.WithOutput(&logs), slogobs.WithFormat(slogobs.FormatJSON), slogobs.WithLevel(slogobs.LevelTrace))
	ctx := observability.ContextWithObserver(context.Background(), observer)

	provider := &scriptedProvider{response: &ChatResponse{
		Content:      "42",
		FinishReason: "stop",
		Usage:        &Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}

	if _, err := SendObserved(ctx, provider, ChatRequest{Model: "gpt-test", Messages: []Message{NewUserMessage("oi")}}); err != nil {
		t.Fatalf("SendObserved() error = %v", err)
	}

	if got := observer.CounterValue(observability.MetricLLMRequestCount); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
	if got := observer.CounterValue(observability.MetricLLMTokensTotal); got != 15 {
		t.Errorf("token count = %d, want 15", got)
	}
	for _, want := range []string{`"span":"llm.request"`, `"llm.model":"gpt-test"`, "llm send completed"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs missing %s:\n%s", want, logs.String())
		}
	}
}

func TestSendObserved_RecordsFailure(t *testing.T) {
	var logs bytes.Buffer
	observer := slogobs.New(slogobs.WithOutput(&logs), slogobs.WithFormat(slogobs.FormatJSON))
	ctx := observability.ContextWithObserver(context.Background(), observer)

	boom := errors.New("quota exceeded")
	_, err := SendObserved(ctx, &scriptedProvider{err: boom}, ChatRequest{})
	if !errors.Is(err, boom) {
		t.Fatalf("SendObserved() error = %v, want %v", err, boom)
	}

	if got := observer.CounterValue(observability.MetricLLMRequestCount); got != 1 {
		t.Errorf("request count = %d, want 1", got)
	}
	if !strings.Contains(logs.String(), "llm send failed") || !strings.Contains(logs.String(), `"llm.model":"default"`) {
		t.Errorf("unexpected logs:\n%s", logs.String())
	}
}
