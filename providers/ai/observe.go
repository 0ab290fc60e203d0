package ai

import (
	"context"
	"time"

	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

// SendObserved calls the provider inside an llm.request span when the context
// carries an observer, recording request count, duration and token usage.
func SendObserved(ctx context.Context, provider Provider, request ChatRequest) (*ChatResponse, error) {
	observer := observability.ObserverFromContext(ctx)
	if observer == nil {
		return provider.SendMessage(ctx, request)
	}

	model := request.Model
	if model == "" {
		model = "default"
	}
	modelAttr := observability.String(observability.AttrLLMModel, model)

	ctx, span := observer.StartSpan(ctx, observability.SpanLLMRequest,
		modelAttr,
		observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
	)
	ctx = observability.ContextWithSpan(ctx, span)
	defer span.End()

	observer.Debug(ctx, "llm send",
		modelAttr,
		observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
	)

	start := time.Now()
	response, err := provider.SendMessage(ctx, request)
	elapsed := time.Since(start)

	observer.Histogram(observability.MetricLLMRequestDuration).Record(ctx, elapsed.Seconds(), modelAttr)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "llm send failed")
		observer.Counter(observability.MetricLLMRequestCount).Add(ctx, 1,
			modelAttr, observability.String(observability.AttrStatus, "error"))
		observer.Error(ctx, "llm send failed",
			modelAttr,
			observability.Error(err),
			observability.Duration(observability.AttrDuration, elapsed),
		)
		return nil, err
	}

	observer.Counter(observability.MetricLLMRequestCount).Add(ctx, 1,
		modelAttr, observability.String(observability.AttrStatus, "success"))

	logAttrs := []observability.Attribute{
		modelAttr,
		observability.String(observability.AttrLLMFinishReason, response.FinishReason),
		observability.Int("llm.tool_calls", len(response.ToolCalls)),
		observability.Duration(observability.AttrDuration, elapsed),
	}
	if response.Usage != nil {
		observer.Counter(observability.MetricLLMTokensTotal).Add(ctx, int64(response.Usage.TotalTokens), modelAttr)
		span.SetAttributes(
			observability.Int(observability.AttrLLMTokensPrompt, response.Usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, response.Usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens),
		)
		logAttrs = append(logAttrs, observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens))
	}

	span.SetStatus(observability.StatusOK, "llm send completed")
	observer.Info(ctx, "llm send completed", logAttrs...)
	return response, nil
}
