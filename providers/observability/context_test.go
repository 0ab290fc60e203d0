package observability

import (
	"context"
	"sync"
	"testing"
)

// testContextKey is a custom type for context keys in tests to avoid collisions.
type testContextKey string

func TestSpanFromContext_Empty(t *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		t.Errorf("Expected nil span from empty context, got %v", span)
	}
}

func TestContextWithSpan_RoundTrip(t *testing.T) {
	parent := &mockSpan{name: "graph.run"}
	child := &mockSpan{name: "graph.node.activate"}

	ctx := ContextWithSpan(context.Background(), parent)
	if SpanFromContext(ctx) != parent {
		t.Fatal("Expected parent span to be stored in context")
	}

	ctx = ContextWithSpan(ctx, child)
	if SpanFromContext(ctx) != child {
		t.Errorf("Expected child span to shadow the parent")
	}

	wrapped := context.WithValue(ctx, testContextKey("key"), "value")
	if SpanFromContext(wrapped) != child {
		t.Errorf("Expected span to survive context wrapping")
	}
}

func TestSpanFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), spanContextKey, "not a span")
	if span := SpanFromContext(ctx); span != nil {
		t.Errorf("Expected nil when value is not a Span, got %v", span)
	}
}

func TestContextWithObserver_RoundTrip(t *testing.T) {
	observer := &mockProvider{label: "run-observer"}
	ctx := ContextWithObserver(context.Background(), observer)

	retrieved, ok := ObserverFromContext(ctx).(*mockProvider)
	if !ok {
		t.Fatalf("Expected *mockProvider from context, got %T", ObserverFromContext(ctx))
	}
	if retrieved != observer || retrieved.label != "run-observer" {
		t.Errorf("ObserverFromContext returned a different instance")
	}
}

func TestObserverFromContext_Missing(t *testing.T) {
	if observer := ObserverFromContext(context.Background()); observer != nil {
		t.Errorf("Expected nil from context without observer, got %v", observer)
	}
	//nolint:staticcheck // nil context is accepted
	if observer := ObserverFromContext(nil); observer != nil {
		t.Errorf("Expected nil from nil context, got %v", observer)
	}
}

func TestContext_ConcurrentAccess(t *testing.T) {
	base := ContextWithObserver(context.Background(), &mockProvider{label: "shared"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			span := &mockSpan{name: "worker"}
			ctx := ContextWithSpan(base, span)
			if SpanFromContext(ctx) != span || ObserverFromContext(ctx) == nil {
				t.Errorf("Concurrent context access failed")
			}
		}()
	}
	wg.Wait()
}

type mockSpan struct {
	name string
}

func (m *mockSpan) End()                                          {}
func (m *mockSpan) SetAttributes(attrs ...Attribute)              {}
func (m *mockSpan) SetStatus(code StatusCode, description string) {}
func (m *mockSpan) RecordError(err error)                         {}
func (m *mockSpan) AddEvent(name string, attrs ...Attribute)      {}

type mockProvider struct {
	label string
}

func (m *mockProvider) StartSpan(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, nil
}
func (m *mockProvider) Counter(_ string) Counter                          { return nil }
func (m *mockProvider) Histogram(_ string) Histogram                      { return nil }
func (m *mockProvider) Trace(_ context.Context, _ string, _ ...Attribute) {}
func (m *mockProvider) Debug(_ context.Context, _ string, _ ...Attribute) {}
func (m *mockProvider) Info(_ context.Context, _ string, _ ...Attribute)  {}
func (m *mockProvider) Warn(_ context.Context, _ string, _ ...Attribute)  {}
func (m *mockProvider) Error(_ context.Context, _ string, _ ...Attribute) {}
