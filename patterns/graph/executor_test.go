package graph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func compileOrFail(t *testing.T, builder *Builder) *Graph {
	t.Helper()
	compiled, err := builder.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return compiled
}

// recorder returns a step that appends its node name to "messages".
func recorder(name string) StepFunc {
	return func(context.Context, State) (Update, error) {
		return Update{"messages": []string{name}}, nil
	}
}

func TestRun_EchoResponder(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("responder", func(_ context.Context, state State) (Update, error) {
		return Update{"output": "Echo: " + Get[string](state, "input")}, nil
	}, Reads("input"), Writes("output"))
	_ = builder.SetEntry("responder")
	_ = builder.AddFinish("responder")
	compiled := compileOrFail(t, builder)

	result, err := compiled.Invoke(context.Background(), map[string]any{"input": "oi"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := Get[string](result.State, "output"); got != "Echo: oi" {
		t.Errorf("output = %q, want %q", got, "Echo: oi")
	}
	if got := Get[string](result.State, "input"); got != "oi" {
		t.Errorf("input = %q, want %q", got, "oi")
	}
	if !reflect.DeepEqual(result.History, []string{"responder"}) || result.Activations != 1 {
		t.Errorf("History = %v, Activations = %d", result.History, result.Activations)
	}
	if result.RunID == "" {
		t.Error("Expected a generated run ID")
	}
}

func TestRun_StaticChain(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	for _, name := range []string{"a", "b", "c"} {
		_ = builder.AddNode(name, recorder(name), Writes("messages"))
	}
	_ = builder.AddEdge("a", "b")
	_ = builder.AddEdge("b", "c")
	_ = builder.AddEdge("c", END)
	_ = builder.SetEntry("a")
	compiled := compileOrFail(t, builder)

	result, err := compiled.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !reflect.DeepEqual(result.History, []string{"a", "b", "c"}) {
		t.Errorf("History = %v", result.History)
	}
	if got := Get[[]string](result.State, "messages"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("messages = %v", got)
	}
}

func TestRun_FinishNodeWithEdgeFollowsEdge(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("a", recorder("a"))
	_ = builder.AddNode("b", recorder("b"))
	_ = builder.AddEdge("a", "b")
	_ = builder.SetEntry("a")
	_ = builder.AddFinish("a", "b")
	compiled := compileOrFail(t, builder)

	result, err := compiled.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !reflect.DeepEqual(result.History, []string{"a", "b"}) {
		t.Errorf("History = %v, want [a b]", result.History)
	}
}

func newClassifierGraph(t *testing.T) *Graph {
	t.Helper()
	schema := MustSchema(Replace("input"), Replace("label"), Replace("output"))
	builder := NewBuilder(schema, WithName("classifier"))

	_ = builder.AddNode("classify", func(_ context.Context, state State) (Update, error) {
		input := strings.ToLower(Get[string](state, "input"))
		switch {
		case strings.Contains(input, "quanto é"), strings.Contains(input, "+"):
			return Update{"label": "calculation"}, nil
		case strings.Contains(input, "quem é"):
			return Update{"label": "curiosity"}, nil
		default:
			return Update{"label": "unknown"}, nil
		}
	}, Reads("input"), Writes("label"))
	_ = builder.AddNode("calculate", func(context.Context, State) (Update, error) {
		return Update{"output": "4"}, nil
	}, Writes("output"))
	_ = builder.AddNode("answer", func(context.Context, State) (Update, error) {
		return Update{"output": "fact"}, nil
	}, Writes("output"))
	_ = builder.AddNode("apologize", func(context.Context, State) (Update, error) {
		return Update{"output": "sorry"}, nil
	}, Writes("output"))

	_ = builder.AddConditionalEdge("classify", func(_ context.Context, state State) string {
		return Get[string](state, "label")
	}, map[string]string{
		"calculation": "calculate",
		"curiosity":   "answer",
		"unknown":     "apologize",
	}, RouterReads("label"), WithFallbackKey("unknown"))
	_ = builder.SetEntry("classify")
	_ = builder.AddFinish("calculate", "answer", "apologize")

	return compileOrFail(t, builder)
}

func TestRun_ClassificationRouter(t *testing.T) {
	compiled := newClassifierGraph(t)

	tests := []struct {
		input       string
		wantLabel   string
		wantOutput  string
		wantHistory []string
	}{
		{"Quanto é 2+2?", "calculation", "4", []string{"classify", "calculate"}},
		{"Quem é Ada Lovelace?", "curiosity", "fact", []string{"classify", "answer"}},
		{"Bom dia", "unknown", "sorry", []string{"classify", "apologize"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := compiled.Invoke(context.Background(), map[string]any{"input": tt.input})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if got := Get[string](result.State, "label"); got != tt.wantLabel {
				t.Errorf("label = %q, want %q", got, tt.wantLabel)
			}
			if got := Get[string](result.State, "output"); got != tt.wantOutput {
				t.Errorf("output = %q, want %q", got, tt.wantOutput)
			}
			if !reflect.DeepEqual(result.History, tt.wantHistory) {
				t.Errorf("History = %v, want %v", result.History, tt.wantHistory)
			}
		})
	}
}

func TestRun_UnmappedRoutingKey(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("router", recorder("router"))
	_ = builder.AddNode("a", recorder("a"))
	_ = builder.AddConditionalEdge("router", constRouter("z"), map[string]string{"x": "a", "y": END})
	_ = builder.SetEntry("router")
	_ = builder.AddFinish("a")
	compiled := compileOrFail(t, builder)

	result, err := compiled.Invoke(context.Background(), nil)
	if result != nil {
		t.Error("Expected no result on failure")
	}
	if !errors.Is(err, ErrUnmappedRoutingKey) {
		t.Fatalf("Expected ErrUnmappedRoutingKey, got %v", err)
	}
	var routingErr *UnmappedRoutingKeyError
	if !errors.As(err, &routingErr) || routingErr.Key != "z" || routingErr.Node != "router" {
		t.Errorf("Unexpected error: %+v", routingErr)
	}
	if !reflect.DeepEqual(HistoryOf(err), []string{"router"}) {
		t.Errorf("History = %v, want [router]", HistoryOf(err))
	}
}

func TestRun_LoopGuard(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("a", recorder("a"))
	_ = builder.AddNode("b", recorder("b"))
	_ = builder.AddEdge("a", "b")
	_ = builder.AddEdge("b", "a")
	_ = builder.SetEntry("a")
	compiled := compileOrFail(t, builder)

	t.Run("default budget", func(t *testing.T) {
		_, err := compiled.Invoke(context.Background(), nil)
		var guardErr *LoopGuardError
		if !errors.As(err, &guardErr) {
			t.Fatalf("Expected LoopGuardError, got %v", err)
		}
		if guardErr.Limit != DefaultMaxActivations || len(guardErr.History) != DefaultMaxActivations {
			t.Errorf("Limit = %d, history length = %d, want %d", guardErr.Limit, len(guardErr.History), DefaultMaxActivations)
		}
		if guardErr.Next != "b" {
			t.Errorf("Next = %q, want b", guardErr.Next)
		}
	})

	t.Run("run override", func(t *testing.T) {
		_, err := compiled.Invoke(context.Background(), nil, WithMaxActivations(3))
		if !errors.Is(err, ErrLoopGuardExceeded) {
			t.Fatalf("Expected ErrLoopGuardExceeded, got %v", err)
		}
		if got := HistoryOf(err); !reflect.DeepEqual(got, []string{"a", "b", "a"}) {
			t.Errorf("History = %v, want [a b a]", got)
		}
	})

	t.Run("non-positive override keeps default", func(t *testing.T) {
		_, err := compiled.Invoke(context.Background(), nil, WithMaxActivations(0))
		if got := len(HistoryOf(err)); got != DefaultMaxActivations {
			t.Errorf("history length = %d, want %d", got, DefaultMaxActivations)
		}
	})
}

func TestRun_LoopGuard_GraphDefault(t *testing.T) {
	builder := NewBuilder(testSchema(t), WithDefaultMaxActivations(4))
	_ = builder.AddNode("spin", recorder("spin"))
	_ = builder.AddEdge("spin", "spin")
	_ = builder.SetEntry("spin")
	compiled := compileOrFail(t, builder)

	_, err := compiled.Invoke(context.Background(), nil)
	if got := len(HistoryOf(err)); got != 4 {
		t.Errorf("history length = %d, want 4", got)
	}
}

func TestRun_LoopGuard_ExactBudgetSucceeds(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("a", recorder("a"))
	_ = builder.AddNode("b", recorder("b"))
	_ = builder.AddEdge("a", "b")
	_ = builder.SetEntry("a")
	_ = builder.AddFinish("b")
	compiled := compileOrFail(t, builder)

	result, err := compiled.Invoke(context.Background(), nil, WithMaxActivations(2))
	if err != nil {
		t.Fatalf("Run with a budget equal to the path length failed: %v", err)
	}
	if result.Activations != 2 {
		t.Errorf("Activations = %d, want 2", result.Activations)
	}
}

func TestRun_ToolLoop(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("decide", func(_ context.Context, state State) (Update, error) {
		messages := Get[[]string](state, "messages")
		if len(messages) > 0 && strings.HasPrefix(messages[len(messages)-1], "tool:") {
			return Update{"messages": "final:5", "output": "5"}, nil
		}
		return Update{"messages": "call:somar(2,3)"}, nil
	}, Reads("messages"), Writes("messages", "output"))
	_ = builder.AddNode("invoke-tool", func(context.Context, State) (Update, error) {
		return Update{"messages": "tool:5"}, nil
	}, Reads("messages"), Writes("messages"))
	_ = builder.AddConditionalEdge("decide", func(_ context.Context, state State) string {
		messages := Get[[]string](state, "messages")
		if strings.HasPrefix(messages[len(messages)-1], "call:") {
			return "has_tool_request"
		}
		return "final"
	}, map[string]string{"has_tool_request": "invoke-tool", "final": END}, RouterReads("messages"))
	_ = builder.AddEdge("invoke-tool", "decide")
	_ = builder.SetEntry("decide")
	compiled := compileOrFail(t, builder)

	result, err := compiled.Invoke(context.Background(), map[string]any{"input": "Quanto é 2+3?"}, WithMaxActivations(10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !reflect.DeepEqual(result.History, []string{"decide", "invoke-tool", "decide"}) {
		t.Errorf("History = %v", result.History)
	}
	toolMessages := 0
	for _, message := range Get[[]string](result.State, "messages") {
		if strings.HasPrefix(message, "tool:") {
			toolMessages++
		}
	}
	if toolMessages != 1 {
		t.Errorf("Expected exactly one tool message, got %d", toolMessages)
	}
	if got := Get[string](result.State, "output"); got != "5" {
		t.Errorf("output = %q, want 5", got)
	}
}

func TestRun_NodeExecutionError(t *testing.T) {
	cause := errors.New("model unavailable")
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("a", recorder("a"))
	_ = builder.AddNode("b", func(context.Context, State) (Update, error) { return nil, cause })
	_ = builder.AddEdge("a", "b")
	_ = builder.SetEntry("a")
	_ = builder.AddFinish("b")
	compiled := compileOrFail(t, builder)

	_, err := compiled.Invoke(context.Background(), nil)
	if !errors.Is(err, ErrNodeExecution) || !errors.Is(err, cause) {
		t.Fatalf("Expected NodeExecutionError wrapping the cause, got %v", err)
	}
	var nodeErr *NodeExecutionError
	if !errors.As(err, &nodeErr) || nodeErr.Node != "b" {
		t.Errorf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(HistoryOf(err), []string{"a"}) {
		t.Errorf("History = %v, want [a]", HistoryOf(err))
	}
}

func TestRun_StepPanicAndBadUpdate(t *testing.T) {
	tests := []struct {
		name string
		step StepFunc
		want string
	}{
		{"panic", func(context.Context, State) (Update, error) { panic("boom") }, "step panicked: boom"},
		{"undeclared field", func(context.Context, State) (Update, error) { return Update{"label": "x"}, nil }, "undeclared state field"},
		{"wrong append type", func(context.Context, State) (Update, error) { return Update{"messages": 1}, nil }, "expects []string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewBuilder(testSchema(t))
			_ = builder.AddNode("bad", tt.step)
			_ = builder.SetEntry("bad")
			_ = builder.AddFinish("bad")
			compiled := compileOrFail(t, builder)

			_, err := compiled.Invoke(context.Background(), nil)
			if !errors.Is(err, ErrNodeExecution) || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected node execution error containing %q, got %v", tt.want, err)
			}
			if len(HistoryOf(err)) != 0 {
				t.Errorf("History = %v, want empty", HistoryOf(err))
			}
		})
	}
}

func TestRun_RouterPanic(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("a", recorder("a"))
	_ = builder.AddNode("route", recorder("route"))
	_ = builder.AddNode("b", recorder("b"))
	_ = builder.AddEdge("a", "route")
	_ = builder.AddConditionalEdge("route", func(context.Context, State) string {
		var targets map[string]string
		targets["x"] = "y"
		return "b"
	}, map[string]string{"b": "b"})
	_ = builder.SetEntry("a")
	_ = builder.AddFinish("b")
	compiled := compileOrFail(t, builder)

	result, err := compiled.Invoke(context.Background(), nil)
	if result != nil {
		t.Errorf("Expected no result, got %+v", result)
	}
	if !errors.Is(err, ErrNodeExecution) || !strings.Contains(err.Error(), "router panicked") {
		t.Fatalf("Expected node execution error for the router panic, got %v", err)
	}

	var execErr *NodeExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Expected *NodeExecutionError, got %T", err)
	}
	if execErr.Node != "route" {
		t.Errorf("Node = %q, want route", execErr.Node)
	}
	if !reflect.DeepEqual(HistoryOf(err), []string{"a", "route"}) {
		t.Errorf("History = %v, want [a route]", HistoryOf(err))
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("a", func(context.Context, State) (Update, error) {
		cancel()
		return nil, nil
	})
	_ = builder.AddNode("b", recorder("b"))
	_ = builder.AddEdge("a", "b")
	_ = builder.SetEntry("a")
	_ = builder.AddFinish("b")
	compiled := compileOrFail(t, builder)

	_, err := compiled.Invoke(ctx, nil)
	if !errors.Is(err, ErrRunCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected cancelled run, got %v", err)
	}
	if !reflect.DeepEqual(HistoryOf(err), []string{"a"}) {
		t.Errorf("History = %v, want [a]", HistoryOf(err))
	}
}

func TestRun_InitialStateValidation(t *testing.T) {
	builder := NewBuilder(testSchema(t))
	_ = builder.AddNode("a", noopStep)
	_ = builder.SetEntry("a")
	_ = builder.AddFinish("a")
	compiled := compileOrFail(t, builder)

	if _, err := compiled.Invoke(context.Background(), map[string]any{"label": "x"}); !errors.Is(err, ErrUndeclaredField) {
		t.Errorf("Expected ErrUndeclaredField, got %v", err)
	}

	foreign, _ := MustSchema(Replace("input")).NewState(nil)
	if _, err := compiled.Run(context.Background(), foreign); err == nil {
		t.Error("Expected error for a state built with another schema")
	}

	result, err := compiled.Run(context.Background(), State{}, WithRunID("fixed"))
	if err != nil {
		t.Fatalf("Run with a zero state failed: %v", err)
	}
	if result.RunID != "fixed" {
		t.Errorf("RunID = %q, want fixed", result.RunID)
	}
}

func TestRun_IdempotentAndConcurrent(t *testing.T) {
	compiled := newClassifierGraph(t)

	first, err := compiled.Invoke(context.Background(), map[string]any{"input": "Quanto é 2+2?"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := "Quanto é 2+2?"
			if i%2 == 1 {
				input = "Bom dia"
			}
			result, err := compiled.Invoke(context.Background(), map[string]any{"input": input})
			if err != nil {
				errs <- err
				return
			}
			if i%2 == 0 && !reflect.DeepEqual(result.State.Values(), first.State.Values()) {
				errs <- fmt.Errorf("run %d diverged: %v", i, result.State.Values())
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
