package router

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/AndersonCRodrigues/langgraph-langsmith/patterns/graph"
)

func questionClassifier() Classifier {
	return Classifier{
		Categories: []Category{
			{Key: "calc", Keywords: []string{"soma", "quanto é", "+", "calcular"}},
			{Key: "curio", Keywords: []string{"quem é", "o que é", "curiosidade", "fato"}},
		},
		Fallback: "unknown",
	}
}

func buildRouterGraph(t *testing.T, mapping map[string]string) (*graph.Graph, error) {
	t.Helper()
	schema := graph.MustSchema(graph.Replace("input"), graph.Replace("label"), graph.Replace("output"))
	builder := graph.NewBuilder(schema)

	if err := Attach(builder, "classify", questionClassifier(), "input", "label", mapping); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	for _, name := range []string{"A", "B", "C"} {
		output := name
		_ = builder.AddNode(name, func(ctx context.Context, state graph.State) (graph.Update, error) {
			return graph.Update{"output": output}, nil
		}, graph.Writes("output"))
	}
	_ = builder.SetEntry("classify")
	_ = builder.AddFinish("A", "B", "C")
	return builder.Compile()
}

func TestClassify(t *testing.T) {
	classifier := questionClassifier()

	tests := []struct {
		input string
		want  string
	}{
		{"Quanto é 2 + 2?", "calc"},
		{"QUEM É Albert Einstein?", "curio"},
		{"O que é a teoria da relatividade?", "curio"},
		{"Qual é a capital da França?", "unknown"},
		{"", "unknown"},
		// Both categories match: declared order wins.
		{"Qual é o fato sobre a soma?", "calc"},
	}

	for _, tc := range tests {
		if got := classifier.Classify(tc.input); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestAttach_RoutesByLabel(t *testing.T) {
	compiled, err := buildRouterGraph(t, map[string]string{"calc": "A", "curio": "B", "unknown": "C"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	tests := []struct {
		input      string
		wantOutput string
	}{
		{"Quanto é 2 + 2?", "A"},
		{"Quem é Albert Einstein?", "B"},
		{"Me diga um comando especial", "C"},
	}

	for _, tc := range tests {
		result, err := compiled.Invoke(context.Background(), map[string]any{"input": tc.input})
		if err != nil {
			t.Fatalf("Invoke(%q) failed: %v", tc.input, err)
		}
		if got := graph.Get[string](result.State, "output"); got != tc.wantOutput {
			t.Errorf("input %q routed to %q, want %q", tc.input, got, tc.wantOutput)
		}
		if !reflect.DeepEqual(result.History, []string{"classify", tc.wantOutput}) {
			t.Errorf("History = %v", result.History)
		}
	}
}

func TestAttach_MissingFallbackFailsCompile(t *testing.T) {
	_, err := buildRouterGraph(t, map[string]string{"calc": "A", "curio": "B"})
	if !errors.Is(err, graph.ErrGraphValidation) {
		t.Fatalf("Expected ErrGraphValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), `fallback key "unknown"`) {
		t.Errorf("violation should name the fallback key: %v", err)
	}
}

func TestAttach_InvalidClassifier(t *testing.T) {
	builder := graph.NewBuilder(graph.MustSchema(graph.Replace("input"), graph.Replace("label")))

	err := Attach(builder, "classify", Classifier{Fallback: "unknown"}, "input", "label", nil)
	if !errors.Is(err, ErrNoCategories) {
		t.Errorf("Expected ErrNoCategories, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		classifier Classifier
		wantErr    bool
	}{
		{"valid", questionClassifier(), false},
		{"no fallback", Classifier{Categories: []Category{{Key: "a"}}}, true},
		{"empty key", Classifier{Categories: []Category{{Key: ""}}, Fallback: "x"}, true},
		{"duplicate key", Classifier{Categories: []Category{{Key: "a"}, {Key: "a"}}, Fallback: "x"}, true},
		{"key equals fallback", Classifier{Categories: []Category{{Key: "x"}}, Fallback: "x"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.classifier.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRoute_EmptyLabelUsesFallback(t *testing.T) {
	schema := graph.MustSchema(graph.Replace("label"))
	state, _ := schema.NewState(nil)

	if got := questionClassifier().Route("label")(context.Background(), state); got != "unknown" {
		t.Errorf("Route() = %q, want fallback", got)
	}
}
