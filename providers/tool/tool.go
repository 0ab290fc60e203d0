package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/AndersonCRodrigues/langgraph-langsmith/internal/utils"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
)

// ErrInvalidArguments wraps failures to parse the model-supplied arguments.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// Tool represents a typed, callable tool that can be advertised to an AI provider.
// It binds a name and description to a strongly-typed Go function and derives
// the JSON schema of the input type I via reflection.
// Use [NewTool] to construct a Tool; [GenericTool] is the type-erased view.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  map[string]any
	Function    func(ctx context.Context, input I) (O, error)
}

// GenericTool is the provider-agnostic interface for all tools.
// It abstracts over the concrete type parameters of [Tool] so that tools
// can be stored in a [Catalog] and dispatched by name.
type GenericTool interface {
	// ToolInfo returns the metadata (name, description, parameter schema) used to
	// advertise this tool to an AI provider.
	ToolInfo() ai.ToolDescription

	// Call invokes the tool with a JSON-encoded input string and returns its
	// output as text. Returns an error if parsing or execution fails.
	Call(ctx context.Context, inputJson string) (string, error)
}

// funcToolOptions holds optional configuration for a tool created via [NewTool].
type funcToolOptions struct {
	Description string
}

// WithDescription sets a human-readable description for the tool.
// Providers surface this description to the language model to help it decide
// when and how to invoke the tool.
func WithDescription(description string) func(tool *funcToolOptions) {
	return func(s *funcToolOptions) {
		s.Description = description
	}
}

// NewTool constructs a new [Tool] with the given name and handler function.
// The parameter schema of I is reflected from its json and jsonschema tags.
//
// Example:
//
//	sum := tool.NewTool("sum", Sum,
//	    tool.WithDescription("Soma dois números."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(tool *funcToolOptions)) *Tool[I, O] {
	toolOptions := &funcToolOptions{}
	for _, option := range options {
		option(toolOptions)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: toolOptions.Description,
		Parameters:  GenerateSchema[I](),
		Function:    function,
	}
}

// GenerateSchema reflects T into a JSON schema map. Definitions are inlined
// and required fields come from `jsonschema:"required"` tags.
func GenerateSchema[T any]() map[string]any {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	raw, err := json.Marshal(reflector.Reflect(new(T)))
	if err != nil {
		return map[string]any{"type": "object"}
	}

	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return map[string]any{"type": "object"}
	}

	// Providers want a bare schema object.
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema
}

// ToolInfo returns the [ai.ToolDescription] used to advertise this tool to an AI provider.
func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call invokes the tool's underlying function with the given JSON-encoded input.
// It leniently parses inputJson into I, executes the function and returns the
// result: strings as-is, anything else serialized as JSON. When an observer is
// present in ctx the call runs inside a tool span and is counted.
func (t *Tool[I, O]) Call(ctx context.Context, inputJson string) (string, error) {
	observer := observability.ObserverFromContext(ctx)

	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanToolExecution,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, observability.TruncateStringDefault(inputJson)),
		)
		defer span.End()
	}

	start := time.Now()
	output, err := t.call(ctx, inputJson)
	duration := time.Since(start)

	if observer != nil {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetAttributes(observability.String(observability.AttrToolError, err.Error()))
			span.SetStatus(observability.StatusError, "tool failed")
		} else {
			span.SetAttributes(observability.String(observability.AttrToolOutput, observability.TruncateStringDefault(output)))
			span.SetStatus(observability.StatusOK, "tool completed")
		}
		observer.Counter(observability.MetricToolCallCount).Add(ctx, 1,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrStatus, status),
		)
		observer.Debug(ctx, "tool executed",
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrStatus, status),
			observability.Duration(observability.AttrDuration, duration),
		)
	}

	return output, err
}

func (t *Tool[I, O]) call(ctx context.Context, inputJson string) (string, error) {
	// Flexibly parse the LLM-supplied input JSON into the strongly-typed input type.
	parsedInput, err := utils.ParseStringAs[I](inputJson)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	output, err := t.Function(ctx, parsedInput)
	if err != nil {
		return "", err
	}

	if text, ok := any(output).(string); ok {
		return text, nil
	}

	outputBytes, err := json.Marshal(output)
	if err != nil {
		return "", err
	}
	return string(outputBytes), nil
}
