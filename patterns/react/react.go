package react

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AndersonCRodrigues/langgraph-langsmith/patterns/graph"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool"
)

// Graph shape of the ReAct loop.
const (
	FieldMessages = "messages"

	NodeDecide     = "decide"
	NodeInvokeTool = "invoke-tool"

	KeyToolRequest = "has_tool_request"
	KeyFinal       = "final"
)

// DefaultMaxActivations bounds a ReAct run: five reasoning/tool round trips
// plus the final answer.
const DefaultMaxActivations = 11

var schema = graph.MustSchema(graph.Append[ai.Message](FieldMessages))

// Schema returns the state schema of the loop: an append-only message
// history. Every ReAct graph shares it.
func Schema() *graph.Schema {
	return schema
}

// Input builds the initial state values for a user question.
func Input(question string) map[string]any {
	return map[string]any{FieldMessages: []ai.Message{ai.NewUserMessage(question)}}
}

// Messages returns the message history held by state.
func Messages(state graph.State) []ai.Message {
	return graph.Get[[]ai.Message](state, FieldMessages)
}

// FinalAnswer returns the content of the last assistant message that carries
// text. It reports false when the model never answered.
func FinalAnswer(state graph.State) (string, bool) {
	messages := Messages(state)
	for i := len(messages) - 1; i >= 0; i-- {
		message := messages[i]
		if message.Role == ai.RoleAssistant && strings.TrimSpace(message.Content) != "" {
			return message.Content, true
		}
	}
	return "", false
}

// New builds and compiles the ReAct graph over provider and catalog.
func New(provider ai.Provider, catalog *tool.Catalog, opts ...Option) (*graph.Graph, error) {
	if provider == nil {
		return nil, errors.New("react: provider is required")
	}
	if catalog == nil {
		catalog = tool.NewCatalog()
	}

	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	builder := graph.NewBuilder(Schema(),
		graph.WithName(config.name),
		graph.WithObserver(config.observer),
		graph.WithDefaultMaxActivations(config.maxActivations),
	)

	_ = builder.AddNode(NodeDecide, DecideStep(provider, catalog, config.request),
		graph.Reads(FieldMessages), graph.Writes(FieldMessages))
	_ = builder.AddNode(NodeInvokeTool, InvokeToolsStep(catalog),
		graph.Reads(FieldMessages), graph.Writes(FieldMessages))
	_ = builder.AddConditionalEdge(NodeDecide, RouteToolRequests(KeyToolRequest, KeyFinal), map[string]string{
		KeyToolRequest: NodeInvokeTool,
		KeyFinal:       graph.END,
	}, graph.RouterReads(FieldMessages))
	_ = builder.AddEdge(NodeInvokeTool, NodeDecide)
	_ = builder.SetEntry(NodeDecide)

	compiled, err := builder.Compile()
	if err != nil {
		return nil, fmt.Errorf("react: %w", err)
	}
	return compiled, nil
}

// DecideStep returns a step that sends the message history to provider and
// appends the assistant reply. Tools of catalog are advertised on every
// request. The reply keeps its tool calls only while
// [ai.Provider.IsStopMessage] reports the turn is open. A provider error
// fails the step.
func DecideStep(provider ai.Provider, catalog *tool.Catalog, template ai.ChatRequest) graph.StepFunc {
	return func(ctx context.Context, state graph.State) (graph.Update, error) {
		request := template
		request.Messages = Messages(state)
		if catalog != nil {
			request.Tools = catalog.Descriptions()
		}

		response, err := ai.SendObserved(ctx, provider, request)
		if err != nil {
			return nil, err
		}

		message := response.Message()
		if provider.IsStopMessage(response) {
			// A stop response ends the loop; its tool calls are not run.
			message.ToolCalls = nil
		}
		return graph.Update{FieldMessages: message}, nil
	}
}

// InvokeToolsStep returns a step that executes every tool call of the last
// assistant message and appends one tool message per call, in request order.
// Failures become error results in the history and never fail the step.
func InvokeToolsStep(catalog *tool.Catalog) graph.StepFunc {
	return func(ctx context.Context, state graph.State) (graph.Update, error) {
		last, ok := ai.LastMessage(Messages(state))
		if !ok || len(last.ToolCalls) == 0 {
			return graph.Update{}, nil
		}

		results := make([]ai.Message, 0, len(last.ToolCalls))
		for _, call := range last.ToolCalls {
			results = append(results, ai.NewToolMessage(call, ExecuteToolCall(ctx, catalog, call)))
		}
		return graph.Update{FieldMessages: results}, nil
	}
}

// RouteToolRequests returns a router yielding toolKey when the last message
// is an assistant message requesting tools, and finalKey otherwise.
func RouteToolRequests(toolKey, finalKey string) graph.RouterFunc {
	return func(ctx context.Context, state graph.State) string {
		last, ok := ai.LastMessage(Messages(state))
		if ok && last.Role == ai.RoleAssistant && len(last.ToolCalls) > 0 {
			return toolKey
		}
		return finalKey
	}
}

// ExecuteToolCall runs one tool call and returns the text recorded in the
// history: the tool output, or a JSON encoded [ai.ToolResult] error.
func ExecuteToolCall(ctx context.Context, catalog *tool.Catalog, call ai.ToolCall) string {
	observer := observability.ObserverFromContext(ctx)
	name := call.Function.Name

	var (
		found     tool.GenericTool
		available []string
	)
	if catalog != nil {
		found, _ = catalog.Get(name)
		available = catalog.Names()
	}
	if found == nil {
		if observer != nil {
			observer.Warn(ctx, "tool not found", observability.String(observability.AttrToolName, name))
		}
		return toolErrorContent(ai.ToolErrorNotFound,
			fmt.Sprintf("tool %q not found; available tools: %s", name, strings.Join(available, ", ")))
	}

	arguments := call.Function.Arguments
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}

	output, err := found.Call(ctx, arguments)
	if err != nil {
		if observer != nil {
			observer.Warn(ctx, "tool call failed",
				observability.String(observability.AttrToolName, name),
				observability.Error(err),
			)
		}
		if errors.Is(err, tool.ErrInvalidArguments) {
			return toolErrorContent(ai.ToolErrorInvalidArgument, err.Error())
		}
		return toolErrorContent(ai.ToolErrorExecution, err.Error())
	}
	return output
}

func toolErrorContent(errorType, message string) string {
	content, err := ai.NewToolResultError(errorType, message).ToJSON()
	if err != nil {
		return message
	}
	return content
}
