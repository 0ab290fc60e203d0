package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AndersonCRodrigues/langgraph-langsmith/patterns/graph"
	"github.com/AndersonCRodrigues/langgraph-langsmith/patterns/react"
	"github.com/AndersonCRodrigues/langgraph-langsmith/patterns/router"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/ai"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/observability"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool"
	"github.com/AndersonCRodrigues/langgraph-langsmith/providers/tool/calculator"
)

// State fields shared by the input/output workflows.
const (
	FieldInput  = "input"
	FieldOutput = "output"
	FieldLabel  = "label"
)

// Routing keys and nodes of the classifier workflow.
const (
	KeyCalculation = "calculation"
	KeyCuriosity   = "curiosity"
	KeyUnknown     = "unknown"

	NodeClassify    = "classify"
	NodeCalculation = "calculation"
	NodeCuriosity   = "curiosity"
	NodeError       = "error"
)

// Nodes and routing keys of the calculator workflow.
const (
	NodeAgent = "agent"
	NodeTool  = "tool"

	KeyCallTool = "call_tool"
	KeyEnd      = "end"
)

// Fixed answers of the classifier workflow.
const (
	CalculationAnswer = "Resposta de cálculo fictício: 42"
	ErrorAnswer       = "Desculpe, não consegui entender sua pergunta."
	NoAnswer          = "Nenhuma resposta encontrada."
)

// Prompts.
const (
	CalculatorPrompt = `Você é um assistente.
Se o usuário pedir contas, use a ferramenta 'sum'.
Caso contrário responda normalmente.`

	SumAgentPrompt = `Você é um assistente.
Se o usuário pedir contas, use a ferramenta 'sum_list'.
Caso contrário responda normalmente.`

	ResearcherPrompt = `Você é um pesquisador muito sarcástico e irônico.
Use a ferramenta 'search' sempre que necessário, especialmente
para perguntas que exigem informações atualizadas da web.`
)

// ErrNilProvider is returned by constructors that need a language model.
var ErrNilProvider = errors.New("workflows: provider is required")

// QuestionClassifier is the keyword classifier of [NewClassifier].
var QuestionClassifier = router.Classifier{
	Categories: []router.Category{
		{Key: KeyCalculation, Keywords: []string{"soma", "quanto é", "+", "calcular"}},
		{Key: KeyCuriosity, Keywords: []string{"quem é", "o que é", "curiosidade", "fato"}},
	},
	Fallback: KeyUnknown,
}

var ioSchema = graph.MustSchema(
	graph.Replace(FieldInput),
	graph.Replace(FieldOutput),
	graph.Replace(FieldLabel),
)

// IOSchema returns the schema shared by the input/output workflows. States
// built from it can be passed to [graph.Graph.Run] of any of them.
func IOSchema() *graph.Schema {
	return ioSchema
}

// IOView is the typed view of an input/output workflow state.
type IOView struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
	Label  string `mapstructure:"label"`
}

// View decodes the input/output fields of state. Other fields are ignored;
// a field holding something other than a string is an error.
func View(state graph.State) (IOView, error) {
	var view IOView
	if err := state.Decode(&view); err != nil {
		return IOView{}, err
	}
	return view, nil
}

// NewEcho builds the single node workflow "respond" that sets output to input.
func NewEcho(opts ...Option) (*graph.Graph, error) {
	config := newConfig("echo", opts)
	builder := graph.NewBuilder(IOSchema(), config.graphOptions()...)

	_ = builder.AddNode("respond", func(ctx context.Context, state graph.State) (graph.Update, error) {
		view, err := View(state)
		if err != nil {
			return nil, err
		}
		return graph.Update{FieldOutput: view.Input}, nil
	}, graph.Reads(FieldInput), graph.Writes(FieldOutput))
	_ = builder.SetEntry("respond")
	_ = builder.AddFinish("respond")

	return builder.Compile()
}

// NewResponder builds the single node workflow "respond" that answers the
// input with provider.
func NewResponder(provider ai.Provider, opts ...Option) (*graph.Graph, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	config := newConfig("responder", opts)
	builder := graph.NewBuilder(IOSchema(), config.graphOptions()...)

	_ = builder.AddNode("respond", AnswerStep(provider, config.request()),
		graph.Reads(FieldInput), graph.Writes(FieldOutput))
	_ = builder.SetEntry("respond")
	_ = builder.AddFinish("respond")

	return builder.Compile()
}

// NewClassifier builds the classify-and-branch workflow. Calculation
// questions get a fixed answer, curiosities are answered by provider and
// anything else gets [ErrorAnswer].
func NewClassifier(provider ai.Provider, opts ...Option) (*graph.Graph, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	config := newConfig("classifier", opts)
	builder := graph.NewBuilder(IOSchema(), config.graphOptions()...)

	if err := router.Attach(builder, NodeClassify, QuestionClassifier, FieldInput, FieldLabel, map[string]string{
		KeyCalculation: NodeCalculation,
		KeyCuriosity:   NodeCuriosity,
		KeyUnknown:     NodeError,
	}); err != nil {
		return nil, err
	}
	_ = builder.AddNode(NodeCalculation, fixedAnswer(CalculationAnswer), graph.Writes(FieldOutput))
	_ = builder.AddNode(NodeCuriosity, AnswerStep(provider, config.request()),
		graph.Reads(FieldInput), graph.Writes(FieldOutput))
	_ = builder.AddNode(NodeError, fixedAnswer(ErrorAnswer), graph.Writes(FieldOutput))
	_ = builder.SetEntry(NodeClassify)
	_ = builder.AddFinish(NodeCalculation, NodeCuriosity, NodeError)

	return builder.Compile()
}

// NewCalculator builds the explicit tool loop: node "agent" calls the model
// with the tools of catalog and routes "call_tool" to node "tool" or "end"
// to END; node "tool" runs the requested tools and returns to "agent".
// A nil catalog uses every calculator tool.
func NewCalculator(provider ai.Provider, catalog *tool.Catalog, opts ...Option) (*graph.Graph, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if catalog == nil {
		catalog = tool.NewCatalogWithTools(calculator.Tools()...)
	}
	config := newConfig("calculator", opts)
	if config.systemPrompt == "" {
		config.systemPrompt = CalculatorPrompt
	}
	builder := graph.NewBuilder(react.Schema(), config.graphOptions()...)

	_ = builder.AddNode(NodeAgent, react.DecideStep(provider, catalog, config.request()),
		graph.Reads(react.FieldMessages), graph.Writes(react.FieldMessages))
	_ = builder.AddNode(NodeTool, react.InvokeToolsStep(catalog),
		graph.Reads(react.FieldMessages), graph.Writes(react.FieldMessages))
	_ = builder.AddConditionalEdge(NodeAgent, react.RouteToolRequests(KeyCallTool, KeyEnd), map[string]string{
		KeyCallTool: NodeTool,
		KeyEnd:      graph.END,
	}, graph.RouterReads(react.FieldMessages))
	_ = builder.AddEdge(NodeTool, NodeAgent)
	_ = builder.SetEntry(NodeAgent)

	return builder.Compile()
}

// NewSumAgent builds a ReAct agent whose only tool is "sum_list", which adds
// two comma-separated numbers.
func NewSumAgent(provider ai.Provider, opts ...Option) (*graph.Graph, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	config := newConfig("sum-agent", opts)
	if config.systemPrompt == "" {
		config.systemPrompt = SumAgentPrompt
	}

	return react.New(provider, tool.NewCatalogWithTools(calculator.NewSumListTool()), config.reactOptions()...)
}

// NewResearcher builds a ReAct agent with the sarcastic researcher prompt.
// catalog should hold the search tool; see tavily.NewSearchTool.
func NewResearcher(provider ai.Provider, catalog *tool.Catalog, opts ...Option) (*graph.Graph, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	config := newConfig("researcher", opts)
	if config.systemPrompt == "" {
		config.systemPrompt = ResearcherPrompt
	}

	return react.New(provider, catalog, config.reactOptions()...)
}

// AnswerStep returns a step that sends the input field as a user message and
// stores the reply in the output field.
func AnswerStep(provider ai.Provider, template ai.ChatRequest) graph.StepFunc {
	return func(ctx context.Context, state graph.State) (graph.Update, error) {
		view, err := View(state)
		if err != nil {
			return nil, err
		}
		request := template
		request.Messages = []ai.Message{ai.NewUserMessage(view.Input)}

		response, err := ai.SendObserved(ctx, provider, request)
		if err != nil {
			return nil, fmt.Errorf("answer input: %w", err)
		}
		return graph.Update{FieldOutput: response.Content}, nil
	}
}

func fixedAnswer(answer string) graph.StepFunc {
	return func(ctx context.Context, state graph.State) (graph.Update, error) {
		return graph.Update{FieldOutput: answer}, nil
	}
}

// FinalAnswer extracts the answer of a finished run: the output field of the
// input/output workflows or the last assistant text of the message workflows.
// It returns [NoAnswer] when there is none.
func FinalAnswer(state graph.State) string {
	if view, err := View(state); err == nil && strings.TrimSpace(view.Output) != "" {
		return view.Output
	}
	if answer, ok := react.FinalAnswer(state); ok {
		return answer
	}
	return NoAnswer
}

// Input builds the initial values of workflow for question: a message
// history for message based graphs, the input field otherwise.
func Input(workflow *graph.Graph, question string) map[string]any {
	if workflow.Schema().Has(react.FieldMessages) {
		return react.Input(question)
	}
	return map[string]any{FieldInput: question}
}

// Ask runs workflow on question and returns its final answer.
func Ask(ctx context.Context, workflow *graph.Graph, question string, opts ...graph.RunOption) (string, *graph.RunResult, error) {
	result, err := workflow.Invoke(ctx, Input(workflow, question), opts...)
	if err != nil {
		return "", nil, err
	}
	return FinalAnswer(result.State), result, nil
}

// --- Options ---

type config struct {
	name           string
	systemPrompt   string
	model          string
	generation     *ai.GenerationConfig
	maxActivations int
	observer       observability.Provider
}

// Option configures a workflow constructor.
type Option func(*config)

func newConfig(name string, opts []Option) config {
	c := config{name: name}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) graphOptions() []graph.Option {
	return []graph.Option{
		graph.WithName(c.name),
		graph.WithObserver(c.observer),
		graph.WithDefaultMaxActivations(c.maxActivations),
	}
}

func (c config) reactOptions() []react.Option {
	return []react.Option{
		react.WithName(c.name),
		react.WithSystemPrompt(c.systemPrompt),
		react.WithModel(c.model),
		react.WithGenerationConfig(c.generation),
		react.WithMaxActivations(c.maxActivations),
		react.WithObserver(c.observer),
	}
}

func (c config) request() ai.ChatRequest {
	return ai.ChatRequest{
		Model:            c.model,
		SystemPrompt:     c.systemPrompt,
		GenerationConfig: c.generation,
	}
}

// WithSystemPrompt overrides the workflow's system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *config) { c.systemPrompt = prompt }
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithGenerationConfig overrides the provider's sampling parameters.
func WithGenerationConfig(generation *ai.GenerationConfig) Option {
	return func(c *config) { c.generation = generation }
}

// WithMaxActivations sets the default Loop Guard budget of the workflow.
func WithMaxActivations(limit int) Option {
	return func(c *config) { c.maxActivations = limit }
}

// WithObserver attaches an observability provider to every run.
func WithObserver(observer observability.Provider) Option {
	return func(c *config) { c.observer = observer }
}

// WithName overrides the graph label used in logs and metrics.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}
